package services

// rankThresholds maps a minimum follower count to an approximate global rank, largest first.
var rankThresholds = []struct {
	followers int
	rank      int
}{
	{80_000_000, 1},
	{50_000_000, 5},
	{30_000_000, 10},
	{20_000_000, 20},
	{10_000_000, 50},
	{5_000_000, 100},
	{2_000_000, 500},
	{1_000_000, 1000},
	{500_000, 5000},
	{100_000, 10000},
}

const lowestRank = 50000

// CalculateArtistRank estimates an artist's popularity rank from follower count. Lower is more popular.
func CalculateArtistRank(followers int) int {
	for _, t := range rankThresholds {
		if followers >= t.followers {
			return t.rank
		}
	}
	return lowestRank
}
