// package tasks composes catalog and streaming calls into derived views and long-running library jobs.
//
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mtrack/internal/models"
	"github.com/desertthunder/mtrack/internal/shared"
	"golang.org/x/sync/errgroup"
)

const (
	statsTopLimit      = 10
	topGenreCount      = 5
	followedFetchLimit = 50
	releaseArtistLimit = 20
	releasesPerArtist  = 3
	releaseResultLimit = 20
	defaultWorkers     = 5
)

// StreamingSource is the subset of the streaming client the aggregator composes.
type StreamingSource interface {
	GetTopTracks(ctx context.Context, timeRange models.TimeRange, limit int) ([]models.TopTrack, error)
	GetTopArtists(ctx context.Context, timeRange models.TimeRange, limit int) ([]models.StreamingArtist, error)
	SavedTracksTotal(ctx context.Context) (int, error)
	PlaylistsTotal(ctx context.Context) (int, error)
	FollowedArtistsTotal(ctx context.Context) (int, error)
	GetFollowedArtists(ctx context.Context, limit int) (*models.Page[models.StreamingArtist], error)
	ArtistAlbums(ctx context.Context, artistID string, limit int) ([]models.StreamingAlbum, error)
}

// Aggregator builds views that no single upstream endpoint offers.
type Aggregator struct {
	streaming StreamingSource
	workers   int
	logger    *log.Logger
}

// AggregatorOption configures an [Aggregator].
type AggregatorOption func(*Aggregator)

// WithWorkers bounds concurrent per-artist fetches in [Aggregator.NewReleases].
func WithWorkers(n int) AggregatorOption {
	return func(a *Aggregator) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) AggregatorOption {
	return func(a *Aggregator) { a.logger = l }
}

// NewAggregator creates an aggregator over streaming.
func NewAggregator(streaming StreamingSource, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		streaming: streaming,
		workers:   defaultWorkers,
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// UserStats gathers a year-in-review summary from seven concurrent fetches.
//
// Any failing fetch fails the whole call and cancels the others; partial stats are never returned.
func (a *Aggregator) UserStats(ctx context.Context, progress chan<- ProgressUpdate) (*models.WrappedStats, error) {
	if a.streaming == nil {
		return nil, fmt.Errorf("%w: streaming client not initialized", shared.ErrServiceUnavailable)
	}

	var (
		stats       models.WrappedStats
		tracksShort []models.TopTrack
		tracksLong  []models.TopTrack
		artistShort []models.StreamingArtist
		artistLong  []models.StreamingArtist
		done        atomic.Int32
	)
	const fetches = 7

	g, gctx := errgroup.WithContext(ctx)
	fetch := func(name string, fn func(context.Context) error) {
		g.Go(func() error {
			if err := fn(gctx); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			sendProgress(progress, fetchStatsUpdate(int(done.Add(1)), fetches, name))
			return nil
		})
	}

	fetch("top tracks (short term)", func(ctx context.Context) (err error) {
		tracksShort, err = a.streaming.GetTopTracks(ctx, models.ShortTerm, statsTopLimit)
		return err
	})
	fetch("top tracks (long term)", func(ctx context.Context) (err error) {
		tracksLong, err = a.streaming.GetTopTracks(ctx, models.LongTerm, statsTopLimit)
		return err
	})
	fetch("top artists (short term)", func(ctx context.Context) (err error) {
		artistShort, err = a.streaming.GetTopArtists(ctx, models.ShortTerm, statsTopLimit)
		return err
	})
	fetch("top artists (long term)", func(ctx context.Context) (err error) {
		artistLong, err = a.streaming.GetTopArtists(ctx, models.LongTerm, statsTopLimit)
		return err
	})
	fetch("saved tracks", func(ctx context.Context) (err error) {
		stats.TotalSavedTracks, err = a.streaming.SavedTracksTotal(ctx)
		return err
	})
	fetch("playlists", func(ctx context.Context) (err error) {
		stats.TotalPlaylists, err = a.streaming.PlaylistsTotal(ctx)
		return err
	})
	fetch("followed artists", func(ctx context.Context) (err error) {
		stats.TotalFollowedArtist, err = a.streaming.FollowedArtistsTotal(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		a.logger.Warn("user stats failed", "error", err)
		return nil, err
	}

	stats.TopTracksMonth = trackSummaries(tracksShort)
	stats.TopTracksAllTime = trackSummaries(tracksLong)
	stats.TopArtistsMonth = artistSummaries(artistShort)
	stats.TopArtistsAllTime = artistSummaries(artistLong)
	stats.TopGenres = TopGenres(artistLong, topGenreCount)
	return &stats, nil
}

// NewReleases lists recent albums and singles from the first followed artists, newest first.
//
// The followed-artists lookup must succeed. Each per-artist lookup is independent: a failure is
// recorded on the result and the remaining artists are still merged.
func (a *Aggregator) NewReleases(ctx context.Context, progress chan<- ProgressUpdate) (models.BestEffort[models.StreamingAlbum], error) {
	result := models.BestEffort[models.StreamingAlbum]{Items: []models.StreamingAlbum{}}
	if a.streaming == nil {
		return result, fmt.Errorf("%w: streaming client not initialized", shared.ErrServiceUnavailable)
	}

	followed, err := a.streaming.GetFollowedArtists(ctx, followedFetchLimit)
	if err != nil {
		return result, fmt.Errorf("followed artists: %w", err)
	}

	artists := followed.Items
	if len(artists) > releaseArtistLimit {
		artists = artists[:releaseArtistLimit]
	}
	sendProgress(progress, fetchFollowedUpdate(len(artists)))

	albums := make([][]models.StreamingAlbum, len(artists))
	errs := make([]error, len(artists))
	var done atomic.Int32

	var g errgroup.Group
	g.SetLimit(a.workers)
	for i, artist := range artists {
		g.Go(func() error {
			albums[i], errs[i] = a.streaming.ArtistAlbums(ctx, artist.ID, releasesPerArtist)
			step := int(done.Add(1))
			if errs[i] != nil {
				sendProgress(progress, releaseFailedUpdate(step, len(artists), artist.Name, errs[i]))
			} else {
				sendProgress(progress, releaseFetchedUpdate(step, len(artists), artist.Name, len(albums[i])))
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, artist := range artists {
		if errs[i] != nil {
			a.logger.Warn("skipping artist releases", "artist", artist.Name, "error", errs[i])
			result.Fail("artist:"+artist.ID, errs[i])
			continue
		}
		result.Items = append(result.Items, albums[i]...)
	}

	SortReleases(result.Items)
	if len(result.Items) > releaseResultLimit {
		result.Items = result.Items[:releaseResultLimit]
	}
	return result, nil
}

// SortReleases orders albums by release date, newest first. ISO dates of any precision compare lexicographically.
func SortReleases(albums []models.StreamingAlbum) {
	sort.SliceStable(albums, func(i, j int) bool {
		return albums[i].ReleaseDate > albums[j].ReleaseDate
	})
}

// TopGenres counts genre occurrences across artists and returns the n most common.
// Ties keep the order in which genres were first seen.
func TopGenres(artists []models.StreamingArtist, n int) []models.GenreCount {
	counts := make(map[string]int)
	var order []string
	for _, artist := range artists {
		for _, genre := range artist.Genres {
			if _, ok := counts[genre]; !ok {
				order = append(order, genre)
			}
			counts[genre]++
		}
	}

	genres := make([]models.GenreCount, 0, len(order))
	for _, g := range order {
		genres = append(genres, models.GenreCount{Genre: g, Count: counts[g]})
	}
	sort.SliceStable(genres, func(i, j int) bool {
		return genres[i].Count > genres[j].Count
	})
	if len(genres) > n {
		genres = genres[:n]
	}
	return genres
}

func trackSummaries(tracks []models.TopTrack) []models.TrackSummary {
	out := make([]models.TrackSummary, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, models.TrackSummary{Name: t.Name, Artist: t.Artist, ImageURL: t.ImageURL})
	}
	return out
}

func artistSummaries(artists []models.StreamingArtist) []models.ArtistSummary {
	out := make([]models.ArtistSummary, 0, len(artists))
	for _, a := range artists {
		out = append(out, models.ArtistSummary{Name: a.Name, ImageURL: a.ImageURL})
	}
	return out
}
