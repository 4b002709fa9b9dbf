package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchStats Phase = iota
	FetchFollowed
	FetchReleases
	LoadRecords
	EnrichRecords
)

func (p Phase) String() string {
	switch p {
	case FetchStats:
		return "fetch_stats"
	case FetchFollowed:
		return "fetch_followed"
	case FetchReleases:
		return "fetch_releases"
	case LoadRecords:
		return "load_records"
	case EnrichRecords:
		return "enrich_records"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func fetchStatsUpdate(step, total int, source string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchStats,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetched %s", step, total, source),
	}
}

func fetchFollowedUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchFollowed,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d followed artists", count),
	}
}

func releaseFetchedUpdate(step, total int, artist string, albums int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchReleases,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d releases)", step, total, artist, albums),
	}
}

func releaseFailedUpdate(step, total int, artist string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchReleases,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, artist, err),
	}
}

func loadRecordsUpdate(total int, kind string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadRecords,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loaded %d %s records", total, kind),
	}
}

func enrichedUpdate(step, total int, res EnrichResult) ProgressUpdate {
	mark := "·"
	switch {
	case res.Err != nil:
		mark = "✗"
	case res.Updated:
		mark = "✓"
	}
	msg := fmt.Sprintf("[%d/%d] %s %s", step, total, mark, res.Title)
	if res.Err != nil {
		msg += fmt.Sprintf(": %v", res.Err)
	}
	return ProgressUpdate{
		Phase:   EnrichRecords,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    res,
	}
}
