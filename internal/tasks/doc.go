// Package tasks composes upstream calls into derived views and runs long-running library jobs.
//
// # Aggregations
//
// [Aggregator] builds two views that no single streaming endpoint offers:
//
//  1. [Aggregator.UserStats] : year-in-review summary
//     - Top tracks and artists for the short and long term ranges
//     - Saved track, playlist and followed artist totals
//     - Top genres counted from long-term artists
//     - Seven concurrent fetches; any failure fails the whole call
//
//  2. [Aggregator.NewReleases] : latest albums and singles from followed artists
//     - Per-artist lookups run on a bounded pool
//     - A failing artist is recorded on the result and the rest are merged
//     - Sorted by release date, newest first, truncated to 20
//
// # Enrichment
//
// [Enricher.Enrich] fills missing catalog fields on tracked anime and manga through a
// rate-limited worker pool. Only records carrying a mal_id are considered.
//
// # Progress Reporting
//
// Operations accept an optional progress channel. Updates are sent with select/default so a slow
// or absent reader never blocks work.
package tasks
