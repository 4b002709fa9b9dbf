// Package ui implements a terminal browser for the local library using bubbletea's Elm architecture.
//
// The TUI has a small set of views:
//  1. [ListView] : Browse one kind at a time, switching kinds with tab
//  2. [DetailView] : Inspect a single entry
//  3. [StatsView] : Library totals
//  4. [ConfirmView] : Confirm a catalog enrichment run (anime and manga only)
//  5. [EnrichView] : Watch enrichment progress
//  6. [ResultView] : Enrichment summary and failures
//
// The [Model] receives messages via the [Msg] union type. Enrichment progress flows through a
// channel from [tasks.Enricher], the same way the CLI reports it.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help from
// charmbracelet/bubbles/help.
package ui
