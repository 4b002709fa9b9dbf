package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mtrack/internal/models"
	"github.com/desertthunder/mtrack/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgEntriesFetched MsgKind = iota
	MsgStatsFetched
	MsgProgressUpdate
	MsgEnrichComplete
)

type entriesFetched struct {
	kind    models.Kind
	entries []models.LibraryEntry
	err     error
}

type statsFetched struct {
	stats *models.LibraryStats
	err   error
}

type enrichComplete struct {
	summary *tasks.EnrichSummary
	err     error
}

// entriesFetchedMsg is the constructor for [MsgEntriesFetched]
func entriesFetchedMsg(kind models.Kind, entries []models.LibraryEntry, err error) Msg {
	return Msg{kind: MsgEntriesFetched, data: entriesFetched{kind, entries, err}}
}

// statsFetchedMsg is the constructor for [MsgStatsFetched]
func statsFetchedMsg(stats *models.LibraryStats, err error) Msg {
	return Msg{kind: MsgStatsFetched, data: statsFetched{stats, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// enrichCompleteMsg is the constructor for [MsgEnrichComplete]
func enrichCompleteMsg(summary *tasks.EnrichSummary, err error) Msg {
	return Msg{kind: MsgEnrichComplete, data: enrichComplete{summary, err}}
}
