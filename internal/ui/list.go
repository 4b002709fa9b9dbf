package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/mtrack/internal/formatter"
	"github.com/desertthunder/mtrack/internal/models"
)

var _ list.Item = entryItem{}

// entryItem wraps [models.LibraryEntry] to implement [list.Item].
type entryItem struct {
	entry models.LibraryEntry
}

func (i entryItem) FilterValue() string {
	return strings.TrimSpace(i.entry.Title + " " + i.entry.Subtitle)
}

func (i entryItem) Title() string { return i.entry.Title }

func (i entryItem) Description() string {
	parts := []string{formatter.StatusLabel(i.entry.Status), i.entry.Progress}
	if i.entry.Score != nil {
		parts = append(parts, fmt.Sprintf("★ %g", *i.entry.Score))
	}
	if i.entry.Subtitle != "" {
		parts = append(parts, i.entry.Subtitle)
	}
	return strings.Join(parts, " • ")
}

func entryItems(entries []models.LibraryEntry) []list.Item {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = entryItem{entry: e}
	}
	return items
}
