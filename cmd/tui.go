package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mtrack/internal/shared"
	"github.com/desertthunder/mtrack/internal/tasks"
	"github.com/desertthunder/mtrack/internal/ui"
	"github.com/urfave/cli/v3"
)

const tuiLogPath = "./tmp/mtrack-tui.log"

// TUI launches the interactive library browser.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Logs go to a file so they never draw over the UI.
	fileLogger, err := shared.NewFileLogger(tuiLogPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	lib, err := r.openLibrary()
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, lib, tasks.NewEnricher(r.catalog, lib.Anime, lib.Manga))
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
