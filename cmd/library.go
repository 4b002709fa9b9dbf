package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/mtrack/internal/formatter"
	"github.com/desertthunder/mtrack/internal/models"
	"github.com/desertthunder/mtrack/internal/tasks"
	"github.com/urfave/cli/v3"
)

// kindsFromFlag returns the single kind named by --kind, or every kind when it is empty.
func kindsFromFlag(cmd *cli.Command) ([]models.Kind, error) {
	raw := cmd.String("kind")
	if raw == "" {
		return models.Kinds, nil
	}
	kind, err := models.ParseKind(raw)
	if err != nil {
		return nil, err
	}
	return []models.Kind{kind}, nil
}

func (r *Runner) collectEntries(ctx context.Context, kinds []models.Kind, opts models.ListOptions) ([]models.LibraryEntry, error) {
	lib, err := r.openLibrary()
	if err != nil {
		return nil, err
	}

	all := []models.LibraryEntry{}
	for _, kind := range kinds {
		entries, err := lib.Entries(ctx, kind, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", kind, err)
		}
		all = append(all, entries...)
	}
	return all, nil
}

// LibraryList prints tracked entries grouped by kind.
func (r *Runner) LibraryList(ctx context.Context, cmd *cli.Command) error {
	kinds, err := kindsFromFlag(cmd)
	if err != nil {
		return err
	}
	entries, err := r.collectEntries(ctx, kinds, models.ListOptions{Status: cmd.String("status"), Limit: cmd.Int("limit")})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, cmd.Bool("pretty"))
	}
	if len(entries) == 0 {
		return r.writePlain("No entries found\n")
	}

	current := models.Kind("")
	for _, e := range entries {
		if e.Kind != current {
			current = e.Kind
			r.writePlainln("%s", formatter.KindLabel(current))
		}
		line := fmt.Sprintf("  [%d] %s", e.ID, e.Title)
		if e.Subtitle != "" {
			line += " (" + e.Subtitle + ")"
		}
		r.writePlain("%s · %s · %s\n", line, formatter.StatusLabel(e.Status), e.Progress)
	}
	return nil
}

// LibraryExport writes the library to a file in the chosen format.
func (r *Runner) LibraryExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	kinds, err := kindsFromFlag(cmd)
	if err != nil {
		return err
	}
	entries, err := r.collectEntries(ctx, kinds, models.ListOptions{Limit: exportLimit})
	if err != nil {
		return err
	}

	path, err := formatter.WriteExport(entries, format, cmd.String("output"), cmd.String("title"))
	if err != nil {
		return err
	}
	r.logger.Info("library exported", "path", path, "format", format, "entries", len(entries))
	return r.writePlain("✓ Exported %d entries to %s\n", len(entries), path)
}

// exportLimit caps the rows read per kind for an export.
const exportLimit = 100_000

// LibraryStats prints the library totals.
func (r *Runner) LibraryStats(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.openLibrary()
	if err != nil {
		return err
	}
	stats, err := lib.Stats(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(stats, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Library")
	r.writePlain("Anime: %d (watching %d, completed %d, planned %d, dropped %d)\n",
		stats.TotalAnime, stats.AnimeWatching, stats.AnimeCompleted, stats.AnimePlanToWatch, stats.AnimeDropped)
	r.writePlain("Manga: %d (reading %d, completed %d, planned %d, dropped %d)\n",
		stats.TotalManga, stats.MangaReading, stats.MangaCompleted, stats.MangaPlanToRead, stats.MangaDropped)
	r.writePlain("Games: %d (playing %d, completed %d)\n", stats.TotalGames, stats.GamesPlaying, stats.GamesCompleted)
	r.writePlain("Music: %d (listening %d, completed %d, favorites %d)\n",
		stats.TotalMusic, stats.MusicListening, stats.MusicCompleted, stats.MusicFavorites)
	r.writePlainln("Episodes watched: %d", stats.TotalEpisodesWatched)
	r.writePlain("Chapters read: %d\n", stats.TotalChaptersRead)
	r.writePlain("Volumes read: %d\n", stats.TotalVolumesRead)
	r.writePlain("Hours played: %d\n", stats.TotalPlaytimeHours)
	r.writePlain("Plays: %d\n", stats.TotalPlays)
	return nil
}

// LibraryEnrich fills missing catalog metadata on anime or manga entries.
func (r *Runner) LibraryEnrich(ctx context.Context, cmd *cli.Command) error {
	kind, err := models.ParseCatalogKind(cmd.String("kind"))
	if err != nil {
		return err
	}
	lib, err := r.openLibrary()
	if err != nil {
		return err
	}

	enricher := tasks.NewEnricher(r.catalog, lib.Anime, lib.Manga)
	opts := tasks.EnrichOpts{
		Kind:       kind,
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
		DryRun:     cmd.Bool("dry-run"),
	}

	progress, stop := r.printProgress(cmd.Bool("quiet"))
	summary, err := enricher.Enrich(ctx, progress, opts)
	stop()
	if err != nil {
		return err
	}

	for _, res := range summary.Results {
		if res.Err != nil {
			r.writePlain("✗ [%d] %s: %v\n", res.ID, res.Title, res.Err)
		}
	}

	verb := "Updated"
	if opts.DryRun {
		verb = "Would update"
	}
	return r.writePlain("\n%s %d of %d %s entries (%d unchanged, %d failed)\n",
		verb, summary.Updated, summary.Total, kind, summary.Skipped, summary.Failed)
}
