package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/mtrack/internal/models"
	"github.com/desertthunder/mtrack/internal/shared"
	"github.com/urfave/cli/v3"
)

// CatalogSearch searches anime or manga titles by name.
func (r *Runner) CatalogSearch(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}
	kind, err := models.ParseCatalogKind(cmd.String("kind"))
	if err != nil {
		return err
	}

	items, err := r.catalog.SearchTitles(ctx, query, kind, cmd.Int("limit"))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(items, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("%s results for %q (%d)", kind, query, len(items)))
	for i, item := range items {
		r.writePlain("%2d. %s\n", i+1, catalogLine(item))
	}
	return nil
}

// CatalogDetails shows one title by its catalog id.
func (r *Runner) CatalogDetails(ctx context.Context, cmd *cli.Command) error {
	raw := strings.TrimSpace(cmd.StringArg("id"))
	if raw == "" {
		return fmt.Errorf("%w: catalog id", shared.ErrMissingArgument)
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return fmt.Errorf("%w: catalog id must be a positive integer, got %q", shared.ErrInvalidArgument, raw)
	}
	kind, err := models.ParseCatalogKind(cmd.String("kind"))
	if err != nil {
		return err
	}

	item, err := r.catalog.GetDetails(ctx, id, kind)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(item, cmd.Bool("pretty"))
	}

	r.writePlainHeader(item.Title)
	if item.TitleLocalized != nil {
		r.writePlain("English: %s\n", *item.TitleLocalized)
	}
	if item.TitleJapanese != nil {
		r.writePlain("Japanese: %s\n", *item.TitleJapanese)
	}
	if item.Status != nil {
		r.writePlain("Status: %s\n", *item.Status)
	}
	if item.LengthCount != nil {
		r.writePlain("Length: %d %s\n", *item.LengthCount, item.LengthUnit)
	}
	if item.Volumes != nil {
		r.writePlain("Volumes: %d\n", *item.Volumes)
	}
	if item.Score != nil {
		r.writePlain("Score: %.2f\n", *item.Score)
	}
	if len(item.Genres) > 0 {
		r.writePlain("Genres: %s\n", strings.Join(item.Genres, ", "))
	}
	if item.Synopsis != nil {
		r.writePlainln("%s", *item.Synopsis)
	}
	return nil
}

// CatalogTrending lists currently airing anime or top manga.
func (r *Runner) CatalogTrending(ctx context.Context, cmd *cli.Command) error {
	kind, err := models.ParseCatalogKind(cmd.String("kind"))
	if err != nil {
		return err
	}

	result := r.catalog.Trending(ctx, kind, cmd.Int("limit"))
	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Trending %s", kind))
	for i, item := range result.Items {
		r.writePlain("%2d. %s\n", i+1, catalogLine(item))
	}
	for _, f := range result.Failures {
		r.writePlain("⚠ %s: %s\n", f.Source, f.Error)
	}
	return nil
}

func catalogLine(item models.CatalogItem) string {
	line := fmt.Sprintf("[%d] %s", item.ExternalID, item.Title)
	if item.Score != nil {
		line += fmt.Sprintf(" (%.2f)", *item.Score)
	}
	if item.PeriodString != nil {
		line += " " + *item.PeriodString
	}
	return line
}
