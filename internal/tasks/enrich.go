package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/mtrack/internal/models"
	"github.com/desertthunder/mtrack/internal/shared"
	"golang.org/x/time/rate"
)

// CatalogSource looks up catalog details by external id.
type CatalogSource interface {
	GetDetails(ctx context.Context, id int, kind models.CatalogKind) (*models.CatalogItem, error)
}

// EnrichOpts configures a library enrichment run.
type EnrichOpts struct {
	Kind       models.CatalogKind // Library kind to enrich: anime or manga
	NumWorkers int                // Concurrent workers (default: 3, max: 10)
	RateLimit  float64            // Catalog requests per second (default: 2)
	DryRun     bool               // Report changes without writing them
}

// EnrichResult is the outcome for a single record.
type EnrichResult struct {
	ID      int64
	Title   string
	Updated bool
	Err     error
}

// EnrichSummary totals an enrichment run.
type EnrichSummary struct {
	Total   int
	Updated int
	Skipped int
	Failed  int
	Results []EnrichResult
}

type enrichJob struct {
	id    int64
	title string
	malID int
	apply func(*models.CatalogItem) bool
	save  func(context.Context) error
}

// Enricher fills missing catalog fields on locally tracked anime and manga.
type Enricher struct {
	catalog CatalogSource
	anime   models.Repository[models.Anime]
	manga   models.Repository[models.Manga]
}

// NewEnricher creates an enricher.
func NewEnricher(catalog CatalogSource, anime models.Repository[models.Anime], manga models.Repository[models.Manga]) *Enricher {
	return &Enricher{catalog: catalog, anime: anime, manga: manga}
}

// Enrich runs a rate-limited worker pool over every record of opts.Kind that carries a mal_id.
//
// Only empty fields are filled. Per-record failures are collected on the summary.
func (e *Enricher) Enrich(ctx context.Context, prog chan<- ProgressUpdate, opts EnrichOpts) (*EnrichSummary, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog client not initialized", shared.ErrServiceUnavailable)
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}

	jobList, err := e.loadJobs(ctx, opts)
	if err != nil {
		return nil, err
	}
	sendProgress(prog, loadRecordsUpdate(len(jobList), string(opts.Kind)))

	summary := &EnrichSummary{Total: len(jobList), Results: make([]EnrichResult, 0, len(jobList))}
	if len(jobList) == 0 {
		return summary, nil
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan enrichJob, len(jobList))
	results := make(chan EnrichResult, len(jobList))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.enrichWorker(ctx, &wg, limiter, jobs, results, opts)
	}

	for _, j := range jobList {
		jobs <- j
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		summary.Results = append(summary.Results, res)
		switch {
		case res.Err != nil:
			summary.Failed++
		case res.Updated:
			summary.Updated++
		default:
			summary.Skipped++
		}
		sendProgress(prog, enrichedUpdate(completed, len(jobList), res))
	}

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (e *Enricher) enrichWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan enrichJob,
	results chan<- EnrichResult,
	opts EnrichOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res := EnrichResult{ID: job.id, Title: job.title}
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		item, err := e.catalog.GetDetails(ctx, job.malID, opts.Kind)
		if err != nil {
			res.Err = fmt.Errorf("lookup %d: %w", job.malID, err)
			results <- res
			continue
		}

		if !job.apply(item) {
			results <- res
			continue
		}
		if !opts.DryRun {
			if err := job.save(ctx); err != nil {
				res.Err = fmt.Errorf("save: %w", err)
				results <- res
				continue
			}
		}
		res.Updated = true
		results <- res
	}
}

func (e *Enricher) loadJobs(ctx context.Context, opts EnrichOpts) ([]enrichJob, error) {
	var out []enrichJob
	switch opts.Kind {
	case models.CatalogAnime:
		if e.anime == nil {
			return nil, fmt.Errorf("%w: anime repository not initialized", shared.ErrServiceUnavailable)
		}
		records, err := e.listAllAnime(ctx)
		if err != nil {
			return nil, err
		}
		for i := range records {
			a := &records[i]
			if a.MalID == nil || *a.MalID <= 0 {
				continue
			}
			out = append(out, enrichJob{
				id: a.ID, title: a.Title, malID: *a.MalID,
				apply: func(item *models.CatalogItem) bool { return FillAnime(a, item) },
				save:  func(ctx context.Context) error { return e.anime.Update(ctx, a) },
			})
		}
	case models.CatalogManga:
		if e.manga == nil {
			return nil, fmt.Errorf("%w: manga repository not initialized", shared.ErrServiceUnavailable)
		}
		records, err := e.listAllManga(ctx)
		if err != nil {
			return nil, err
		}
		for i := range records {
			m := &records[i]
			if m.MalID == nil || *m.MalID <= 0 {
				continue
			}
			out = append(out, enrichJob{
				id: m.ID, title: m.Title, malID: *m.MalID,
				apply: func(item *models.CatalogItem) bool { return FillManga(m, item) },
				save:  func(ctx context.Context) error { return e.manga.Update(ctx, m) },
			})
		}
	default:
		return nil, fmt.Errorf("%w: cannot enrich kind %q", shared.ErrInvalidInput, opts.Kind)
	}
	return out, nil
}

func (e *Enricher) listAllAnime(ctx context.Context) ([]models.Anime, error) {
	var all []models.Anime
	for skip := 0; ; skip += models.DefaultListLimit {
		page, err := e.anime.List(ctx, models.ListOptions{Skip: skip, Limit: models.DefaultListLimit})
		if err != nil {
			return nil, fmt.Errorf("list anime: %w", err)
		}
		all = append(all, page...)
		if len(page) < models.DefaultListLimit {
			return all, nil
		}
	}
}

func (e *Enricher) listAllManga(ctx context.Context) ([]models.Manga, error) {
	var all []models.Manga
	for skip := 0; ; skip += models.DefaultListLimit {
		page, err := e.manga.List(ctx, models.ListOptions{Skip: skip, Limit: models.DefaultListLimit})
		if err != nil {
			return nil, fmt.Errorf("list manga: %w", err)
		}
		all = append(all, page...)
		if len(page) < models.DefaultListLimit {
			return all, nil
		}
	}
}

// FillAnime copies catalog values into empty fields of a and reports whether anything changed.
func FillAnime(a *models.Anime, item *models.CatalogItem) bool {
	changed := false
	changed = fillString(&a.TitleEnglish, item.TitleLocalized) || changed
	changed = fillString(&a.Synopsis, item.Synopsis) || changed
	changed = fillString(&a.ImageURL, item.ImageURL) || changed
	changed = fillInt(&a.Episodes, item.LengthCount) || changed
	return changed
}

// FillManga copies catalog values into empty fields of m and reports whether anything changed.
func FillManga(m *models.Manga, item *models.CatalogItem) bool {
	changed := false
	changed = fillString(&m.ImageURL, item.ImageURL) || changed
	changed = fillInt(&m.TotalChapters, item.LengthCount) || changed
	changed = fillInt(&m.TotalVolumes, item.Volumes) || changed
	return changed
}

func fillString(dst **string, src *string) bool {
	if (*dst != nil && **dst != "") || src == nil || *src == "" {
		return false
	}
	v := *src
	*dst = &v
	return true
}

func fillInt(dst **int, src *int) bool {
	if *dst != nil || src == nil {
		return false
	}
	v := *src
	*dst = &v
	return true
}
