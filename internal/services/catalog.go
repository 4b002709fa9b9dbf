package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mtrack/internal/models"
	"github.com/desertthunder/mtrack/internal/shared"
	"golang.org/x/time/rate"
)

const (
	catalogService      = "jikan"
	defaultCatalogURL   = "https://api.jikan.moe/v4"
	defaultCatalogLimit = 10
)

type jikanImageSet struct {
	ImageURL      string `json:"image_url"`
	SmallImageURL string `json:"small_image_url"`
	LargeImageURL string `json:"large_image_url"`
}

type jikanNamed struct {
	MalID int    `json:"mal_id"`
	Name  string `json:"name"`
}

type jikanPeriod struct {
	String *string `json:"string"`
}

// jikanEntry covers both anime and manga payloads; fields absent for a kind stay nil.
type jikanEntry struct {
	MalID         int     `json:"mal_id"`
	Title         string  `json:"title"`
	TitleEnglish  *string `json:"title_english"`
	TitleJapanese *string `json:"title_japanese"`
	Synopsis      *string `json:"synopsis"`
	Images        struct {
		JPG  jikanImageSet `json:"jpg"`
		WebP jikanImageSet `json:"webp"`
	} `json:"images"`
	Episodes       *int         `json:"episodes"`
	Chapters       *int         `json:"chapters"`
	Volumes        *int         `json:"volumes"`
	Score          *float64     `json:"score"`
	Genres         []jikanNamed `json:"genres"`
	ExplicitGenres []jikanNamed `json:"explicit_genres"`
	Status         *string      `json:"status"`
	Aired          *jikanPeriod `json:"aired"`
	Published      *jikanPeriod `json:"published"`
}

type jikanListResponse struct {
	Data []jikanEntry `json:"data"`
}

type jikanResponse struct {
	Data jikanEntry `json:"data"`
}

// CatalogClient queries the public, unauthenticated Jikan API.
type CatalogClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  *log.Logger
}

// CatalogOption configures a [CatalogClient].
type CatalogOption func(*CatalogClient)

// WithCatalogHTTPClient replaces the HTTP client, e.g. to shorten timeouts in tests.
func WithCatalogHTTPClient(c *http.Client) CatalogOption {
	return func(cc *CatalogClient) { cc.http = c }
}

// WithCatalogLogger sets the logger.
func WithCatalogLogger(l *log.Logger) CatalogOption {
	return func(cc *CatalogClient) { cc.logger = l }
}

// NewCatalogClient builds a client from configuration. A zero RequestsPerSecond disables pacing.
func NewCatalogClient(cfg shared.CatalogConfig, opts ...CatalogOption) *CatalogClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultCatalogURL
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	c := &CatalogClient{
		baseURL: baseURL,
		http:    newHTTPClient(cfg.Timeout()),
		limiter: rate.NewLimiter(limit, 1),
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchTitles searches the catalog by title. Blank queries are sent as-is; upstream decides validity.
func (c *CatalogClient) SearchTitles(ctx context.Context, query string, kind models.CatalogKind, limit int) ([]models.CatalogItem, error) {
	if limit <= 0 {
		limit = defaultCatalogLimit
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))

	var resp jikanListResponse
	if err := c.get(ctx, "/"+string(kind), q, &resp); err != nil {
		return nil, err
	}
	return normalizeAll(kind, resp.Data), nil
}

// GetDetails fetches one entry by its catalog ID.
func (c *CatalogClient) GetDetails(ctx context.Context, id int, kind models.CatalogKind) (*models.CatalogItem, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: catalog id must be positive", shared.ErrInvalidInput)
	}

	var resp jikanResponse
	if err := c.get(ctx, fmt.Sprintf("/%s/%d", kind, id), nil, &resp); err != nil {
		return nil, err
	}
	item := normalizeEntry(kind, resp.Data)
	return &item, nil
}

// Trending lists the current season's anime or the top manga.
//
// Failures never reach the caller: they are logged and recorded on the result.
func (c *CatalogClient) Trending(ctx context.Context, kind models.CatalogKind, limit int) models.BestEffort[models.CatalogItem] {
	if limit <= 0 {
		limit = defaultCatalogLimit
	}
	path := "/seasons/now"
	if kind == models.CatalogManga {
		path = "/top/manga"
	}

	result := models.BestEffort[models.CatalogItem]{Items: []models.CatalogItem{}}

	var resp jikanListResponse
	if err := c.get(ctx, path, url.Values{"limit": {strconv.Itoa(limit)}}, &resp); err != nil {
		c.logger.Warn("trending fetch failed", "kind", kind, "error", err)
		result.Fail(catalogService+path, err)
		return result
	}

	data := resp.Data
	if len(data) > limit {
		data = data[:limit]
	}
	result.Items = normalizeAll(kind, data)
	return result
}

func (c *CatalogClient) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return shared.TransportError(catalogService, err)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug("catalog request", "path", path)
	return getJSON(c.http, req, catalogService, out)
}

func normalizeAll(kind models.CatalogKind, entries []jikanEntry) []models.CatalogItem {
	items := make([]models.CatalogItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, normalizeEntry(kind, e))
	}
	return items
}

func normalizeEntry(kind models.CatalogKind, e jikanEntry) models.CatalogItem {
	item := models.CatalogItem{
		ExternalID:     e.MalID,
		Kind:           kind,
		Title:          e.Title,
		TitleLocalized: nonEmpty(e.TitleEnglish),
		TitleJapanese:  nonEmpty(e.TitleJapanese),
		Synopsis:       nonEmpty(e.Synopsis),
		ImageURL:       largestImage(e.Images.JPG, e.Images.WebP),
		LengthUnit:     kind.LengthUnit(),
		Score:          e.Score,
		Genres:         genreNames(e.Genres, e.ExplicitGenres),
		Status:         nonEmpty(e.Status),
	}

	switch kind {
	case models.CatalogManga:
		item.LengthCount = e.Chapters
		item.Volumes = e.Volumes
		if e.Published != nil {
			item.PeriodString = nonEmpty(e.Published.String)
		}
	default:
		item.LengthCount = e.Episodes
		if e.Aired != nil {
			item.PeriodString = nonEmpty(e.Aired.String)
		}
	}
	return item
}

// genreNames flattens genre objects to unique, trimmed names in upstream order, list by list.
func genreNames(lists ...[]jikanNamed) []string {
	names := []string{}
	seen := map[string]bool{}
	for _, genres := range lists {
		for _, g := range genres {
			name := strings.TrimSpace(g.Name)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// largestImage picks the biggest rendition offered, preferring JPEG at equal size.
func largestImage(jpg, webp jikanImageSet) *string {
	for _, u := range []string{
		jpg.LargeImageURL, webp.LargeImageURL,
		jpg.ImageURL, webp.ImageURL,
		jpg.SmallImageURL, webp.SmallImageURL,
	} {
		if u = strings.TrimSpace(u); u != "" {
			return &u
		}
	}
	return nil
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
