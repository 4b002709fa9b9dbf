package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/desertthunder/mtrack/internal/models"
	"github.com/desertthunder/mtrack/internal/shared"
	tu "github.com/desertthunder/mtrack/internal/testing"
)

const frierenEntry = `{
	"mal_id": 52991,
	"title": "Sousou no Frieren",
	"title_english": "Frieren: Beyond Journey's End",
	"title_japanese": "葬送のフリーレン",
	"synopsis": "An elf mage outlives her party.",
	"images": {
		"jpg": {"image_url": "https://cdn/jpg/m.jpg", "small_image_url": "https://cdn/jpg/s.jpg", "large_image_url": "https://cdn/jpg/l.jpg"},
		"webp": {"image_url": "https://cdn/webp/m.webp", "large_image_url": "https://cdn/webp/l.webp"}
	},
	"episodes": 28,
	"score": 9.3,
	"genres": [{"mal_id": 2, "name": "Adventure"}, {"mal_id": 8, "name": "Drama"}, {"mal_id": 2, "name": "Adventure"}, {"mal_id": 10, "name": " Fantasy "}],
	"explicit_genres": [{"mal_id": 8, "name": "Drama"}, {"mal_id": 49, "name": "Erotica"}],
	"status": "Finished Airing",
	"aired": {"string": "Sep 29, 2023 to Mar 22, 2024"}
}`

const frierenJSON = `{"data":` + frierenEntry + `}`

const bersekJSON = `{"data":{
	"mal_id": 2,
	"title": "Berserk",
	"title_english": null,
	"images": {"jpg": {"image_url": "https://cdn/jpg/berserk.jpg"}},
	"chapters": null,
	"volumes": null,
	"score": null,
	"genres": [],
	"status": "Publishing",
	"published": {"string": "Aug 25, 1989 to ?"}
}}`

func newTestCatalog(u *tu.Upstream) *CatalogClient {
	return NewCatalogClient(shared.CatalogConfig{BaseURL: u.URL, TimeoutSeconds: 2})
}

func TestCatalogClient(t *testing.T) {
	t.Run("SearchTitles", func(t *testing.T) {
		t.Run("normalizes results", func(t *testing.T) {
			u := tu.NewUpstream(t, map[string]string{
				"/anime": `{"data":[` + frierenEntry + `]}`,
			})
			items, err := newTestCatalog(u).SearchTitles(context.Background(), "frieren", models.CatalogAnime, 5)
			if err != nil {
				t.Fatalf("SearchTitles() error = %v", err)
			}
			if len(items) != 1 {
				t.Fatalf("expected 1 item, got %d", len(items))
			}

			req := u.Requests()[0]
			if req.URL.Query().Get("q") != "frieren" || req.URL.Query().Get("limit") != "5" {
				t.Errorf("unexpected query %s", req.URL.RawQuery)
			}
			if req.Header.Get("User-Agent") == "" {
				t.Error("expected a User-Agent header")
			}
		})

		t.Run("zero matches is empty, not an error", func(t *testing.T) {
			u := tu.NewUpstream(t, map[string]string{"/manga": `{"data":[],"pagination":{"has_next_page":false}}`})
			items, err := newTestCatalog(u).SearchTitles(context.Background(), "zzzz", models.CatalogManga, 10)
			if err != nil {
				t.Fatalf("SearchTitles() error = %v", err)
			}
			if items == nil || len(items) != 0 {
				t.Errorf("expected empty non-nil slice, got %#v", items)
			}
		})

		t.Run("blank query is still sent", func(t *testing.T) {
			u := tu.NewUpstream(t, map[string]string{"/anime": `{"data":[]}`})
			if _, err := newTestCatalog(u).SearchTitles(context.Background(), "   ", models.CatalogAnime, 10); err != nil {
				t.Fatalf("SearchTitles() error = %v", err)
			}
			if u.Hits("/anime") != 1 {
				t.Errorf("expected the request to reach upstream")
			}
		})

		t.Run("upstream failure", func(t *testing.T) {
			u := tu.NewUpstream(t, nil)
			u.Set("/anime", http.StatusInternalServerError, `{"message":"boom"}`)
			_, err := newTestCatalog(u).SearchTitles(context.Background(), "x", models.CatalogAnime, 10)
			if !errors.Is(err, shared.ErrUpstream) {
				t.Fatalf("expected ErrUpstream, got %v", err)
			}
			var ue *shared.UpstreamError
			if !errors.As(err, &ue) || ue.StatusCode != 500 {
				t.Errorf("expected status to be carried, got %v", err)
			}
		})
	})

	t.Run("GetDetails", func(t *testing.T) {
		t.Run("anime", func(t *testing.T) {
			u := tu.NewUpstream(t, map[string]string{"/anime/52991": frierenJSON})
			item, err := newTestCatalog(u).GetDetails(context.Background(), 52991, models.CatalogAnime)
			if err != nil {
				t.Fatalf("GetDetails() error = %v", err)
			}

			if item.ExternalID != 52991 || item.Title != "Sousou no Frieren" {
				t.Errorf("unexpected identity %+v", item)
			}
			if item.TitleLocalized == nil || *item.TitleLocalized != "Frieren: Beyond Journey's End" {
				t.Errorf("unexpected localized title %v", item.TitleLocalized)
			}
			if item.ImageURL == nil || *item.ImageURL != "https://cdn/jpg/l.jpg" {
				t.Errorf("expected largest image, got %v", item.ImageURL)
			}
			if item.LengthUnit != models.UnitEpisodes || item.LengthCount == nil || *item.LengthCount != 28 {
				t.Errorf("unexpected length %s %v", item.LengthUnit, item.LengthCount)
			}
			want := []string{"Adventure", "Drama", "Fantasy", "Erotica"}
			if len(item.Genres) != len(want) {
				t.Fatalf("expected genres %v, got %v", want, item.Genres)
			}
			for i := range want {
				if item.Genres[i] != want[i] {
					t.Errorf("genre %d: want %s, got %s", i, want[i], item.Genres[i])
				}
			}
			if item.PeriodString == nil || *item.PeriodString != "Sep 29, 2023 to Mar 22, 2024" {
				t.Errorf("unexpected period %v", item.PeriodString)
			}
		})

		t.Run("manga with missing fields", func(t *testing.T) {
			u := tu.NewUpstream(t, map[string]string{"/manga/2": bersekJSON})
			item, err := newTestCatalog(u).GetDetails(context.Background(), 2, models.CatalogManga)
			if err != nil {
				t.Fatalf("GetDetails() error = %v", err)
			}
			if item.Score != nil {
				t.Errorf("missing score should stay absent, got %v", *item.Score)
			}
			if item.LengthCount != nil || item.Volumes != nil {
				t.Errorf("missing chapters/volumes should stay absent")
			}
			if item.TitleLocalized != nil {
				t.Errorf("null english title should stay absent")
			}
			if item.LengthUnit != models.UnitChapters {
				t.Errorf("expected chapters unit, got %s", item.LengthUnit)
			}
			if item.ImageURL == nil || *item.ImageURL != "https://cdn/jpg/berserk.jpg" {
				t.Errorf("expected fallback image, got %v", item.ImageURL)
			}
			if item.PeriodString == nil || *item.PeriodString != "Aug 25, 1989 to ?" {
				t.Errorf("unexpected published string %v", item.PeriodString)
			}
		})

		t.Run("nonexistent id is NotFound", func(t *testing.T) {
			u := tu.NewUpstream(t, nil)
			_, err := newTestCatalog(u).GetDetails(context.Background(), 999999, models.CatalogAnime)
			if !errors.Is(err, shared.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if errors.Is(err, shared.ErrUpstream) {
				t.Error("not found must not be reported as a generic upstream error")
			}
		})

		t.Run("invalid id", func(t *testing.T) {
			u := tu.NewUpstream(t, nil)
			if _, err := newTestCatalog(u).GetDetails(context.Background(), 0, models.CatalogAnime); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
			if len(u.Requests()) != 0 {
				t.Error("invalid id should not reach upstream")
			}
		})

		t.Run("timeout", func(t *testing.T) {
			u := tu.NewUpstream(t, nil)
			client := NewCatalogClient(shared.CatalogConfig{BaseURL: u.URL, TimeoutSeconds: 1},
				WithCatalogHTTPClient(&http.Client{Timeout: time.Nanosecond}))
			_, err := client.GetDetails(context.Background(), 1, models.CatalogAnime)
			if !errors.Is(err, shared.ErrTimeout) {
				t.Errorf("expected ErrTimeout, got %v", err)
			}
			if !errors.Is(err, shared.ErrUpstream) {
				t.Errorf("timeout should also match ErrUpstream, got %v", err)
			}
		})
	})

	t.Run("Trending", func(t *testing.T) {
		t.Run("truncates to limit", func(t *testing.T) {
			u := tu.NewUpstream(t, map[string]string{
				"/seasons/now": `{"data":[{"mal_id":1,"title":"A"},{"mal_id":2,"title":"B"},{"mal_id":3,"title":"C"}]}`,
			})
			res := newTestCatalog(u).Trending(context.Background(), models.CatalogAnime, 2)
			if res.Degraded() {
				t.Fatalf("unexpected failures %v", res.Failures)
			}
			if len(res.Items) != 2 || res.Items[1].Title != "B" {
				t.Errorf("unexpected items %+v", res.Items)
			}
		})

		t.Run("manga uses top listing", func(t *testing.T) {
			u := tu.NewUpstream(t, map[string]string{"/top/manga": `{"data":[{"mal_id":2,"title":"Berserk","chapters":null}]}`})
			res := newTestCatalog(u).Trending(context.Background(), models.CatalogManga, 10)
			if len(res.Items) != 1 || res.Items[0].Kind != models.CatalogManga {
				t.Errorf("unexpected items %+v", res.Items)
			}
		})

		t.Run("failure degrades to empty", func(t *testing.T) {
			u := tu.NewUpstream(t, nil)
			u.Set("/seasons/now", http.StatusTooManyRequests, `{}`)
			res := newTestCatalog(u).Trending(context.Background(), models.CatalogAnime, 10)
			if len(res.Items) != 0 || res.Items == nil {
				t.Errorf("expected empty items, got %#v", res.Items)
			}
			if !res.Degraded() {
				t.Error("expected failure to be recorded")
			}
		})
	})
}

func TestParseCatalogKind(t *testing.T) {
	if k, err := models.ParseCatalogKind("Manga"); err != nil || k != models.CatalogManga {
		t.Errorf("ParseCatalogKind(Manga) = %v, %v", k, err)
	}
	if _, err := models.ParseCatalogKind("games"); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
