package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/mtrack/internal/models"
	"github.com/desertthunder/mtrack/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

// steppingClock returns a clock that advances one second per call.
func steppingClock() func() time.Time {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestAnimeRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create", func(t *testing.T) {
		repo := NewAnimeRepository(setupTestDB(t))
		anime := &models.Anime{Title: "Frieren", Episodes: intPtr(28)}

		if err := repo.Create(ctx, anime); err != nil {
			t.Fatalf("failed to create anime: %v", err)
		}
		if anime.ID == 0 {
			t.Error("ID should be set after creation")
		}
		if anime.Status != models.AnimePlanToWatch {
			t.Errorf("expected default status, got %q", anime.Status)
		}
		if anime.CreatedAt.IsZero() || !anime.UpdatedAt.Equal(anime.CreatedAt) {
			t.Errorf("unexpected timestamps %v / %v", anime.CreatedAt, anime.UpdatedAt)
		}
	})

	t.Run("Create rejects invalid records", func(t *testing.T) {
		repo := NewAnimeRepository(setupTestDB(t))
		for name, anime := range map[string]*models.Anime{
			"empty title":    {Title: ""},
			"unknown status": {Title: "x", Status: "reading"},
			"score too high": {Title: "x", UserScore: func() *float64 { f := 11.0; return &f }()},
		} {
			t.Run(name, func(t *testing.T) {
				if err := repo.Create(ctx, anime); !errors.Is(err, shared.ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
			})
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewAnimeRepository(setupTestDB(t))
		anime := &models.Anime{Title: "Mushishi", TitleEnglish: strPtr("Mushi-Shi"), MalID: intPtr(457)}
		if err := repo.Create(ctx, anime); err != nil {
			t.Fatalf("failed to create anime: %v", err)
		}

		got, err := repo.Get(ctx, anime.ID)
		if err != nil {
			t.Fatalf("failed to get anime: %v", err)
		}
		if got.Title != "Mushishi" || *got.TitleEnglish != "Mushi-Shi" || *got.MalID != 457 {
			t.Errorf("unexpected anime %+v", got)
		}
		if got.Synopsis != nil || got.Episodes != nil {
			t.Error("NULL columns should scan as nil")
		}
		if !got.CreatedAt.Equal(anime.CreatedAt) {
			t.Errorf("created_at did not round trip: %v vs %v", got.CreatedAt, anime.CreatedAt)
		}
	})

	t.Run("Get missing", func(t *testing.T) {
		repo := NewAnimeRepository(setupTestDB(t))
		if _, err := repo.Get(ctx, 999); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewAnimeRepository(setupTestDB(t))
		repo.now = steppingClock()

		anime := &models.Anime{Title: "Frieren"}
		if err := repo.Create(ctx, anime); err != nil {
			t.Fatalf("failed to create anime: %v", err)
		}
		created := anime.CreatedAt

		replacement := &models.Anime{ID: anime.ID, Title: "Frieren", CurrentEpisode: 12, Status: models.AnimeWatching}
		if err := repo.Update(ctx, replacement); err != nil {
			t.Fatalf("failed to update anime: %v", err)
		}
		if !replacement.CreatedAt.Equal(created) {
			t.Errorf("created_at should be preserved, got %v", replacement.CreatedAt)
		}
		if !replacement.UpdatedAt.After(created) {
			t.Errorf("updated_at should move forward, got %v", replacement.UpdatedAt)
		}

		got, _ := repo.Get(ctx, anime.ID)
		if got.CurrentEpisode != 12 || got.Status != models.AnimeWatching {
			t.Errorf("update not persisted: %+v", got)
		}
	})

	t.Run("Update missing", func(t *testing.T) {
		repo := NewAnimeRepository(setupTestDB(t))
		if err := repo.Update(ctx, &models.Anime{ID: 42, Title: "x", Status: models.AnimeWatching}); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewAnimeRepository(setupTestDB(t))
		anime := &models.Anime{Title: "Frieren"}
		if err := repo.Create(ctx, anime); err != nil {
			t.Fatalf("failed to create anime: %v", err)
		}

		if err := repo.Delete(ctx, anime.ID); err != nil {
			t.Fatalf("failed to delete anime: %v", err)
		}
		if _, err := repo.Get(ctx, anime.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected deleted anime to be gone, got %v", err)
		}
		if err := repo.Delete(ctx, anime.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("second delete should be ErrNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewAnimeRepository(setupTestDB(t))
		repo.now = steppingClock()

		for _, a := range []*models.Anime{
			{Title: "First", Status: models.AnimeCompleted},
			{Title: "Second", Status: models.AnimeWatching},
			{Title: "Third", Status: models.AnimeWatching},
		} {
			if err := repo.Create(ctx, a); err != nil {
				t.Fatalf("failed to create anime: %v", err)
			}
		}

		all, err := repo.List(ctx, models.ListOptions{})
		if err != nil {
			t.Fatalf("failed to list anime: %v", err)
		}
		if len(all) != 3 || all[0].Title != "Third" || all[2].Title != "First" {
			t.Errorf("expected most recent first, got %v", titles(all))
		}

		watching, _ := repo.List(ctx, models.ListOptions{Status: models.AnimeWatching})
		if len(watching) != 2 {
			t.Errorf("expected 2 watching, got %d", len(watching))
		}

		page, _ := repo.List(ctx, models.ListOptions{Skip: 1, Limit: 1})
		if len(page) != 1 || page[0].Title != "Second" {
			t.Errorf("unexpected page %v", titles(page))
		}

		none, _ := repo.List(ctx, models.ListOptions{Status: models.AnimeDropped})
		if none == nil || len(none) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", none)
		}
	})

	t.Run("Search", func(t *testing.T) {
		repo := NewAnimeRepository(setupTestDB(t))
		for _, a := range []*models.Anime{
			{Title: "Shingeki no Kyojin", TitleEnglish: strPtr("Attack on Titan")},
			{Title: "Sousou no Frieren"},
			{Title: "100%_Pascal-sensei"},
		} {
			if err := repo.Create(ctx, a); err != nil {
				t.Fatalf("failed to create anime: %v", err)
			}
		}

		tc := []struct {
			term string
			want int
		}{
			{"titan", 1},
			{"NO", 2},
			{"frieren", 1},
			{"%", 1},
			{"_", 1},
			{"zzz", 0},
		}
		for _, tt := range tc {
			got, err := repo.Search(ctx, tt.term)
			if err != nil {
				t.Fatalf("Search(%q) error = %v", tt.term, err)
			}
			if len(got) != tt.want {
				t.Errorf("Search(%q) = %v, want %d results", tt.term, titles(got), tt.want)
			}
		}
	})
}

func TestMangaRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMangaRepository(setupTestDB(t))

	manga := &models.Manga{Title: "Berserk", CurrentChapter: 120, CurrentVolume: 14, Rating: 9.5, TotalVolumes: intPtr(42)}
	if err := repo.Create(ctx, manga); err != nil {
		t.Fatalf("failed to create manga: %v", err)
	}
	if manga.Status != models.MangaPlanToRead {
		t.Errorf("expected default status, got %q", manga.Status)
	}

	got, err := repo.Get(ctx, manga.ID)
	if err != nil {
		t.Fatalf("failed to get manga: %v", err)
	}
	if got.CurrentChapter != 120 || got.Rating != 9.5 || *got.TotalVolumes != 42 || got.TotalChapters != nil {
		t.Errorf("unexpected manga %+v", got)
	}

	if err := repo.Create(ctx, &models.Manga{Title: "x", CurrentChapter: -1}); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("negative chapter should be rejected, got %v", err)
	}
}

func TestGameRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGameRepository(setupTestDB(t))

	game := &models.Game{Title: "Outer Wilds", PlaytimeHours: 22.5, Status: models.GameCompleted}
	if err := repo.Create(ctx, game); err != nil {
		t.Fatalf("failed to create game: %v", err)
	}
	got, err := repo.Get(ctx, game.ID)
	if err != nil {
		t.Fatalf("failed to get game: %v", err)
	}
	if got.PlaytimeHours != 22.5 || got.CoverURL != nil {
		t.Errorf("unexpected game %+v", got)
	}
}

func TestMusicRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMusicRepository(setupTestDB(t))

	for _, m := range []*models.Music{
		{Title: "Alison", Artist: "Slowdive", Favorite: true, SpotifyID: strPtr("4Yx")},
		{Title: "When the Sun Hits", Artist: "Slowdive"},
		{Title: "Only Shallow", Artist: "My Bloody Valentine"},
	} {
		if err := repo.Create(ctx, m); err != nil {
			t.Fatalf("failed to create music: %v", err)
		}
	}

	got, err := repo.Search(ctx, "slowdive")
	if err != nil {
		t.Fatalf("failed to search music: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("search should match artist, got %d results", len(got))
	}

	all, _ := repo.List(ctx, models.ListOptions{})
	for _, m := range all {
		if m.Title == "Alison" && (!m.Favorite || m.SpotifyID == nil || *m.SpotifyID != "4Yx") {
			t.Errorf("unexpected round trip %+v", m)
		}
	}

	if err := repo.Create(ctx, &models.Music{Title: "No artist"}); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("missing artist should be rejected, got %v", err)
	}
}

func TestLibrary(t *testing.T) {
	ctx := context.Background()

	t.Run("Stats on an empty library", func(t *testing.T) {
		stats, err := NewLibrary(setupTestDB(t)).Stats(ctx)
		if err != nil {
			t.Fatalf("Stats() error = %v", err)
		}
		if *stats != (models.LibraryStats{}) {
			t.Errorf("expected zero stats, got %+v", stats)
		}
	})

	t.Run("Stats", func(t *testing.T) {
		lib := NewLibrary(setupTestDB(t))
		mustCreate(t, lib.Anime.Create(ctx, &models.Anime{Title: "A", Status: models.AnimeWatching, CurrentEpisode: 5}))
		mustCreate(t, lib.Anime.Create(ctx, &models.Anime{Title: "B", Status: models.AnimeCompleted, CurrentEpisode: 12}))
		mustCreate(t, lib.Anime.Create(ctx, &models.Anime{Title: "C"}))
		mustCreate(t, lib.Manga.Create(ctx, &models.Manga{Title: "D", Status: models.MangaReading, CurrentChapter: 30, CurrentVolume: 3}))
		mustCreate(t, lib.Games.Create(ctx, &models.Game{Title: "E", Status: models.GamePlaying, PlaytimeHours: 10.5}))
		mustCreate(t, lib.Games.Create(ctx, &models.Game{Title: "F", Status: models.GameCompleted, PlaytimeHours: 40}))
		mustCreate(t, lib.Music.Create(ctx, &models.Music{Title: "G", Artist: "H", PlayCount: 7, Favorite: true}))

		stats, err := lib.Stats(ctx)
		if err != nil {
			t.Fatalf("Stats() error = %v", err)
		}

		want := models.LibraryStats{
			TotalAnime: 3, TotalManga: 1, TotalGames: 2, TotalMusic: 1,
			AnimeWatching: 1, AnimeCompleted: 1, AnimePlanToWatch: 1,
			MangaReading:   1,
			GamesPlaying:   1, GamesCompleted: 1,
			MusicListening: 1, MusicFavorites: 1,
			TotalEpisodesWatched: 17, TotalChaptersRead: 30, TotalVolumesRead: 3,
			TotalPlaytimeHours: 50, TotalPlays: 7,
		}
		if *stats != want {
			t.Errorf("Stats() = %+v\nwant %+v", *stats, want)
		}
	})

	t.Run("Entries", func(t *testing.T) {
		lib := NewLibrary(setupTestDB(t))
		mustCreate(t, lib.Music.Create(ctx, &models.Music{Title: "Alison", Artist: "Slowdive", Album: strPtr("Souvlaki")}))

		entries, err := lib.Entries(ctx, models.KindMusic, models.ListOptions{})
		if err != nil {
			t.Fatalf("Entries() error = %v", err)
		}
		if len(entries) != 1 || entries[0].Subtitle != "Slowdive · Souvlaki" || entries[0].Kind != models.KindMusic {
			t.Errorf("unexpected entries %+v", entries)
		}

		if _, err := lib.Entries(ctx, "books", models.ListOptions{}); err == nil {
			t.Error("expected unknown kind error")
		}
	})
}

func mustCreate(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("failed to create record: %v", err)
	}
}

func titles(anime []models.Anime) []string {
	out := make([]string, len(anime))
	for i, a := range anime {
		out[i] = a.Title
	}
	return out
}
