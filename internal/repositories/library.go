package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/mtrack/internal/models"
)

// AnimeRepository persists [models.Anime].
type AnimeRepository struct{ store[models.Anime] }

// MangaRepository persists [models.Manga].
type MangaRepository struct{ store[models.Manga] }

// GameRepository persists [models.Game].
type GameRepository struct{ store[models.Game] }

// MusicRepository persists [models.Music].
type MusicRepository struct{ store[models.Music] }

// NewAnimeRepository creates an AnimeRepository. Search matches title and title_english.
func NewAnimeRepository(db *sql.DB) *AnimeRepository {
	return &AnimeRepository{newStore(db, table[models.Anime]{
		name:    "anime",
		kind:    models.KindAnime,
		columns: []string{"title", "title_english", "synopsis", "image_url", "episodes", "current_episode", "status", "user_score", "notes", "mal_id"},
		search:  []string{"title", "title_english"},
		values: func(a *models.Anime) []any {
			return []any{a.Title, a.TitleEnglish, a.Synopsis, a.ImageURL, a.Episodes, a.CurrentEpisode, a.Status, a.UserScore, a.Notes, a.MalID}
		},
		scan: func(row rowScanner) (a models.Anime, err error) {
			err = row.Scan(&a.ID, &a.Title, &a.TitleEnglish, &a.Synopsis, &a.ImageURL, &a.Episodes, &a.CurrentEpisode,
				&a.Status, &a.UserScore, &a.Notes, &a.MalID, &a.CreatedAt, &a.UpdatedAt)
			return a, err
		},
		meta: func(a *models.Anime) (*int64, *models.Timestamps) { return &a.ID, &a.Timestamps },
	})}
}

// NewMangaRepository creates a MangaRepository.
func NewMangaRepository(db *sql.DB) *MangaRepository {
	return &MangaRepository{newStore(db, table[models.Manga]{
		name:    "manga",
		kind:    models.KindManga,
		columns: []string{"title", "current_chapter", "current_volume", "total_chapters", "total_volumes", "status", "rating", "notes", "image_url", "mal_id"},
		search:  []string{"title"},
		values: func(m *models.Manga) []any {
			return []any{m.Title, m.CurrentChapter, m.CurrentVolume, m.TotalChapters, m.TotalVolumes, m.Status, m.Rating, m.Notes, m.ImageURL, m.MalID}
		},
		scan: func(row rowScanner) (m models.Manga, err error) {
			err = row.Scan(&m.ID, &m.Title, &m.CurrentChapter, &m.CurrentVolume, &m.TotalChapters, &m.TotalVolumes,
				&m.Status, &m.Rating, &m.Notes, &m.ImageURL, &m.MalID, &m.CreatedAt, &m.UpdatedAt)
			return m, err
		},
		meta: func(m *models.Manga) (*int64, *models.Timestamps) { return &m.ID, &m.Timestamps },
	})}
}

// NewGameRepository creates a GameRepository.
func NewGameRepository(db *sql.DB) *GameRepository {
	return &GameRepository{newStore(db, table[models.Game]{
		name:    "games",
		kind:    models.KindGame,
		columns: []string{"title", "cover_url", "status", "user_score", "playtime_hours", "notes"},
		search:  []string{"title"},
		values: func(g *models.Game) []any {
			return []any{g.Title, g.CoverURL, g.Status, g.UserScore, g.PlaytimeHours, g.Notes}
		},
		scan: func(row rowScanner) (g models.Game, err error) {
			err = row.Scan(&g.ID, &g.Title, &g.CoverURL, &g.Status, &g.UserScore, &g.PlaytimeHours, &g.Notes, &g.CreatedAt, &g.UpdatedAt)
			return g, err
		},
		meta: func(g *models.Game) (*int64, *models.Timestamps) { return &g.ID, &g.Timestamps },
	})}
}

// NewMusicRepository creates a MusicRepository. Search matches title and artist.
func NewMusicRepository(db *sql.DB) *MusicRepository {
	return &MusicRepository{newStore(db, table[models.Music]{
		name:    "music",
		kind:    models.KindMusic,
		columns: []string{"title", "artist", "album", "status", "play_count", "favorite", "notes", "image_url", "spotify_id"},
		search:  []string{"title", "artist"},
		values: func(m *models.Music) []any {
			return []any{m.Title, m.Artist, m.Album, m.Status, m.PlayCount, m.Favorite, m.Notes, m.ImageURL, m.SpotifyID}
		},
		scan: func(row rowScanner) (m models.Music, err error) {
			err = row.Scan(&m.ID, &m.Title, &m.Artist, &m.Album, &m.Status, &m.PlayCount, &m.Favorite,
				&m.Notes, &m.ImageURL, &m.SpotifyID, &m.CreatedAt, &m.UpdatedAt)
			return m, err
		},
		meta: func(m *models.Music) (*int64, *models.Timestamps) { return &m.ID, &m.Timestamps },
	})}
}

// Library groups the per-kind repositories over one database.
type Library struct {
	db    *sql.DB
	Anime *AnimeRepository
	Manga *MangaRepository
	Games *GameRepository
	Music *MusicRepository
}

// NewLibrary creates every repository over db.
func NewLibrary(db *sql.DB) *Library {
	return &Library{
		db:    db,
		Anime: NewAnimeRepository(db),
		Manga: NewMangaRepository(db),
		Games: NewGameRepository(db),
		Music: NewMusicRepository(db),
	}
}

// Entries lists kind-agnostic summaries of one kind, most recently updated first.
func (l *Library) Entries(ctx context.Context, kind models.Kind, opts models.ListOptions) ([]models.LibraryEntry, error) {
	switch kind {
	case models.KindAnime:
		return entries(l.Anime.List(ctx, opts))
	case models.KindManga:
		return entries(l.Manga.List(ctx, opts))
	case models.KindGame:
		return entries(l.Games.List(ctx, opts))
	case models.KindMusic:
		return entries(l.Music.List(ctx, opts))
	}
	return nil, fmt.Errorf("unknown kind %q", kind)
}

func entries[T models.Record](records []T, err error) ([]models.LibraryEntry, error) {
	if err != nil {
		return nil, err
	}
	out := make([]models.LibraryEntry, len(records))
	for i, r := range records {
		out[i] = r.Entry()
	}
	return out, nil
}

// Stats summarizes the library with one aggregate query per table.
func (l *Library) Stats(ctx context.Context) (*models.LibraryStats, error) {
	var s models.LibraryStats

	err := l.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(status = 'watching'), 0),
			COALESCE(SUM(status = 'completed'), 0),
			COALESCE(SUM(status = 'plan_to_watch'), 0),
			COALESCE(SUM(status = 'dropped'), 0),
			COALESCE(SUM(current_episode), 0)
		FROM anime`).Scan(&s.TotalAnime, &s.AnimeWatching, &s.AnimeCompleted, &s.AnimePlanToWatch, &s.AnimeDropped, &s.TotalEpisodesWatched)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate anime: %w", err)
	}

	err = l.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(status = 'reading'), 0),
			COALESCE(SUM(status = 'completed'), 0),
			COALESCE(SUM(status = 'plan_to_read'), 0),
			COALESCE(SUM(status = 'dropped'), 0),
			COALESCE(SUM(current_chapter), 0),
			COALESCE(SUM(current_volume), 0)
		FROM manga`).Scan(&s.TotalManga, &s.MangaReading, &s.MangaCompleted, &s.MangaPlanToRead, &s.MangaDropped,
		&s.TotalChaptersRead, &s.TotalVolumesRead)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate manga: %w", err)
	}

	var hours float64
	err = l.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(status = 'playing'), 0),
			COALESCE(SUM(status = 'completed'), 0),
			COALESCE(SUM(playtime_hours), 0.0)
		FROM games`).Scan(&s.TotalGames, &s.GamesPlaying, &s.GamesCompleted, &hours)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate games: %w", err)
	}
	s.TotalPlaytimeHours = int(hours)

	err = l.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(status = 'listening'), 0),
			COALESCE(SUM(status = 'completed'), 0),
			COALESCE(SUM(favorite), 0),
			COALESCE(SUM(play_count), 0)
		FROM music`).Scan(&s.TotalMusic, &s.MusicListening, &s.MusicCompleted, &s.MusicFavorites, &s.TotalPlays)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate music: %w", err)
	}

	return &s, nil
}
