package models

import (
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/mtrack/internal/shared"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Anime watch statuses.
const (
	AnimePlanToWatch = "plan_to_watch"
	AnimeWatching    = "watching"
	AnimeCompleted   = "completed"
	AnimeDropped     = "dropped"
)

// Manga read statuses.
const (
	MangaPlanToRead = "plan_to_read"
	MangaReading    = "reading"
	MangaCompleted  = "completed"
	MangaDropped    = "dropped"
)

// Game play statuses.
const (
	GamePlanToPlay = "plan_to_play"
	GamePlaying    = "playing"
	GameCompleted  = "completed"
	GameDropped    = "dropped"
)

// Music listen statuses.
const (
	MusicListening    = "listening"
	MusicCompleted    = "completed"
	MusicDropped      = "dropped"
	MusicPlanToListen = "plan_to_listen"
)

// Statuses returns the allowed statuses for kind, default first.
func Statuses(kind Kind) []string {
	switch kind {
	case KindAnime:
		return []string{AnimePlanToWatch, AnimeWatching, AnimeCompleted, AnimeDropped}
	case KindManga:
		return []string{MangaPlanToRead, MangaReading, MangaCompleted, MangaDropped}
	case KindGame:
		return []string{GamePlanToPlay, GamePlaying, GameCompleted, GameDropped}
	case KindMusic:
		return []string{MusicListening, MusicCompleted, MusicDropped, MusicPlanToListen}
	}
	return nil
}

func statusRule(kind Kind) validation.Rule {
	allowed := Statuses(kind)
	values := make([]any, len(allowed))
	for i, s := range allowed {
		values[i] = s
	}
	return validation.In(values...).Error("must be one of the " + string(kind) + " statuses")
}

var scoreRules = []validation.Rule{validation.Min(0.0), validation.Max(10.0)}

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
}

// Anime is a tracked series.
type Anime struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	TitleEnglish   *string  `json:"title_english"`
	Synopsis       *string  `json:"synopsis"`
	ImageURL       *string  `json:"image_url"`
	Episodes       *int     `json:"episodes"`
	CurrentEpisode int      `json:"current_episode"`
	Status         string   `json:"status"`
	UserScore      *float64 `json:"user_score"`
	Notes          *string  `json:"notes"`
	MalID          *int     `json:"mal_id"`
	Timestamps
}

// NewAnime returns an Anime with default status.
func NewAnime(title string) *Anime {
	return &Anime{Title: title, Status: AnimePlanToWatch}
}

func (a Anime) RecordID() int64 { return a.ID }

// ApplyDefaults fills an empty status.
func (a *Anime) ApplyDefaults() {
	if a.Status == "" {
		a.Status = AnimePlanToWatch
	}
}

func (a Anime) Validate() error {
	return invalid(validation.ValidateStruct(&a,
		validation.Field(&a.Title, validation.Required, validation.Length(1, 500)),
		validation.Field(&a.Status, validation.Required, statusRule(KindAnime)),
		validation.Field(&a.Episodes, validation.Min(0)),
		validation.Field(&a.CurrentEpisode, validation.Min(0)),
		validation.Field(&a.UserScore, scoreRules...),
	))
}

func (a Anime) Entry() LibraryEntry {
	progress := fmt.Sprintf("%d eps", a.CurrentEpisode)
	if a.Episodes != nil {
		progress = fmt.Sprintf("%d/%d eps", a.CurrentEpisode, *a.Episodes)
	}
	return LibraryEntry{
		Kind: KindAnime, ID: a.ID, Title: a.Title, Subtitle: deref(a.TitleEnglish),
		Status: a.Status, Progress: progress, Score: a.UserScore,
		ImageURL: deref(a.ImageURL), Notes: deref(a.Notes), UpdatedAt: a.UpdatedAt,
	}
}

// Manga is a tracked series read by chapter and volume.
type Manga struct {
	ID             int64   `json:"id"`
	Title          string  `json:"title"`
	CurrentChapter int     `json:"current_chapter"`
	CurrentVolume  int     `json:"current_volume"`
	TotalChapters  *int    `json:"total_chapters"`
	TotalVolumes   *int    `json:"total_volumes"`
	Status         string  `json:"status"`
	Rating         float64 `json:"rating"`
	Notes          *string `json:"notes"`
	ImageURL       *string `json:"image_url"`
	MalID          *int    `json:"mal_id"`
	Timestamps
}

// NewManga returns a Manga with default status.
func NewManga(title string) *Manga {
	return &Manga{Title: title, Status: MangaPlanToRead}
}

func (m Manga) RecordID() int64 { return m.ID }

// ApplyDefaults fills an empty status.
func (m *Manga) ApplyDefaults() {
	if m.Status == "" {
		m.Status = MangaPlanToRead
	}
}

func (m Manga) Validate() error {
	return invalid(validation.ValidateStruct(&m,
		validation.Field(&m.Title, validation.Required, validation.Length(1, 500)),
		validation.Field(&m.Status, validation.Required, statusRule(KindManga)),
		validation.Field(&m.CurrentChapter, validation.Min(0)),
		validation.Field(&m.CurrentVolume, validation.Min(0)),
		validation.Field(&m.TotalChapters, validation.Min(0)),
		validation.Field(&m.TotalVolumes, validation.Min(0)),
		validation.Field(&m.Rating, scoreRules...),
	))
}

func (m Manga) Entry() LibraryEntry {
	progress := fmt.Sprintf("ch %d", m.CurrentChapter)
	if m.TotalChapters != nil {
		progress += "/" + strconv.Itoa(*m.TotalChapters)
	}
	progress += fmt.Sprintf(" · vol %d", m.CurrentVolume)
	rating := m.Rating
	return LibraryEntry{
		Kind: KindManga, ID: m.ID, Title: m.Title,
		Status: m.Status, Progress: progress, Score: &rating,
		ImageURL: deref(m.ImageURL), Notes: deref(m.Notes), UpdatedAt: m.UpdatedAt,
	}
}

// Game is a tracked video game.
type Game struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	CoverURL      *string  `json:"cover_url"`
	Status        string   `json:"status"`
	UserScore     *float64 `json:"user_score"`
	PlaytimeHours float64  `json:"playtime_hours"`
	Notes         *string  `json:"notes"`
	Timestamps
}

// NewGame returns a Game with default status.
func NewGame(title string) *Game {
	return &Game{Title: title, Status: GamePlanToPlay}
}

func (g Game) RecordID() int64 { return g.ID }

// ApplyDefaults fills an empty status.
func (g *Game) ApplyDefaults() {
	if g.Status == "" {
		g.Status = GamePlanToPlay
	}
}

func (g Game) Validate() error {
	return invalid(validation.ValidateStruct(&g,
		validation.Field(&g.Title, validation.Required, validation.Length(1, 500)),
		validation.Field(&g.Status, validation.Required, statusRule(KindGame)),
		validation.Field(&g.UserScore, scoreRules...),
		validation.Field(&g.PlaytimeHours, validation.Min(0.0)),
	))
}

func (g Game) Entry() LibraryEntry {
	return LibraryEntry{
		Kind: KindGame, ID: g.ID, Title: g.Title,
		Status: g.Status, Progress: strconv.FormatFloat(g.PlaytimeHours, 'f', -1, 64) + " h", Score: g.UserScore,
		ImageURL: deref(g.CoverURL), Notes: deref(g.Notes), UpdatedAt: g.UpdatedAt,
	}
}

// Music is a tracked song or album, optionally linked to a streaming ID.
type Music struct {
	ID        int64   `json:"id"`
	Title     string  `json:"title"`
	Artist    string  `json:"artist"`
	Album     *string `json:"album"`
	Status    string  `json:"status"`
	PlayCount int     `json:"play_count"`
	Favorite  bool    `json:"favorite"`
	Notes     *string `json:"notes"`
	ImageURL  *string `json:"image_url"`
	SpotifyID *string `json:"spotify_id"`
	Timestamps
}

// NewMusic returns a Music record with default status.
func NewMusic(title, artist string) *Music {
	return &Music{Title: title, Artist: artist, Status: MusicListening}
}

func (m Music) RecordID() int64 { return m.ID }

// ApplyDefaults fills an empty status.
func (m *Music) ApplyDefaults() {
	if m.Status == "" {
		m.Status = MusicListening
	}
}

func (m Music) Validate() error {
	return invalid(validation.ValidateStruct(&m,
		validation.Field(&m.Title, validation.Required, validation.Length(1, 500)),
		validation.Field(&m.Artist, validation.Required),
		validation.Field(&m.Status, validation.Required, statusRule(KindMusic)),
		validation.Field(&m.PlayCount, validation.Min(0)),
	))
}

func (m Music) Entry() LibraryEntry {
	subtitle := m.Artist
	if m.Album != nil && *m.Album != "" {
		subtitle += " · " + *m.Album
	}
	progress := fmt.Sprintf("%d plays", m.PlayCount)
	if m.Favorite {
		progress += " ★"
	}
	return LibraryEntry{
		Kind: KindMusic, ID: m.ID, Title: m.Title, Subtitle: subtitle,
		Status: m.Status, Progress: progress,
		ImageURL: deref(m.ImageURL), Notes: deref(m.Notes), UpdatedAt: m.UpdatedAt,
	}
}

// LibraryEntry is a kind-agnostic summary of a record, used for exports and the terminal UI.
type LibraryEntry struct {
	Kind      Kind      `json:"kind"`
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle,omitempty"`
	Status    string    `json:"status"`
	Progress  string    `json:"progress"`
	Score     *float64  `json:"score,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LibraryStats summarizes the library, mirroring the /stats response.
type LibraryStats struct {
	TotalAnime int `json:"total_anime"`
	TotalManga int `json:"total_manga"`
	TotalGames int `json:"total_games"`
	TotalMusic int `json:"total_music"`

	AnimeWatching    int `json:"anime_watching"`
	AnimeCompleted   int `json:"anime_completed"`
	AnimePlanToWatch int `json:"anime_plan_to_watch"`
	AnimeDropped     int `json:"anime_dropped"`

	MangaReading    int `json:"manga_reading"`
	MangaCompleted  int `json:"manga_completed"`
	MangaPlanToRead int `json:"manga_plan_to_read"`
	MangaDropped    int `json:"manga_dropped"`

	GamesPlaying   int `json:"games_playing"`
	GamesCompleted int `json:"games_completed"`

	MusicListening int `json:"music_listening"`
	MusicCompleted int `json:"music_completed"`
	MusicFavorites int `json:"music_favorites"`

	TotalEpisodesWatched int `json:"total_episodes_watched"`
	TotalChaptersRead    int `json:"total_chapters_read"`
	TotalVolumesRead     int `json:"total_volumes_read"`
	TotalPlaytimeHours   int `json:"total_playtime_hours"`
	TotalPlays           int `json:"total_plays"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
