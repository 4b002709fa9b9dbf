package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/mtrack/internal/shared"
)

// CatalogKind selects the anime or manga half of the catalog.
type CatalogKind string

const (
	CatalogAnime CatalogKind = "anime"
	CatalogManga CatalogKind = "manga"
)

// ParseCatalogKind accepts "anime" or "manga".
func ParseCatalogKind(s string) (CatalogKind, error) {
	switch CatalogKind(strings.ToLower(strings.TrimSpace(s))) {
	case CatalogAnime:
		return CatalogAnime, nil
	case CatalogManga:
		return CatalogManga, nil
	}
	return "", fmt.Errorf("%w: catalog kind %q must be anime or manga", shared.ErrInvalidInput, s)
}

// LengthUnit returns the unit in which items of this kind are measured.
func (k CatalogKind) LengthUnit() LengthUnit {
	if k == CatalogManga {
		return UnitChapters
	}
	return UnitEpisodes
}

// LengthUnit is what [CatalogItem.LengthCount] counts.
type LengthUnit string

const (
	UnitEpisodes LengthUnit = "episodes"
	UnitChapters LengthUnit = "chapters"
)

// CatalogItem is a normalized anime or manga entry from the catalog.
//
// Optional upstream fields stay nil when absent so a missing score is never reported as zero.
type CatalogItem struct {
	ExternalID     int         `json:"external_id"`
	Kind           CatalogKind `json:"kind"`
	Title          string      `json:"title"`
	TitleLocalized *string     `json:"title_localized,omitempty"`
	TitleJapanese  *string     `json:"title_japanese,omitempty"`
	Synopsis       *string     `json:"synopsis,omitempty"`
	ImageURL       *string     `json:"image_url,omitempty"`
	LengthUnit     LengthUnit  `json:"length_unit"`
	LengthCount    *int        `json:"length_count,omitempty"`
	Volumes        *int        `json:"volumes,omitempty"`
	Score          *float64    `json:"score,omitempty"`
	Genres         []string    `json:"genres"`
	Status         *string     `json:"status,omitempty"`
	PeriodString   *string     `json:"period_string,omitempty"`
}

// StreamingArtist is an artist with a rank derived from follower count.
type StreamingArtist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	ImageURL   *string  `json:"image_url"`
	Genres     []string `json:"genres"`
	Followers  int      `json:"followers"`
	Popularity int      `json:"popularity"`
	Rank       int      `json:"rank"`
}

// AlbumRef names the album a track belongs to.
type AlbumRef struct {
	Name        string  `json:"name"`
	ID          *string `json:"id"`
	ReleaseDate string  `json:"release_date,omitempty"`
	TotalTracks int     `json:"total_tracks,omitempty"`
}

// StreamingTrack is a track as listed in a playlist or album.
type StreamingTrack struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Artists     []string `json:"artists"`
	Album       AlbumRef `json:"album"`
	DurationMS  int      `json:"duration_ms"`
	Popularity  int      `json:"popularity"`
	TrackNumber int      `json:"track_number"`
	DiscNumber  int      `json:"disc_number,omitempty"`
	Explicit    bool     `json:"explicit,omitempty"`
	AddedAt     *string  `json:"added_at,omitempty"`
}

// TopTrack is an entry of the user's top tracks.
type TopTrack struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Artist     string  `json:"artist"`
	Album      string  `json:"album"`
	ImageURL   *string `json:"image_url"`
	Popularity int     `json:"popularity"`
}

// StreamingAlbum is an album summary with its artists joined into one string.
type StreamingAlbum struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Artist      string  `json:"artist"`
	ArtistID    string  `json:"artist_id,omitempty"`
	ImageURL    *string `json:"image_url"`
	TotalTracks int     `json:"total_tracks"`
	ReleaseDate string  `json:"release_date"`
	AlbumType   *string `json:"album_type,omitempty"`
}

// StreamingPlaylist is a playlist owned or followed by the user.
type StreamingPlaylist struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	TracksCount   int     `json:"tracks_count"`
	ImageURL      *string `json:"image_url"`
	Owner         string  `json:"owner"`
	Public        bool    `json:"public"`
	Description   string  `json:"description"`
	Collaborative bool    `json:"collaborative"`
}

// AlbumInfo describes the album in an [AlbumTracks] response.
type AlbumInfo struct {
	Name        string   `json:"name"`
	Artists     []string `json:"artists"`
	ReleaseDate string   `json:"release_date"`
	TotalTracks int      `json:"total_tracks"`
	ImageURL    *string  `json:"image_url"`
}

// AlbumTracks is one page of an album's tracks plus the album itself.
type AlbumTracks struct {
	Tracks    []StreamingTrack `json:"tracks"`
	Total     int              `json:"total"`
	AlbumInfo AlbumInfo        `json:"album_info"`
}

// Page is one upstream page of results. Total is the upstream total, not len(Items).
type Page[T any] struct {
	Items []T
	Total int
}

// TimeRange is the listening window for top tracks and artists.
type TimeRange string

const (
	ShortTerm  TimeRange = "short_term"
	MediumTerm TimeRange = "medium_term"
	LongTerm   TimeRange = "long_term"
)

// ParseTimeRange defaults an empty value to [MediumTerm].
func ParseTimeRange(s string) (TimeRange, error) {
	switch TimeRange(s) {
	case "":
		return MediumTerm, nil
	case ShortTerm, MediumTerm, LongTerm:
		return TimeRange(s), nil
	}
	return "", fmt.Errorf("%w: time_range %q", shared.ErrInvalidInput, s)
}

// TrackSummary is a top track reduced for the wrapped view.
type TrackSummary struct {
	Name     string  `json:"name"`
	Artist   string  `json:"artist"`
	ImageURL *string `json:"image_url"`
}

// ArtistSummary is a top artist reduced for the wrapped view.
type ArtistSummary struct {
	Name     string  `json:"name"`
	ImageURL *string `json:"image_url"`
}

// GenreCount is one bar of the genre histogram.
type GenreCount struct {
	Genre string `json:"genre"`
	Count int    `json:"count"`
}

// WrappedStats is the year-in-review style summary of the user's listening.
type WrappedStats struct {
	TopTracksMonth      []TrackSummary  `json:"top_tracks_month"`
	TopTracksAllTime    []TrackSummary  `json:"top_tracks_all_time"`
	TopArtistsMonth     []ArtistSummary `json:"top_artists_month"`
	TopArtistsAllTime   []ArtistSummary `json:"top_artists_all_time"`
	TopGenres           []GenreCount    `json:"top_genres"`
	TotalSavedTracks    int             `json:"total_saved_tracks"`
	TotalPlaylists      int             `json:"total_playlists"`
	TotalFollowedArtist int             `json:"total_followed_artists"`
}

// Failure records one skipped unit of a best-effort operation.
type Failure struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// BestEffort is the result of an operation that degrades instead of failing.
type BestEffort[T any] struct {
	Items    []T       `json:"items"`
	Failures []Failure `json:"failures,omitempty"`
}

// Degraded reports whether any part of the operation was skipped.
func (b BestEffort[T]) Degraded() bool { return len(b.Failures) > 0 }

// Fail appends a failure for source.
func (b *BestEffort[T]) Fail(source string, err error) {
	b.Failures = append(b.Failures, Failure{Source: source, Error: err.Error()})
}

// CachedToken is the persisted streaming credential. Field names match the on-disk cache file.
type CachedToken struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	ExpiresAt    int64  `json:"expires_at"`
}

// AuthStatus reports the state of the token cache without exposing the token.
type AuthStatus struct {
	Authenticated bool   `json:"authenticated"`
	NeedsReauth   bool   `json:"needs_reauth"`
	Debug         string `json:"debug"`
	ExpiresAt     int64  `json:"expires_at,omitempty"`
	TokenPrefix   string `json:"token_prefix,omitempty"`
}

// Debug reasons reported by [AuthStatus].
const (
	AuthCredentialsNotConfigured = "credentials_not_configured"
	AuthCacheFileMissing         = "cache_file_missing"
	AuthNoAccessToken            = "no_access_token"
	AuthTokenInfoNone            = "token_info_none"
	AuthTokenExists              = "token_exists"
)
