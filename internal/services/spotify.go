// Spotify Web API client
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mtrack/internal/models"
	"github.com/desertthunder/mtrack/internal/shared"
	"golang.org/x/sync/errgroup"
)

const (
	spotifyService = "spotify"
	spotifyBaseURL = "https://api.spotify.com/v1"
)

// Placeholders substituted for missing nested fields of a playlist track.
const (
	UnknownTrack  = "Unknown Track"
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
)

type followers struct {
	Total int `json:"total"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Genres     []string       `json:"genres"`
	Images     []SpotifyImage `json:"images"`
	Followers  followers      `json:"followers"`
	Popularity int            `json:"popularity"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	AlbumType   string          `json:"album_type"`
	Artists     []SpotifyArtist `json:"artists"`
	ReleaseDate string          `json:"release_date"`
	TotalTracks int             `json:"total_tracks"`
	Images      []SpotifyImage  `json:"images"`
	Popularity  int             `json:"popularity"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Artists     []SpotifyArtist `json:"artists"`
	Album       *SpotifyAlbum   `json:"album"`
	DurationMS  int             `json:"duration_ms"`
	Explicit    bool            `json:"explicit"`
	Popularity  int             `json:"popularity"`
	TrackNumber int             `json:"track_number"`
	DiscNumber  int             `json:"disc_number"`
}

type owner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type playlistTracksRef struct {
	Total int `json:"total"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Owner         owner             `json:"owner"`
	Public        bool              `json:"public"`
	Collaborative bool              `json:"collaborative"`
	Tracks        playlistTracksRef `json:"tracks"`
	Images        []SpotifyImage    `json:"images"`
}

// SpotifyPlaylistTrack represents a track within a playlist context. Track is nil for removed items.
type SpotifyPlaylistTrack struct {
	AddedAt *string       `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

type savedAlbum struct {
	Album SpotifyAlbum `json:"album"`
}

// paging is Spotify's paging object.
type paging[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

type followedArtists struct {
	Artists paging[SpotifyArtist] `json:"artists"`
}

// SpotifyService is an authenticated Spotify Web API client.
//
// Every call first asks its [TokenSource] for a token; a token failure fails the call before any request is made.
type SpotifyService struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *log.Logger
}

// SpotifyOption configures a [SpotifyService].
type SpotifyOption func(*SpotifyService)

// WithBaseURL points the client at another API root.
func WithBaseURL(u string) SpotifyOption {
	return func(s *SpotifyService) { s.baseURL = strings.TrimRight(u, "/") }
}

// WithSpotifyHTTPClient replaces the HTTP client.
func WithSpotifyHTTPClient(c *http.Client) SpotifyOption {
	return func(s *SpotifyService) { s.http = c }
}

// WithSpotifyLogger sets the logger.
func WithSpotifyLogger(l *log.Logger) SpotifyOption {
	return func(s *SpotifyService) { s.logger = l }
}

// NewSpotifyService creates a client that authenticates with tokens.
func NewSpotifyService(tokens TokenSource, opts ...SpotifyOption) *SpotifyService {
	s := &SpotifyService{
		baseURL: spotifyBaseURL,
		http:    newHTTPClient(defaultTimeout),
		tokens:  tokens,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSpotifyServiceFromConfig applies the streaming section of the configuration.
func NewSpotifyServiceFromConfig(cfg shared.StreamingConfig, tokens TokenSource, opts ...SpotifyOption) *SpotifyService {
	base := []SpotifyOption{WithSpotifyHTTPClient(newHTTPClient(cfg.Timeout()))}
	if cfg.BaseURL != "" {
		base = append(base, WithBaseURL(cfg.BaseURL))
	}
	return NewSpotifyService(tokens, append(base, opts...)...)
}

// WithTokens returns a copy of s that authenticates with tokens instead.
func (s *SpotifyService) WithTokens(tokens TokenSource) *SpotifyService {
	cp := *s
	cp.tokens = tokens
	return &cp
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// doRequest performs an authenticated GET against the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, endpoint string, query url.Values, result any) error {
	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrUnauthenticated, err)
	}

	apiURL := s.baseURL + endpoint
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	s.logger.Debug("spotify request", "endpoint", endpoint)

	err = getJSON(s.http, req, spotifyService, result)
	if errors.Is(err, shared.ErrUnauthenticated) {
		if r, ok := s.tokens.(rejecter); ok {
			return fmt.Errorf("%w: %w", r.Rejected(), err)
		}
	}
	return err
}

func page(limit, offset int) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return q
}

// GetArtist retrieves an artist with its derived rank.
func (s *SpotifyService) GetArtist(ctx context.Context, artistID string) (*models.StreamingArtist, error) {
	var artist SpotifyArtist
	if err := s.doRequest(ctx, "/artists/"+url.PathEscape(artistID), nil, &artist); err != nil {
		return nil, err
	}
	out := toArtist(artist)
	return &out, nil
}

// GetPlaylists retrieves one page of the current user's playlists.
func (s *SpotifyService) GetPlaylists(ctx context.Context, limit, offset int) (*models.Page[models.StreamingPlaylist], error) {
	var resp paging[SpotifySimplePlaylist]
	if err := s.doRequest(ctx, "/me/playlists", page(limit, offset), &resp); err != nil {
		return nil, err
	}

	items := make([]models.StreamingPlaylist, 0, len(resp.Items))
	for _, p := range resp.Items {
		items = append(items, models.StreamingPlaylist{
			ID:            p.ID,
			Name:          p.Name,
			TracksCount:   p.Tracks.Total,
			ImageURL:      firstImage(p.Images),
			Owner:         p.Owner.DisplayName,
			Public:        p.Public,
			Description:   p.Description,
			Collaborative: p.Collaborative,
		})
	}
	return &models.Page[models.StreamingPlaylist]{Items: items, Total: resp.Total}, nil
}

// GetPlaylistTracks retrieves one page of a playlist's tracks.
//
// Items whose track was removed are dropped, so len(Items) may be below the page size while Total
// stays the upstream count. A present track with missing nested fields keeps its position and gets
// [UnknownTrack], [UnknownArtist] or [UnknownAlbum] placeholders.
func (s *SpotifyService) GetPlaylistTracks(ctx context.Context, playlistID string, limit, offset int) (*models.Page[models.StreamingTrack], error) {
	var resp paging[SpotifyPlaylistTrack]
	endpoint := "/playlists/" + url.PathEscape(playlistID) + "/tracks"
	if err := s.doRequest(ctx, endpoint, page(limit, offset), &resp); err != nil {
		return nil, err
	}

	items := make([]models.StreamingTrack, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Track == nil {
			continue
		}
		t := item.Track

		name := t.Name
		if name == "" {
			name = UnknownTrack
		}
		artists := artistNames(t.Artists)
		if len(artists) == 0 {
			artists = []string{UnknownArtist}
		}
		album := models.AlbumRef{Name: UnknownAlbum}
		if t.Album != nil {
			album.Name = t.Album.Name
			album.ID = optional(t.Album.ID)
		}

		items = append(items, models.StreamingTrack{
			ID:          t.ID,
			Name:        name,
			Artists:     artists,
			Album:       album,
			DurationMS:  t.DurationMS,
			Popularity:  t.Popularity,
			TrackNumber: t.TrackNumber,
			AddedAt:     item.AddedAt,
		})
	}
	return &models.Page[models.StreamingTrack]{Items: items, Total: resp.Total}, nil
}

// GetAlbumTracks retrieves one page of an album's tracks along with the album itself.
//
// Both requests run concurrently; tracks inherit the album's popularity.
func (s *SpotifyService) GetAlbumTracks(ctx context.Context, albumID string, limit, offset int) (*models.AlbumTracks, error) {
	var (
		tracks paging[SpotifyTrack]
		album  SpotifyAlbum
	)
	endpoint := "/albums/" + url.PathEscape(albumID)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.doRequest(gctx, endpoint+"/tracks", page(limit, offset), &tracks)
	})
	g.Go(func() error {
		return s.doRequest(gctx, endpoint, nil, &album)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ref := models.AlbumRef{
		Name:        album.Name,
		ID:          optional(album.ID),
		ReleaseDate: album.ReleaseDate,
		TotalTracks: album.TotalTracks,
	}
	items := make([]models.StreamingTrack, 0, len(tracks.Items))
	for _, t := range tracks.Items {
		items = append(items, models.StreamingTrack{
			ID:          t.ID,
			Name:        t.Name,
			Artists:     artistNames(t.Artists),
			Album:       ref,
			DurationMS:  t.DurationMS,
			Popularity:  album.Popularity,
			TrackNumber: t.TrackNumber,
			DiscNumber:  t.DiscNumber,
			Explicit:    t.Explicit,
		})
	}

	return &models.AlbumTracks{
		Tracks: items,
		Total:  tracks.Total,
		AlbumInfo: models.AlbumInfo{
			Name:        album.Name,
			Artists:     artistNames(album.Artists),
			ReleaseDate: album.ReleaseDate,
			TotalTracks: album.TotalTracks,
			ImageURL:    firstImage(album.Images),
		},
	}, nil
}

// GetLikedAlbums retrieves the user's saved albums.
func (s *SpotifyService) GetLikedAlbums(ctx context.Context, limit int) (*models.Page[models.StreamingAlbum], error) {
	var resp paging[savedAlbum]
	if err := s.doRequest(ctx, "/me/albums", url.Values{"limit": {strconv.Itoa(limit)}}, &resp); err != nil {
		return nil, err
	}

	items := make([]models.StreamingAlbum, 0, len(resp.Items))
	for _, item := range resp.Items {
		items = append(items, toAlbum(item.Album))
	}
	return &models.Page[models.StreamingAlbum]{Items: items, Total: resp.Total}, nil
}

// GetFollowedArtists retrieves artists the user follows.
func (s *SpotifyService) GetFollowedArtists(ctx context.Context, limit int) (*models.Page[models.StreamingArtist], error) {
	q := url.Values{"type": {"artist"}, "limit": {strconv.Itoa(limit)}}
	var resp followedArtists
	if err := s.doRequest(ctx, "/me/following", q, &resp); err != nil {
		return nil, err
	}

	items := make([]models.StreamingArtist, 0, len(resp.Artists.Items))
	for _, a := range resp.Artists.Items {
		items = append(items, toArtist(a))
	}
	return &models.Page[models.StreamingArtist]{Items: items, Total: resp.Artists.Total}, nil
}

// GetTopTracks retrieves the user's most played tracks over timeRange.
func (s *SpotifyService) GetTopTracks(ctx context.Context, timeRange models.TimeRange, limit int) ([]models.TopTrack, error) {
	q := url.Values{"time_range": {string(timeRange)}, "limit": {strconv.Itoa(limit)}}
	var resp paging[SpotifyTrack]
	if err := s.doRequest(ctx, "/me/top/tracks", q, &resp); err != nil {
		return nil, err
	}

	tracks := make([]models.TopTrack, 0, len(resp.Items))
	for _, t := range resp.Items {
		top := models.TopTrack{
			ID:         t.ID,
			Name:       t.Name,
			Artist:     strings.Join(artistNames(t.Artists), ", "),
			Popularity: t.Popularity,
		}
		if t.Album != nil {
			top.Album = t.Album.Name
			top.ImageURL = firstImage(t.Album.Images)
		}
		tracks = append(tracks, top)
	}
	return tracks, nil
}

// GetTopArtists retrieves the user's most played artists over timeRange.
func (s *SpotifyService) GetTopArtists(ctx context.Context, timeRange models.TimeRange, limit int) ([]models.StreamingArtist, error) {
	q := url.Values{"time_range": {string(timeRange)}, "limit": {strconv.Itoa(limit)}}
	var resp paging[SpotifyArtist]
	if err := s.doRequest(ctx, "/me/top/artists", q, &resp); err != nil {
		return nil, err
	}

	artists := make([]models.StreamingArtist, 0, len(resp.Items))
	for _, a := range resp.Items {
		artists = append(artists, toArtist(a))
	}
	return artists, nil
}

// SavedTracksTotal returns the number of tracks in the user's library.
func (s *SpotifyService) SavedTracksTotal(ctx context.Context) (int, error) {
	var resp paging[struct{}]
	if err := s.doRequest(ctx, "/me/tracks", url.Values{"limit": {"1"}}, &resp); err != nil {
		return 0, err
	}
	return resp.Total, nil
}

// PlaylistsTotal returns the number of playlists the user owns or follows.
func (s *SpotifyService) PlaylistsTotal(ctx context.Context) (int, error) {
	var resp paging[struct{}]
	if err := s.doRequest(ctx, "/me/playlists", url.Values{"limit": {"1"}}, &resp); err != nil {
		return 0, err
	}
	return resp.Total, nil
}

// FollowedArtistsTotal returns the number of artists the user follows.
func (s *SpotifyService) FollowedArtistsTotal(ctx context.Context) (int, error) {
	p, err := s.GetFollowedArtists(ctx, 1)
	if err != nil {
		return 0, err
	}
	return p.Total, nil
}

// ArtistAlbums returns an artist's most recent albums and singles.
func (s *SpotifyService) ArtistAlbums(ctx context.Context, artistID string, limit int) ([]models.StreamingAlbum, error) {
	q := url.Values{"include_groups": {"album,single"}, "limit": {strconv.Itoa(limit)}}
	var resp paging[SpotifyAlbum]
	if err := s.doRequest(ctx, "/artists/"+url.PathEscape(artistID)+"/albums", q, &resp); err != nil {
		return nil, err
	}

	albums := make([]models.StreamingAlbum, 0, len(resp.Items))
	for _, a := range resp.Items {
		album := toAlbum(a)
		album.ArtistID = artistID
		albums = append(albums, album)
	}
	return albums, nil
}

func toArtist(a SpotifyArtist) models.StreamingArtist {
	genres := a.Genres
	if genres == nil {
		genres = []string{}
	}
	return models.StreamingArtist{
		ID:         a.ID,
		Name:       a.Name,
		ImageURL:   firstImage(a.Images),
		Genres:     genres,
		Followers:  a.Followers.Total,
		Popularity: a.Popularity,
		Rank:       CalculateArtistRank(a.Followers.Total),
	}
}

func toAlbum(a SpotifyAlbum) models.StreamingAlbum {
	return models.StreamingAlbum{
		ID:          a.ID,
		Name:        a.Name,
		Artist:      strings.Join(artistNames(a.Artists), ", "),
		ImageURL:    firstImage(a.Images),
		TotalTracks: a.TotalTracks,
		ReleaseDate: a.ReleaseDate,
		AlbumType:   optional(a.AlbumType),
	}
}

func artistNames(artists []SpotifyArtist) []string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		names = append(names, a.Name)
	}
	return names
}

// firstImage returns the first listed image, which Spotify orders widest first.
func firstImage(images []SpotifyImage) *string {
	if len(images) == 0 || images[0].URL == "" {
		return nil
	}
	u := images[0].URL
	return &u
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
