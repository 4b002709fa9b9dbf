package server

import (
	"fmt"
	"net/http"

	"github.com/desertthunder/mtrack/internal/auth"
	"github.com/desertthunder/mtrack/internal/models"
	"github.com/desertthunder/mtrack/internal/services"
	"github.com/desertthunder/mtrack/internal/shared"
	"github.com/desertthunder/mtrack/internal/tasks"
	"github.com/go-chi/chi/v5"
)

const (
	defaultSpotifyLimit = 50
	defaultTopLimit     = 20
	followedLimit       = 50
)

// streaming returns the client for r. A bearer Authorization header replaces the token cache for this request.
func (s *Server) streaming(r *http.Request) (*services.SpotifyService, error) {
	if s.deps.Spotify == nil {
		return nil, fmt.Errorf("%w: streaming client not configured", shared.ErrServiceUnavailable)
	}
	if bearer, ok := auth.FromHeader(r.Header.Get("Authorization")); ok {
		return s.deps.Spotify.WithTokens(bearer), nil
	}
	return s.deps.Spotify, nil
}

func (s *Server) handleCheckAuth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Tokens == nil {
		writeJSON(w, http.StatusOK, models.AuthStatus{NeedsReauth: true, Debug: models.AuthCredentialsNotConfigured})
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Tokens.Status())
}

func (s *Server) handleArtist(w http.ResponseWriter, r *http.Request) {
	sp, err := s.streaming(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	artist, err := sp.GetArtist(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, artist)
}

func (s *Server) handlePlaylists(w http.ResponseWriter, r *http.Request) {
	sp, limit, offset, err := s.pagedRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := sp.GetPlaylists(r.Context(), limit, offset)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"playlists": p.Items, "total": p.Total})
}

func (s *Server) handlePlaylistTracks(w http.ResponseWriter, r *http.Request) {
	sp, limit, offset, err := s.pagedRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := sp.GetPlaylistTracks(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tracks": p.Items, "total": p.Total})
}

func (s *Server) handleAlbumTracks(w http.ResponseWriter, r *http.Request) {
	sp, limit, offset, err := s.pagedRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tracks, err := sp.GetAlbumTracks(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tracks)
}

func (s *Server) handleLikedAlbums(w http.ResponseWriter, r *http.Request) {
	sp, limit, _, err := s.pagedRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := sp.GetLikedAlbums(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"albums": p.Items, "total": p.Total})
}

func (s *Server) handleFollowedArtists(w http.ResponseWriter, r *http.Request) {
	sp, err := s.streaming(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := sp.GetFollowedArtists(r.Context(), followedLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"artists": p.Items})
}

func (s *Server) handleTopTracks(w http.ResponseWriter, r *http.Request) {
	sp, timeRange, limit, err := s.topRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tracks, err := sp.GetTopTracks(r.Context(), timeRange, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tracks": tracks})
}

func (s *Server) handleTopArtists(w http.ResponseWriter, r *http.Request) {
	sp, timeRange, limit, err := s.topRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	artists, err := sp.GetTopArtists(r.Context(), timeRange, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"artists": artists})
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	sp, err := s.streaming(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	stats, err := s.aggregator(sp).UserStats(r.Context(), nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleNewReleases(w http.ResponseWriter, r *http.Request) {
	sp, err := s.streaming(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.aggregator(sp).NewReleases(r.Context(), nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, releasesResponse{Albums: res.Items, Failures: res.Failures})
}

type releasesResponse struct {
	Albums   []models.StreamingAlbum `json:"albums"`
	Failures []models.Failure        `json:"failures,omitempty"`
}

func (s *Server) aggregator(sp *services.SpotifyService) *tasks.Aggregator {
	return tasks.NewAggregator(sp,
		tasks.WithWorkers(s.deps.ReleaseWorkers),
		tasks.WithLogger(shared.WithLogger(s.logger, "component", "aggregator")),
	)
}

func (s *Server) pagedRequest(r *http.Request) (*services.SpotifyService, int, int, error) {
	limit, err := intQuery(r, "limit", defaultSpotifyLimit)
	if err != nil {
		return nil, 0, 0, err
	}
	offset, err := intQuery(r, "offset", 0)
	if err != nil {
		return nil, 0, 0, err
	}
	sp, err := s.streaming(r)
	return sp, limit, offset, err
}

func (s *Server) topRequest(r *http.Request) (*services.SpotifyService, models.TimeRange, int, error) {
	timeRange, err := models.ParseTimeRange(r.URL.Query().Get("time_range"))
	if err != nil {
		return nil, "", 0, err
	}
	limit, err := intQuery(r, "limit", defaultTopLimit)
	if err != nil {
		return nil, "", 0, err
	}
	sp, err := s.streaming(r)
	return sp, timeRange, limit, err
}
