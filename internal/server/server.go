package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mtrack/internal/auth"
	"github.com/desertthunder/mtrack/internal/models"
	"github.com/desertthunder/mtrack/internal/repositories"
	"github.com/desertthunder/mtrack/internal/services"
	"github.com/desertthunder/mtrack/internal/shared"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Catalog is the anime/manga metadata source served under /mal and /trending.
type Catalog interface {
	SearchTitles(ctx context.Context, query string, kind models.CatalogKind, limit int) ([]models.CatalogItem, error)
	GetDetails(ctx context.Context, id int, kind models.CatalogKind) (*models.CatalogItem, error)
	Trending(ctx context.Context, kind models.CatalogKind, limit int) models.BestEffort[models.CatalogItem]
}

// Deps are the collaborators the HTTP layer dispatches to. Nil members disable their routes' backends.
type Deps struct {
	Library        *repositories.Library
	Catalog        Catalog
	Spotify        *services.SpotifyService
	Tokens         *auth.Cache
	ReleaseWorkers int
}

// Server wires the router, middleware and handlers.
type Server struct {
	cfg    shared.ServerConfig
	deps   Deps
	logger *log.Logger
	router chi.Router
	states *stateStore
}

// New builds a Server and registers every route.
func New(cfg shared.ServerConfig, deps Deps, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
		router: chi.NewRouter(),
		states: newStateStore(loginStateTTL),
	}
	s.routes()
	return s
}

// ServeHTTP implements [http.Handler] for the entire router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := s.router
	r.Use(RequestID)
	r.Use(AccessLog(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(CORS(s.cfg.CORSOrigins))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Media Tracker API"})
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if lib := s.deps.Library; lib != nil {
		mountRecords(s, r, models.KindAnime, models.Repository[models.Anime](lib.Anime), func(a *models.Anime, id int64) { a.ID = id })
		mountRecords(s, r, models.KindManga, models.Repository[models.Manga](lib.Manga), func(m *models.Manga, id int64) { m.ID = id })
		mountRecords(s, r, models.KindGame, models.Repository[models.Game](lib.Games), func(g *models.Game, id int64) { g.ID = id })
		mountRecords(s, r, models.KindMusic, models.Repository[models.Music](lib.Music), func(m *models.Music, id int64) { m.ID = id })
		r.Get("/stats", s.handleStats)
	}

	r.Route("/mal/{kind}", func(r chi.Router) {
		r.Get("/search", s.handleCatalogSearch)
		r.Get("/{id}", s.handleCatalogDetails)
	})
	r.Get("/trending/{kind}", s.handleTrending)

	r.Route("/spotify", func(r chi.Router) {
		r.Get("/check-auth", s.handleCheckAuth)
		r.Get("/login", s.handleLogin)
		r.Get("/artist/{id}", s.handleArtist)
		r.Get("/playlists", s.handlePlaylists)
		r.Get("/playlists/{id}/tracks", s.handlePlaylistTracks)
		r.Get("/albums/{id}/tracks", s.handleAlbumTracks)
		r.Get("/liked-albums", s.handleLikedAlbums)
		r.Get("/followed-artists", s.handleFollowedArtists)
		r.Get("/top-tracks", s.handleTopTracks)
		r.Get("/top-artists", s.handleTopArtists)
		r.Get("/user-stats", s.handleUserStats)
		r.Get("/new-releases", s.handleNewReleases)
	})
	r.Get("/callback", s.handleCallback)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Library.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Run serves until ctx is cancelled or a shutdown signal arrives, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Address(),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("starting HTTP server", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			s.logger.Info("received shutdown signal", "signal", sig.String())
		case <-gCtx.Done():
			s.logger.Info("context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
