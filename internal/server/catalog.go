package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/desertthunder/mtrack/internal/models"
	"github.com/desertthunder/mtrack/internal/shared"
	"github.com/go-chi/chi/v5"
)

const defaultCatalogLimit = 10

func (s *Server) catalogKind(r *http.Request) (models.CatalogKind, error) {
	if s.deps.Catalog == nil {
		return "", fmt.Errorf("%w: catalog client not configured", shared.ErrServiceUnavailable)
	}
	return models.ParseCatalogKind(chi.URLParam(r, "kind"))
}

// handleCatalogSearch serves GET /mal/{kind}/search?q=&limit=.
func (s *Server) handleCatalogSearch(w http.ResponseWriter, r *http.Request) {
	kind, err := s.catalogKind(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := intQuery(r, "limit", defaultCatalogLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	items, err := s.deps.Catalog.SearchTitles(r.Context(), r.URL.Query().Get("q"), kind, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": items})
}

// handleCatalogDetails serves GET /mal/{kind}/{id}.
func (s *Server) handleCatalogDetails(w http.ResponseWriter, r *http.Request) {
	kind, err := s.catalogKind(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: invalid id %q", shared.ErrInvalidInput, chi.URLParam(r, "id")))
		return
	}

	item, err := s.deps.Catalog.GetDetails(r.Context(), id, kind)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleTrending serves GET /trending/{kind}?limit=. Upstream failures degrade to an empty list.
func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	kind, err := s.catalogKind(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := intQuery(r, "limit", defaultCatalogLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res := s.deps.Catalog.Trending(r.Context(), kind, limit)
	if res.Degraded() {
		s.logger.Warn("trending degraded", "kind", kind, "failures", len(res.Failures))
	}
	writeJSON(w, http.StatusOK, trendingResponse{Results: res.Items, Failures: res.Failures})
}

type trendingResponse struct {
	Results  []models.CatalogItem `json:"results"`
	Failures []models.Failure     `json:"failures,omitempty"`
}
