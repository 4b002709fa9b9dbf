package server

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"

	"github.com/desertthunder/mtrack/internal/models"
	"github.com/desertthunder/mtrack/internal/shared"
	"github.com/go-chi/chi/v5"
)

// recordHandlers serves CRUD routes for one library kind.
type recordHandlers[T models.Record] struct {
	s     *Server
	kind  models.Kind
	repo  models.Repository[T]
	setID func(*T, int64)
}

func mountRecords[T models.Record](s *Server, r chi.Router, kind models.Kind, repo models.Repository[T], setID func(*T, int64)) {
	h := &recordHandlers[T]{s: s, kind: kind, repo: repo, setID: setID}
	r.Route("/"+string(kind), func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/search", h.search)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.replace)
		r.Patch("/{id}", h.patch)
		r.Delete("/{id}", h.delete)
	})
}

func (h *recordHandlers[T]) id(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s id %q", shared.ErrInvalidInput, h.kind, chi.URLParam(r, "id"))
	}
	return id, nil
}

func (h *recordHandlers[T]) list(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !slices.Contains(models.Statuses(h.kind), status) {
		h.s.writeError(w, r, fmt.Errorf("%w: unknown %s status %q", shared.ErrInvalidInput, h.kind, status))
		return
	}
	skip, err := intQuery(r, "skip", 0)
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}
	limit, err := intQuery(r, "limit", models.DefaultListLimit)
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}

	records, err := h.repo.List(r.Context(), models.ListOptions{Status: status, Skip: skip, Limit: limit})
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *recordHandlers[T]) search(w http.ResponseWriter, r *http.Request) {
	records, err := h.repo.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *recordHandlers[T]) get(w http.ResponseWriter, r *http.Request) {
	id, err := h.id(r)
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}
	record, err := h.repo.Get(r.Context(), id)
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *recordHandlers[T]) create(w http.ResponseWriter, r *http.Request) {
	var record T
	if err := decodeJSON(w, r, &record); err != nil {
		h.s.writeError(w, r, err)
		return
	}
	h.setID(&record, 0)

	if err := h.repo.Create(r.Context(), &record); err != nil {
		h.s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// replace overwrites every mutable field; fields absent from the body are reset to their zero value.
func (h *recordHandlers[T]) replace(w http.ResponseWriter, r *http.Request) {
	id, err := h.id(r)
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}

	var record T
	if err := decodeJSON(w, r, &record); err != nil {
		h.s.writeError(w, r, err)
		return
	}
	h.setID(&record, id)
	if d, ok := any(&record).(interface{ ApplyDefaults() }); ok {
		d.ApplyDefaults()
	}

	if err := h.repo.Update(r.Context(), &record); err != nil {
		h.s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// patch applies only the fields present in the body to the stored record.
func (h *recordHandlers[T]) patch(w http.ResponseWriter, r *http.Request) {
	id, err := h.id(r)
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}

	record, err := h.repo.Get(r.Context(), id)
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}
	if err := decodeJSON(w, r, record); err != nil {
		h.s.writeError(w, r, err)
		return
	}
	h.setID(record, id)

	if err := h.repo.Update(r.Context(), record); err != nil {
		h.s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *recordHandlers[T]) delete(w http.ResponseWriter, r *http.Request) {
	id, err := h.id(r)
	if err != nil {
		h.s.writeError(w, r, err)
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("%s %d deleted", h.kind, id)})
}
