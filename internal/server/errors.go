package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/desertthunder/mtrack/internal/shared"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// APIError describes a failure without exposing upstream payloads or internals.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// statusMapping is checked in order; the first matching sentinel wins.
var statusMapping = []struct {
	err    error
	status int
	code   string
}{
	{shared.ErrInvalidBearerToken, http.StatusUnauthorized, "INVALID_BEARER_TOKEN"},
	{shared.ErrRefreshFailed, http.StatusUnauthorized, "REFRESH_FAILED"},
	{shared.ErrNotAuthenticated, http.StatusUnauthorized, "NOT_AUTHENTICATED"},
	{shared.ErrUnauthenticated, http.StatusUnauthorized, "UNAUTHENTICATED"},
	{shared.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{shared.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
	{shared.ErrInvalidArgument, http.StatusBadRequest, "INVALID_INPUT"},
	{shared.ErrTimeout, http.StatusBadGateway, "UPSTREAM_TIMEOUT"},
	{shared.ErrUpstream, http.StatusBadGateway, "UPSTREAM_ERROR"},
	{shared.ErrServiceUnavailable, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
}

// classify maps err onto a status code and a stable error code.
func classify(err error) (int, string) {
	for _, m := range statusMapping {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusBadGateway, "UPSTREAM_TIMEOUT"
	}
	return http.StatusInternalServerError, "INTERNAL"
}

// writeError logs err and writes the mapped error body. Unexpected errors get a generic message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	rid := RequestIDFromContext(r.Context())

	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "request_id", rid, "path", r.URL.Path, "error", err)
		message = "internal server error"
	} else {
		s.logger.Warn("request failed", "request_id", rid, "path", r.URL.Path, "status", status, "error", err)
	}

	writeJSON(w, status, ErrorResponse{Error: APIError{Code: code, Message: message, RequestID: rid}})
}
