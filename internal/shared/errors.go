package shared

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")
	ErrInvalidBearerToken = fmt.Errorf("invalid bearer token")
	ErrRefreshFailed      = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken     = fmt.Errorf("no refresh token available")

	// Upstream (catalog & streaming) errors
	ErrUnauthenticated    = fmt.Errorf("upstream rejected credentials")
	ErrNotFound           = fmt.Errorf("not found")
	ErrUpstream           = fmt.Errorf("upstream request failed")
	ErrTimeout            = fmt.Errorf("operation timed out")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// UpstreamError describes a failed call to a third-party API.
//
// Kind is one of [ErrUnauthenticated], [ErrNotFound], [ErrUpstream] or [ErrTimeout] and is what [errors.Is] matches.
// The upstream response body is never retained.
type UpstreamError struct {
	Service    string
	StatusCode int
	Kind       error
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Service, e.Kind)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes Kind and the cause. A timeout also matches [ErrUpstream].
func (e *UpstreamError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Kind == ErrTimeout {
		errs = append(errs, ErrUpstream)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// StatusError classifies a non-2xx upstream status code.
func StatusError(service string, status int) *UpstreamError {
	kind := ErrUpstream
	switch status {
	case 401:
		kind = ErrUnauthenticated
	case 404:
		kind = ErrNotFound
	}
	return &UpstreamError{Service: service, StatusCode: status, Kind: kind}
}

// TransportError classifies a failure that happened before a response was received.
func TransportError(service string, err error) *UpstreamError {
	kind := ErrUpstream
	if IsTimeout(err) {
		kind = ErrTimeout
	}
	return &UpstreamError{Service: service, Kind: kind, Err: err}
}

// IsTimeout reports whether err is a deadline or network timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTimeout) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
