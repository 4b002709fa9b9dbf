// package services implements the HTTP clients for third-party metadata APIs
//
// Jikan (anime/manga catalog), Spotify (music streaming)
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/desertthunder/mtrack/internal/shared"
)

const (
	userAgent      = "mtrack/1.0"
	maxBodySize    = 4 << 20
	defaultTimeout = 10 * time.Second
)

// TokenSource supplies the bearer token for authenticated calls.
//
// [auth.Cache] refreshes expired tokens; [auth.Bearer] returns a caller-supplied token as-is.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// rejecter is implemented by token sources that report their own error when upstream refuses the token.
type rejecter interface {
	Rejected() error
}

// getJSON performs req and decodes a 2xx JSON body into out.
//
// Transport failures, non-2xx statuses and undecodable bodies become [shared.UpstreamError] values.
// Response bodies are never included in errors.
func getJSON(client *http.Client, req *http.Request, service string, out any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return shared.TransportError(service, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return shared.TransportError(service, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return shared.StatusError(service, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return &shared.UpstreamError{Service: service, StatusCode: resp.StatusCode, Kind: shared.ErrUpstream, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}
