// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
)

// StaticTokens is a token source that always returns the same token.
type StaticTokens string

func (s StaticTokens) AccessToken(context.Context) (string, error) {
	return string(s), nil
}

// FailingTokens is a token source that always fails with Err.
type FailingTokens struct{ Err error }

func (f FailingTokens) AccessToken(context.Context) (string, error) {
	return "", f.Err
}

// Route is a canned upstream response.
type Route struct {
	Status int
	Body   string
}

// Upstream is an httptest server answering by request path, recording each hit.
//
// Paths without a registered [Route] answer 404.
type Upstream struct {
	*httptest.Server

	mu     sync.Mutex
	routes map[string]Route
	hits   []*http.Request
}

// NewUpstream starts a server with the given path → JSON body routes, all answering 200.
func NewUpstream(t *testing.T, bodies map[string]string) *Upstream {
	t.Helper()
	u := &Upstream{routes: make(map[string]Route, len(bodies))}
	for path, body := range bodies {
		u.routes[path] = Route{Status: http.StatusOK, Body: body}
	}
	u.Server = httptest.NewServer(http.HandlerFunc(u.serve))
	t.Cleanup(u.Close)
	return u
}

// Set registers or replaces the response for path.
func (u *Upstream) Set(path string, status int, body string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.routes[path] = Route{Status: status, Body: body}
}

// Requests returns the requests received so far.
func (u *Upstream) Requests() []*http.Request {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]*http.Request(nil), u.hits...)
}

// Hits counts requests whose path starts with prefix.
func (u *Upstream) Hits(prefix string) int {
	n := 0
	for _, r := range u.Requests() {
		if strings.HasPrefix(r.URL.Path, prefix) {
			n++
		}
	}
	return n
}

func (u *Upstream) serve(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.hits = append(u.hits, r)
	route, ok := u.routes[r.URL.Path]
	u.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(route.Status)
	fmt.Fprint(w, route.Body)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
