package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/desertthunder/mtrack/internal/models"
	"github.com/desertthunder/mtrack/internal/shared"
	"github.com/go-chi/chi/v5"
)

const loginStateTTL = 10 * time.Minute

// Exchanger trades an authorization code for a persisted token.
type Exchanger interface {
	Exchange(ctx context.Context, code string) (*models.CachedToken, error)
}

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Token *models.CachedToken
	err   error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler handles a single OAuth2 callback for the CLI login flow.
type OAuthHandler struct {
	exchanger   Exchanger
	state       string
	resultChan  chan OAuthResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewOAuthHandler creates a handler that accepts one callback carrying state.
func NewOAuthHandler(exchanger Exchanger, state string) *OAuthHandler {
	return &OAuthHandler{
		exchanger:  exchanger,
		state:      state,
		resultChan: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"/callback"}
}

// Mount registers h on r.
func (h *OAuthHandler) Mount(r chi.Router) {
	for _, route := range h.Routes() {
		r.Handle(route, h)
	}
}

// ServeHTTP validates state, exchanges the code and sends the outcome through the result channel.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	if state := r.URL.Query().Get("state"); state != h.state {
		h.Send(OAuthResult{err: fmt.Errorf("%w: invalid state parameter", shared.ErrInvalidInput)})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	token, status, err := exchangeCallback(r, h.exchanger)
	if err != nil {
		h.Send(OAuthResult{err: err})
		http.Error(w, "Authorization failed", status)
		return
	}

	h.Send(OAuthResult{Token: token})
	writeSuccessPage(w)
}

// Send sends the OAuth result through the channel (only once).
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving OAuth flow completion.
//
// Channel will receive exactly one result and then be closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}

func exchangeCallback(r *http.Request, exchanger Exchanger) (*models.CachedToken, int, error) {
	q := r.URL.Query()
	code := q.Get("code")
	if code == "" {
		return nil, http.StatusBadRequest, fmt.Errorf("%w: authorization failed: %s - %s",
			shared.ErrNotAuthenticated, q.Get("error"), q.Get("error_description"))
	}

	token, err := exchanger.Exchange(r.Context(), code)
	if err != nil {
		return nil, http.StatusBadGateway, fmt.Errorf("%w: %w", shared.ErrNotAuthenticated, err)
	}
	return token, http.StatusOK, nil
}

// stateStore holds pending login states for the server flow.
type stateStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	states map[string]time.Time
}

func newStateStore(ttl time.Duration) *stateStore {
	return &stateStore{ttl: ttl, now: time.Now, states: make(map[string]time.Time)}
}

func (st *stateStore) issue() (string, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return "", err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	now := st.now()
	for s, exp := range st.states {
		if now.After(exp) {
			delete(st.states, s)
		}
	}
	st.states[state] = now.Add(st.ttl)
	return state, nil
}

// consume reports whether state was issued and unexpired, and forgets it.
func (st *stateStore) consume(state string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	exp, ok := st.states[state]
	delete(st.states, state)
	return ok && !st.now().After(exp)
}

// handleLogin redirects the browser to the Spotify consent page.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.deps.Tokens == nil || !s.deps.Tokens.Configured() {
		s.writeError(w, r, fmt.Errorf("%w: spotify credentials not configured", shared.ErrServiceUnavailable))
		return
	}
	state, err := s.states.issue()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	http.Redirect(w, r, s.deps.Tokens.AuthCodeURL(state), http.StatusFound)
}

// handleCallback completes the server login flow and persists the token to the cache.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	if s.deps.Tokens == nil {
		s.writeError(w, r, fmt.Errorf("%w: spotify credentials not configured", shared.ErrServiceUnavailable))
		return
	}
	if !s.states.consume(r.URL.Query().Get("state")) {
		s.writeError(w, r, fmt.Errorf("%w: invalid state parameter", shared.ErrInvalidInput))
		return
	}

	token, _, err := exchangeCallback(r, s.deps.Tokens)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("spotify login complete", "token", shared.RedactToken(token.AccessToken))
	writeSuccessPage(w)
}

func writeSuccessPage(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head>
    <title>Authorization Successful</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>✓ Connected to Spotify</h1>
        <p>You can close this window and return to your tracker.</p>
    </div>
</body>
</html>
`)
}
