package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mtrack/internal/models"
	"github.com/desertthunder/mtrack/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const defaultRefreshTimeout = 10 * time.Second

// Cache holds the single streaming credential on disk and keeps it usable.
//
// Concurrent callers that find the token expired share one refresh exchange.
type Cache struct {
	path    string
	config  *oauth2.Config
	client  *http.Client
	logger  *log.Logger
	now     func() time.Time
	timeout time.Duration

	mu    sync.Mutex
	group singleflight.Group
}

// Option configures a [Cache].
type Option func(*Cache)

// WithHTTPClient sets the client used for token exchanges.
func WithHTTPClient(c *http.Client) Option {
	return func(tc *Cache) { tc.client = c }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(tc *Cache) { tc.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(tc *Cache) { tc.logger = l }
}

// WithRefreshTimeout bounds a single refresh exchange.
func WithRefreshTimeout(d time.Duration) Option {
	return func(tc *Cache) { tc.timeout = d }
}

// NewCache returns a cache backed by the file at path.
func NewCache(path string, config *oauth2.Config, opts ...Option) *Cache {
	c := &Cache{
		path:    path,
		config:  config,
		logger:  log.New(os.Stderr),
		now:     time.Now,
		timeout: defaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Path returns the location of the token file.
func (c *Cache) Path() string { return c.path }

// Configured reports whether client credentials are present.
func (c *Cache) Configured() bool {
	return c.config != nil && c.config.ClientID != "" && c.config.ClientSecret != ""
}

// AuthCodeURL returns the authorization URL the user visits to grant access.
func (c *Cache) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Load reads the token file. Missing, unreadable or malformed files report false.
func (c *Cache) Load() (*models.CachedToken, bool) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, false
	}

	var tok models.CachedToken
	if err := json.Unmarshal(data, &tok); err != nil {
		c.logger.Debug("ignoring malformed token cache", "path", c.path, "error", err)
		return nil, false
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, false
	}
	return &tok, true
}

// Save replaces the token file atomically by writing a sibling temp file and renaming it into place.
func (c *Cache) Save(tok *models.CachedToken) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(c.path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp token file: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write token: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync token: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close token file: %w", err)
	}
	if err := os.Chmod(tmp, 0o600); err != nil {
		return fmt.Errorf("failed to set token permissions: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}

// IsExpired reports whether tok is at or past its expiry. A token without expires_at is expired.
func (c *Cache) IsExpired(tok *models.CachedToken) bool {
	if tok == nil || tok.AccessToken == "" || tok.ExpiresAt == 0 {
		return true
	}
	return c.now().Unix() >= tok.ExpiresAt
}

// Refresh exchanges the refresh token for a new access token and persists it.
//
// On failure the file on disk is left as it was.
func (c *Cache) Refresh(ctx context.Context, tok *models.CachedToken) (*models.CachedToken, error) {
	if tok == nil || tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, shared.ErrNoRefreshToken)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if c.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.client)
	}

	c.logger.Debug("refreshing streaming token", "token", shared.RedactToken(tok.AccessToken))

	fresh, err := c.config.TokenSource(ctx, &oauth2.Token{RefreshToken: tok.RefreshToken}).Token()
	if err != nil {
		c.logger.Warn("token refresh failed", "error", err)
		return nil, refreshError(err)
	}

	next := FromOAuth2(fresh, c.now())
	if next.RefreshToken == "" {
		next.RefreshToken = tok.RefreshToken
	}
	if next.Scope == "" {
		next.Scope = tok.Scope
	}

	if err := c.Save(next); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}

	c.logger.Info("streaming token refreshed", "expires_at", time.Unix(next.ExpiresAt, 0).Format(time.RFC3339))
	return next, nil
}

// refreshError reduces a token endpoint failure to its error code and status.
// The description and body returned by the endpoint only reach the log.
func refreshError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		code := re.ErrorCode
		if code == "" {
			code = "unknown_error"
		}
		return fmt.Errorf("%w: token endpoint returned %s (status %d)", shared.ErrRefreshFailed, code, status)
	}
	return fmt.Errorf("%w: %w", shared.ErrRefreshFailed, shared.TransportError("spotify-accounts", err))
}

// EnsureValid loads the token and refreshes it when expired.
func (c *Cache) EnsureValid(ctx context.Context) (*models.CachedToken, error) {
	tok, ok := c.Load()
	if !ok {
		return nil, shared.ErrNotAuthenticated
	}
	if !c.IsExpired(tok) {
		return tok, nil
	}

	v, err, _ := c.group.Do("refresh", func() (any, error) {
		// A flight that finished while this caller waited may already have written a fresh token.
		current, ok := c.Load()
		if !ok {
			return nil, shared.ErrNotAuthenticated
		}
		if !c.IsExpired(current) {
			return current, nil
		}
		return c.Refresh(context.WithoutCancel(ctx), current)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.CachedToken), nil
}

// AccessToken returns a valid access token, refreshing when needed.
func (c *Cache) AccessToken(ctx context.Context) (string, error) {
	tok, err := c.EnsureValid(ctx)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// Exchange trades an authorization code for a token and persists it.
func (c *Cache) Exchange(ctx context.Context, code string) (*models.CachedToken, error) {
	if c.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.client)
	}
	tok, err := c.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}

	cached := FromOAuth2(tok, c.now())
	if err := c.Save(cached); err != nil {
		return nil, err
	}
	return cached, nil
}

// Status inspects the cache without touching the network.
func (c *Cache) Status() models.AuthStatus {
	if !c.Configured() {
		return models.AuthStatus{NeedsReauth: true, Debug: models.AuthCredentialsNotConfigured}
	}

	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return models.AuthStatus{NeedsReauth: true, Debug: models.AuthCacheFileMissing}
	}

	tok, ok := c.Load()
	if err != nil || len(data) == 0 || !ok {
		return models.AuthStatus{NeedsReauth: true, Debug: models.AuthTokenInfoNone}
	}
	if tok.AccessToken == "" {
		return models.AuthStatus{NeedsReauth: true, Debug: models.AuthNoAccessToken}
	}

	authenticated := !c.IsExpired(tok) || tok.RefreshToken != ""
	return models.AuthStatus{
		Authenticated: authenticated,
		NeedsReauth:   !authenticated,
		Debug:         models.AuthTokenExists,
		ExpiresAt:     tok.ExpiresAt,
		TokenPrefix:   shared.RedactToken(tok.AccessToken),
	}
}

// FromOAuth2 converts an oauth2 token into the cache file representation.
func FromOAuth2(t *oauth2.Token, now time.Time) *models.CachedToken {
	tok := &models.CachedToken{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
	}
	if scope, ok := t.Extra("scope").(string); ok {
		tok.Scope = scope
	}
	if !t.Expiry.IsZero() {
		tok.ExpiresAt = t.Expiry.Unix()
		if in := t.Expiry.Sub(now); in > 0 {
			tok.ExpiresIn = int(in.Seconds())
		}
	}
	return tok
}
