package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/mtrack/internal/models"
	"github.com/desertthunder/mtrack/internal/server"
	"github.com/desertthunder/mtrack/internal/shared"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/urfave/cli/v3"
)

const authTimeout = 2 * time.Minute

// SpotifyAuth performs the OAuth2 authorization code flow and writes the token cache.
//
// Starts a local HTTP server on the redirect URI, opens the browser for consent, and waits for the callback.
func (r *Runner) SpotifyAuth(ctx context.Context, cmd *cli.Command) error {
	if !r.tokens.Configured() {
		return fmt.Errorf("%w: set credentials.spotify.client_id and client_secret, or SPOTIPY_CLIENT_ID and SPOTIPY_CLIENT_SECRET",
			shared.ErrMissingCredentials)
	}

	token, err := r.doOAuth(ctx, !cmd.Bool("no-browser"))
	if err != nil {
		return err
	}

	r.logger.Info("spotify authorized", "token", shared.RedactToken(token.AccessToken))
	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Token cached at %s\n\n", r.tokens.Path())
	r.writePlain("You can now use: mtrack spotify stats\n")
	return nil
}

// SpotifyStatus prints the token cache state without touching the network.
func (r *Runner) SpotifyStatus(ctx context.Context, cmd *cli.Command) error {
	status := r.tokens.Status()
	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	if status.Authenticated {
		r.writePlain("✓ Authenticated (%s)\n", status.TokenPrefix)
		if status.ExpiresAt > 0 {
			r.writePlain("Expires: %s\n", time.Unix(status.ExpiresAt, 0).Format(time.RFC1123))
		}
		return nil
	}

	r.writePlain("✗ Not authenticated (%s)\n", status.Debug)
	switch status.Debug {
	case models.AuthCredentialsNotConfigured:
		r.writePlain("Run 'mtrack setup config' and add your Spotify client credentials.\n")
	default:
		r.writePlain("Run 'mtrack spotify auth' to connect your account.\n")
	}
	return nil
}

// SpotifyRefresh forces a refresh of the cached token.
func (r *Runner) SpotifyRefresh(ctx context.Context, cmd *cli.Command) error {
	tok, ok := r.tokens.Load()
	if !ok {
		return fmt.Errorf("%w: run 'mtrack spotify auth' first", shared.ErrNotAuthenticated)
	}

	next, err := r.tokens.Refresh(ctx, tok)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Token refreshed, expires %s\n", time.Unix(next.ExpiresAt, 0).Format(time.RFC1123))
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, openBrowser bool) (*models.CachedToken, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	addr, path, err := callbackAddress(r.config.Credentials.Spotify.RedirectURI)
	if err != nil {
		return nil, err
	}

	oauthHandler := server.NewOAuthHandler(r.tokens, state)
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	if path == "/callback" {
		oauthHandler.Mount(router)
	} else {
		router.Handle(path, oauthHandler)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", addr)
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	authURL := r.tokens.AuthCodeURL(state)
	if openBrowser {
		r.writePlain("→ Opening browser for Spotify authorization...\n")
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			openBrowser = false
		}
	}
	if !openBrowser {
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (%s timeout)...\n", authTimeout)

	timeout := time.NewTimer(authTimeout)
	defer timeout.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after %s", shared.ErrTimeout, authTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrNotAuthenticated)
	}
	return result.Token, nil
}

// callbackAddress splits a redirect URI into the listen address and the callback path.
func callbackAddress(redirectURI string) (string, string, error) {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Host == "" {
		return "", "", fmt.Errorf("%w: invalid redirect_uri %q", shared.ErrInvalidConfig, redirectURI)
	}

	host, port := u.Hostname(), u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}

	path := u.Path
	if path == "" {
		path = "/"
	}
	return net.JoinHostPort(host, port), path, nil
}
