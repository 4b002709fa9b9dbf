// package auth manages the streaming service credential: the file-backed token cache,
// its OAuth2 refresh lifecycle, and caller-supplied bearer tokens.
package auth

import (
	"context"
	"strings"

	"github.com/desertthunder/mtrack/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// Scopes requested during authorization.
var Scopes = []string{
	"user-library-read",
	"user-follow-read",
	"playlist-read-private",
	"user-top-read",
	"user-read-recently-played",
}

// SpotifyOAuthConfig builds the OAuth2 configuration for the authorization code flow.
func SpotifyOAuthConfig(cfg shared.SpotifyConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   spotifyAuthURL,
			TokenURL:  spotifyTokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

// Bearer is an access token supplied by the caller. It is used as-is: never cached, never refreshed.
type Bearer string

// AccessToken returns the token, or [shared.ErrInvalidBearerToken] when it is blank.
func (b Bearer) AccessToken(context.Context) (string, error) {
	tok := strings.TrimSpace(string(b))
	if tok == "" {
		return "", shared.ErrInvalidBearerToken
	}
	return tok, nil
}

// Rejected is reported when upstream refuses the token.
func (b Bearer) Rejected() error { return shared.ErrInvalidBearerToken }

// FromHeader extracts the token from an "Authorization: Bearer ..." header value.
func FromHeader(value string) (Bearer, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(value), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return Bearer(strings.TrimSpace(token)), true
}
