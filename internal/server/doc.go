// Package server exposes the library, the catalog and the streaming account over HTTP.
//
// # Routing
//
// [New] builds a chi router. Every request passes through [RequestID], [AccessLog],
// chi's Recoverer and [CORS], in that order. Library routes are mounted per kind
// (/anime, /manga, /games, /music) by one generic handler set, so all four kinds share
// list, search, get, create, replace (PUT), patch (PATCH) and delete semantics.
//
// # Errors
//
// Handlers never write error bodies themselves. They pass the error to writeError, which
// maps sentinel errors from the shared package onto a status code and a stable code string:
//
//	ErrInvalidInput        400 INVALID_INPUT
//	ErrNotAuthenticated    401 NOT_AUTHENTICATED
//	ErrInvalidBearerToken  401 INVALID_BEARER_TOKEN
//	ErrNotFound            404 NOT_FOUND
//	ErrUpstream            502 UPSTREAM_ERROR
//	ErrTimeout             502 UPSTREAM_TIMEOUT
//	ErrServiceUnavailable  503 SERVICE_UNAVAILABLE
//
// Anything unmapped is a 500 whose message is replaced with a generic one.
//
// # Streaming credentials
//
// Streaming routes use the file-backed token cache unless the request carries an
// "Authorization: Bearer" header, in which case that token is used for the request only.
//
// Two OAuth callback paths exist. The server flow (/spotify/login then /callback) keeps
// issued states in memory for ten minutes. The CLI flow uses [OAuthHandler], which accepts
// exactly one callback and reports the outcome on a channel.
package server
