// Package services implements clients for the third-party APIs that enrich the local library.
//
// # Catalog Client
//
// [CatalogClient] talks to the public Jikan API (MyAnimeList data). Requests are unauthenticated and paced
// by a [rate.Limiter]. Payloads are normalized into [models.CatalogItem]:
//   - genres become unique plain names in upstream order
//   - the image is the largest rendition offered
//   - optional fields that are missing upstream stay nil
//
// Trending is best-effort and reports failures on its result instead of returning an error.
//
// # Spotify Client
//
// [SpotifyService] wraps the Spotify Web API. It takes a [TokenSource] at construction: the file-backed
// token cache for the local user, or a caller-supplied bearer token via [SpotifyService.WithTokens].
// Pagination parameters are forwarded unchanged.
//
// # Error Handling
//
// All failures are [shared.UpstreamError] values matched with errors.Is:
//   - [shared.ErrUnauthenticated] : token unavailable or rejected (401)
//   - [shared.ErrNotFound] : upstream 404
//   - [shared.ErrTimeout] : request deadline exceeded
//   - [shared.ErrUpstream] : any other transport failure or non-2xx status
//
// Response bodies are never carried in errors.
package services
