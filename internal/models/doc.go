// Package models defines domain entities and persistence interfaces for the media tracker.
//
// The package contains two categories of types:
//
// 1. Library records: entities owned by the local database
//   - [Anime] : Series with episode progress and MAL linkage
//   - [Manga] : Series with chapter and volume progress
//   - [Game] : Games with playtime
//   - [Music] : Songs and albums with play counts and a streaming ID
//
// 2. External entities: built fresh per request from third-party payloads, never persisted
//   - [CatalogItem] : Normalized anime/manga catalog entry
//   - [StreamingArtist], [StreamingTrack], [StreamingAlbum], [StreamingPlaylist] : Music streaming data
//   - [WrappedStats] : Aggregated listening summary
//   - [CachedToken] : The single file-backed streaming credential
//
// Every library record implements [Record]. The [Repository] interface defines standard CRUD operations for database access.
package models
