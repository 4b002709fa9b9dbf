// Package repositories implements SQLite persistence for the tracked library.
//
// A generic store implements [models.Repository] once; each kind contributes a table
// description (columns, search columns, scan and value functions).
//
// Key Implementations:
//   - [AnimeRepository] : search over title and English title
//   - [MangaRepository]
//   - [GameRepository]
//   - [MusicRepository] : search over title and artist
//   - [Library] : all four repositories plus the aggregate [Library.Stats] view
//
// Missing rows are reported as [shared.ErrNotFound]; validation failures wrap [shared.ErrInvalidInput].
package repositories
