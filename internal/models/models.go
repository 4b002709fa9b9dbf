// package models defines the data model for the media tracker
package models

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Kind names a tracked media kind. It doubles as the HTTP path segment.
type Kind string

const (
	KindAnime Kind = "anime"
	KindManga Kind = "manga"
	KindGame  Kind = "games"
	KindMusic Kind = "music"
)

// Kinds lists every library kind in display order.
var Kinds = []Kind{KindAnime, KindManga, KindGame, KindMusic}

// ParseKind accepts the plural path form and the singular ("game").
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "anime":
		return KindAnime, nil
	case "manga":
		return KindManga, nil
	case "game", "games":
		return KindGame, nil
	case "music":
		return KindMusic, nil
	}
	return "", fmt.Errorf("unknown kind %q", s)
}

// Record is implemented by every locally persisted entity.
type Record interface {
	RecordID() int64
	Validate() error
	Entry() LibraryEntry
}

// ListOptions filters and pages a library listing.
type ListOptions struct {
	Status string
	Skip   int
	Limit  int
}

// DefaultListLimit is applied when ListOptions.Limit is zero.
const DefaultListLimit = 100

// Repository defines the data access operations shared by all library kinds.
type Repository[T Record] interface {
	Create(ctx context.Context, record *T) error             // Create inserts record and assigns its ID and timestamps
	Get(ctx context.Context, id int64) (*T, error)           // Get retrieves a record by ID
	Update(ctx context.Context, record *T) error             // Update replaces the mutable fields of an existing record
	Delete(ctx context.Context, id int64) error              // Delete removes a record by ID
	List(ctx context.Context, opts ListOptions) ([]T, error) // List retrieves records ordered by most recently updated
	Search(ctx context.Context, term string) ([]T, error)    // Search matches records by title
}

// Timestamps carries creation and modification times. updated_at never precedes created_at.
type Timestamps struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Stamp sets both times for a new record.
func (t *Timestamps) Stamp(now time.Time) {
	now = now.UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
}

// Touch moves UpdatedAt forward, never behind CreatedAt.
func (t *Timestamps) Touch(now time.Time) {
	now = now.UTC()
	if now.Before(t.CreatedAt) {
		now = t.CreatedAt
	}
	t.UpdatedAt = now
}
