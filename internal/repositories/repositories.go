package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/mtrack/internal/models"
	"github.com/desertthunder/mtrack/internal/shared"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// table describes how one record kind maps onto its SQLite table.
type table[T models.Record] struct {
	name    string
	kind    models.Kind
	columns []string // mutable columns, in values() order
	search  []string // columns matched by Search
	values  func(*T) []any
	scan    func(rowScanner) (T, error)
	meta    func(*T) (*int64, *models.Timestamps)
}

// store implements [models.Repository] for a single table.
type store[T models.Record] struct {
	db  *sql.DB
	t   table[T]
	now func() time.Time
}

func newStore[T models.Record](db *sql.DB, t table[T]) store[T] {
	return store[T]{db: db, t: t, now: time.Now}
}

func (s *store[T]) selectColumns() string {
	return "id, " + strings.Join(s.t.columns, ", ") + ", created_at, updated_at"
}

// Create validates record, fills its defaults and inserts it, assigning ID and timestamps.
func (s *store[T]) Create(ctx context.Context, record *T) error {
	if d, ok := any(record).(interface{ ApplyDefaults() }); ok {
		d.ApplyDefaults()
	}
	if err := (*record).Validate(); err != nil {
		return err
	}

	id, ts := s.t.meta(record)
	ts.Stamp(s.now())

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(s.t.columns)+2), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s, created_at, updated_at) VALUES (%s)",
		s.t.name, strings.Join(s.t.columns, ", "), placeholders)

	args := append(s.t.values(record), ts.CreatedAt, ts.UpdatedAt)
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert %s: %w", s.t.kind, err)
	}

	newID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read %s id: %w", s.t.kind, err)
	}
	*id = newID
	return nil
}

// Get retrieves a record by ID.
func (s *store[T]) Get(ctx context.Context, id int64) (*T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", s.selectColumns(), s.t.name)
	record, err := s.t.scan(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %d: %w", s.t.kind, id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", s.t.kind, err)
	}
	return &record, nil
}

// Update replaces every mutable field of an existing record and moves updated_at forward.
//
// created_at is read back from the stored row, so callers may pass a record without timestamps.
func (s *store[T]) Update(ctx context.Context, record *T) error {
	if err := (*record).Validate(); err != nil {
		return err
	}
	id, ts := s.t.meta(record)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var createdAt time.Time
	err = tx.QueryRowContext(ctx, fmt.Sprintf("SELECT created_at FROM %s WHERE id = ?", s.t.name), *id).Scan(&createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", s.t.kind, *id, shared.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", s.t.kind, err)
	}
	ts.CreatedAt = createdAt
	ts.Touch(s.now())

	assignments := make([]string, len(s.t.columns))
	for i, c := range s.t.columns {
		assignments[i] = c + " = ?"
	}
	query := fmt.Sprintf("UPDATE %s SET %s, updated_at = ? WHERE id = ?", s.t.name, strings.Join(assignments, ", "))
	args := append(s.t.values(record), ts.UpdatedAt, *id)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update %s: %w", s.t.kind, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s update: %w", s.t.kind, err)
	}
	return nil
}

// Delete removes a record by ID.
func (s *store[T]) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.t.name), id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", s.t.kind, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s %d: %w", s.t.kind, id, shared.ErrNotFound)
	}
	return nil
}

// List retrieves records, most recently updated first.
func (s *store[T]) List(ctx context.Context, opts models.ListOptions) ([]T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", s.selectColumns(), s.t.name)
	args := []any{}

	if opts.Status != "" {
		query += " WHERE status = ?"
		args = append(args, opts.Status)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = models.DefaultListLimit
	}
	query += " ORDER BY updated_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, max(opts.Skip, 0))

	return s.query(ctx, query, args...)
}

// Search matches records whose searchable columns contain term, ignoring case.
func (s *store[T]) Search(ctx context.Context, term string) ([]T, error) {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(term))) + "%"

	clauses := make([]string, len(s.t.search))
	args := make([]any, len(s.t.search))
	for i, c := range s.t.search {
		clauses[i] = fmt.Sprintf("LOWER(%s) LIKE ? ESCAPE '\\'", c)
		args[i] = pattern
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY updated_at DESC, id DESC",
		s.selectColumns(), s.t.name, strings.Join(clauses, " OR "))
	return s.query(ctx, query, args...)
}

func (s *store[T]) query(ctx context.Context, query string, args ...any) ([]T, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.t.kind, err)
	}
	defer rows.Close()

	records := []T{}
	for rows.Next() {
		record, err := s.t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", s.t.kind, err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return records, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
