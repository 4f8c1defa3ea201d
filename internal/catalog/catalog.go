package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a path has no catalog entry.
var ErrNotFound = errors.New("catalog entry not found")

// Entry is one cataloged document.
type Entry struct {
	Path         string
	Filename     string
	DocumentType string
	Description  string
	DateModified time.Time
	AnalyzedAt   time.Time
	Deleted      bool
}

// Catalog is the persistence surface the analyzer needs. Store implements
// it against PostgreSQL; tests use an in-memory fake.
type Catalog interface {
	Get(ctx context.Context, path string) (Entry, error)
	Upsert(ctx context.Context, entry Entry) error
	ActivePaths(ctx context.Context) ([]string, error)
	MarkDeleted(ctx context.Context, path string) error
}

// Store is the PostgreSQL-backed catalog.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a Store on an existing connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Get returns the entry for an absolute file path, or ErrNotFound.
func (s *Store) Get(ctx context.Context, path string) (Entry, error) {
	const query = `
		SELECT path, filename, document_type, description, date_modified, analyzed_at, deleted
		FROM documents
		WHERE path = $1`

	var e Entry
	err := s.pool.QueryRow(ctx, query, path).Scan(
		&e.Path, &e.Filename, &e.DocumentType, &e.Description,
		&e.DateModified, &e.AnalyzedAt, &e.Deleted)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get catalog entry: %w", err)
	}
	return e, nil
}

// Upsert inserts or replaces the entry for its path, clearing any deletion
// marker.
func (s *Store) Upsert(ctx context.Context, entry Entry) error {
	const query = `
		INSERT INTO documents (path, filename, document_type, description, date_modified, analyzed_at, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
		ON CONFLICT (path) DO UPDATE SET
			filename      = EXCLUDED.filename,
			document_type = EXCLUDED.document_type,
			description   = EXCLUDED.description,
			date_modified = EXCLUDED.date_modified,
			analyzed_at   = EXCLUDED.analyzed_at,
			deleted       = FALSE`

	_, err := s.pool.Exec(ctx, query,
		entry.Path, entry.Filename, entry.DocumentType, entry.Description,
		entry.DateModified, entry.AnalyzedAt)
	if err != nil {
		return fmt.Errorf("upsert catalog entry: %w", err)
	}
	return nil
}

// ActivePaths returns every cataloged path not marked deleted.
func (s *Store) ActivePaths(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT path FROM documents WHERE NOT deleted`)
	if err != nil {
		return nil, fmt.Errorf("list catalog paths: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scan catalog path: %w", err)
		}
		paths = append(paths, path)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog paths: %w", err)
	}
	return paths, nil
}

// MarkDeleted flags a path as removed from disk without losing its history.
func (s *Store) MarkDeleted(ctx context.Context, path string) error {
	_, err := s.pool.Exec(ctx, `UPDATE documents SET deleted = TRUE WHERE path = $1`, path)
	if err != nil {
		return fmt.Errorf("mark catalog entry deleted: %w", err)
	}
	return nil
}

// List returns all entries, deleted ones included, newest analysis first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	const query = `
		SELECT path, filename, document_type, description, date_modified, analyzed_at, deleted
		FROM documents
		ORDER BY analyzed_at DESC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list catalog entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Path, &e.Filename, &e.DocumentType, &e.Description,
			&e.DateModified, &e.AnalyzedAt, &e.Deleted); err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog entries: %w", err)
	}
	return entries, nil
}
