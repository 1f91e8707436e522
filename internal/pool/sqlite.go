// Package pool supplies pre-vetted candidate locations per destination. The
// orchestrator treats it as a cheap collaborator whose results are safe to
// cache.
package pool

import (
	"context"
	"database/sql"
	"fmt"

	// SQLite driver, registered for database/sql.
	_ "github.com/mattn/go-sqlite3"

	"github.com/peregrine-ai/peregrine/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS candidates (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	destination TEXT NOT NULL,
	name        TEXT NOT NULL,
	category    TEXT NOT NULL DEFAULT '',
	quality     REAL NOT NULL DEFAULT 0,
	note        TEXT NOT NULL DEFAULT '',
	UNIQUE(destination, name)
);
CREATE INDEX IF NOT EXISTS idx_candidates_destination ON candidates(destination);
`

// SQLiteSource serves candidates from a local SQLite database.
type SQLiteSource struct {
	db *sql.DB
}

// NewSQLiteSource opens the database at path, creating the schema when
// missing.
func NewSQLiteSource(path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open candidate pool db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping candidate pool db: %w", err)
	}

	s := &SQLiteSource{db: db}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate candidate pool db: %w", err)
	}
	return s, nil
}

// FetchCandidatePool returns up to limit candidates for the destination at
// or above minQuality, best first.
func (s *SQLiteSource) FetchCandidatePool(ctx context.Context, destination string, minQuality float64, limit int) ([]domain.Candidate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, category, quality, note
		   FROM candidates
		  WHERE destination = ? COLLATE NOCASE AND quality >= ?
		  ORDER BY quality DESC, name ASC
		  LIMIT ?`,
		destination, minQuality, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query candidate pool: %w", err)
	}
	defer rows.Close()

	var candidates []domain.Candidate
	for rows.Next() {
		var c domain.Candidate
		if err := rows.Scan(&c.Name, &c.Category, &c.Quality, &c.Note); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return candidates, nil
}

// Add upserts candidates for a destination. Used by import tooling and tests.
func (s *SQLiteSource) Add(ctx context.Context, destination string, candidates ...domain.Candidate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin candidate insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO candidates (destination, name, category, quality, note)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare candidate insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range candidates {
		if _, err := stmt.ExecContext(ctx, destination, c.Name, c.Category, c.Quality, c.Note); err != nil {
			return fmt.Errorf("insert candidate %q: %w", c.Name, err)
		}
	}
	return tx.Commit()
}

// Close releases the underlying database handle.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}
