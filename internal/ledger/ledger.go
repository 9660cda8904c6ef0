// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger keeps an append-only SQLite history of saved papers. It
// is write-mostly: fetches never read it to decide where to look.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/papers-dl/pkg/types"
)

// DefaultLimit bounds List when no limit is given.
const DefaultLimit = 50

// Store is the download ledger.
type Store struct {
	db *sql.DB
}

// Open opens or creates the ledger database at path, creating its parent
// directory and schema as needed.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS downloads (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			identifier TEXT NOT NULL,
			kind TEXT NOT NULL,
			provider TEXT,
			source_url TEXT,
			mirror TEXT,
			pdf_path TEXT NOT NULL,
			hash TEXT NOT NULL,
			doi TEXT,
			title TEXT,
			authors TEXT,
			year INTEGER,
			size INTEGER,
			fetched_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_downloads_identifier ON downloads(identifier)`,
		`CREATE INDEX IF NOT EXISTS idx_downloads_hash ON downloads(hash)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record appends a row for p.
func (s *Store) Record(ctx context.Context, p *types.Paper) error {
	authors, err := json.Marshal(p.Authors)
	if err != nil {
		return fmt.Errorf("encoding authors: %w", err)
	}
	fetchedAt := p.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO downloads
			(identifier, kind, provider, source_url, mirror, pdf_path, hash, doi, title, authors, year, size, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Identifier, p.Kind, p.Provider, p.SourceURL, p.Mirror, p.PDFPath, p.Hash,
		p.DOI, p.Title, string(authors), p.Year, p.Size, fetchedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting download of %s: %w", p.Identifier, err)
	}
	return nil
}

// List returns up to limit rows, newest first. identifier, when non-empty,
// restricts the rows to that identifier.
func (s *Store) List(ctx context.Context, identifier string, limit int) ([]*types.Paper, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := `SELECT identifier, kind, provider, source_url, mirror, pdf_path, hash, doi, title, authors, year, size, fetched_at
		FROM downloads`
	var args []any
	if identifier != "" {
		query += ` WHERE identifier = ?`
		args = append(args, identifier)
	}
	query += ` ORDER BY rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying downloads: %w", err)
	}
	defer rows.Close()

	var papers []*types.Paper
	for rows.Next() {
		var (
			p                                    types.Paper
			provider, sourceURL, mirror, doi, ti sql.NullString
			authors, fetchedAt                   sql.NullString
			year, size                           sql.NullInt64
		)
		if err := rows.Scan(
			&p.Identifier, &p.Kind, &provider, &sourceURL, &mirror, &p.PDFPath, &p.Hash,
			&doi, &ti, &authors, &year, &size, &fetchedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning download row: %w", err)
		}
		p.Provider, p.SourceURL, p.Mirror = provider.String, sourceURL.String, mirror.String
		p.DOI, p.Title = doi.String, ti.String
		p.Year, p.Size = int(year.Int64), size.Int64
		if authors.Valid && authors.String != "" && authors.String != "null" {
			if err := json.Unmarshal([]byte(authors.String), &p.Authors); err != nil {
				return nil, fmt.Errorf("decoding authors of %s: %w", p.Identifier, err)
			}
		}
		if t, err := time.Parse(time.RFC3339Nano, fetchedAt.String); err == nil {
			p.FetchedAt = t
		}
		papers = append(papers, &p)
	}
	return papers, rows.Err()
}
