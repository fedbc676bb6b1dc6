// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package knowledge is the passage store behind question answering. It
// indexes a corpus of documents into SQLite (full-text ranking, with
// optional embedding ranking) or PostgreSQL with pgvector, and serves
// top-k passage search.
package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pdiddy/solaris/internal/embed"
	"github.com/pdiddy/solaris/pkg/types"
)

// defaultTopK is used when a caller passes k <= 0.
const defaultTopK = 10

// Store manages the SQLite passage index.
type Store struct {
	db       *sql.DB
	path     string
	embedder embed.Embedder
	logger   *zap.Logger
}

// Option configures a Store or PGStore.
type Option func(*options)

type options struct {
	embedder embed.Embedder
	logger   *zap.Logger
}

// WithEmbedder ranks by embedding similarity instead of full-text rank.
func WithEmbedder(e embed.Embedder) Option {
	return func(o *options) { o.embedder = e }
}

// WithLogger sets the store's logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func applyOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewStore opens or creates the SQLite index at path and creates the
// schema if it does not exist.
func NewStore(path string, opts ...Option) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	o := applyOptions(opts)
	s := &Store{
		db:       db,
		path:     path,
		embedder: o.embedder,
		logger:   o.logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// OpenExisting opens the index at path only if the file exists. A missing
// index is reported with an error wrapping os.ErrNotExist so callers can
// run in degraded mode.
func OpenExisting(path string, opts ...Option) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("passage index %s: %w", path, err)
	}
	return NewStore(path, opts...)
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			path TEXT PRIMARY KEY,
			file_mod_time TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS passages (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			source_path TEXT NOT NULL REFERENCES documents(path),
			page INTEGER NOT NULL DEFAULT 0,
			heading TEXT,
			content TEXT NOT NULL,
			embedding BLOB
		)`,
		`CREATE INDEX IF NOT EXISTS idx_passages_source ON passages(source_path)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='passages_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE passages_fts USING fts5(content, heading, content=passages, content_rowid=rowid)`,
			`CREATE TRIGGER passages_ai AFTER INSERT ON passages BEGIN
				INSERT INTO passages_fts(rowid, content, heading) VALUES (new.rowid, new.content, new.heading);
			END`,
			`CREATE TRIGGER passages_ad AFTER DELETE ON passages BEGIN
				INSERT INTO passages_fts(passages_fts, rowid, content, heading) VALUES('delete', old.rowid, old.content, old.heading);
			END`,
			`CREATE TRIGGER passages_au AFTER UPDATE ON passages BEGIN
				INSERT INTO passages_fts(passages_fts, rowid, content, heading) VALUES('delete', old.rowid, old.content, old.heading);
				INSERT INTO passages_fts(rowid, content, heading) VALUES (new.rowid, new.content, new.heading);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Stats holds document and passage counts.
type Stats struct {
	Documents int `json:"documents"`
	Passages  int `json:"passages"`
	Embedded  int `json:"embedded"`
}

// Stats counts what the index holds.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT (SELECT count(*) FROM documents),
			(SELECT count(*) FROM passages),
			(SELECT count(*) FROM passages WHERE embedding IS NOT NULL)`,
	).Scan(&st.Documents, &st.Passages, &st.Embedded)
	if err != nil {
		return Stats{}, fmt.Errorf("counting index: %w", err)
	}
	return st, nil
}

// DocumentModTime implements Indexer.
func (s *Store) DocumentModTime(ctx context.Context, path string) (string, bool, error) {
	var modTime string
	err := s.db.QueryRowContext(ctx,
		`SELECT file_mod_time FROM documents WHERE path = ?`, path,
	).Scan(&modTime)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("looking up document %s: %w", path, err)
	}
	return modTime, true, nil
}

// DocumentPaths implements Indexer.
func (s *Store) DocumentPaths(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM documents ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// ReplaceDocument implements Indexer. Old passages for the document are
// removed in the same transaction.
func (s *Store) ReplaceDocument(ctx context.Context, path, modTime string, chunks []types.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM passages WHERE source_path = ?`, path); err != nil {
		return fmt.Errorf("deleting old passages: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (path, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		path, modTime,
	)
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO passages (id, source_path, page, heading, content, embedding)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		var blob []byte
		if len(c.Embedding) > 0 {
			blob = encodeVector(c.Embedding)
		}
		if _, err := stmt.ExecContext(ctx, c.ID, path, c.Page, c.Heading, c.Text, blob); err != nil {
			return fmt.Errorf("inserting passage %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// RemoveDocument implements Indexer. Passages are deleted explicitly so the
// FTS triggers fire.
func (s *Store) RemoveDocument(ctx context.Context, path string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM passages WHERE source_path = ?`, path); err != nil {
		return fmt.Errorf("removing passages of %s: %w", path, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE path = ?`, path); err != nil {
		return fmt.Errorf("removing document %s: %w", path, err)
	}
	return tx.Commit()
}
