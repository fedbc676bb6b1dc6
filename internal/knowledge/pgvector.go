// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"github.com/pdiddy/solaris/internal/embed"
	"github.com/pdiddy/solaris/pkg/types"
)

// PGStore keeps passages in PostgreSQL and ranks them with pgvector cosine
// distance. It always needs an embedder.
type PGStore struct {
	pool     *pgxpool.Pool
	embedder embed.Embedder
	logger   *zap.Logger
}

// NewPGStore connects to dsn. EnsureSchema must run before the first
// ReplaceDocument.
func NewPGStore(ctx context.Context, dsn string, opts ...Option) (*PGStore, error) {
	o := applyOptions(opts)
	if o.embedder == nil {
		return nil, errors.New("pgvector store requires an embedding provider")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	return &PGStore{pool: pool, embedder: o.embedder, logger: o.logger}, nil
}

// Close releases the pool.
func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}

// EnsureSchema creates the vector extension and tables. dims is the
// embedding width of the configured model.
func (s *PGStore) EnsureSchema(ctx context.Context, dims int) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS documents (
			path TEXT PRIMARY KEY,
			file_mod_time TEXT NOT NULL
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS passages (
			seq BIGSERIAL,
			id TEXT PRIMARY KEY,
			source_path TEXT NOT NULL REFERENCES documents(path) ON DELETE CASCADE,
			page INTEGER NOT NULL DEFAULT 0,
			heading TEXT,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, dims),
		`CREATE INDEX IF NOT EXISTS idx_passages_source ON passages(source_path)`,
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Search embeds query and returns the k nearest passages.
func (s *PGStore) Search(ctx context.Context, query string, k int) ([]types.Passage, error) {
	if k <= 0 {
		k = defaultTopK
	}
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT content, source_path, page FROM passages
		ORDER BY embedding <=> $1, seq
		LIMIT $2`, pgvector.NewVector(vec), k)
	if err != nil {
		return nil, fmt.Errorf("querying passage index: %w", err)
	}
	defer rows.Close()

	var results []types.Passage
	for rows.Next() {
		var p types.Passage
		if err := rows.Scan(&p.Text, &p.SourcePath, &p.Page); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

// DocumentModTime implements Indexer.
func (s *PGStore) DocumentModTime(ctx context.Context, path string) (string, bool, error) {
	var modTime string
	err := s.pool.QueryRow(ctx, `SELECT file_mod_time FROM documents WHERE path = $1`, path).Scan(&modTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("looking up document %s: %w", path, err)
	}
	return modTime, true, nil
}

// DocumentPaths implements Indexer.
func (s *PGStore) DocumentPaths(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT path FROM documents ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	paths, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return paths, nil
}

// ReplaceDocument implements Indexer. Every chunk must carry an embedding.
func (s *PGStore) ReplaceDocument(ctx context.Context, path, modTime string, chunks []types.Chunk) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM passages WHERE source_path = $1`, path); err != nil {
		return fmt.Errorf("deleting old passages: %w", err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO documents (path, file_mod_time) VALUES ($1, $2)
		 ON CONFLICT (path) DO UPDATE SET file_mod_time = excluded.file_mod_time`,
		path, modTime)
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	batch := &pgx.Batch{}
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return fmt.Errorf("passage %s has no embedding", c.ID)
		}
		batch.Queue(
			`INSERT INTO passages (id, source_path, page, heading, content, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (id) DO NOTHING`,
			c.ID, path, c.Page, c.Heading, c.Text, pgvector.NewVector(c.Embedding))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting passages: %w", err)
	}

	return tx.Commit(ctx)
}

// RemoveDocument implements Indexer.
func (s *PGStore) RemoveDocument(ctx context.Context, path string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE path = $1`, path); err != nil {
		return fmt.Errorf("removing document %s: %w", path, err)
	}
	return nil
}
