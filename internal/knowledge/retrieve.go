// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/pdiddy/solaris/pkg/types"
)

// Search returns the k passages most relevant to query, most relevant
// first. With an embedder configured and embedded passages present it
// ranks by cosine similarity; otherwise by FTS5 rank.
func (s *Store) Search(ctx context.Context, query string, k int) ([]types.Passage, error) {
	if k <= 0 {
		k = defaultTopK
	}

	if s.embedder != nil {
		var embedded int
		if err := s.db.QueryRowContext(ctx,
			`SELECT count(*) FROM passages WHERE embedding IS NOT NULL`,
		).Scan(&embedded); err != nil {
			return nil, fmt.Errorf("checking embeddings: %w", err)
		}
		if embedded > 0 {
			return s.searchVector(ctx, query, k)
		}
		s.logger.Warn("embedder configured but index has no embeddings, using full-text ranking")
	}

	return s.searchFullText(ctx, query, k)
}

func (s *Store) searchFullText(ctx context.Context, query string, k int) ([]types.Passage, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT p.content, p.source_path, p.page
		FROM passages_fts
		JOIN passages p ON p.rowid = passages_fts.rowid
		WHERE passages_fts MATCH ?
		ORDER BY passages_fts.rank, p.rowid
		LIMIT ?`, match, k)
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

type scored struct {
	passage types.Passage
	rowid   int64
	score   float32
}

func (s *Store) searchVector(ctx context.Context, query string, k int) ([]types.Passage, error) {
	qvec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT rowid, content, source_path, page, embedding FROM passages WHERE embedding IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("querying passage index: %w", err)
	}
	defer rows.Close()

	var candidates []scored
	for rows.Next() {
		var (
			c    scored
			blob []byte
		)
		if err := rows.Scan(&c.rowid, &c.passage.Text, &c.passage.SourcePath, &c.passage.Page, &blob); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			s.logger.Warn("skipping passage with corrupt embedding", zap.Int64("rowid", c.rowid), zap.Error(err))
			continue
		}
		if len(vec) != len(qvec) {
			return nil, fmt.Errorf("embedding dimension mismatch: index has %d, query has %d", len(vec), len(qvec))
		}
		c.score = dot(qvec, vec)
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].rowid < candidates[j].rowid
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	results := make([]types.Passage, len(candidates))
	for i, c := range candidates {
		results[i] = c.passage
	}
	return results, nil
}

// ftsQuery turns free text into an FTS5 expression: each word becomes a
// quoted term, terms are OR-ed so partially matching passages still rank.
func ftsQuery(text string) string {
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(words))
	seen := make(map[string]bool)
	for _, w := range words {
		w = strings.ToLower(w)
		if len([]rune(w)) < 2 || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, `"`+w+`"`)
	}
	return strings.Join(terms, " OR ")
}
