// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/solaris/internal/embed"
	"github.com/pdiddy/solaris/pkg/types"
)

// Indexer is the write side of a passage store.
type Indexer interface {
	DocumentModTime(ctx context.Context, path string) (modTime string, ok bool, err error)
	DocumentPaths(ctx context.Context) ([]string, error)
	ReplaceDocument(ctx context.Context, path, modTime string, chunks []types.Chunk) error
	RemoveDocument(ctx context.Context, path string) error
}

// corpusExtensions lists the document types Ingest reads.
var corpusExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// IngestSummary holds counts from an indexing run.
type IngestSummary struct {
	Indexed  int
	Updated  int
	Skipped  int
	Removed  int
	Failed   int
	Passages int
}

// Total returns the number of documents processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Removed + s.Failed
}

// Ingest walks corpusRoot and indexes every supported document into idx.
// Unchanged documents (same mod time) are skipped; documents that vanished
// from the corpus are removed. Source paths are stored relative to
// corpusRoot with forward slashes. A nil embedder stores passages without
// vectors. Progress lines go to w.
func Ingest(ctx context.Context, idx Indexer, embedder embed.Embedder, corpusRoot string, w io.Writer) (IngestSummary, error) {
	var summary IngestSummary
	seen := make(map[string]bool)

	err := filepath.WalkDir(corpusRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != corpusRoot && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !corpusExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rel, err := filepath.Rel(corpusRoot, path)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", path, err)
		}
		rel = filepath.ToSlash(rel)
		seen[rel] = true

		info, err := d.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", rel, err)
			summary.Failed++
			return nil
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		stored, known, err := idx.DocumentModTime(ctx, rel)
		if err != nil {
			return err
		}
		if known && stored == modTime {
			fmt.Fprintf(w, "skipped %s\n", rel)
			summary.Skipped++
			return nil
		}

		n, err := ingestDocument(ctx, idx, embedder, path, rel, modTime)
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", rel, err)
			summary.Failed++
			return nil
		}
		summary.Passages += n

		if known {
			fmt.Fprintf(w, "updated %s (%d passages)\n", rel, n)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d passages)\n", rel, n)
			summary.Indexed++
		}
		return nil
	})
	if err != nil {
		return summary, fmt.Errorf("walking corpus %s: %w", corpusRoot, err)
	}

	paths, err := idx.DocumentPaths(ctx)
	if err != nil {
		return summary, err
	}
	for _, p := range paths {
		if seen[p] {
			continue
		}
		if err := idx.RemoveDocument(ctx, p); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", p, err)
			summary.Failed++
			continue
		}
		fmt.Fprintf(w, "removed %s\n", p)
		summary.Removed++
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, removed: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Removed, summary.Failed)

	return summary, nil
}

func ingestDocument(ctx context.Context, idx Indexer, embedder embed.Embedder, path, rel, modTime string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}

	chunks := chunkDocument(rel, string(data))
	if embedder != nil {
		for i := range chunks {
			vec, err := embedder.Embed(ctx, chunks[i].Text)
			if err != nil {
				return 0, fmt.Errorf("embedding passage %s: %w", chunks[i].ID, err)
			}
			chunks[i].Embedding = vec
		}
	}

	if err := idx.ReplaceDocument(ctx, rel, modTime, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}
