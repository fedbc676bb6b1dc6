// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// ExportEntry is one passage as written by ExportYAML and ExportJSON.
type ExportEntry struct {
	ID         string `json:"id" yaml:"id"`
	SourcePath string `json:"source_path" yaml:"source_path"`
	Page       int    `json:"page" yaml:"page"`
	Heading    string `json:"heading,omitempty" yaml:"heading,omitempty"`
	Content    string `json:"content" yaml:"content"`
	Embedded   bool   `json:"embedded" yaml:"embedded"`
}

// ExportYAML writes every passage, or those of sourcePath when it is
// non-empty, to path as YAML.
func (s *Store) ExportYAML(ctx context.Context, path, sourcePath string) error {
	entries, err := s.exportEntries(ctx, sourcePath)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON is ExportYAML with JSON output.
func (s *Store) ExportJSON(ctx context.Context, path, sourcePath string) error {
	entries, err := s.exportEntries(ctx, sourcePath)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context, sourcePath string) ([]ExportEntry, error) {
	query := `SELECT id, source_path, page, heading, content, embedding IS NOT NULL FROM passages`
	var args []any
	if sourcePath != "" {
		query += ` WHERE source_path = ?`
		args = append(args, sourcePath)
	}
	query += ` ORDER BY source_path, page, rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	defer rows.Close()

	entries := []ExportEntry{}
	for rows.Next() {
		var (
			e       ExportEntry
			heading sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.SourcePath, &e.Page, &heading, &e.Content, &e.Embedded); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		e.Heading = heading.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
