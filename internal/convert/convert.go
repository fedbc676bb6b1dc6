// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns PDF permit documents into corpus Markdown with
// page markers the indexer understands.
package convert

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Converter extracts the text of a PDF. Pages are separated by form feeds.
type Converter interface {
	Convert(ctx context.Context, pdfPath string) (string, error)
}

// Summary holds counts from a conversion run.
type Summary struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the number of PDFs processed.
func (s Summary) Total() int { return s.Converted + s.Skipped + s.Failed }

// Tree converts every PDF under rawRoot into a Markdown file at the same
// relative path under corpusRoot. A PDF whose Markdown is newer than the PDF
// is skipped unless force is set. Progress lines go to w.
func Tree(ctx context.Context, c Converter, rawRoot, corpusRoot string, force bool, w io.Writer) (Summary, error) {
	var summary Summary
	err := filepath.WalkDir(rawRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != rawRoot && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(rawRoot, path)
		if err != nil {
			return err
		}
		out := filepath.Join(corpusRoot, strings.TrimSuffix(rel, filepath.Ext(rel))+".md")
		name := filepath.ToSlash(rel)

		if !force && upToDate(path, out) {
			fmt.Fprintf(w, "skipped:   %s\n", name)
			summary.Skipped++
			return nil
		}

		if err := convertFile(ctx, c, path, out); err != nil {
			fmt.Fprintf(w, "failed:    %s (%v)\n", name, err)
			summary.Failed++
			return nil
		}
		fmt.Fprintf(w, "converted: %s\n", name)
		summary.Converted++
		return nil
	})
	if err != nil {
		return summary, fmt.Errorf("walking %s: %w", rawRoot, err)
	}
	fmt.Fprintf(w, "\nConvert summary: %d converted, %d skipped, %d failed (total: %d)\n",
		summary.Converted, summary.Skipped, summary.Failed, summary.Total())
	return summary, nil
}

func upToDate(pdfPath, mdPath string) bool {
	src, err := os.Stat(pdfPath)
	if err != nil {
		return false
	}
	dst, err := os.Stat(mdPath)
	if err != nil {
		return false
	}
	return !dst.ModTime().Before(src.ModTime())
}

func convertFile(ctx context.Context, c Converter, pdfPath, mdPath string) error {
	raw, err := c.Convert(ctx, pdfPath)
	if err != nil {
		return err
	}
	body := PageMarkers(raw)
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("no text extracted")
	}
	if err := os.MkdirAll(filepath.Dir(mdPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(mdPath, []byte(body), 0o644)
}

// PageMarkers replaces form-feed page breaks with <!-- page N --> lines,
// starting at page 1. Text without form feeds is returned trimmed and
// unmarked.
func PageMarkers(text string) string {
	if !strings.Contains(text, "\f") {
		return strings.TrimSpace(text) + "\n"
	}
	var b strings.Builder
	for i, page := range strings.Split(text, "\f") {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "<!-- page %d -->\n\n%s", i+1, page)
	}
	if b.Len() == 0 {
		return ""
	}
	b.WriteString("\n")
	return b.String()
}
