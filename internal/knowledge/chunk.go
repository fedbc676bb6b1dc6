// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/pdiddy/solaris/pkg/types"
)

// maxChunkChars caps a chunk's length. Longer sections are split on
// paragraph boundaries.
const maxChunkChars = 1500

// section represents a run of text under one heading on one page.
type section struct {
	heading string
	body    string
	page    int
}

// chunkDocument splits a document into passages. Headings (## or ###) and
// page changes start a new section; page numbers come from <!-- page N -->
// markers or form feeds. Text before the first page marker has page 0
// (unknown).
func chunkDocument(sourcePath, content string) []types.Chunk {
	var chunks []types.Chunk
	for _, sec := range splitSections(content) {
		for _, body := range splitParagraphs(sec.body, maxChunkChars) {
			chunks = append(chunks, types.Chunk{
				ID:      stableID(sourcePath, sec.page, body),
				Heading: sec.heading,
				Passage: types.Passage{
					Text:       body,
					SourcePath: sourcePath,
					Page:       sec.page,
				},
			})
		}
	}
	return chunks
}

func splitSections(content string) []section {
	var (
		sections  []section
		heading   string
		page      int
		bodyLines []string
	)

	flush := func() {
		body := strings.TrimSpace(strings.Join(bodyLines, "\n"))
		if body != "" {
			sections = append(sections, section{heading: heading, body: body, page: page})
		}
		bodyLines = nil
	}

	// pdftotext separates pages with form feeds, starting on page 1.
	if strings.Contains(content, "\f") {
		page = 1
	}

	for _, line := range strings.Split(content, "\n") {
		for strings.Contains(line, "\f") {
			before, after, _ := strings.Cut(line, "\f")
			bodyLines = append(bodyLines, before)
			flush()
			page++
			line = after
		}

		trimmed := strings.TrimSpace(line)

		if p, ok := parsePageMarker(trimmed); ok {
			flush()
			page = p
			continue
		}

		if isHeading(trimmed) {
			flush()
			heading = stripHeadingPrefix(trimmed)
			continue
		}

		bodyLines = append(bodyLines, line)
	}

	flush()
	return sections
}

// splitParagraphs packs blank-line separated paragraphs into pieces of at
// most limit characters. A single paragraph longer than limit is kept
// whole.
func splitParagraphs(body string, limit int) []string {
	if len(body) <= limit {
		return []string{body}
	}
	var (
		pieces []string
		cur    strings.Builder
	)
	for _, para := range strings.Split(body, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if cur.Len() > 0 && cur.Len()+2+len(para) > limit {
			pieces = append(pieces, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(para)
	}
	if cur.Len() > 0 {
		pieces = append(pieces, cur.String())
	}
	return pieces
}

// isHeading returns true if the line starts with ## or ###.
func isHeading(line string) bool {
	return strings.HasPrefix(line, "## ") || strings.HasPrefix(line, "### ")
}

func stripHeadingPrefix(line string) string {
	return strings.TrimSpace(strings.TrimLeft(line, "#"))
}

// parsePageMarker extracts the page number from an HTML comment like <!-- page 3 -->.
func parsePageMarker(line string) (int, bool) {
	if !strings.HasPrefix(line, "<!-- page ") || !strings.HasSuffix(line, " -->") {
		return 0, false
	}
	inner := strings.TrimPrefix(line, "<!-- page ")
	inner = strings.TrimSuffix(inner, " -->")
	var page int
	if _, err := fmt.Sscanf(inner, "%d", &page); err != nil || page < 1 {
		return 0, false
	}
	return page, true
}

// stableID is the first 12 hex characters of SHA-256(path, page, text).
func stableID(sourcePath string, page int, text string) string {
	h := sha256.New()
	h.Write([]byte(sourcePath))
	fmt.Fprintf(h, "\x00%d\x00", page)
	h.Write([]byte(text))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}
