// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strconv"

// Passage is a retrieved chunk of source text with its origin metadata.
// Passages are compared structurally; there is no persistent key.
type Passage struct {
	// Text is the full passage content.
	Text string `json:"text" yaml:"text"`

	// SourcePath is the document path the passage was cut from, relative to
	// the corpus root.
	SourcePath string `json:"source_path" yaml:"source_path"`

	// Page is the 1-based page number, or 0 when the page is unknown.
	Page int `json:"page,omitempty" yaml:"page,omitempty"`
}

// PageLabel renders the page for display, "?" when unknown.
func (p Passage) PageLabel() string {
	if p.Page <= 0 {
		return "?"
	}
	return strconv.Itoa(p.Page)
}

// Answer is the result of one retrieval and generation cycle. UsedPassages
// is always the full retrieved list in rank order; citation N in Text
// refers to UsedPassages[N-1].
type Answer struct {
	Text         string    `json:"text" yaml:"text"`
	UsedPassages []Passage `json:"used_passages" yaml:"used_passages"`
}

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry in a session transcript.
type Turn struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Chunk is a passage ready for indexing, together with the fields the
// store needs to maintain it.
type Chunk struct {
	// ID is a stable identifier derived from the source path, page and text.
	ID string `json:"id" yaml:"id"`

	// Heading is the nearest section heading above the chunk.
	Heading string `json:"heading,omitempty" yaml:"heading,omitempty"`

	Passage `yaml:",inline"`

	// Embedding is the chunk's vector, empty when no embedder is configured.
	Embedding []float32 `json:"-" yaml:"-"`
}
