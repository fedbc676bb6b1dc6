// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session holds per-user conversation state: the transcript, the
// sources exposed by the last answer, the opened source, and the last
// draft. State lives in an explicit Session value passed to each
// operation and persisted through a Store.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/solaris/pkg/types"
)

var (
	// ErrSessionNotFound is returned by stores for unknown or expired ids.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoSuchCitation is returned when a citation number does not name
	// one of the current sources.
	ErrNoSuchCitation = errors.New("no such citation")
)

// Session is the private state of one conversation.
type Session struct {
	ID         string          `json:"id"`
	Transcript []types.Turn    `json:"transcript"`
	Sources    []types.Passage `json:"sources"`
	Selection  Selection       `json:"selection"`

	// Draft is the last generated draft and Fields the inputs it was built
	// from. Both are nil until a draft is produced.
	Draft  *types.Draft         `json:"draft,omitempty"`
	Fields *types.ProjectFields `json:"fields,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns an empty session with a fresh id.
func New(now time.Time) *Session {
	return &Session{
		ID:         uuid.NewString(),
		Transcript: []types.Turn{},
		Sources:    []types.Passage{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// RecordAnswer appends the exchange to the transcript, replaces the
// current sources, and closes any open source.
func (s *Session) RecordAnswer(question string, a types.Answer, sources []types.Passage) {
	s.Transcript = append(s.Transcript,
		types.Turn{Role: types.RoleUser, Content: question},
		types.Turn{Role: types.RoleAssistant, Content: a.Text},
	)
	if sources == nil {
		sources = []types.Passage{}
	}
	s.Sources = sources
	s.Selection.Reset()
}

// ClearHistory empties the transcript and sources and closes the
// selection. The draft is kept.
func (s *Session) ClearHistory() {
	s.Transcript = []types.Turn{}
	s.Sources = []types.Passage{}
	s.Selection.Reset()
}

// OpenCitation opens source n (1-based) of the current sources on that
// passage's page.
func (s *Session) OpenCitation(n int) (types.Passage, error) {
	if n < 1 || n > len(s.Sources) {
		return types.Passage{}, fmt.Errorf("%w: %d (have %d sources)", ErrNoSuchCitation, n, len(s.Sources))
	}
	p := s.Sources[n-1]
	s.Selection.Select(p, p.Page)
	return p, nil
}

// CloseSource closes the opened source, if any.
func (s *Session) CloseSource() {
	s.Selection.Close()
}

// SetDraft stores a generated draft and its inputs.
func (s *Session) SetDraft(d types.Draft, fields types.ProjectFields) {
	s.Draft = &d
	s.Fields = &fields
}

// clone returns a copy that shares no slices or pointers with s.
func (s *Session) clone() *Session {
	c := *s
	c.Transcript = append(make([]types.Turn, 0, len(s.Transcript)), s.Transcript...)
	c.Sources = append(make([]types.Passage, 0, len(s.Sources)), s.Sources...)
	if s.Selection.OpenPassage != nil {
		p := *s.Selection.OpenPassage
		c.Selection.OpenPassage = &p
	}
	if s.Draft != nil {
		d := *s.Draft
		d.Sections = make([]types.DraftSection, len(s.Draft.Sections))
		for i, sec := range s.Draft.Sections {
			sec.References = append(make([]types.Passage, 0, len(sec.References)), sec.References...)
			d.Sections[i] = sec
		}
		c.Draft = &d
	}
	if s.Fields != nil {
		f := *s.Fields
		c.Fields = &f
	}
	return &c
}
