// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import "github.com/pdiddy/solaris/pkg/types"

// Selection tracks the passage opened for detailed viewing. The zero value
// is Closed.
type Selection struct {
	OpenPassage *types.Passage `json:"open_passage,omitempty"`
	OpenPage    int            `json:"open_page,omitempty"`
}

// IsOpen reports whether a passage is open.
func (s *Selection) IsOpen() bool { return s.OpenPassage != nil }

// Select opens p at page. Pages below 1 open on page 1.
func (s *Selection) Select(p types.Passage, page int) {
	if page < 1 {
		page = 1
	}
	s.OpenPassage = &p
	s.OpenPage = page
}

// Close returns to Closed.
func (s *Selection) Close() {
	s.OpenPassage = nil
	s.OpenPage = 0
}

// Reset is Close, named for the transition every new answer forces.
func (s *Selection) Reset() { s.Close() }
