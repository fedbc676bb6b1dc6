// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package answer

import (
	"strings"
	"unicode"

	"github.com/pdiddy/solaris/pkg/types"
)

// Gate decides whether an answer's passages are shown as sources.
type Gate struct {
	// Prefix is the refusal opening. An empty prefix never matches.
	Prefix string
}

// IsRefusal reports whether text, ignoring leading whitespace, starts with
// the refusal prefix.
func (g Gate) IsRefusal(text string) bool {
	if g.Prefix == "" {
		return false
	}
	return strings.HasPrefix(strings.TrimLeftFunc(text, unicode.IsSpace), g.Prefix)
}

// Sources returns nil for a refusal and a.UsedPassages unchanged otherwise.
func (g Gate) Sources(a types.Answer) []types.Passage {
	if g.IsRefusal(a.Text) {
		return nil
	}
	return a.UsedPassages
}
