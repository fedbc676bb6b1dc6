// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package answer

import (
	"fmt"
	"strings"

	"github.com/pdiddy/solaris/pkg/types"
)

// passageDelimiter closes every passage block in the context.
const passageDelimiter = "----------------"

// AssembleContext formats passages into one context block. Passage i
// (0-based) gets identifier i+1; nothing is reordered, merged or cut, so
// the same list always yields the same block.
func AssembleContext(passages []types.Passage, loc Locale) string {
	blocks := make([]string, len(passages))
	for i, p := range passages {
		path := p.SourcePath
		if path == "" {
			path = loc.UnknownFile
		}
		blocks[i] = fmt.Sprintf("%s [%d]:\n%s: %s (%s %s)\n%s: %s\n%s",
			loc.DocumentLabel, i+1,
			loc.PathLabel, path, loc.PageLabel, p.PageLabel(),
			loc.ContentLabel, p.Text,
			passageDelimiter)
	}
	return strings.Join(blocks, "\n\n")
}
