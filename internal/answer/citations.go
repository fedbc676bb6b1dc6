// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package answer

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var citationPatterns = map[string]*regexp.Regexp{}

// citationPattern matches [Word: 2] and [Word: 2, 3] with optional bold
// markers around it.
func citationPattern(word string) *regexp.Regexp {
	if re, ok := citationPatterns[word]; ok {
		return re
	}
	return regexp.MustCompile(`\[` + regexp.QuoteMeta(word) + `:\s*(\d+(?:\s*[,;]\s*\d+)*)\s*\]`)
}

func init() {
	for _, loc := range []Locale{English, Swedish} {
		citationPatterns[loc.SourceWord] = citationPattern(loc.SourceWord)
	}
}

// CitedIDs returns the distinct citation numbers in text, ascending.
func CitedIDs(text string, loc Locale) []int {
	seen := make(map[int]bool)
	for _, m := range citationPattern(loc.SourceWord).FindAllStringSubmatch(text, -1) {
		for _, part := range strings.FieldsFunc(m[1], func(r rune) bool { return r == ',' || r == ';' }) {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err == nil {
				seen[n] = true
			}
		}
	}
	ids := make([]int, 0, len(seen))
	for n := range seen {
		ids = append(ids, n)
	}
	sort.Ints(ids)
	return ids
}

// OutOfRange returns the cited numbers outside [1, n].
func OutOfRange(text string, loc Locale, n int) []int {
	var bad []int
	for _, id := range CitedIDs(text, loc) {
		if id < 1 || id > n {
			bad = append(bad, id)
		}
	}
	return bad
}
