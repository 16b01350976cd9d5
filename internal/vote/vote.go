// Package vote reconciles candidate answers from multiple providers into
// one deterministic winner: majority vote over normalized text, ties
// broken by the longer original answer.
package vote

import (
	"regexp"
	"strings"
)

var (
	backticks  = regexp.MustCompile("`+")
	whitespace = regexp.MustCompile(`\s+`)
)

// Normalize canonicalizes a candidate purely for grouping: trim, lowercase,
// drop inline code-fence markers, collapse whitespace and strip trailing
// sentence punctuation so "Paris" and "paris." land in the same group.
// The original text is what callers return to users.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = backticks.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimRight(s, ".!? ")
}

type group struct {
	count int
	raw   string
}

// Select picks the winning candidate. Groups are formed by normalized
// text; the highest count wins, ties go to the longer original text, and
// remaining ties keep encounter order so the result is stable.
func Select(candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}

	groups := make(map[string]*group)
	var keys []string
	for _, raw := range candidates {
		n := Normalize(raw)
		if n == "" {
			continue
		}
		if g, ok := groups[n]; ok {
			g.count++
		} else {
			groups[n] = &group{count: 1, raw: raw}
			keys = append(keys, n)
		}
	}
	if len(keys) == 0 {
		return candidates[0]
	}

	best := groups[keys[0]]
	for _, k := range keys[1:] {
		g := groups[k]
		if g.count > best.count || (g.count == best.count && len(g.raw) > len(best.raw)) {
			best = g
		}
	}
	return best.raw
}
