package guide

import (
	"fmt"
	"strings"
	"unicode"
)

// slugger turns heading texts into GitHub-style anchors, handling the
// `-n` suffixes GitHub appends to repeated headings.
type slugger struct {
	seen map[string]int
}

func newSlugger() *slugger {
	return &slugger{seen: map[string]int{}}
}

// slug lowercases the text, drops punctuation, and replaces spaces with
// hyphens the way GitHub's renderer does when it assigns heading ids.
func (s *slugger) slug(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ' || r == '-':
			b.WriteRune('-')
		case r == '_':
			b.WriteRune('_')
		}
	}

	anchor := b.String()
	count := s.seen[anchor]
	s.seen[anchor] = count + 1
	if count > 0 {
		anchor = fmt.Sprintf("%s-%d", anchor, count)
	}
	return anchor
}
