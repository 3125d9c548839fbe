package render

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Anchor derives a link fragment from a heading title: diacritics folded,
// lowercased, spaces to hyphens, and anything outside [a-z0-9-] dropped.
func Anchor(title string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, title)
	if err != nil {
		folded = title
	}
	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		switch {
		case r == ' ':
			b.WriteByte('-')
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// anchorSet hands out unique anchors within one document, suffixing
// repeats with -1, -2 the way GitHub does.
type anchorSet struct {
	used map[string]struct{}
}

func newAnchorSet() *anchorSet {
	return &anchorSet{used: make(map[string]struct{})}
}

func (s *anchorSet) claim(title string) string {
	base := Anchor(title)
	if base == "" {
		base = "section"
	}
	id := base
	for n := 1; ; n++ {
		if _, taken := s.used[id]; !taken {
			break
		}
		id = base + "-" + strconv.Itoa(n)
	}
	s.used[id] = struct{}{}
	return id
}
