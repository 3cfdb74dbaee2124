package analyze

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	punctRe      = regexp.MustCompile(`[,.;:!?"']`)
)

// Preprocess normalises paragraph text for similarity comparison:
// lowercase, whitespace runs collapsed to single spaces, and punctuation
// that does not affect meaning stripped.
func Preprocess(text string) string {
	text = strings.ToLower(text)
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	text = punctRe.ReplaceAllString(text, "")
	return text
}
