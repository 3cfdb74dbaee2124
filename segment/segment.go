// Package segment splits extracted document text into content-addressed
// paragraphs. Two paragraphs with identical text share a SHA-256 hash and
// are the same logical entity across documents.
package segment

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// minParagraphLen is the shortest text accepted as a real paragraph.
// Anything shorter is extraction noise (page numbers, stray glyphs).
const minParagraphLen = 5

// Paragraph is one segmented unit of document text.
type Paragraph struct {
	Text     string `json:"text"`
	Hash     string `json:"hash"`
	Position int    `json:"position"`
}

var (
	blankLineRe = regexp.MustCompile(`\n\s*\n`)
	spaceRunRe  = regexp.MustCompile(`\s+`)
)

// Hash returns the SHA-256 hex digest of text. It is the identity of a
// paragraph: uniqueness downstream is enforced on this value, not on ids.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Segment splits full document text into paragraphs on blank-line
// boundaries. Candidates are trimmed and emitted verbatim; the whitespace-
// collapsed form is used only to measure length, so a candidate shorter
// than five meaningful characters is dropped as noise. Position is the
// index in the filtered sequence.
func Segment(fullText string) []Paragraph {
	// Normalise line endings so a single split pattern covers both styles.
	text := strings.ReplaceAll(fullText, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var paragraphs []Paragraph
	for _, candidate := range blankLineRe.Split(text, -1) {
		candidate = strings.TrimSpace(candidate)
		measured := spaceRunRe.ReplaceAllString(candidate, " ")
		if len(measured) < minParagraphLen {
			continue
		}
		paragraphs = append(paragraphs, Paragraph{
			Text:     candidate,
			Hash:     Hash(candidate),
			Position: len(paragraphs),
		})
	}
	return paragraphs
}
