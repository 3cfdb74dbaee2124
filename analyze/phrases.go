package analyze

import (
	"sort"
	"strings"
)

// Phrase is a word span that recurs across the paragraph set.
type Phrase struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

// CommonPhrases finds word spans of 5 to 15 words that recur in the
// paragraph set. Spans are taken verbatim from the raw text, and every
// generated occurrence counts, so a span repeated within a single
// paragraph is common on its own. Phrases shorter than MinPhraseLen
// characters are ignored, and a phrase wholly contained in (or containing)
// an already-kept phrase is skipped. Needs at least 5 paragraphs.
func (e *Engine) CommonPhrases(paras []Paragraph) []Phrase {
	if len(paras) < 5 {
		return nil
	}

	counts := make(map[string]int)
	for _, p := range paras {
		words := strings.Fields(p.Text)
		for i := 0; i+5 <= len(words); i++ {
			max := i + 15
			if max > len(words) {
				max = len(words)
			}
			for j := i + 5; j <= max; j++ {
				phrase := strings.Join(words[i:j], " ")
				if len(phrase) < e.cfg.MinPhraseLen {
					continue
				}
				counts[phrase]++
			}
		}
	}

	candidates := make([]Phrase, 0, len(counts))
	for text, count := range counts {
		if count > 1 {
			candidates = append(candidates, Phrase{Text: text, Count: count})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Count != candidates[j].Count {
			return candidates[i].Count > candidates[j].Count
		}
		if len(candidates[i].Text) != len(candidates[j].Text) {
			return len(candidates[i].Text) > len(candidates[j].Text)
		}
		return candidates[i].Text < candidates[j].Text
	})
	if len(candidates) > 100 {
		candidates = candidates[:100]
	}

	var kept []Phrase
	for _, c := range candidates {
		contained := false
		for _, k := range kept {
			if strings.Contains(k.Text, c.Text) || strings.Contains(c.Text, k.Text) {
				contained = true
				break
			}
		}
		if contained {
			continue
		}
		kept = append(kept, c)
		if len(kept) >= e.cfg.MaxPhrases {
			break
		}
	}
	return kept
}
