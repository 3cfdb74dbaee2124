package analyze

import (
	"sort"
	"unicode/utf8"

	"github.com/docsift/docsift/varscan"
)

// TextStats summarises paragraph lengths for one document or corpus.
type TextStats struct {
	Count      int     `json:"count"`
	AvgLength  float64 `json:"avg_length"`
	MinLength  int     `json:"min_length"`
	MaxLength  int     `json:"max_length"`
	TotalChars int     `json:"total_chars"`
}

// Stats computes length statistics over paragraph texts. Lengths are
// rune counts.
func Stats(paras []Paragraph) TextStats {
	s := TextStats{Count: len(paras)}
	if len(paras) == 0 {
		return s
	}
	for i, p := range paras {
		n := utf8.RuneCountInString(p.Text)
		s.TotalChars += n
		if i == 0 || n < s.MinLength {
			s.MinLength = n
		}
		if n > s.MaxLength {
			s.MaxLength = n
		}
	}
	s.AvgLength = float64(s.TotalChars) / float64(s.Count)
	return s
}

// VariableCount is the usage tally for one variable name.
type VariableCount struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

// VariableUsage tallies placeholder occurrences by name. Kind is the
// first delimiter style seen for that name. Sorted by count descending,
// then name.
func VariableUsage(matches []varscan.Match) []VariableCount {
	byName := make(map[string]*VariableCount)
	order := make([]string, 0)
	for _, m := range matches {
		vc, ok := byName[m.Name]
		if !ok {
			vc = &VariableCount{Name: m.Name, Kind: m.Kind}
			byName[m.Name] = vc
			order = append(order, m.Name)
		}
		vc.Count++
	}
	out := make([]VariableCount, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
