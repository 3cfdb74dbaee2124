// Package varscan finds placeholder variables in document text.
//
// A placeholder is a named token wrapped in one of a configurable set of
// delimiter styles, e.g. <<client_name>> or {{date}}. The same name under
// two different delimiter styles is two distinct variables.
package varscan

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern is one delimiter style to scan for.
type Pattern struct {
	// Kind tags which delimiter style matched, e.g. "<<>>".
	Kind string `json:"kind" yaml:"kind"`
	// Regexp is the pattern source; the first capture group is the name.
	Regexp string `json:"regexp" yaml:"regexp"`

	re *regexp.Regexp
}

// Match is one placeholder occurrence found in the text.
type Match struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Raw  string `json:"raw"`
}

// BuiltinPatterns returns the three delimiter styles shipped by default:
// <<name>>, {{name}}, and ${name}.
func BuiltinPatterns() []Pattern {
	return []Pattern{
		{Kind: "<<>>", Regexp: `<<([^>]+)>>`},
		{Kind: "{{}}", Regexp: `\{\{([^}]+)\}\}`},
		{Kind: "${}", Regexp: `\$\{([^}]+)\}`},
	}
}

// Compile validates a pattern set and compiles its expressions. Every
// pattern must have a kind and exactly one capture group for the name.
func Compile(patterns []Pattern) ([]Pattern, error) {
	out := make([]Pattern, 0, len(patterns))
	for i, p := range patterns {
		if p.Kind == "" {
			return nil, fmt.Errorf("varscan: pattern %d: missing kind", i)
		}
		re, err := regexp.Compile(p.Regexp)
		if err != nil {
			return nil, fmt.Errorf("varscan: pattern %d (%s): %w", i, p.Kind, err)
		}
		if re.NumSubexp() < 1 {
			return nil, fmt.Errorf("varscan: pattern %d (%s): needs a capture group", i, p.Kind)
		}
		p.re = re
		out = append(out, p)
	}
	return out, nil
}

// Scan runs each compiled pattern independently over the full text and
// returns every occurrence in pattern order. Captured names are trimmed;
// empty captures are dropped. Deduplication into a single variable entity
// is the persistence layer's job, not the scanner's.
func Scan(text string, patterns []Pattern) []Match {
	var matches []Match
	for _, p := range patterns {
		if p.re == nil {
			continue // not compiled; skip rather than panic mid-scan
		}
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			name := strings.TrimSpace(m[1])
			if name == "" {
				continue
			}
			matches = append(matches, Match{
				Name: name,
				Kind: p.Kind,
				Raw:  m[0],
			})
		}
	}
	return matches
}
