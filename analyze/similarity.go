// Package analyze measures redundancy across a corpus of paragraphs:
// exact duplicates by content hash, near-duplicates by TF-IDF cosine
// similarity confirmed with edit-distance similarity, and common phrases
// shared between documents.
package analyze

import (
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/agext/levenshtein"
)

// Paragraph is the unit of comparison. ID identifies the stored row,
// Hash is the SHA-256 of the text used for exact-duplicate grouping.
type Paragraph struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
	Hash string `json:"hash"`
}

// Pair is a near-duplicate paragraph pair with its combined score.
type Pair struct {
	A     Paragraph `json:"a"`
	B     Paragraph `json:"b"`
	Score float64   `json:"score"`
}

// Config tunes the similarity engine. Zero values take defaults.
type Config struct {
	// Threshold is the minimum combined similarity for a pair to count.
	Threshold float64
	// MaxComparisons caps the pairwise budget before sampling kicks in.
	MaxComparisons int
	// SampleSize is how many paragraphs survive sampling.
	SampleSize int
	// MinPhraseLen is the minimum character length of a common phrase.
	MinPhraseLen int
	// MaxPhrases caps the reported phrase list.
	MaxPhrases int
	// Seed fixes the sampling RNG; 0 means time-seeded.
	Seed   int64
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Threshold <= 0 {
		c.Threshold = 0.8
	}
	if c.MaxComparisons <= 0 {
		c.MaxComparisons = 10000
	}
	if c.SampleSize <= 0 {
		c.SampleSize = 1000
	}
	if c.MinPhraseLen <= 0 {
		c.MinPhraseLen = 30
	}
	if c.MaxPhrases <= 0 {
		c.MaxPhrases = 20
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Engine runs similarity analysis over paragraph sets.
type Engine struct {
	cfg Config
}

// New returns an Engine with defaults applied over cfg.
func New(cfg Config) *Engine {
	cfg.defaults()
	return &Engine{cfg: cfg}
}

// ExactDuplicates groups paragraphs by content hash and returns only the
// groups with two or more members, keyed by hash.
func (e *Engine) ExactDuplicates(paras []Paragraph) map[string][]Paragraph {
	byHash := make(map[string][]Paragraph)
	for _, p := range paras {
		byHash[p.Hash] = append(byHash[p.Hash], p)
	}
	out := make(map[string][]Paragraph)
	for h, group := range byHash {
		if len(group) >= 2 {
			out[h] = group
		}
	}
	return out
}

// SimilarPairs finds near-duplicate pairs. Candidates with identical
// hashes are exact duplicates and are skipped here. When the pairwise
// budget exceeds MaxComparisons the input is randomly sampled down to
// SampleSize paragraphs first.
//
// A pair scores as the mean of TF-IDF cosine similarity and normalised
// Levenshtein similarity; both the cosine gate and the combined score
// must meet Threshold.
func (e *Engine) SimilarPairs(paras []Paragraph) []Pair {
	if len(paras) < 2 {
		return nil
	}

	paras = e.sample(paras)

	texts := make([]string, len(paras))
	for i, p := range paras {
		texts[i] = Preprocess(p.Text)
	}
	vectors, err := vectorize(texts)
	if err != nil {
		// No comparable content (e.g. all stopwords). Degrade to empty.
		e.cfg.Logger.Warn("similarity vectorization failed", "error", err)
		return []Pair{}
	}

	lev := levenshtein.NewParams()
	var pairs []Pair
	for i := 0; i < len(paras); i++ {
		for j := i + 1; j < len(paras); j++ {
			if paras[i].Hash == paras[j].Hash {
				continue
			}
			cos := cosine(vectors[i], vectors[j])
			if cos < e.cfg.Threshold {
				continue
			}
			edit := levenshtein.Similarity(texts[i], texts[j], lev)
			combined := (cos + edit) / 2
			if combined < e.cfg.Threshold {
				continue
			}
			pairs = append(pairs, Pair{A: paras[i], B: paras[j], Score: combined})
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Score > pairs[j].Score })
	return pairs
}

// sample trims the paragraph set when the full pairwise sweep would blow
// the comparison budget.
func (e *Engine) sample(paras []Paragraph) []Paragraph {
	n := len(paras)
	if n*(n-1)/2 <= e.cfg.MaxComparisons {
		return paras
	}
	size := e.cfg.SampleSize
	if size > n {
		size = n
	}
	seed := e.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	e.cfg.Logger.Info("sampling paragraphs for similarity",
		"total", n, "sample", size)

	sampled := make([]Paragraph, 0, size)
	for _, idx := range rng.Perm(n)[:size] {
		sampled = append(sampled, paras[idx])
	}
	return sampled
}
