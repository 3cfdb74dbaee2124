package analyze

import (
	"errors"
	"math"
	"strings"
)

// ErrNoVocabulary is returned when no document contributes a single
// non-stopword term, leaving nothing to vectorize.
var ErrNoVocabulary = errors.New("analyze: empty vocabulary after stopword removal")

// tfidfVector is a sparse L2-normalised term-weight vector. Keys are
// vocabulary indices, values are normalised TF-IDF weights.
type tfidfVector map[int]float64

// vectorize builds a TF-IDF vector space over preprocessed texts.
// Terms are whitespace-delimited tokens with English stopwords removed.
// IDF uses smoothing: ln((1+n)/(1+df)) + 1, vectors are L2-normalised,
// so cosine similarity reduces to a sparse dot product.
func vectorize(texts []string) ([]tfidfVector, error) {
	vocab := make(map[string]int)
	df := make(map[int]int)
	termCounts := make([]map[int]int, len(texts))

	for i, text := range texts {
		counts := make(map[int]int)
		for _, tok := range strings.Fields(text) {
			if _, stop := englishStopwords[tok]; stop {
				continue
			}
			idx, ok := vocab[tok]
			if !ok {
				idx = len(vocab)
				vocab[tok] = idx
			}
			counts[idx]++
		}
		for idx := range counts {
			df[idx]++
		}
		termCounts[i] = counts
	}

	if len(vocab) == 0 {
		return nil, ErrNoVocabulary
	}

	n := float64(len(texts))
	idf := make([]float64, len(vocab))
	for idx, d := range df {
		idf[idx] = math.Log((1+n)/(1+float64(d))) + 1
	}

	vectors := make([]tfidfVector, len(texts))
	for i, counts := range termCounts {
		vec := make(tfidfVector, len(counts))
		var norm float64
		for idx, c := range counts {
			w := float64(c) * idf[idx]
			vec[idx] = w
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for idx := range vec {
				vec[idx] /= norm
			}
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// cosine computes the similarity of two L2-normalised sparse vectors.
// Iterates the smaller map for the dot product.
func cosine(a, b tfidfVector) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for idx, w := range a {
		if bw, ok := b[idx]; ok {
			dot += w * bw
		}
	}
	return dot
}
