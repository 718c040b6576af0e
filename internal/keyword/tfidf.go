// Package keyword provides TF-IDF vectorization and cosine-similarity
// search over article titles. The index is immutable after construction and
// safe for concurrent use; scoring is fully deterministic.
package keyword

import (
	"math"
	"strings"
	"unicode"
)

// Tokenize lowercases s and splits it into word tokens. Tokens shorter than
// two runes and stopwords are dropped.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, tok := range fields {
		if len([]rune(tok)) < 2 {
			continue
		}
		if IsStopword(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// SparseVector maps vocabulary term ids to weights.
type SparseVector map[int]float64

// Dot returns the dot product of two sparse vectors.
func (v SparseVector) Dot(other SparseVector) float64 {
	// Iterate the smaller vector.
	if len(other) < len(v) {
		v, other = other, v
	}
	var sum float64
	for term, w := range v {
		sum += w * other[term]
	}
	return sum
}

// normalize scales v to unit length in place. A zero vector stays zero.
func (v SparseVector) normalize() {
	var sumSq float64
	for _, w := range v {
		sumSq += w * w
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for term, w := range v {
		v[term] = w / norm
	}
}

// Vectorizer converts text into l2-normalized TF-IDF vectors. It is fitted
// once over the corpus and reused for every query so that query and corpus
// vectors share the same vocabulary and idf weights.
type Vectorizer struct {
	vocab map[string]int
	idf   []float64
}

// Fit learns the vocabulary and idf weights from docs.
// idf(t) = ln((1+n)/(1+df(t))) + 1 (smoothed, never zero).
func Fit(docs []string) *Vectorizer {
	vocab := make(map[string]int)
	docFreq := make(map[int]int)
	for _, doc := range docs {
		seen := make(map[int]struct{})
		for _, term := range Tokenize(doc) {
			id, ok := vocab[term]
			if !ok {
				id = len(vocab)
				vocab[term] = id
			}
			if _, counted := seen[id]; !counted {
				seen[id] = struct{}{}
				docFreq[id]++
			}
		}
	}

	n := float64(len(docs))
	idf := make([]float64, len(vocab))
	for id := range idf {
		idf[id] = math.Log((1+n)/(1+float64(docFreq[id]))) + 1
	}
	return &Vectorizer{vocab: vocab, idf: idf}
}

// VocabSize returns the number of terms learned at fit time.
func (v *Vectorizer) VocabSize() int {
	return len(v.vocab)
}

// Transform vectorizes text against the fitted vocabulary. Terms unseen at
// fit time contribute zero weight; that is expected for queries, not an
// error. A text with no known terms yields an empty (all-zero) vector.
func (v *Vectorizer) Transform(text string) SparseVector {
	vec := make(SparseVector)
	for _, term := range Tokenize(text) {
		if id, ok := v.vocab[term]; ok {
			vec[id]++
		}
	}
	for id, tf := range vec {
		vec[id] = tf * v.idf[id]
	}
	vec.normalize()
	return vec
}
