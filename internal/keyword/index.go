package keyword

import "sort"

// Hit is a single index match.
type Hit struct {
	ID    int
	Score float64
}

// TitleIndex is a TF-IDF index over article titles, built once at startup.
// Document ids are positional catalog ids.
type TitleIndex struct {
	vectorizer *Vectorizer
	vectors    []SparseVector
}

// NewTitleIndex fits a vectorizer over titles and precomputes the title
// vectors.
func NewTitleIndex(titles []string) *TitleIndex {
	vectorizer := Fit(titles)
	vectors := make([]SparseVector, len(titles))
	for i, title := range titles {
		vectors[i] = vectorizer.Transform(title)
	}
	return &TitleIndex{vectorizer: vectorizer, vectors: vectors}
}

// Len returns the number of indexed titles.
func (ix *TitleIndex) Len() int {
	return len(ix.vectors)
}

// VocabSize returns the number of distinct terms learned from the titles.
func (ix *TitleIndex) VocabSize() int {
	return ix.vectorizer.VocabSize()
}

// Search scores every title against query by cosine similarity and returns
// up to limit hits with score > 0, ordered by descending score with ties
// broken by ascending id. An empty result means every score was exactly
// zero (no shared vocabulary); callers decide the fallback.
func (ix *TitleIndex) Search(query string, limit int) []Hit {
	queryVec := ix.vectorizer.Transform(query)
	if len(queryVec) == 0 {
		return nil
	}

	hits := make([]Hit, 0, len(ix.vectors))
	for id, vec := range ix.vectors {
		// Both vectors are unit length, so the dot product is the cosine.
		if score := queryVec.Dot(vec); score > 0 {
			hits = append(hits, Hit{ID: id, Score: score})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}
