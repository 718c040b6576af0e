package models

// SearchResult is a single ranked search hit.
type SearchResult struct {
	Article *Article `json:"article"`
	Score   float64  `json:"score"`
	Rank    int      `json:"rank"`
}

// SearchResponse is the response for a title search. UsedFallback is true
// when the query matched nothing and the deterministic fallback sample was
// returned instead, so callers can surface a "no exact match" notice.
type SearchResponse struct {
	Query        string          `json:"query"`
	Results      []*SearchResult `json:"results"`
	UsedFallback bool            `json:"used_fallback"`
}

// SimilarResponse is the response for an article-to-article similarity lookup.
type SimilarResponse struct {
	Title   string          `json:"title"`
	Results []*SearchResult `json:"results"`
}

// RecommendResponse is the response for a personalized recommendation.
// Articles the user has already read never appear. An empty list is a valid
// result for an unknown or inactive user.
type RecommendResponse struct {
	UserID  string          `json:"user_id"`
	Results []*SearchResult `json:"results"`
}
