package models

// SearchQuery is a keyword search request against article titles.
type SearchQuery struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// MaxSearchLimit caps the number of search results per request.
const MaxSearchLimit = 10

// EffectiveLimit returns the limit to apply: Limit when it is in range,
// MaxSearchLimit otherwise. The query itself is not modified. An empty query
// string is legal: it vectorizes to an all-zero vector and triggers the
// fallback path downstream.
func (q *SearchQuery) EffectiveLimit() int {
	if q.Limit <= 0 || q.Limit > MaxSearchLimit {
		return MaxSearchLimit
	}
	return q.Limit
}

// RecommendRequest is a personalized recommendation request. Alpha, Beta,
// and TopK are overrides for the configured defaults; nil means unset. An
// explicit zero is honored: TopK of 0 yields an empty list, Alpha of 0
// drops the rating term.
type RecommendRequest struct {
	UserID string   `json:"user_id"`
	Alpha  *float64 `json:"alpha,omitempty"`
	Beta   *float64 `json:"beta,omitempty"`
	TopK   *int     `json:"top_k,omitempty"`
}
