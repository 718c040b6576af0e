package models

// InteractionRecord is one user/article engagement record from the
// interaction log. Rating and TimeSpentSeconds default to 0 when absent in
// the source data; the defaults are applied at load time, never inside the
// scoring loop.
type InteractionRecord struct {
	UserID           string  `json:"user_id"`
	Title            string  `json:"title"`
	Rating           float64 `json:"rating"`
	TimeSpentSeconds float64 `json:"time_spent_seconds"`
}
