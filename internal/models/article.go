// Package models defines core data structures for articles, interactions, and results.
package models

// Article is a single recommendable news article. ID is the article's
// positional index in the catalog and the join key for the similarity
// matrix and the interaction log. Articles are immutable once loaded.
type Article struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

// PreviewLen is the rune length of the description preview rendered by
// presentation shells.
const PreviewLen = 200

// Preview returns the first PreviewLen runes of the description.
func (a *Article) Preview() string {
	runes := []rune(a.Description)
	if len(runes) <= PreviewLen {
		return a.Description
	}
	return string(runes[:PreviewLen])
}
