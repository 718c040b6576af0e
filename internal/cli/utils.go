// Package cli provides output formatting for the newsrec CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/smartnews/newsrec/internal/models"
)

// OutputFormat is the format for CLI output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat maps a flag value to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch s {
	case "text", "":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	if response.UsedFallback {
		fmt.Fprintf(w, "\nNo keyword matches for %q; showing a sample of the catalog\n\n", response.Query)
	} else {
		fmt.Fprintf(w, "\nFound %d results for %q\n\n", len(response.Results), response.Query)
	}
	writeResultList(w, response.Results)
	return nil
}

// WriteSimilarResults writes articles similar to a title.
func WriteSimilarResults(w io.Writer, response *models.SimilarResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	if len(response.Results) == 0 {
		fmt.Fprintf(w, "\nNo similar articles for %q\n", response.Title)
		return nil
	}
	fmt.Fprintf(w, "\nArticles similar to %q\n\n", response.Title)
	writeResultList(w, response.Results)
	return nil
}

// WriteRecommendations writes per-user recommendations.
func WriteRecommendations(w io.Writer, response *models.RecommendResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	if len(response.Results) == 0 {
		fmt.Fprintf(w, "\nNo recommendations for user %q (no interaction history)\n", response.UserID)
		return nil
	}
	fmt.Fprintf(w, "\nRecommendations for user %q\n\n", response.UserID)
	writeResultList(w, response.Results)
	return nil
}

func writeResultList(w io.Writer, results []*models.SearchResult) {
	for _, result := range results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f | ID: %d\n", result.Rank, result.Score, result.Article.ID)
		fmt.Fprintf(w, "Title: %s\n", result.Article.Title)
		if preview := result.Article.Preview(); preview != "" {
			fmt.Fprintf(w, "\n%s\n", preview)
		}
		if result.Article.URL != "" {
			fmt.Fprintf(w, "URL: %s\n", result.Article.URL)
		}
		fmt.Fprintln(w)
	}
}

func writeJSON(w io.Writer, payload interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
