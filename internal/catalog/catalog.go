// Package catalog provides the immutable in-memory article catalog.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/smartnews/newsrec/internal/models"
)

// ErrNoTitleColumn is returned when the catalog schema has no resolvable
// title column. Every downstream operation keys on the title, so this is a
// fatal load-time condition.
var ErrNoTitleColumn = errors.New("catalog: no resolvable title column")

// ColumnAliases lists candidate column names per role, tried in order.
// Matching is case-insensitive and the first match wins.
type ColumnAliases struct {
	Title       []string `yaml:"title"`
	Description []string `yaml:"description"`
	URL         []string `yaml:"url"`
}

// DefaultColumnAliases are the column names seen in common news datasets.
func DefaultColumnAliases() ColumnAliases {
	return ColumnAliases{
		Title:       []string{"title", "headline"},
		Description: []string{"description", "content"},
		URL:         []string{"url", "link"},
	}
}

// ResolvedColumns holds the column indices resolved from a header row.
// Description and URL are -1 when absent; Title is always valid.
type ResolvedColumns struct {
	Title       int
	Description int
	URL         int
}

// ResolveColumn returns the index of the first candidate present in header,
// matched case-insensitively. The second return is false when no candidate
// matches.
func ResolveColumn(header []string, candidates []string) (int, bool) {
	byName := make(map[string]int, len(header))
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		if _, seen := byName[name]; !seen {
			byName[name] = i
		}
	}
	for _, cand := range candidates {
		if i, ok := byName[strings.ToLower(cand)]; ok {
			return i, true
		}
	}
	return -1, false
}

// Resolve resolves all column roles from a header row. Fails with
// ErrNoTitleColumn when no title candidate matches; description and URL
// degrade to -1.
func Resolve(header []string, aliases ColumnAliases) (ResolvedColumns, error) {
	cols := ResolvedColumns{Title: -1, Description: -1, URL: -1}
	titleIdx, ok := ResolveColumn(header, aliases.Title)
	if !ok {
		return cols, fmt.Errorf("%w: header %v", ErrNoTitleColumn, header)
	}
	cols.Title = titleIdx
	if i, ok := ResolveColumn(header, aliases.Description); ok {
		cols.Description = i
	}
	if i, ok := ResolveColumn(header, aliases.URL); ok {
		cols.URL = i
	}
	return cols, nil
}

// Catalog is the immutable set of recommendable articles. Article IDs are
// positional row indices. Safe for concurrent use after construction.
type Catalog struct {
	articles []models.Article
	byTitle  map[string]int
}

// New builds a catalog from a header row and data rows, resolving column
// roles once up front. Rows shorter than the resolved column indices degrade
// to empty fields rather than erroring per row.
func New(header []string, rows [][]string, aliases ColumnAliases) (*Catalog, error) {
	cols, err := Resolve(header, aliases)
	if err != nil {
		return nil, err
	}

	articles := make([]models.Article, 0, len(rows))
	byTitle := make(map[string]int, len(rows))
	for _, row := range rows {
		id := len(articles)
		a := models.Article{
			ID:          id,
			Title:       cell(row, cols.Title),
			Description: cell(row, cols.Description),
			URL:         cell(row, cols.URL),
		}
		articles = append(articles, a)
		// First occurrence wins for duplicate titles; ids stay positional.
		if _, dup := byTitle[a.Title]; !dup && a.Title != "" {
			byTitle[a.Title] = id
		}
	}

	return &Catalog{articles: articles, byTitle: byTitle}, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Len returns the number of articles.
func (c *Catalog) Len() int {
	return len(c.articles)
}

// Article returns the article at id. The second return is false when id is
// out of range.
func (c *Catalog) Article(id int) (*models.Article, bool) {
	if id < 0 || id >= len(c.articles) {
		return nil, false
	}
	return &c.articles[id], true
}

// IDByTitle returns the catalog id for an exact title match.
func (c *Catalog) IDByTitle(title string) (int, bool) {
	id, ok := c.byTitle[title]
	return id, ok
}

// Titles returns all article titles in catalog order.
func (c *Catalog) Titles() []string {
	titles := make([]string, len(c.articles))
	for i := range c.articles {
		titles[i] = c.articles[i].Title
	}
	return titles
}
