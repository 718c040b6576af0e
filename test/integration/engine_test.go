// Package integration provides end-to-end tests against real data files.
package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smartnews/newsrec/internal/catalog"
	"github.com/smartnews/newsrec/internal/config"
	"github.com/smartnews/newsrec/internal/engine"
	"github.com/smartnews/newsrec/internal/interactions"
	"github.com/smartnews/newsrec/internal/models"
	"github.com/smartnews/newsrec/internal/similarity"
)

var testTitles = []string{
	"Global markets rally on earnings",
	"Markets slide as rates climb",
	"Championship final ends in penalty shootout",
	"New battery technology doubles range",
	"Storm warnings issued for coastal regions",
}

// writeFixtures writes a catalog CSV, a square similarity matrix CSV, and an
// interaction log CSV into dir and returns their paths.
func writeFixtures(t *testing.T, dir string) (catalogPath, matrixPath, interactionsPath string) {
	t.Helper()

	var sb strings.Builder
	sb.WriteString("title,description,url\n")
	for i, title := range testTitles {
		fmt.Fprintf(&sb, "%s,Description %d,https://example.com/%d\n", title, i, i)
	}
	catalogPath = filepath.Join(dir, "news_articles.csv")
	if err := os.WriteFile(catalogPath, []byte(sb.String()), 0644); err != nil {
		t.Fatal(err)
	}

	// Articles 0 and 1 are near-duplicates; everything else is weakly related.
	matrix := [][]float64{
		{1.0, 0.92, 0.05, 0.10, 0.08},
		{0.92, 1.0, 0.06, 0.12, 0.07},
		{0.05, 0.06, 1.0, 0.15, 0.20},
		{0.10, 0.12, 0.15, 1.0, 0.09},
		{0.08, 0.07, 0.20, 0.09, 1.0},
	}
	sb.Reset()
	for _, row := range matrix {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprintf("%g", v)
		}
		sb.WriteString(strings.Join(cells, ",") + "\n")
	}
	matrixPath = filepath.Join(dir, "similarity.csv")
	if err := os.WriteFile(matrixPath, []byte(sb.String()), 0644); err != nil {
		t.Fatal(err)
	}

	interactionsCSV := "UserId,title,Ratings,Time Spent (seconds)\n" +
		"u1," + testTitles[0] + ",5,300\n" +
		"u1," + testTitles[4] + ",2,30\n" +
		"u2," + testTitles[2] + ",4,200\n"
	interactionsPath = filepath.Join(dir, "interactions.csv")
	if err := os.WriteFile(interactionsPath, []byte(interactionsCSV), 0644); err != nil {
		t.Fatal(err)
	}
	return catalogPath, matrixPath, interactionsPath
}

func buildEngine(t *testing.T, store interactions.Store, catalogPath, matrixPath string) *engine.Engine {
	t.Helper()
	cat, err := catalog.Load(catalogPath, catalog.DefaultColumnAliases())
	if err != nil {
		t.Fatal(err)
	}
	matrix, err := similarity.Load(matrixPath, cat.Len())
	if err != nil {
		t.Fatal(err)
	}
	eng, err := engine.New(cat, matrix, store,
		&config.SearchConfig{Limit: 10, FallbackSize: 8, FallbackSeed: 42},
		&config.RecommendConfig{Alpha: 0.7, Beta: 0.3, TopK: 6})
	if err != nil {
		t.Fatal(err)
	}
	return eng
}

func TestIntegration_FromCSVFiles(t *testing.T) {
	dir := t.TempDir()
	catalogPath, matrixPath, interactionsPath := writeFixtures(t, dir)

	store, err := interactions.LoadFile(interactionsPath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	eng := buildEngine(t, store, catalogPath, matrixPath)

	resp := eng.Search(&models.SearchQuery{Query: "markets"})
	if resp.UsedFallback {
		t.Error("fallback should not trigger for a matching query")
	}
	if len(resp.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(resp.Results))
	}
	for _, r := range resp.Results {
		if !strings.Contains(strings.ToLower(r.Article.Title), "markets") {
			t.Errorf("unexpected hit %q", r.Article.Title)
		}
	}

	similar, err := eng.FindSimilar(testTitles[0], 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(similar.Results) != 2 || similar.Results[0].Article.Title != testTitles[1] {
		t.Errorf("similar results = %+v", similar.Results)
	}

	rec, err := eng.Recommend(context.Background(), &models.RecommendRequest{UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(rec.Results) == 0 {
		t.Fatal("expected recommendations for u1")
	}
	for _, r := range rec.Results {
		if r.Article.Title == testTitles[0] || r.Article.Title == testTitles[4] {
			t.Errorf("recommended already-read article %q", r.Article.Title)
		}
	}
	// u1's strongest signal is article 0 (rating 5, max time), so its
	// near-duplicate article 1 should rank first.
	if rec.Results[0].Article.Title != testTitles[1] {
		t.Errorf("top recommendation = %q, want %q", rec.Results[0].Article.Title, testTitles[1])
	}
}

func TestIntegration_SQLiteStore(t *testing.T) {
	dir := t.TempDir()
	catalogPath, matrixPath, interactionsPath := writeFixtures(t, dir)

	records, err := interactions.ReadFile(interactionsPath)
	if err != nil {
		t.Fatal(err)
	}
	store, err := interactions.OpenSQLite(filepath.Join(dir, "interactions.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	n, err := store.Import(context.Background(), records)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(records) {
		t.Fatalf("imported %d records, want %d", n, len(records))
	}

	eng := buildEngine(t, store, catalogPath, matrixPath)

	memStore, err := interactions.LoadFile(interactionsPath)
	if err != nil {
		t.Fatal(err)
	}
	defer memStore.Close()
	memEng := buildEngine(t, memStore, catalogPath, matrixPath)

	// The store backend must not change recommendation output.
	for _, user := range []string{"u1", "u2", "ghost"} {
		got, err := eng.Recommend(context.Background(), &models.RecommendRequest{UserID: user})
		if err != nil {
			t.Fatal(err)
		}
		want, err := memEng.Recommend(context.Background(), &models.RecommendRequest{UserID: user})
		if err != nil {
			t.Fatal(err)
		}
		if len(got.Results) != len(want.Results) {
			t.Fatalf("user %s: sqlite returned %d results, memory %d", user, len(got.Results), len(want.Results))
		}
		for i := range got.Results {
			if got.Results[i].Article.ID != want.Results[i].Article.ID {
				t.Errorf("user %s rank %d: sqlite id %d, memory id %d",
					user, i, got.Results[i].Article.ID, want.Results[i].Article.ID)
			}
		}
	}
}

func TestIntegration_FallbackIsStableAcrossReloads(t *testing.T) {
	dir := t.TempDir()
	catalogPath, matrixPath, interactionsPath := writeFixtures(t, dir)

	ids := func() []int {
		store, err := interactions.LoadFile(interactionsPath)
		if err != nil {
			t.Fatal(err)
		}
		defer store.Close()
		eng := buildEngine(t, store, catalogPath, matrixPath)
		resp := eng.Search(&models.SearchQuery{Query: "zzzz nomatch"})
		if !resp.UsedFallback {
			t.Fatal("expected fallback")
		}
		out := make([]int, len(resp.Results))
		for i, r := range resp.Results {
			out[i] = r.Article.ID
		}
		return out
	}

	first := ids()
	second := ids()
	if len(first) != len(second) {
		t.Fatalf("fallback size changed: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("fallback order changed at %d: %d vs %d", i, first[i], second[i])
		}
	}
}
