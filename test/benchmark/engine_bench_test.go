package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/smartnews/newsrec/internal/catalog"
	"github.com/smartnews/newsrec/internal/config"
	"github.com/smartnews/newsrec/internal/engine"
	"github.com/smartnews/newsrec/internal/interactions"
	"github.com/smartnews/newsrec/internal/keyword"
	"github.com/smartnews/newsrec/internal/models"
	"github.com/smartnews/newsrec/internal/similarity"
)

func benchEngine(b *testing.B, n int) *engine.Engine {
	b.Helper()
	rows := make([][]string, n)
	titles := make([]string, n)
	for i := 0; i < n; i++ {
		titles[i] = fmt.Sprintf("Article %d about topic %d and subject %d", i, i%17, i%31)
		rows[i] = []string{titles[i], "", ""}
	}
	cat, err := catalog.New([]string{"title", "description", "url"}, rows, catalog.DefaultColumnAliases())
	if err != nil {
		b.Fatal(err)
	}
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		for j := range matrix[i] {
			if i == j {
				matrix[i][j] = 1
			} else {
				matrix[i][j] = 1 / float64(1+abs(i-j))
			}
		}
	}
	mat, err := similarity.New(matrix, n)
	if err != nil {
		b.Fatal(err)
	}
	records := make([]models.InteractionRecord, 0, 20)
	for i := 0; i < 20; i++ {
		records = append(records, models.InteractionRecord{
			UserID: "u1", Title: titles[i*7%n], Rating: float64(i%5 + 1), TimeSpentSeconds: float64(i * 30),
		})
	}
	store := interactions.NewMemoryStore(records)
	eng, err := engine.New(cat, mat, store,
		&config.SearchConfig{Limit: 10, FallbackSize: 8, FallbackSeed: 42},
		&config.RecommendConfig{Alpha: 0.7, Beta: 0.3, TopK: 6})
	if err != nil {
		b.Fatal(err)
	}
	return eng
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func BenchmarkEngineSearch(b *testing.B) {
	eng := benchEngine(b, 1000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = eng.Search(&models.SearchQuery{Query: "topic 5 subject 12"})
	}
}

func BenchmarkEngineRecommend(b *testing.B) {
	eng := benchEngine(b, 1000)
	ctx := context.Background()
	req := &models.RecommendRequest{UserID: "u1"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = eng.Recommend(ctx, req)
	}
}

func BenchmarkTitleIndexSearch(b *testing.B) {
	titles := make([]string, 1000)
	for i := range titles {
		titles[i] = fmt.Sprintf("Article %d about topic %d and subject %d", i, i%17, i%31)
	}
	idx := keyword.NewTitleIndex(titles)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = idx.Search("topic 5 subject 12", 10)
	}
}
