// Package engine provides the news recommendation engine: keyword search
// over article titles, article-to-article similarity lookup, and hybrid
// per-user recommendations.
//
// Every operation is a pure, synchronous computation over immutable
// in-memory data. The engine is safe for concurrent callers without
// locking; for hot reload, build a replacement and swap it through a Holder
// so in-flight reads never observe a partial structure.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"github.com/smartnews/newsrec/internal/catalog"
	"github.com/smartnews/newsrec/internal/config"
	"github.com/smartnews/newsrec/internal/interactions"
	"github.com/smartnews/newsrec/internal/keyword"
	"github.com/smartnews/newsrec/internal/models"
	"github.com/smartnews/newsrec/internal/similarity"
)

// ErrUnknownTitle is returned by FindSimilar for a title absent from the
// catalog. Callers that serve end users should map it to an empty result:
// "article unknown" and "nothing similar" look the same to a reader.
var ErrUnknownTitle = errors.New("engine: title not in catalog")

// Engine answers search, similarity, and recommendation queries. Immutable
// after New; holds no per-request state.
type Engine struct {
	catalog      *catalog.Catalog
	matrix       *similarity.Matrix
	index        *keyword.TitleIndex
	store        interactions.Store
	searchCfg    *config.SearchConfig
	recommendCfg *config.RecommendConfig
	logger       *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a logger for skipped-record debug output.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New builds an engine and its title index. Fails when the similarity
// matrix dimension does not equal the catalog size; that inconsistency is a
// fatal load-time condition, never a per-request one.
func New(
	cat *catalog.Catalog,
	matrix *similarity.Matrix,
	store interactions.Store,
	searchCfg *config.SearchConfig,
	recommendCfg *config.RecommendConfig,
	opts ...Option,
) (*Engine, error) {
	if matrix.Dim() != cat.Len() {
		return nil, fmt.Errorf("%w: matrix %d, catalog %d",
			similarity.ErrDimensionMismatch, matrix.Dim(), cat.Len())
	}
	e := &Engine{
		catalog:      cat,
		matrix:       matrix,
		index:        keyword.NewTitleIndex(cat.Titles()),
		store:        store,
		searchCfg:    searchCfg,
		recommendCfg: recommendCfg,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Catalog returns the engine's article catalog.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Store returns the engine's interaction store.
func (e *Engine) Store() interactions.Store {
	return e.store
}

// Search ranks catalog articles against query by TF-IDF cosine similarity.
// When every similarity score is exactly zero (empty query, stopword-only
// query, or no shared vocabulary) it returns the deterministic fallback
// sample and sets UsedFallback. Search never fails.
func (e *Engine) Search(query *models.SearchQuery) *models.SearchResponse {
	limit := query.EffectiveLimit()
	if e.searchCfg.Limit > 0 && limit > e.searchCfg.Limit {
		limit = e.searchCfg.Limit
	}

	hits := e.index.Search(query.Query, limit)
	if len(hits) == 0 {
		return &models.SearchResponse{
			Query:        query.Query,
			Results:      e.fallbackSample(),
			UsedFallback: true,
		}
	}

	results := make([]*models.SearchResult, 0, len(hits))
	for _, hit := range hits {
		article, ok := e.catalog.Article(hit.ID)
		if !ok {
			continue
		}
		results = append(results, &models.SearchResult{
			Article: article,
			Score:   hit.Score,
			Rank:    len(results) + 1,
		})
	}
	return &models.SearchResponse{Query: query.Query, Results: results}
}

// fallbackSample returns up to FallbackSize articles drawn pseudo-randomly
// with a fixed seed, so repeated degenerate searches return the identical
// sample.
func (e *Engine) fallbackSample() []*models.SearchResult {
	n := e.catalog.Len()
	size := e.searchCfg.FallbackSize
	if size > n {
		size = n
	}
	rng := rand.New(rand.NewSource(e.searchCfg.FallbackSeed))
	results := make([]*models.SearchResult, 0, size)
	for _, id := range rng.Perm(n)[:size] {
		article, ok := e.catalog.Article(id)
		if !ok {
			continue
		}
		results = append(results, &models.SearchResult{
			Article: article,
			Rank:    len(results) + 1,
		})
	}
	return results
}

// FindSimilar returns the top k articles most similar to the article with
// the given title, by descending precomputed similarity with ties broken by
// ascending id. The queried article itself is always excluded. An unknown
// title fails with ErrUnknownTitle.
func (e *Engine) FindSimilar(title string, k int) (*models.SimilarResponse, error) {
	if k <= 0 {
		k = 5
	}
	id, ok := e.catalog.IDByTitle(title)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTitle, title)
	}
	row, err := e.matrix.Row(id)
	if err != nil {
		return nil, err
	}

	type scored struct {
		id    int
		score float64
	}
	candidates := make([]scored, 0, len(row)-1)
	for other, score := range row {
		if other == id {
			continue
		}
		candidates = append(candidates, scored{id: other, score: score})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].id < candidates[j].id
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}

	results := make([]*models.SearchResult, 0, len(candidates))
	for _, c := range candidates {
		article, ok := e.catalog.Article(c.id)
		if !ok {
			continue
		}
		results = append(results, &models.SearchResult{
			Article: article,
			Score:   c.score,
			Rank:    len(results) + 1,
		})
	}
	return &models.SimilarResponse{Title: title, Results: results}, nil
}

// Recommend blends content similarity with the user's engagement history:
// each past article contributes its similarity row weighted by
// alpha*rating + beta*(timeSpent/timeMax). Articles the user already read
// are excluded. A user with no usable history gets an empty list, never an
// error.
//
// Nil request fields fall back to the configured defaults. Explicit values
// are honored as given, including zero: topK of 0 returns an empty list and
// alpha of 0 drops the rating term, so len(results) <= k holds for every
// requested k >= 0.
func (e *Engine) Recommend(ctx context.Context, req *models.RecommendRequest) (*models.RecommendResponse, error) {
	alpha, beta, topK := e.recommendCfg.Alpha, e.recommendCfg.Beta, e.recommendCfg.TopK
	if req.Alpha != nil {
		alpha = *req.Alpha
	}
	if req.Beta != nil {
		beta = *req.Beta
	}
	if req.TopK != nil {
		topK = *req.TopK
	}

	records, err := e.store.ForUser(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("engine: fetch interactions for %s: %w", req.UserID, err)
	}
	resp := &models.RecommendResponse{UserID: req.UserID, Results: []*models.SearchResult{}}
	if len(records) == 0 {
		return resp, nil
	}

	scores := e.accumulateScores(records, alpha, beta)

	readTitles := make(map[string]struct{}, len(records))
	for _, rec := range records {
		readTitles[rec.Title] = struct{}{}
	}

	for _, id := range rankByScore(scores) {
		if len(resp.Results) >= topK {
			break
		}
		article, ok := e.catalog.Article(id)
		if !ok {
			continue
		}
		if _, read := readTitles[article.Title]; read {
			continue
		}
		resp.Results = append(resp.Results, &models.SearchResult{
			Article: article,
			Score:   scores[id],
			Rank:    len(resp.Results) + 1,
		})
	}
	return resp, nil
}

// accumulateScores folds every usable interaction record into a per-article
// score vector. Titles missing from the catalog and similarity rows of the
// wrong length are skipped silently; data drift between the log and the
// catalog is expected, not fatal.
func (e *Engine) accumulateScores(records []models.InteractionRecord, alpha, beta float64) []float64 {
	n := e.catalog.Len()
	scores := make([]float64, n)

	timeMax := 0.0
	for _, rec := range records {
		if rec.TimeSpentSeconds > timeMax {
			timeMax = rec.TimeSpentSeconds
		}
	}
	if timeMax <= 0 {
		timeMax = 1
	}

	for _, rec := range records {
		id, ok := e.catalog.IDByTitle(rec.Title)
		if !ok {
			if e.logger != nil {
				e.logger.Debug("interaction title not in catalog", zap.String("title", rec.Title))
			}
			continue
		}
		row, err := e.matrix.Row(id)
		if err != nil || len(row) != n {
			if e.logger != nil {
				e.logger.Debug("similarity row skipped", zap.Int("id", id), zap.Error(err))
			}
			continue
		}
		weight := alpha*rec.Rating + beta*(rec.TimeSpentSeconds/timeMax)
		for i, sim := range row {
			scores[i] += weight * sim
		}
	}
	return scores
}

// rankByScore returns article ids ordered by descending score, ties broken
// by ascending id for reproducibility.
func rankByScore(scores []float64) []int {
	ids := make([]int, len(scores))
	for i := range ids {
		ids[i] = i
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] != scores[ids[j]] {
			return scores[ids[i]] > scores[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Status summarizes the engine's loaded inputs.
type Status struct {
	Articles     int   `json:"articles"`
	VocabSize    int   `json:"vocab_size"`
	Users        int   `json:"users"`
	Interactions int64 `json:"interactions"`
}

// Stat reports catalog, index, and interaction log sizes.
func (e *Engine) Stat(ctx context.Context) (*Status, error) {
	users, err := e.store.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine: list users: %w", err)
	}
	total, err := e.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine: count interactions: %w", err)
	}
	return &Status{
		Articles:     e.catalog.Len(),
		VocabSize:    e.index.VocabSize(),
		Users:        len(users),
		Interactions: total,
	}, nil
}
