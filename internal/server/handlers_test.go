package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/smartnews/newsrec/internal/catalog"
	"github.com/smartnews/newsrec/internal/config"
	"github.com/smartnews/newsrec/internal/engine"
	"github.com/smartnews/newsrec/internal/interactions"
	"github.com/smartnews/newsrec/internal/models"
	"github.com/smartnews/newsrec/internal/similarity"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cat, err := catalog.New(
		[]string{"title", "description", "url"},
		[][]string{
			{"Stocks rally", "Markets climb", "https://example.com/a"},
			{"Stocks fall", "Markets retreat", "https://example.com/b"},
			{"Weather today", "Sunny spells", "https://example.com/c"},
		},
		catalog.DefaultColumnAliases(),
	)
	if err != nil {
		t.Fatal(err)
	}
	matrix, err := similarity.New([][]float64{
		{1.0, 0.9, 0.1},
		{0.9, 1.0, 0.2},
		{0.1, 0.2, 1.0},
	}, 3)
	if err != nil {
		t.Fatal(err)
	}
	store := interactions.NewMemoryStore([]models.InteractionRecord{
		{UserID: "u1", Title: "Stocks rally", Rating: 5, TimeSpentSeconds: 120},
	})
	eng, err := engine.New(cat, matrix, store,
		&config.SearchConfig{Limit: 10, FallbackSize: 8, FallbackSeed: 42},
		&config.RecommendConfig{Alpha: 0.7, Beta: 0.3, TopK: 6})
	if err != nil {
		t.Fatal(err)
	}
	return NewServer(engine.NewHolder(eng), &config.ServerConfig{Host: "localhost", Port: 8080}, zap.NewNop())
}

func TestHandleSearch(t *testing.T) {
	srv := newTestServer(t)

	body, _ := json.Marshal(models.SearchQuery{Query: "stocks"})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleSearch(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp models.SearchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.UsedFallback {
		t.Error("fallback should not trigger for a matching query")
	}
	if len(resp.Results) != 2 || resp.Results[0].Article.Title != "Stocks rally" {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestHandleSearch_FallbackFlag(t *testing.T) {
	srv := newTestServer(t)

	body, _ := json.Marshal(models.SearchQuery{Query: "quantum entanglement"})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.handleSearch(w, r)

	var resp models.SearchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.UsedFallback {
		t.Error("fallback flag should be set")
	}
	if len(resp.Results) == 0 {
		t.Error("fallback should return articles")
	}
}

func TestHandleSearch_BadBody(t *testing.T) {
	srv := newTestServer(t)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	srv.handleSearch(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleSimilar(t *testing.T) {
	srv := newTestServer(t)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/similar?title=Stocks+rally&k=1", nil)
	w := httptest.NewRecorder()
	srv.handleSimilar(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp models.SimilarResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Article.Title != "Stocks fall" {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestHandleSimilar_UnknownTitleIsEmptyList(t *testing.T) {
	srv := newTestServer(t)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/similar?title=No+such+article", nil)
	w := httptest.NewRecorder()
	srv.handleSimilar(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp models.SimilarResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("results = %+v, want empty", resp.Results)
	}
}

func TestHandleSimilar_MissingTitle(t *testing.T) {
	srv := newTestServer(t)
	r := httptest.NewRequest(http.MethodGet, "/api/v1/similar", nil)
	w := httptest.NewRecorder()
	srv.handleSimilar(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

// withURLParam injects a chi route parameter into the request context.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestHandleRecommend(t *testing.T) {
	srv := newTestServer(t)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/u1", nil)
	r = withURLParam(r, "userID", "u1")
	w := httptest.NewRecorder()
	srv.handleRecommend(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp models.RecommendResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	for _, result := range resp.Results {
		if result.Article.Title == "Stocks rally" {
			t.Error("recommended an already-read article")
		}
	}
	if len(resp.Results) == 0 {
		t.Error("expected recommendations for an active user")
	}
}

func TestHandleRecommend_ExplicitZeroTopK(t *testing.T) {
	srv := newTestServer(t)

	// top_k=0 in the query string is an override, not "use the default".
	r := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/u1?top_k=0", nil)
	r = withURLParam(r, "userID", "u1")
	w := httptest.NewRecorder()
	srv.handleRecommend(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp models.RecommendResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("top_k=0 returned %d results, want 0", len(resp.Results))
	}
}

func TestHandleRecommend_UnknownUser(t *testing.T) {
	srv := newTestServer(t)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/ghost", nil)
	r = withURLParam(r, "userID", "ghost")
	w := httptest.NewRecorder()
	srv.handleRecommend(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp models.RecommendResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("results = %+v, want empty", resp.Results)
	}
}

func TestHandleGetArticle(t *testing.T) {
	srv := newTestServer(t)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/articles/1", nil)
	r = withURLParam(r, "id", "1")
	w := httptest.NewRecorder()
	srv.handleGetArticle(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Title   string `json:"title"`
		Preview string `json:"preview"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Title != "Stocks fall" || resp.Preview != "Markets retreat" {
		t.Errorf("response = %+v", resp)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/v1/articles/99", nil)
	r = withURLParam(r, "id", "99")
	w = httptest.NewRecorder()
	srv.handleGetArticle(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHandleUsersAndStatus(t *testing.T) {
	srv := newTestServer(t)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	w := httptest.NewRecorder()
	srv.handleUsers(w, r)
	var users struct {
		Users []string `json:"users"`
	}
	if err := json.NewDecoder(w.Body).Decode(&users); err != nil {
		t.Fatal(err)
	}
	if len(users.Users) != 1 || users.Users[0] != "u1" {
		t.Errorf("users = %v", users.Users)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	w = httptest.NewRecorder()
	srv.handleStatus(w, r)
	var status engine.Status
	if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
		t.Fatal(err)
	}
	if status.Articles != 3 || status.Interactions != 1 {
		t.Errorf("status = %+v", status)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)
	w := httptest.NewRecorder()
	srv.handleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}
