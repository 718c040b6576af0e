package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/smartnews/newsrec/internal/engine"
	"github.com/smartnews/newsrec/internal/models"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request", zap.String("query", query.Query), zap.Int("limit", query.Limit))
	response := s.holder.Get().Search(&query)
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		s.respondError(w, http.StatusBadRequest, "missing title parameter")
		return
	}
	k := queryInt(r, "k", 5)

	response, err := s.holder.Get().FindSimilar(title, k)
	if errors.Is(err, engine.ErrUnknownTitle) {
		// Unknown article and "nothing similar" render identically.
		s.logger.Debug("similar: unknown title", zap.String("title", title))
		s.respondJSON(w, http.StatusOK, &models.SimilarResponse{Title: title, Results: []*models.SearchResult{}})
		return
	}
	if err != nil {
		s.logger.Error("similar lookup failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	// Absent parameters stay nil so the engine applies its configured
	// defaults; an explicit 0 is a real override.
	req := &models.RecommendRequest{
		UserID: chi.URLParam(r, "userID"),
		TopK:   queryIntPtr(r, "top_k"),
		Alpha:  queryFloatPtr(r, "alpha"),
		Beta:   queryFloatPtr(r, "beta"),
	}
	s.logger.Debug("recommend request", zap.String("user_id", req.UserID))

	response, err := s.holder.Get().Recommend(r.Context(), req)
	if err != nil {
		s.logger.Error("recommend failed", zap.String("user_id", req.UserID), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

// articleResponse adds the presentation-level description preview to an
// article payload.
type articleResponse struct {
	*models.Article
	Preview string `json:"preview,omitempty"`
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid article id")
		return
	}
	article, ok := s.holder.Get().Catalog().Article(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, "article not found")
		return
	}
	s.respondJSON(w, http.StatusOK, &articleResponse{Article: article, Preview: article.Preview()})
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.holder.Get().Store().Users(r.Context())
	if err != nil {
		s.logger.Error("list users failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if users == nil {
		users = []string{}
	}
	s.respondJSON(w, http.StatusOK, map[string][]string{"users": users})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.holder.Get().Stat(r.Context())
	if err != nil {
		s.logger.Error("status failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// queryIntPtr returns nil when the parameter is absent or unparseable, so
// explicit zero stays distinguishable from unset.
func queryIntPtr(r *http.Request, key string) *int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return &i
		}
	}
	return nil
}

func queryFloatPtr(r *http.Request, key string) *float64 {
	if v := r.URL.Query().Get(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return &f
		}
	}
	return nil
}
