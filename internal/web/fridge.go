package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"fridgecal/internal/recipes"
	"fridgecal/internal/settings"
)

func (s *Server) handleThemeGet(w http.ResponseWriter, _ *http.Request) {
	if s.settings == nil {
		writeJSON(w, http.StatusOK, map[string]string{"theme": settings.ThemeLight})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"theme": s.settings.Theme()})
}

func (s *Server) handleThemePut(w http.ResponseWriter, r *http.Request) {
	if s.settings == nil {
		writeError(w, http.StatusServiceUnavailable, "settings not available")
		return
	}
	var req struct {
		Theme  string `json:"theme"`
		Toggle bool   `json:"toggle,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var err error
	if req.Toggle {
		_, err = s.settings.Toggle()
	} else {
		err = s.settings.SetTheme(req.Theme)
	}
	switch {
	case errors.Is(err, settings.ErrInvalidTheme):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		// The in-memory value changed; only persisting failed.
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"theme": s.settings.Theme()})
}

func (s *Server) requireRecipes(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.recipes == nil {
			writeError(w, http.StatusServiceUnavailable, "recipe backend not configured")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type upstreamError struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
	Status    int    `json:"status,omitempty"`
}

// writeRecipesError maps client errors: selection mistakes are the
// caller's, everything from the backend is a bad gateway.
func writeRecipesError(w http.ResponseWriter, err error) {
	if errors.Is(err, recipes.ErrNoIngredients) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var reqErr *recipes.RequestError
	if errors.As(err, &reqErr) {
		writeJSON(w, http.StatusBadGateway, upstreamError{
			Error:     reqErr.Error(),
			Retryable: reqErr.Retryable(),
			Status:    reqErr.Status,
		})
		return
	}
	writeJSON(w, http.StatusBadGateway, upstreamError{Error: err.Error()})
}

// handleIngredients lists ingredients; ?grouped=1 groups them by category.
func (s *Server) handleIngredients(w http.ResponseWriter, r *http.Request) {
	ings, err := s.recipes.Ingredients(r.Context())
	if err != nil {
		writeRecipesError(w, err)
		return
	}
	if grouped, _ := strconv.ParseBool(r.URL.Query().Get("grouped")); grouped {
		writeJSON(w, http.StatusOK, recipes.GroupByCategory(ings))
		return
	}
	writeJSON(w, http.StatusOK, ings)
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recipes.RecommendRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.IngredientIDs) > recipes.MaxIngredients || len(req.IngredientNames) > recipes.MaxIngredients {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d ingredients", recipes.MaxIngredients))
		return
	}
	resp, err := s.recipes.Recommend(r.Context(), req)
	if err != nil {
		writeRecipesError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecipeDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid recipe id")
		return
	}
	d, err := s.recipes.RecipeDetail(r.Context(), id)
	if err != nil {
		writeRecipesError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleYoutubeSteps(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoId")
	if videoID == "" {
		writeError(w, http.StatusBadRequest, "missing video id")
		return
	}
	steps, err := s.recipes.YoutubeRecipeSteps(r.Context(), videoID, r.URL.Query().Get("title"))
	if err != nil {
		writeRecipesError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, steps)
}

type quotaResponse struct {
	recipes.YoutubeQuota
	Remaining int        `json:"remaining"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// handleQuota serves the watcher's cached value when it has one; ?refresh=1
// or a missing cache polls the backend.
func (s *Server) handleQuota(w http.ResponseWriter, r *http.Request) {
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	if s.quota != nil && !refresh {
		if q, at, ok := s.quota.Last(); ok {
			writeJSON(w, http.StatusOK, quotaResponse{YoutubeQuota: q, Remaining: q.Remaining(), UpdatedAt: &at})
			return
		}
	}

	var (
		q   recipes.YoutubeQuota
		err error
	)
	if s.quota != nil {
		q, err = s.quota.Refresh(r.Context())
	} else {
		q, err = s.recipes.YoutubeQuota(r.Context())
	}
	if err != nil {
		writeRecipesError(w, err)
		return
	}
	now := time.Now()
	writeJSON(w, http.StatusOK, quotaResponse{YoutubeQuota: q, Remaining: q.Remaining(), UpdatedAt: &now})
}
