package web

import (
	"errors"
	"net/http"

	"fitcal/internal/ai"
	appLog "fitcal/internal/log"
	"fitcal/internal/model"
	"fitcal/internal/store"
)

// aiError maps completion-API failures to HTTP statuses. A missing token is
// the operator's choice, not an outage, so it gets a distinct message.
func aiError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, ai.ErrDisabled) {
		writeError(w, http.StatusServiceUnavailable, "AI is not configured; set ai.oauth_token and ai.folder_id")
		return
	}
	appLog.Error("completion request failed", err, "what", what)
	writeError(w, http.StatusBadGateway, "AI request failed")
}

func (s *Server) handleAIWorkout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Goal string `json:"goal"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Goal == "" {
		writeError(w, http.StatusBadRequest, "goal is required")
		return
	}

	exercises, err := s.ai.GenerateWorkoutPlan(r.Context(), req.Goal)
	if err != nil {
		aiError(w, err, "workout")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exercises": exercises})
}

func (s *Server) handleAIRecipes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MealType string `json:"meal_type"`
		Request  string `json:"request"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.MealType == "" {
		writeError(w, http.StatusBadRequest, "meal_type is required")
		return
	}

	recipes, err := s.ai.GenerateRecipes(r.Context(), req.MealType, req.Request)
	if err != nil {
		aiError(w, err, "recipes")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recipes": recipes})
}

func (s *Server) handleAIVitamins(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	text, err := s.ai.GenerateVitaminSuggestions(r.Context(), req.Query)
	if err != nil {
		aiError(w, err, "vitamins")
		return
	}

	saved, err := s.store.SaveVitaminQuery(model.VitaminQuery{Query: req.Query, Response: text})
	if err != nil {
		// The answer is still useful even if history could not be written.
		appLog.Error("failed to save vitamin query", err)
		writeJSON(w, http.StatusOK, model.VitaminQuery{Query: req.Query, Response: text})
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleListRecipes(w http.ResponseWriter, _ *http.Request) {
	recipes, err := s.store.ListRecipes()
	if err != nil {
		appLog.Error("failed to list recipes", err)
		writeError(w, http.StatusInternalServerError, "failed to list recipes")
		return
	}
	if recipes == nil {
		recipes = []model.Recipe{}
	}
	writeJSON(w, http.StatusOK, recipes)
}

func (s *Server) handleSaveRecipe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string `json:"name"`
		MealType     string `json:"meal_type"`
		Ingredients  string `json:"ingredients"`
		Instructions string `json:"instructions"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	saved, err := s.store.SaveRecipe(model.Recipe{
		Name:         req.Name,
		MealType:     req.MealType,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
	})
	if err != nil {
		appLog.Error("failed to save recipe", err)
		writeError(w, http.StatusInternalServerError, "failed to save recipe")
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteRecipe(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "recipe not found")
			return
		}
		appLog.Error("failed to delete recipe", err, "recipe_id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete recipe")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListVitaminQueries(w http.ResponseWriter, _ *http.Request) {
	queries, err := s.store.ListVitaminQueries()
	if err != nil {
		appLog.Error("failed to list vitamin queries", err)
		writeError(w, http.StatusInternalServerError, "failed to list vitamin queries")
		return
	}
	if queries == nil {
		queries = []model.VitaminQuery{}
	}
	writeJSON(w, http.StatusOK, queries)
}

func (s *Server) handleDeleteVitaminQuery(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteVitaminQuery(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "query not found")
			return
		}
		appLog.Error("failed to delete vitamin query", err, "query_id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete query")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
