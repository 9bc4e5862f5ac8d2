package http

import (
	"net/http"

	"fintrack/internal/core"
)

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request, userID string) {
	var req goalRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	g, err := req.toDomain(userID)
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := s.svc.CreateGoal(r.Context(), g)
	if err != nil {
		writeError(w, err)
		return
	}
	s.invalidateUser(userID)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request, userID string) {
	goals, err := s.store.ListGoals(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if goals == nil {
		goals = []core.BudgetGoal{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"goals": goals})
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request, userID string) {
	var req goalPatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	patch, err := req.toDomain()
	if err != nil {
		writeError(w, err)
		return
	}

	updated, err := s.svc.UpdateGoal(r.Context(), r.PathValue("id"), userID, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	s.invalidateUser(userID)
	writeJSON(w, http.StatusOK, updated)
}
