package http

import (
	"net/http"

	"fintrack/internal/core"
)

type listResponse struct {
	Transactions []core.Transaction `json:"transactions"`
	Total        int                `json:"total"`
	Page         int                `json:"page"`
	PerPage      int                `json:"per_page"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	t, err := req.toDomain(userID)
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := s.svc.Create(r.Context(), t)
	if err != nil {
		writeError(w, err)
		return
	}
	s.invalidateUser(userID)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, userID string) {
	f, err := parseFilters(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	page := parsePage(r.URL.Query())

	txs, total, err := s.store.Query(r.Context(), userID, f, page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{
		Transactions: txs,
		Total:        total,
		Page:         page.Number,
		PerPage:      page.Size,
	})
}

// handleSearchTransactions is listing with a required q parameter.
func (s *Server) handleSearchTransactions(w http.ResponseWriter, r *http.Request, userID string) {
	if r.URL.Query().Get("q") == "" {
		writeErrorMessage(w, http.StatusBadRequest, "missing search query parameter 'q'")
		return
	}
	s.handleListTransactions(w, r, userID)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	t, err := s.store.Get(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	var req transactionPatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	patch, err := req.toDomain()
	if err != nil {
		writeError(w, err)
		return
	}

	updated, err := s.svc.Update(r.Context(), r.PathValue("id"), userID, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	s.invalidateUser(userID)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.svc.Delete(r.Context(), r.PathValue("id"), userID); err != nil {
		writeError(w, err)
		return
	}
	s.invalidateUser(userID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBulkCreate(w http.ResponseWriter, r *http.Request, userID string) {
	var reqs []transactionRequest
	if err := decodeBody(r, &reqs); err != nil {
		writeError(w, err)
		return
	}

	txs := make([]core.Transaction, 0, len(reqs))
	for i := range reqs {
		t, err := reqs[i].toDomain(userID)
		if err != nil {
			writeError(w, err)
			return
		}
		txs = append(txs, t)
	}

	created, err := s.svc.BulkCreate(r.Context(), txs)
	if err != nil {
		writeError(w, err)
		return
	}
	s.invalidateUser(userID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"created": len(created),
	})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request, userID string) {
	categories, err := s.store.DistinctCategories(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"categories": categories})
}
