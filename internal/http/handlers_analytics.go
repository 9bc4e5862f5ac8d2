package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
)

func (s *Server) handleMonthlySummary(w http.ResponseWriter, r *http.Request, userID string) {
	month, year := parseMonthYear(r.URL.Query(), time.Now().UTC())

	sum, err := s.agg.MonthlySummary(r.Context(), userID, month, year)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleCategorySummary(w http.ResponseWriter, r *http.Request, userID string) {
	f, err := parseFilters(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}

	totals, err := s.agg.SumByCategory(r.Context(), userID, f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": totals})
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request, userID string) {
	months, err := s.agg.SumByMonth(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"months": months})
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request, userID string) {
	period := r.URL.Query().Get("period")

	stats, err := s.composer.Statistics(r.Context(), userID, period, time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request, userID string) {
	var start, end *time.Time
	if v := r.URL.Query().Get("start_date"); v != "" {
		date, err := core.ParseDate(v)
		if err != nil {
			writeError(w, err)
			return
		}
		start = &date
	}
	if v := r.URL.Query().Get("end_date"); v != "" {
		date, err := core.ParseDate(v)
		if err != nil {
			writeError(w, err)
			return
		}
		end = &date
	}

	key := reportCacheKey(userID, start, end)
	if report, ok := s.reportCache.Get(key); ok {
		writeJSON(w, http.StatusOK, report)
		return
	}

	report, err := s.composer.BuildReport(r.Context(), userID, start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	s.reportCache.Set(key, report)
	writeJSON(w, http.StatusOK, report)
}

func reportCacheKey(userID string, start, end *time.Time) string {
	key := userID + ":report:"
	if start != nil {
		key += start.Format("2006-01-02")
	}
	key += ".."
	if end != nil {
		key += end.Format("2006-01-02")
	}
	return key
}

func (s *Server) handleBudgetStatus(w http.ResponseWriter, r *http.Request, userID string) {
	now := time.Now().UTC()
	key := budgetCacheKey(userID, now)
	if status, ok := s.budgetCache.Get(key); ok {
		writeJSON(w, http.StatusOK, map[string]any{"budgets": status})
		return
	}

	status, err := s.evaluator.Evaluate(r.Context(), userID, now)
	if err != nil {
		writeError(w, err)
		return
	}
	s.budgetCache.Set(key, status)
	writeJSON(w, http.StatusOK, map[string]any{"budgets": status})
}
