package http

import (
	"net/http"

	"fintrack/internal/core"
)

// handleRequestExport enqueues an export when AMQP is configured, otherwise
// runs it inline so single-process deployments still work.
func (s *Server) handleRequestExport(w http.ResponseWriter, r *http.Request, userID string) {
	var req exportRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.ExportType == "" {
		req.ExportType = "csv"
	}

	if s.publisher != nil {
		if err := s.publisher.PublishExportRequest(r.Context(), userID, req.ExportType); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{
			"status":      "queued",
			"export_type": req.ExportType,
		})
		return
	}

	logged, err := s.exportWorker.Process(r.Context(), userID, req.ExportType)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, logged)
		return
	}
	writeJSON(w, http.StatusCreated, logged)
}

func (s *Server) handleListExports(w http.ResponseWriter, r *http.Request, userID string) {
	logs, err := s.store.ListExportLogs(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if logs == nil {
		logs = []core.ExportLog{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"exports": logs})
}
