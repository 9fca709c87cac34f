package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/sydzls1992-spec/enterprise-purchase-assistant/internal/models"
)

// reviewRequest is the POST /api/review/submit body.
type reviewRequest struct {
	ItemID  string `json:"itemId"`
	Action  string `json:"action"`
	Comment string `json:"comment"`
}

// exportRequest is the POST /api/export/report body.
type exportRequest struct {
	Format    string `json:"format"`
	DateRange string `json:"dateRange"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"jobs":   s.svc.JobStatuses(),
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.Dashboard(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	result := s.svc.RefreshData(r.Context())
	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, result)
}

func (s *Server) handleSourceDetail(w http.ResponseWriter, r *http.Request) {
	source := models.Source(mux.Vars(r)["source"])
	summary, err := s.svc.SourceDetail(r.Context(), source)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	source := models.Source(mux.Vars(r)["source"])
	if !source.Valid() {
		writeError(w, http.StatusNotFound, "unknown source: "+string(source))
		return
	}

	result := s.svc.TriggerCollection(r.Context(), source)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, result)
}

func (s *Server) handleMonitoring(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.SystemMonitoring(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result := s.svc.SubmitReview(r.Context(), req.ItemID, models.ReviewStatus(req.Action), req.Comment)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, result)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if r.Body != nil {
		// An empty body falls back to the JSON default.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	data, contentType, err := s.svc.ExportReport(r.Context(), req.Format, req.DateRange)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Warn().Err(err).Msg("Report write failed")
	}
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeError(w, http.StatusNotFound, "not found")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Response encode failed")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
