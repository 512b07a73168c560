package handlers

import (
	"net/http"

	"heronnest/internal/models"
	"heronnest/internal/service"
)

type ReportsResponse struct {
	Reports []*models.Report `json:"reports"`
}

func (h *Handlers) FileReport(w http.ResponseWriter, r *http.Request) {
	session, ok := currentSession(w, r)
	if !ok {
		return
	}

	var req service.FileReportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ReporterID = session.UserID

	report, err := h.ReportService.FileReport(r.Context(), req)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	writeSuccess(w, report, http.StatusCreated)
}

// GetReports lists reports, optionally filtered by ?status=.
func (h *Handlers) GetReports(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentSession(w, r); !ok {
		return
	}

	status := models.ReportStatus(r.URL.Query().Get("status"))
	reports, err := h.ReportService.ListReports(r.Context(), status)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	writeSuccess(w, ReportsResponse{Reports: reports}, http.StatusOK)
}

func (h *Handlers) UpdateReportStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentSession(w, r); !ok {
		return
	}

	var req struct {
		Status models.ReportStatus `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.ReportService.UpdateStatus(r.Context(), pathID(r), req.Status); err != nil {
		WriteAppError(w, err)
		return
	}

	writeSuccess(w, map[string]models.ReportStatus{"status": req.Status}, http.StatusOK)
}
