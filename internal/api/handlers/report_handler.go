package handlers

import (
	"net/http"

	"github.com/vitallink/clinic-records/backend/internal/domain/repositories"
)

// ReportHandler handles report-artifact HTTP requests
type ReportHandler struct {
	reportRepo repositories.ReportRepository
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportRepo repositories.ReportRepository) *ReportHandler {
	return &ReportHandler{
		reportRepo: reportRepo,
	}
}

// GetReport handles GET /api/reports/:id
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	reportID := r.PathValue("id")
	if reportID == "" {
		respondWithError(w, http.StatusBadRequest, "report ID is required")
		return
	}

	report, err := h.reportRepo.GetByID(r.Context(), reportID)
	if err != nil {
		respondWithAppError(w, err, "failed to get report")
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}

// ListUnlinkedReports handles GET /api/reports/unlinked
func (h *ReportHandler) ListUnlinkedReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reportRepo.ListUnlinked(r.Context(), queryInt(r, "limit", defaultListLimit))
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}
