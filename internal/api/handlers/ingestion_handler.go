package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/vitallink/clinic-records/backend/internal/application/services"
)

// ingestionDateLayout is the operator-facing date format (DD/MM/YYYY),
// matching the vendor's own convention.
const ingestionDateLayout = "02/01/2006"

// IngestionRunner runs a WXML ingestion pass for one calendar date.
type IngestionRunner interface {
	Run(ctx context.Context, date time.Time) (*services.IngestionSummary, error)
}

// ReportLinkRunner runs a report registration and linking pass.
type ReportLinkRunner interface {
	Run(ctx context.Context) (*services.ReportLinkSummary, error)
}

// IngestionHandler triggers ingestion runs over HTTP
type IngestionHandler struct {
	ingestion IngestionRunner
	linker    ReportLinkRunner
}

// NewIngestionHandler creates a new ingestion handler. The linker may be nil
// when report linking is not configured.
func NewIngestionHandler(ingestion IngestionRunner, linker ReportLinkRunner) *IngestionHandler {
	return &IngestionHandler{
		ingestion: ingestion,
		linker:    linker,
	}
}

type ingestionRunRequest struct {
	Date string `json:"date"`
}

// TriggerRun handles POST /api/ingestion/run. The run is synchronous: the
// response carries the full summary of what was ingested.
func (h *IngestionHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	if h.ingestion == nil {
		respondWithError(w, http.StatusServiceUnavailable, "ingestion service not configured")
		return
	}

	date, err := h.runDate(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "date must be DD/MM/YYYY")
		return
	}

	summary, err := h.ingestion.Run(r.Context(), date)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "ingestion run failed")
		return
	}

	response := map[string]interface{}{
		"ingestion": summary,
	}

	if h.linker != nil {
		linkSummary, err := h.linker.Run(r.Context())
		if err != nil {
			response["report_linking_error"] = err.Error()
		} else {
			response["report_linking"] = linkSummary
		}
	}

	respondWithJSON(w, http.StatusOK, response)
}

// runDate reads the run date from the query string or the JSON body,
// defaulting to today
func (h *IngestionHandler) runDate(r *http.Request) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" && r.Body != nil {
		var payload ingestionRunRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
			raw = strings.TrimSpace(payload.Date)
		}
	}
	if raw == "" {
		return time.Now(), nil
	}
	return time.Parse(ingestionDateLayout, raw)
}
