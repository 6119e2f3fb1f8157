package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vitallink/clinic-records/backend/internal/domain/repositories"
)

// ExamHandler handles exam-related HTTP requests
type ExamHandler struct {
	examRepo   repositories.ExamRepository
	reportRepo repositories.ReportRepository
}

// NewExamHandler creates a new exam handler
func NewExamHandler(examRepo repositories.ExamRepository, reportRepo repositories.ReportRepository) *ExamHandler {
	return &ExamHandler{
		examRepo:   examRepo,
		reportRepo: reportRepo,
	}
}

// GetExam handles GET /api/exams/:id
func (h *ExamHandler) GetExam(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "exam ID must be numeric")
		return
	}

	exam, err := h.examRepo.GetByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err, "failed to get exam")
		return
	}

	respondWithJSON(w, http.StatusOK, exam)
}

// GetExamByNumber handles GET /api/exams/by-number/:number
func (h *ExamHandler) GetExamByNumber(w http.ResponseWriter, r *http.Request) {
	number := strings.TrimSpace(r.PathValue("number"))
	if number == "" {
		respondWithError(w, http.StatusBadRequest, "exam number is required")
		return
	}

	exam, err := h.examRepo.GetByNumber(r.Context(), number)
	if err != nil {
		respondWithAppError(w, err, "failed to get exam")
		return
	}

	respondWithJSON(w, http.StatusOK, exam)
}

// ListExams handles GET /api/exams
func (h *ExamHandler) ListExams(w http.ResponseWriter, r *http.Request) {
	filter := repositories.ExamFilter{
		PatientID: int64(queryInt(r, "patient_id", 0)),
		Status:    strings.TrimSpace(r.URL.Query().Get("status")),
		DateFrom:  strings.TrimSpace(r.URL.Query().Get("from")),
		DateTo:    strings.TrimSpace(r.URL.Query().Get("to")),
		Limit:     queryInt(r, "limit", defaultListLimit),
		Offset:    queryInt(r, "offset", 0),
	}

	exams, err := h.examRepo.List(r.Context(), filter)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to list exams")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"exams": exams,
		"count": len(exams),
	})
}

// GetExamReports handles GET /api/exams/:id/reports
func (h *ExamHandler) GetExamReports(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "exam ID must be numeric")
		return
	}

	if _, err := h.examRepo.GetByID(r.Context(), id); err != nil {
		respondWithAppError(w, err, "failed to get exam")
		return
	}

	reports, err := h.reportRepo.ListByExam(r.Context(), id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}

type examUpdateRequest struct {
	Status              *string `json:"status"`
	ExamDate            *string `json:"exam_date"`
	ExamTime            *string `json:"exam_time"`
	ResponsibleDoctorID *int64  `json:"responsible_doctor_id"`
	RequestingDoctorID  *int64  `json:"requesting_doctor_id"`
}

// UpdateExam handles PATCH /api/exams/:id. Administrative edits only: the
// exam number, patient and source path are owned by the ingestion pipeline
// and cannot be changed here.
func (h *ExamHandler) UpdateExam(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "exam ID must be numeric")
		return
	}

	var payload examUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	exam, err := h.examRepo.GetByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err, "failed to get exam")
		return
	}

	if payload.Status != nil {
		status := strings.TrimSpace(*payload.Status)
		if status == "" {
			respondWithError(w, http.StatusBadRequest, "status cannot be empty")
			return
		}
		exam.Status = status
	}
	if payload.ExamDate != nil {
		exam.ExamDate = strings.TrimSpace(*payload.ExamDate)
	}
	if payload.ExamTime != nil {
		exam.ExamTime = strings.TrimSpace(*payload.ExamTime)
	}
	if payload.ResponsibleDoctorID != nil {
		exam.ResponsibleDoctorID = payload.ResponsibleDoctorID
	}
	if payload.RequestingDoctorID != nil {
		exam.RequestingDoctorID = payload.RequestingDoctorID
	}

	if err := h.examRepo.Update(r.Context(), exam); err != nil {
		respondWithAppError(w, err, "failed to update exam")
		return
	}

	respondWithJSON(w, http.StatusOK, exam)
}
