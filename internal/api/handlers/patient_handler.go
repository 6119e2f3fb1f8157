package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/vitallink/clinic-records/backend/internal/domain/repositories"
	apperrors "github.com/vitallink/clinic-records/backend/pkg/errors"
)

const defaultListLimit = 30

// PatientHandler handles patient-related HTTP requests
type PatientHandler struct {
	patientRepo repositories.PatientRepository
	examRepo    repositories.ExamRepository
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(patientRepo repositories.PatientRepository, examRepo repositories.ExamRepository) *PatientHandler {
	return &PatientHandler{
		patientRepo: patientRepo,
		examRepo:    examRepo,
	}
}

// GetPatient handles GET /api/patients/:id
func (h *PatientHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "patient ID must be numeric")
		return
	}

	patient, err := h.patientRepo.GetByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err, "failed to get patient")
		return
	}

	respondWithJSON(w, http.StatusOK, patient)
}

// ListPatients handles GET /api/patients
func (h *PatientHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	filter := repositories.PatientFilter{
		Name:   strings.TrimSpace(r.URL.Query().Get("name")),
		Gender: strings.TrimSpace(r.URL.Query().Get("gender")),
		Limit:  queryInt(r, "limit", defaultListLimit),
		Offset: queryInt(r, "offset", 0),
	}

	patients, err := h.patientRepo.List(r.Context(), filter)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to list patients")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"patients": patients,
		"count":    len(patients),
	})
}

// GetPatientExams handles GET /api/patients/:id/exams
func (h *PatientHandler) GetPatientExams(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "patient ID must be numeric")
		return
	}

	// Confirm the patient exists so a bad ID yields 404, not an empty list
	if _, err := h.patientRepo.GetByID(r.Context(), id); err != nil {
		respondWithAppError(w, err, "failed to get patient")
		return
	}

	exams, err := h.examRepo.List(r.Context(), repositories.ExamFilter{
		PatientID: id,
		Limit:     queryInt(r, "limit", defaultListLimit),
		Offset:    queryInt(r, "offset", 0),
	})
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to list exams")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"exams": exams,
		"count": len(exams),
	})
}

type patientUpdateRequest struct {
	FullName  *string `json:"full_name"`
	BirthDate *string `json:"birth_date"`
	Gender    *string `json:"gender"`
	CPF       *string `json:"cpf"`
}

// UpdatePatient handles PATCH /api/patients/:id
func (h *PatientHandler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "patient ID must be numeric")
		return
	}

	var payload patientUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	patient, err := h.patientRepo.GetByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err, "failed to get patient")
		return
	}

	if payload.FullName != nil {
		name := strings.TrimSpace(*payload.FullName)
		if name == "" {
			respondWithError(w, http.StatusBadRequest, "full name cannot be empty")
			return
		}
		patient.FullName = name
	}
	if payload.BirthDate != nil {
		patient.BirthDate = strings.TrimSpace(*payload.BirthDate)
	}
	if payload.Gender != nil {
		patient.Gender = strings.TrimSpace(*payload.Gender)
	}
	if payload.CPF != nil {
		patient.CPF = digitsOnly(*payload.CPF)
	}

	if err := h.patientRepo.Update(r.Context(), patient); err != nil {
		respondWithAppError(w, err, "failed to update patient")
		return
	}

	respondWithJSON(w, http.StatusOK, patient)
}

// Helper functions

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func respondWithAppError(w http.ResponseWriter, err error, fallback string) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		switch appErr.Type {
		case apperrors.ErrorTypeNotFound:
			respondWithError(w, http.StatusNotFound, appErr.Message)
		case apperrors.ErrorTypeValidation:
			respondWithError(w, http.StatusBadRequest, appErr.Message)
		case apperrors.ErrorTypeConflict:
			respondWithError(w, http.StatusConflict, appErr.Message)
		default:
			respondWithError(w, http.StatusInternalServerError, fallback)
		}
		return
	}
	respondWithError(w, http.StatusInternalServerError, fallback)
}

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
