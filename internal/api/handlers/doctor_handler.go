package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vitallink/clinic-records/backend/internal/domain/repositories"
)

// DoctorHandler handles doctor-related HTTP requests
type DoctorHandler struct {
	doctorRepo repositories.DoctorRepository
}

// NewDoctorHandler creates a new doctor handler
func NewDoctorHandler(doctorRepo repositories.DoctorRepository) *DoctorHandler {
	return &DoctorHandler{
		doctorRepo: doctorRepo,
	}
}

// GetDoctor handles GET /api/doctors/:id
func (h *DoctorHandler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "doctor ID must be numeric")
		return
	}

	doctor, err := h.doctorRepo.GetByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err, "failed to get doctor")
		return
	}

	respondWithJSON(w, http.StatusOK, doctor)
}

// ListDoctors handles GET /api/doctors
func (h *DoctorHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	filter := repositories.DoctorFilter{
		Name:   strings.TrimSpace(r.URL.Query().Get("name")),
		Limit:  queryInt(r, "limit", defaultListLimit),
		Offset: queryInt(r, "offset", 0),
	}

	doctors, err := h.doctorRepo.List(r.Context(), filter)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to list doctors")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"doctors": doctors,
		"count":   len(doctors),
	})
}

type doctorUpdateRequest struct {
	Name *string `json:"name"`
	CRM  *string `json:"crm"`
}

// UpdateDoctor handles PATCH /api/doctors/:id
func (h *DoctorHandler) UpdateDoctor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "doctor ID must be numeric")
		return
	}

	var payload doctorUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	doctor, err := h.doctorRepo.GetByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err, "failed to get doctor")
		return
	}

	if payload.Name != nil {
		name := strings.TrimSpace(*payload.Name)
		if name == "" {
			respondWithError(w, http.StatusBadRequest, "doctor name cannot be empty")
			return
		}
		doctor.Name = name
	}
	if payload.CRM != nil {
		crm := digitsOnly(*payload.CRM)
		if crm == "" {
			respondWithError(w, http.StatusBadRequest, "crm must contain digits")
			return
		}
		doctor.CRM = crm
	}

	if err := h.doctorRepo.Update(r.Context(), doctor); err != nil {
		respondWithAppError(w, err, "failed to update doctor")
		return
	}

	respondWithJSON(w, http.StatusOK, doctor)
}
