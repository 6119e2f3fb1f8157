package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/vitallink/clinic-records/backend/internal/adapters/wxml"
	"github.com/vitallink/clinic-records/backend/internal/domain/entities"
	"github.com/vitallink/clinic-records/backend/internal/domain/repositories"
	"github.com/vitallink/clinic-records/backend/internal/infrastructure/observability"
	apperrors "github.com/vitallink/clinic-records/backend/pkg/errors"
	"github.com/vitallink/clinic-records/backend/pkg/utils"
)

// EntityResolver finds or creates the patients and doctors referenced by a
// parsed exam record. Exact-key matching (national ID, license) is preferred;
// the name substring fallback deliberately accepts false positives over
// duplicate-patient proliferation.
type EntityResolver struct {
	patientRepo repositories.PatientRepository
	doctorRepo  repositories.DoctorRepository
}

// NewEntityResolver creates a new entity resolver
func NewEntityResolver(patientRepo repositories.PatientRepository, doctorRepo repositories.DoctorRepository) *EntityResolver {
	return &EntityResolver{
		patientRepo: patientRepo,
		doctorRepo:  doctorRepo,
	}
}

// FindOrCreatePatient resolves a patient by exact CPF match, then by name
// substring match (lowest row ID wins), creating a new patient when neither
// hits. The name must be non-empty after trimming. The created flag reports
// whether a new row was written.
func (r *EntityResolver) FindOrCreatePatient(ctx context.Context, record *wxml.ExamRecord, now time.Time) (*entities.Patient, bool, error) {
	name := strings.TrimSpace(record.PatientName)
	if name == "" {
		return nil, false, apperrors.NewValidationError("patient name is required")
	}

	if record.CPF != "" {
		patient, err := r.patientRepo.GetByCPF(ctx, record.CPF)
		if err == nil {
			return patient, false, nil
		}
		if !apperrors.IsNotFound(err) {
			return nil, false, err
		}
	}

	patient, err := r.patientRepo.FindFirstByName(ctx, name)
	if err == nil {
		return patient, false, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, false, err
	}

	patient = &entities.Patient{
		PatientCode: buildPatientCode(name, now),
		FullName:    name,
		BirthDate:   record.BirthDate,
		Gender:      record.Gender,
		CPF:         record.CPF,
		CreatedAt:   now,
	}

	if err := r.patientRepo.Create(ctx, patient); err != nil {
		return nil, false, err
	}

	observability.GetLogger().Info().
		Int64("patient_id", patient.ID).
		Str("patient_code", patient.PatientCode).
		Msg("created patient")

	return patient, true, nil
}

// FindOrCreateDoctor resolves a doctor by exact license match, creating one
// when absent. A block with an empty name or license resolves to no doctor
// with no error; doctor linkage is optional.
func (r *EntityResolver) FindOrCreateDoctor(ctx context.Context, ref wxml.DoctorRef, now time.Time) (*int64, bool, error) {
	if ref.Empty() {
		return nil, false, nil
	}

	crm := utils.DigitsOnly(ref.License)
	if crm == "" {
		return nil, false, nil
	}

	doctor, err := r.doctorRepo.GetByCRM(ctx, crm)
	if err == nil {
		return &doctor.ID, false, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, false, err
	}

	doctor = &entities.Doctor{
		Name:      strings.TrimSpace(ref.Name),
		CRM:       crm,
		CreatedAt: now,
	}

	if err := r.doctorRepo.Create(ctx, doctor); err != nil {
		return nil, false, err
	}

	observability.GetLogger().Info().
		Int64("doctor_id", doctor.ID).
		Str("crm", crm).
		Msg("created doctor")

	return &doctor.ID, true, nil
}

// buildPatientCode derives the human-facing patient identifier from the
// processing date and a content hash of the name, so repeated runs seeing the
// same name on the same day generate the same code
func buildPatientCode(name string, now time.Time) string {
	return fmt.Sprintf("PAC%s%s", now.Format("20060102"), hashString(name))
}

func hashString(value string) string {
	hasher := fnv.New32a()
	_, _ = hasher.Write([]byte(value))
	return fmt.Sprintf("%x", hasher.Sum32())
}
