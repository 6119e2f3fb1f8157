package entities

import (
	"time"
)

// Patient represents a patient record. Patients are created by the ingestion
// pipeline on first sighting and mutated only through administrative edits.
type Patient struct {
	ID int64 `json:"id" db:"id"`
	// PatientCode is the generated human-facing patient identifier,
	// derived deterministically from the first-sighting date and a hash
	// of the patient name
	PatientCode string `json:"patient_id" db:"patient_id"`
	FullName    string `json:"full_name" db:"full_name"`
	// BirthDate is stored normalized to ISO (YYYY-MM-DD)
	BirthDate string `json:"birth_date" db:"birth_date"`
	Gender    string `json:"gender" db:"gender"`
	// CPF is the national ID, digits only; empty when the vendor export
	// did not carry one
	CPF       string    `json:"cpf" db:"cpf"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
