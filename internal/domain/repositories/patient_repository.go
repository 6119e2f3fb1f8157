package repositories

import (
	"context"

	"github.com/vitallink/clinic-records/backend/internal/domain/entities"
)

// PatientRepository defines the interface for patient data operations
type PatientRepository interface {
	// Create creates a new patient and sets the generated row ID
	Create(ctx context.Context, patient *entities.Patient) error

	// GetByID retrieves a patient by row ID
	GetByID(ctx context.Context, id int64) (*entities.Patient, error)

	// GetByCPF retrieves a patient by exact national ID match (digits only)
	GetByCPF(ctx context.Context, cpf string) (*entities.Patient, error)

	// FindFirstByName retrieves the first patient whose full name contains
	// name as a case-sensitive substring, ordered by lowest row ID. The
	// ordering keeps the loose name fallback deterministic across runs.
	FindFirstByName(ctx context.Context, name string) (*entities.Patient, error)

	// Update updates a patient (administrative edits)
	Update(ctx context.Context, patient *entities.Patient) error

	// List retrieves patients with filters
	List(ctx context.Context, filter PatientFilter) ([]*entities.Patient, error)
}

// PatientFilter defines filters for listing patients
type PatientFilter struct {
	// Name filters by substring match on the full name
	Name   string
	Gender string
	Limit  int
	Offset int
}
