package repositories

import (
	"context"

	"github.com/vitallink/clinic-records/backend/internal/domain/entities"
)

// DoctorRepository defines the interface for doctor data operations
type DoctorRepository interface {
	// Create creates a new doctor and sets the generated row ID
	Create(ctx context.Context, doctor *entities.Doctor) error

	// GetByID retrieves a doctor by row ID
	GetByID(ctx context.Context, id int64) (*entities.Doctor, error)

	// GetByCRM retrieves a doctor by exact license match (digits only)
	GetByCRM(ctx context.Context, crm string) (*entities.Doctor, error)

	// Update updates a doctor (administrative edits)
	Update(ctx context.Context, doctor *entities.Doctor) error

	// List retrieves doctors with filters
	List(ctx context.Context, filter DoctorFilter) ([]*entities.Doctor, error)
}

// DoctorFilter defines filters for listing doctors
type DoctorFilter struct {
	Name   string
	Limit  int
	Offset int
}
