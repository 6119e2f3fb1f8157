package repositories

import (
	"context"
	"time"

	"github.com/vitallink/clinic-records/backend/internal/domain/entities"
)

// ReportRepository defines the interface for PDF report artifacts
type ReportRepository interface {
	// Create registers a new report artifact
	Create(ctx context.Context, report *entities.Report) error

	// GetByID retrieves a report by ID
	GetByID(ctx context.Context, id string) (*entities.Report, error)

	// GetByFilePath retrieves a report by its artifact path
	GetByFilePath(ctx context.Context, path string) (*entities.Report, error)

	// ListUnlinked retrieves reports not yet associated to an exam,
	// oldest first
	ListUnlinked(ctx context.Context, limit int) ([]*entities.Report, error)

	// ListByExam retrieves the reports linked to an exam
	ListByExam(ctx context.Context, examID int64) ([]*entities.Report, error)

	// Link associates a report to an exam
	Link(ctx context.Context, reportID string, examID int64, linkedAt time.Time) error
}
