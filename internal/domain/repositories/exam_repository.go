package repositories

import (
	"context"

	"github.com/vitallink/clinic-records/backend/internal/domain/entities"
)

// ExamInsertOutcome is the tagged result of an exam insert attempt. The
// duplicate-key condition is surfaced as a value, not an error, so the
// upserter can branch on it explicitly.
type ExamInsertOutcome string

const (
	// ExamInsertCreated means a new row was inserted
	ExamInsertCreated ExamInsertOutcome = "created"

	// ExamInsertConflict means the insert hit the exam-number unique
	// constraint; the row already exists
	ExamInsertConflict ExamInsertOutcome = "conflict"

	// ExamInsertFailed means the insert failed for any other reason
	ExamInsertFailed ExamInsertOutcome = "failed"
)

// ExamIngestUpdate carries the fields the ingestion pipeline refreshes on an
// existing exam row after an insert conflict
type ExamIngestUpdate struct {
	ResponsibleDoctorID *int64
	RequestingDoctorID  *int64
	SourcePath          string
	Processed           bool
}

// ExamRepository defines the interface for exam data operations
type ExamRepository interface {
	// Insert attempts to create a new exam row. On success the generated
	// row ID is set on the exam and the outcome is ExamInsertCreated. A
	// duplicate exam-number violation yields ExamInsertConflict with a nil
	// error; any other database failure yields ExamInsertFailed with the
	// underlying error.
	Insert(ctx context.Context, exam *entities.Exam) (ExamInsertOutcome, error)

	// UpdateByExamNumber refreshes doctor references, source path and
	// processed flag on the row keyed by exam number, returning its row
	// ID. Returns a not found error when the row vanished (conflict race).
	UpdateByExamNumber(ctx context.Context, examNumber string, update ExamIngestUpdate) (int64, error)

	// SourcePathExists reports whether any exam row already records the
	// given source file path. This is the ingestion ledger check.
	SourcePathExists(ctx context.Context, path string) (bool, error)

	// GetByID retrieves an exam by row ID
	GetByID(ctx context.Context, id int64) (*entities.Exam, error)

	// GetByNumber retrieves an exam by its exam number
	GetByNumber(ctx context.Context, examNumber string) (*entities.Exam, error)

	// ListByDate retrieves exams whose exam date falls inside [from, to]
	// (ISO dates, inclusive), ordered by exam date and time
	ListByDate(ctx context.Context, from, to string) ([]*entities.Exam, error)

	// Update updates an exam (administrative edits)
	Update(ctx context.Context, exam *entities.Exam) error

	// List retrieves exams with filters
	List(ctx context.Context, filter ExamFilter) ([]*entities.Exam, error)
}

// ExamFilter defines filters for listing exams
type ExamFilter struct {
	PatientID int64
	Status    string
	DateFrom  string
	DateTo    string
	Limit     int
	Offset    int
}
