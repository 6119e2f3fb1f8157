package services

import (
	"context"
	"fmt"

	"github.com/vitallink/clinic-records/backend/internal/domain/entities"
	"github.com/vitallink/clinic-records/backend/internal/domain/repositories"
	apperrors "github.com/vitallink/clinic-records/backend/pkg/errors"
)

// UpsertKind tells how an exam upsert terminated
type UpsertKind string

const (
	// UpsertCreated means a new exam row was inserted
	UpsertCreated UpsertKind = "created"

	// UpsertUpdated means an existing row was refreshed after an insert
	// conflict on the exam number
	UpsertUpdated UpsertKind = "updated"
)

// UpsertResult is the terminal state of one upsert attempt
type UpsertResult struct {
	Kind   UpsertKind
	ExamID int64
}

// ExamUpserter writes exams idempotently. The sequence is insert first, and
// on a duplicate exam-number conflict update the existing row keyed by exam
// number. No prior existence check is made; the unique constraint is the
// cross-run synchronization point, so overlapping ingestion runs converge on
// one row per exam number.
type ExamUpserter struct {
	examRepo repositories.ExamRepository
}

// NewExamUpserter creates a new exam upserter
func NewExamUpserter(examRepo repositories.ExamRepository) *ExamUpserter {
	return &ExamUpserter{examRepo: examRepo}
}

// Upsert inserts the exam or, on an exam-number conflict, refreshes the
// existing row's doctor references, source path and processed flag. A row
// that vanishes between the conflict and the update is a conflict-race
// failure for this run; the next scheduled run retries the file.
func (u *ExamUpserter) Upsert(ctx context.Context, exam *entities.Exam) (*UpsertResult, error) {
	outcome, err := u.examRepo.Insert(ctx, exam)
	if err != nil {
		return nil, err
	}

	switch outcome {
	case repositories.ExamInsertCreated:
		return &UpsertResult{Kind: UpsertCreated, ExamID: exam.ID}, nil

	case repositories.ExamInsertConflict:
		id, err := u.examRepo.UpdateByExamNumber(ctx, exam.ExamNumber, repositories.ExamIngestUpdate{
			ResponsibleDoctorID: exam.ResponsibleDoctorID,
			RequestingDoctorID:  exam.RequestingDoctorID,
			SourcePath:          exam.SourcePath,
			Processed:           exam.Processed,
		})
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewConflictError(
				fmt.Sprintf("exam %s vanished between insert conflict and update", exam.ExamNumber))
		}
		if err != nil {
			return nil, err
		}
		exam.ID = id
		return &UpsertResult{Kind: UpsertUpdated, ExamID: id}, nil

	default:
		return nil, apperrors.NewInternalError(
			fmt.Sprintf("unexpected insert outcome %q for exam %s", outcome, exam.ExamNumber), nil)
	}
}
