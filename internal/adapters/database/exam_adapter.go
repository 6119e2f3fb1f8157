package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"

	"github.com/vitallink/clinic-records/backend/internal/domain/entities"
	"github.com/vitallink/clinic-records/backend/internal/domain/repositories"
	"github.com/vitallink/clinic-records/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/vitallink/clinic-records/backend/pkg/errors"
)

// uniqueViolation is the postgres error code for duplicate key violations
const uniqueViolation = "23505"

var examColumns = []interface{}{
	"id", "exam_number", "patient_id", "exam_date", "exam_time",
	"responsible_doctor_id", "requesting_doctor_id",
	"wxml_file_path", "wxml_processed", "status", "created_at", "updated_at",
}

// ExamAdapter implements ExamRepository
type ExamAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewExamAdapter creates a new exam adapter
func NewExamAdapter(client *postgres.Client) repositories.ExamRepository {
	return &ExamAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Insert attempts to create a new exam row. A duplicate exam-number
// violation is reported as ExamInsertConflict with a nil error so callers
// can branch into the update path without unwrapping driver errors.
func (a *ExamAdapter) Insert(ctx context.Context, exam *entities.Exam) (repositories.ExamInsertOutcome, error) {
	record := goqu.Record{
		"exam_number":           exam.ExamNumber,
		"patient_id":            exam.PatientID,
		"exam_date":             exam.ExamDate,
		"exam_time":             exam.ExamTime,
		"responsible_doctor_id": nullableID(exam.ResponsibleDoctorID),
		"requesting_doctor_id":  nullableID(exam.RequestingDoctorID),
		"wxml_file_path":        exam.SourcePath,
		"wxml_processed":        exam.Processed,
		"status":                exam.Status,
		"created_at":            exam.CreatedAt,
		"updated_at":            exam.UpdatedAt,
	}

	query, args, err := a.db.Insert("exams").Rows(record).Returning("id").ToSQL()
	if err != nil {
		return repositories.ExamInsertFailed, apperrors.NewInternalError("failed to build insert query", err)
	}

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&exam.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return repositories.ExamInsertConflict, nil
		}
		return repositories.ExamInsertFailed, apperrors.NewInternalError("failed to insert exam", err)
	}

	return repositories.ExamInsertCreated, nil
}

// UpdateByExamNumber refreshes the ingestion-owned fields on the row keyed
// by exam number and returns its row ID
func (a *ExamAdapter) UpdateByExamNumber(ctx context.Context, examNumber string, update repositories.ExamIngestUpdate) (int64, error) {
	record := goqu.Record{
		"responsible_doctor_id": nullableID(update.ResponsibleDoctorID),
		"requesting_doctor_id":  nullableID(update.RequestingDoctorID),
		"wxml_file_path":        update.SourcePath,
		"wxml_processed":        update.Processed,
		"updated_at":            time.Now(),
	}

	query, args, err := a.db.Update("exams").
		Set(record).
		Where(goqu.Ex{"exam_number": examNumber}).
		Returning("id").
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build update query", err)
	}

	var id int64
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, apperrors.NewNotFoundError(fmt.Sprintf("exam with number %s not found", examNumber))
	}
	if err != nil {
		return 0, apperrors.NewInternalError("failed to update exam", err)
	}

	return id, nil
}

// SourcePathExists reports whether any exam row records the given source
// file path
func (a *ExamAdapter) SourcePathExists(ctx context.Context, path string) (bool, error) {
	query, args, err := a.db.Select(goqu.COUNT("*")).
		From("exams").
		Where(goqu.Ex{"wxml_file_path": path}).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, apperrors.NewInternalError("failed to check source path", err)
	}

	return count > 0, nil
}

// GetByID retrieves an exam by row ID
func (a *ExamAdapter) GetByID(ctx context.Context, id int64) (*entities.Exam, error) {
	return a.getOne(ctx, goqu.Ex{"id": id}, fmt.Sprintf("exam with id %d not found", id))
}

// GetByNumber retrieves an exam by its exam number
func (a *ExamAdapter) GetByNumber(ctx context.Context, examNumber string) (*entities.Exam, error) {
	return a.getOne(ctx, goqu.Ex{"exam_number": examNumber}, fmt.Sprintf("exam with number %s not found", examNumber))
}

func (a *ExamAdapter) getOne(ctx context.Context, where goqu.Ex, notFound string) (*entities.Exam, error) {
	query, args, err := a.db.Select(examColumns...).
		From("exams").
		Where(where).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	exam := &entities.Exam{}
	var responsible, requesting sql.NullInt64

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&exam.ID,
		&exam.ExamNumber,
		&exam.PatientID,
		&exam.ExamDate,
		&exam.ExamTime,
		&responsible,
		&requesting,
		&exam.SourcePath,
		&exam.Processed,
		&exam.Status,
		&exam.CreatedAt,
		&exam.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(notFound)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get exam", err)
	}

	exam.ResponsibleDoctorID = idFromNullable(responsible)
	exam.RequestingDoctorID = idFromNullable(requesting)

	return exam, nil
}

// ListByDate retrieves exams whose exam date falls inside [from, to]
func (a *ExamAdapter) ListByDate(ctx context.Context, from, to string) ([]*entities.Exam, error) {
	query, args, err := a.db.Select(examColumns...).
		From("exams").
		Where(
			goqu.I("exam_date").Gte(from),
			goqu.I("exam_date").Lte(to),
		).
		Order(goqu.I("exam_date").Asc(), goqu.I("exam_time").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.queryExams(ctx, query, args)
}

// Update updates an exam
func (a *ExamAdapter) Update(ctx context.Context, exam *entities.Exam) error {
	exam.UpdatedAt = time.Now()

	record := goqu.Record{
		"patient_id":            exam.PatientID,
		"exam_date":             exam.ExamDate,
		"exam_time":             exam.ExamTime,
		"responsible_doctor_id": nullableID(exam.ResponsibleDoctorID),
		"requesting_doctor_id":  nullableID(exam.RequestingDoctorID),
		"status":                exam.Status,
		"updated_at":            exam.UpdatedAt,
	}

	query, args, err := a.db.Update("exams").
		Set(record).
		Where(goqu.Ex{"id": exam.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update exam", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("exam with id %d not found", exam.ID))
	}

	return nil
}

// List retrieves exams with filters
func (a *ExamAdapter) List(ctx context.Context, filter repositories.ExamFilter) ([]*entities.Exam, error) {
	ds := a.db.Select(examColumns...).From("exams")

	if filter.PatientID > 0 {
		ds = ds.Where(goqu.Ex{"patient_id": filter.PatientID})
	}

	if filter.Status != "" {
		ds = ds.Where(goqu.Ex{"status": filter.Status})
	}

	if filter.DateFrom != "" {
		ds = ds.Where(goqu.I("exam_date").Gte(filter.DateFrom))
	}

	if filter.DateTo != "" {
		ds = ds.Where(goqu.I("exam_date").Lte(filter.DateTo))
	}

	ds = ds.Order(goqu.I("exam_date").Desc(), goqu.I("exam_time").Desc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}

	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	return a.queryExams(ctx, query, args)
}

func (a *ExamAdapter) queryExams(ctx context.Context, query string, args []interface{}) ([]*entities.Exam, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list exams", err)
	}
	defer rows.Close()

	var exams []*entities.Exam
	for rows.Next() {
		exam := &entities.Exam{}
		var responsible, requesting sql.NullInt64

		err := rows.Scan(
			&exam.ID,
			&exam.ExamNumber,
			&exam.PatientID,
			&exam.ExamDate,
			&exam.ExamTime,
			&responsible,
			&requesting,
			&exam.SourcePath,
			&exam.Processed,
			&exam.Status,
			&exam.CreatedAt,
			&exam.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan exam", err)
		}

		exam.ResponsibleDoctorID = idFromNullable(responsible)
		exam.RequestingDoctorID = idFromNullable(requesting)

		exams = append(exams, exam)
	}

	if err = rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating exams", err)
	}

	return exams, nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}

func idFromNullable(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}
