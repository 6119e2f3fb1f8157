package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/vitallink/clinic-records/backend/internal/domain/entities"
	"github.com/vitallink/clinic-records/backend/internal/domain/repositories"
	"github.com/vitallink/clinic-records/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/vitallink/clinic-records/backend/pkg/errors"
)

var reportColumns = []interface{}{
	"id", "exam_id", "file_path", "report_date", "linked_at", "created_at",
}

// ReportAdapter implements ReportRepository
type ReportAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewReportAdapter creates a new report adapter
func NewReportAdapter(client *postgres.Client) repositories.ReportRepository {
	return &ReportAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create registers a new report artifact
func (a *ReportAdapter) Create(ctx context.Context, report *entities.Report) error {
	record := goqu.Record{
		"id":          report.ID,
		"exam_id":     nullableID(report.ExamID),
		"file_path":   report.FilePath,
		"report_date": report.ReportDate,
		"linked_at":   nullableTime(report.LinkedAt),
		"created_at":  report.CreatedAt,
	}

	query, args, err := a.db.Insert("reports").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create report", err)
	}

	return nil
}

// GetByID retrieves a report by ID
func (a *ReportAdapter) GetByID(ctx context.Context, id string) (*entities.Report, error) {
	return a.getOne(ctx, goqu.Ex{"id": id}, fmt.Sprintf("report with id %s not found", id))
}

// GetByFilePath retrieves a report by its artifact path
func (a *ReportAdapter) GetByFilePath(ctx context.Context, path string) (*entities.Report, error) {
	return a.getOne(ctx, goqu.Ex{"file_path": path}, "report with given file path not found")
}

func (a *ReportAdapter) getOne(ctx context.Context, where goqu.Ex, notFound string) (*entities.Report, error) {
	query, args, err := a.db.Select(reportColumns...).
		From("reports").
		Where(where).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	report := &entities.Report{}
	var examID sql.NullInt64
	var linkedAt sql.NullTime

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&report.ID,
		&examID,
		&report.FilePath,
		&report.ReportDate,
		&linkedAt,
		&report.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(notFound)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get report", err)
	}

	report.ExamID = idFromNullable(examID)
	report.LinkedAt = timeFromNullable(linkedAt)

	return report, nil
}

// ListUnlinked retrieves reports not yet associated to an exam, oldest first
func (a *ReportAdapter) ListUnlinked(ctx context.Context, limit int) ([]*entities.Report, error) {
	ds := a.db.Select(reportColumns...).
		From("reports").
		Where(goqu.I("exam_id").IsNull()).
		Order(goqu.I("created_at").Asc())

	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.queryReports(ctx, query, args)
}

// ListByExam retrieves the reports linked to an exam
func (a *ReportAdapter) ListByExam(ctx context.Context, examID int64) ([]*entities.Report, error) {
	query, args, err := a.db.Select(reportColumns...).
		From("reports").
		Where(goqu.Ex{"exam_id": examID}).
		Order(goqu.I("created_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.queryReports(ctx, query, args)
}

// Link associates a report to an exam
func (a *ReportAdapter) Link(ctx context.Context, reportID string, examID int64, linkedAt time.Time) error {
	query, args, err := a.db.Update("reports").
		Set(goqu.Record{
			"exam_id":   examID,
			"linked_at": linkedAt,
		}).
		Where(goqu.Ex{"id": reportID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to link report", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("report with id %s not found", reportID))
	}

	return nil
}

func (a *ReportAdapter) queryReports(ctx context.Context, query string, args []interface{}) ([]*entities.Report, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list reports", err)
	}
	defer rows.Close()

	var reports []*entities.Report
	for rows.Next() {
		report := &entities.Report{}
		var examID sql.NullInt64
		var linkedAt sql.NullTime

		err := rows.Scan(
			&report.ID,
			&examID,
			&report.FilePath,
			&report.ReportDate,
			&linkedAt,
			&report.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan report", err)
		}

		report.ExamID = idFromNullable(examID)
		report.LinkedAt = timeFromNullable(linkedAt)

		reports = append(reports, report)
	}

	if err = rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating reports", err)
	}

	return reports, nil
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timeFromNullable(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
