package services

import (
	"context"

	"github.com/jmoiron/sqlx"

	apperrors "github.com/vitallink/clinic-records/backend/pkg/errors"
)

// StatusCount is one row of the per-status exam breakdown
type StatusCount struct {
	Status string `db:"status" json:"status"`
	Count  int    `db:"count" json:"count"`
}

// DayCount is one row of the per-day exam breakdown
type DayCount struct {
	Day   string `db:"day" json:"day"`
	Count int    `db:"count" json:"count"`
}

// StatsOverview is the read model behind the stats endpoint
type StatsOverview struct {
	Patients        int           `json:"patients"`
	Doctors         int           `json:"doctors"`
	Exams           int           `json:"exams"`
	ReportsLinked   int           `json:"reports_linked"`
	ReportsUnlinked int           `json:"reports_unlinked"`
	ExamsByStatus   []StatusCount `json:"exams_by_status"`
	ExamsByDay      []DayCount    `json:"exams_by_day"`
}

// StatsService produces read-only aggregates over the clinic tables
type StatsService struct {
	db *sqlx.DB
}

// NewStatsService creates a new stats service
func NewStatsService(db *sqlx.DB) *StatsService {
	return &StatsService{db: db}
}

// Overview returns entity totals plus exam breakdowns by status and by day
// (most recent days first, capped at dayLimit)
func (s *StatsService) Overview(ctx context.Context, dayLimit int) (*StatsOverview, error) {
	if dayLimit <= 0 {
		dayLimit = 30
	}

	overview := &StatsOverview{}

	counts := []struct {
		dest  *int
		query string
	}{
		{&overview.Patients, "SELECT COUNT(*) FROM patients"},
		{&overview.Doctors, "SELECT COUNT(*) FROM doctors"},
		{&overview.Exams, "SELECT COUNT(*) FROM exams"},
		{&overview.ReportsLinked, "SELECT COUNT(*) FROM reports WHERE exam_id IS NOT NULL"},
		{&overview.ReportsUnlinked, "SELECT COUNT(*) FROM reports WHERE exam_id IS NULL"},
	}
	for _, c := range counts {
		if err := s.db.GetContext(ctx, c.dest, c.query); err != nil {
			return nil, apperrors.NewInternalError("failed to load stats counts", err)
		}
	}

	err := s.db.SelectContext(ctx, &overview.ExamsByStatus,
		"SELECT status, COUNT(*) AS count FROM exams GROUP BY status ORDER BY count DESC, status")
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load exams by status", err)
	}

	err = s.db.SelectContext(ctx, &overview.ExamsByDay,
		"SELECT exam_date AS day, COUNT(*) AS count FROM exams GROUP BY exam_date ORDER BY exam_date DESC LIMIT $1",
		dayLimit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load exams by day", err)
	}

	return overview, nil
}
