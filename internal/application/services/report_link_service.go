package services

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vitallink/clinic-records/backend/internal/adapters/wxml"
	"github.com/vitallink/clinic-records/backend/internal/domain/entities"
	"github.com/vitallink/clinic-records/backend/internal/domain/providers"
	"github.com/vitallink/clinic-records/backend/internal/domain/repositories"
	"github.com/vitallink/clinic-records/backend/internal/infrastructure/observability"
	apperrors "github.com/vitallink/clinic-records/backend/pkg/errors"
	"github.com/vitallink/clinic-records/backend/pkg/utils"
)

// ReportLinkSummary aggregates one linker pass
type ReportLinkSummary struct {
	FilesFound int `json:"files_found"`
	Registered int `json:"registered"`
	Linked     int `json:"linked"`
	Pending    int `json:"pending"`
}

// ReportLinkService registers PDF report artifacts and associates them to
// exams. Reports arrive asynchronously and out of order relative to the WXML
// exports, so anything that cannot be linked yet stays pending and is
// retried on the next pass.
type ReportLinkService struct {
	scanner          *wxml.Scanner
	reportRepo       repositories.ReportRepository
	examRepo         repositories.ExamRepository
	eventBus         providers.EventBus
	examNumberMaxLen int
}

// NewReportLinkService creates a new report link service. eventBus may be
// nil.
func NewReportLinkService(
	scanner *wxml.Scanner,
	reportRepo repositories.ReportRepository,
	examRepo repositories.ExamRepository,
	eventBus providers.EventBus,
	examNumberMaxLen int,
) *ReportLinkService {
	return &ReportLinkService{
		scanner:          scanner,
		reportRepo:       reportRepo,
		examRepo:         examRepo,
		eventBus:         eventBus,
		examNumberMaxLen: examNumberMaxLen,
	}
}

// Run scans the report directory, registers unseen PDFs and tries to link
// every pending report.
func (s *ReportLinkService) Run(ctx context.Context) (*ReportLinkSummary, error) {
	summary := &ReportLinkSummary{}

	files, err := s.scanner.ListReportFiles()
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeConfig) {
			observability.GetLogger().Warn().Err(err).Msg("report directory unavailable")
			return summary, nil
		}
		return summary, err
	}
	summary.FilesFound = len(files)

	now := time.Now()
	for _, path := range files {
		registered, err := s.registerFile(ctx, path, now)
		if err != nil {
			observability.GetLogger().Error().Err(err).Str("file", path).Msg("failed to register report")
			continue
		}
		if registered {
			summary.Registered++
		}
	}

	pending, err := s.reportRepo.ListUnlinked(ctx, 0)
	if err != nil {
		return summary, err
	}

	for _, report := range pending {
		linked, err := s.linkReport(ctx, report, now)
		if err != nil {
			observability.GetLogger().Error().Err(err).Str("report_id", report.ID).Msg("failed to link report")
			summary.Pending++
			continue
		}
		if linked {
			summary.Linked++
		} else {
			summary.Pending++
		}
	}

	return summary, nil
}

// registerFile records an artifact the first time it is seen
func (s *ReportLinkService) registerFile(ctx context.Context, path string, now time.Time) (bool, error) {
	_, err := s.reportRepo.GetByFilePath(ctx, path)
	if err == nil {
		return false, nil
	}
	if !apperrors.IsNotFound(err) {
		return false, err
	}

	reportDate := now.Format("2006-01-02")
	if fileDate, ok := wxml.FilenameDate(filepath.Base(path)); ok {
		reportDate = fileDate.Format("2006-01-02")
	}

	report := &entities.Report{
		ID:         uuid.NewString(),
		FilePath:   path,
		ReportDate: reportDate,
		CreatedAt:  now,
	}

	return true, s.reportRepo.Create(ctx, report)
}

// linkReport associates one pending report to an exam: exact exam-number
// match first, then the nearest exam inside a one-day window around the
// report date. No match leaves the report pending.
func (s *ReportLinkService) linkReport(ctx context.Context, report *entities.Report, now time.Time) (bool, error) {
	examNumber := s.reportExamNumber(report.FilePath)

	exam, err := s.examRepo.GetByNumber(ctx, examNumber)
	if err != nil && !apperrors.IsNotFound(err) {
		return false, err
	}

	if exam == nil {
		exam, err = s.matchByDateWindow(ctx, report)
		if err != nil {
			return false, err
		}
	}

	if exam == nil {
		return false, nil
	}

	if err := s.reportRepo.Link(ctx, report.ID, exam.ID, now); err != nil {
		return false, err
	}

	s.publishLinked(ctx, exam)

	return true, nil
}

// matchByDateWindow finds the exam closest in time to the report timestamp
// inside a one-day window either side of the report date. Exams arrive
// ordered by date and time, so the first of equally distant candidates wins,
// keeping the match deterministic across passes.
func (s *ReportLinkService) matchByDateWindow(ctx context.Context, report *entities.Report) (*entities.Exam, error) {
	reportDate, err := time.ParseInLocation("2006-01-02", report.ReportDate, time.Local)
	if err != nil {
		return nil, nil
	}

	from := reportDate.AddDate(0, 0, -1).Format("2006-01-02")
	to := reportDate.AddDate(0, 0, 1).Format("2006-01-02")

	exams, err := s.examRepo.ListByDate(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if len(exams) == 0 {
		return nil, nil
	}

	reportTime, hasTime := wxml.ParseFilenameTimestamp(filepath.Base(report.FilePath))
	if !hasTime {
		reportTime = reportDate
	}

	var best *entities.Exam
	var bestDistance time.Duration
	for _, exam := range exams {
		examTime, err := time.ParseInLocation("2006-01-02 15:04", exam.ExamDate+" "+exam.ExamTime, time.Local)
		if err != nil {
			continue
		}
		distance := examTime.Sub(reportTime)
		if distance < 0 {
			distance = -distance
		}
		if best == nil || distance < bestDistance {
			best = exam
			bestDistance = distance
		}
	}

	return best, nil
}

func (s *ReportLinkService) publishLinked(ctx context.Context, exam *entities.Exam) {
	if s.eventBus == nil {
		return
	}
	event := entities.NewExamEvent(entities.ExamEventTypeLinked, exam.ID, exam.ExamNumber, exam.PatientID)
	if err := s.eventBus.Publish(ctx, providers.EventChannelExamUpdates, event); err != nil {
		observability.GetLogger().Warn().Err(err).Str("exam_number", exam.ExamNumber).Msg("failed to publish link event")
	}
}

// reportExamNumber derives the exam number a PDF would pair with, applying
// the same extension stripping and truncation as the WXML identity parser
func (s *ReportLinkService) reportExamNumber(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if strings.EqualFold(ext, ".pdf") {
		base = base[:len(base)-len(ext)]
	}
	return utils.TruncateWithMarker(base, s.examNumberMaxLen)
}
