package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/vitallink/clinic-records/backend/internal/adapters/wxml"
	"github.com/vitallink/clinic-records/backend/internal/domain/entities"
	"github.com/vitallink/clinic-records/backend/internal/domain/providers"
	"github.com/vitallink/clinic-records/backend/internal/domain/repositories"
	"github.com/vitallink/clinic-records/backend/internal/infrastructure/observability"
	apperrors "github.com/vitallink/clinic-records/backend/pkg/errors"
)

// FileFailure records why one file could not be ingested
type FileFailure struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// IngestionSummary aggregates the outcome of one ingestion run
type IngestionSummary struct {
	RunID           string        `json:"run_id"`
	Date            string        `json:"date"`
	FilesFound      int           `json:"files_found"`
	Processed       int           `json:"processed"`
	Skipped         int           `json:"skipped"`
	Failed          int           `json:"failed"`
	PatientsCreated int           `json:"patients_created"`
	DoctorsCreated  int           `json:"doctors_created"`
	ExamsCreated    int           `json:"exams_created"`
	ExamsUpdated    int           `json:"exams_updated"`
	Failures        []FileFailure `json:"failures,omitempty"`
}

// IngestionService runs the WXML reconciliation pipeline for one target
// date: scan, ledger check, parse, resolve entities, upsert. Files are
// processed sequentially and a single file's failure never aborts the run.
type IngestionService struct {
	scanner          *wxml.Scanner
	resolver         *EntityResolver
	upserter         *ExamUpserter
	examRepo         repositories.ExamRepository
	eventBus         providers.EventBus
	metrics          *observability.Metrics
	examNumberMaxLen int
}

// NewIngestionService creates a new ingestion service. eventBus and metrics
// may be nil; the pipeline runs without them.
func NewIngestionService(
	scanner *wxml.Scanner,
	resolver *EntityResolver,
	upserter *ExamUpserter,
	examRepo repositories.ExamRepository,
	eventBus providers.EventBus,
	metrics *observability.Metrics,
	examNumberMaxLen int,
) *IngestionService {
	return &IngestionService{
		scanner:          scanner,
		resolver:         resolver,
		upserter:         upserter,
		examRepo:         examRepo,
		eventBus:         eventBus,
		metrics:          metrics,
		examNumberMaxLen: examNumberMaxLen,
	}
}

// Run ingests every vendor export for the given date
func (s *IngestionService) Run(ctx context.Context, date time.Time) (*IngestionSummary, error) {
	ctx, span := observability.StartSpan(ctx, "ingestion.run")
	defer span.End()

	summary := &IngestionSummary{
		RunID: uuid.NewString(),
		Date:  date.Format("2006-01-02"),
	}
	logger := observability.GetLogger().With().
		Str("run_id", summary.RunID).
		Str("date", summary.Date).
		Logger()

	files, err := s.scanner.FindForDate(date)
	if err != nil {
		// A missing source directory yields zero files and a config
		// warning; the run itself is fine.
		if apperrors.IsType(err, apperrors.ErrorTypeConfig) {
			logger.Warn().Err(err).Msg("source directory unavailable, nothing to ingest")
			return summary, nil
		}
		return summary, err
	}

	summary.FilesFound = len(files)
	logger.Info().Int("files", len(files)).Msg("ingestion run started")

	for _, path := range files {
		if err := s.ingestFile(ctx, path, summary); err != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, FileFailure{Path: path, Reason: err.Error()})
			observability.RecordFileIngested(ctx, s.metrics, "failed")
			logger.Error().Err(err).Str("file", path).Msg("file ingestion failed")
		}
	}

	logger.Info().
		Int("processed", summary.Processed).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Int("exams_created", summary.ExamsCreated).
		Int("exams_updated", summary.ExamsUpdated).
		Msg("ingestion run finished")

	return summary, nil
}

// ingestFile runs the pipeline for one file. Skips count on the summary
// directly; a returned error counts as a failure at the caller.
func (s *IngestionService) ingestFile(ctx context.Context, path string, summary *IngestionSummary) error {
	logger := observability.GetLogger()

	// Ledger check. Purely an optimization; the exam-number unique
	// constraint is the idempotency guarantee.
	seen, err := s.examRepo.SourcePathExists(ctx, path)
	if err != nil {
		return err
	}
	if seen {
		summary.Skipped++
		observability.RecordFileIngested(ctx, s.metrics, "skipped")
		logger.Debug().Str("file", path).Msg("already processed, skipping")
		return nil
	}

	now := time.Now()
	identity := wxml.ParseFilename(path, s.examNumberMaxLen, now)

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read source file: %w", err)
	}

	record, err := wxml.ParseDocument(content, now)
	if err != nil {
		return err
	}

	patient, patientCreated, err := s.resolver.FindOrCreatePatient(ctx, record, now)
	if err != nil {
		return err
	}
	if patientCreated {
		summary.PatientsCreated++
	}

	responsibleID, created, err := s.resolver.FindOrCreateDoctor(ctx, record.Responsible, now)
	if err != nil {
		return err
	}
	if created {
		summary.DoctorsCreated++
	}

	requestingID, created, err := s.resolver.FindOrCreateDoctor(ctx, record.Requesting, now)
	if err != nil {
		return err
	}
	if created {
		summary.DoctorsCreated++
	}

	exam := &entities.Exam{
		ExamNumber:          identity.ExamNumber,
		PatientID:           patient.ID,
		ExamDate:            identity.Timestamp.Format("2006-01-02"),
		ExamTime:            identity.Timestamp.Format("15:04"),
		ResponsibleDoctorID: responsibleID,
		RequestingDoctorID:  requestingID,
		SourcePath:          path,
		Processed:           true,
		Status:              entities.StatusPerformed,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	result, err := s.upserter.Upsert(ctx, exam)
	if err != nil {
		return err
	}

	summary.Processed++
	observability.RecordFileIngested(ctx, s.metrics, "processed")

	eventType := entities.ExamEventTypeCreated
	switch result.Kind {
	case UpsertCreated:
		summary.ExamsCreated++
		observability.RecordExamUpserted(ctx, s.metrics, "created")
	case UpsertUpdated:
		summary.ExamsUpdated++
		eventType = entities.ExamEventTypeUpdated
		observability.RecordExamUpserted(ctx, s.metrics, "updated")
	}

	s.publishEvent(ctx, eventType, result.ExamID, exam.ExamNumber, patient.ID)

	return nil
}

// publishEvent notifies cache invalidation listeners; failures are logged
// and never fail the file
func (s *IngestionService) publishEvent(ctx context.Context, eventType entities.ExamEventType, examID int64, examNumber string, patientID int64) {
	if s.eventBus == nil {
		return
	}

	event := entities.NewExamEvent(eventType, examID, examNumber, patientID)
	if err := s.eventBus.Publish(ctx, providers.EventChannelExamUpdates, event); err != nil {
		observability.GetLogger().Warn().Err(err).
			Str("exam_number", examNumber).
			Msg("failed to publish exam event")
	}
}
