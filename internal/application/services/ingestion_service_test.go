package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitallink/clinic-records/backend/internal/adapters/wxml"
	"github.com/vitallink/clinic-records/backend/internal/domain/entities"
)

const sampleExport = `<?xml version="1.0" encoding="UTF-8"?>
<Exam>
  <Patient>
    <Name>Maria da Silva</Name>
    <BirthDate>25/12/1980</BirthDate>
    <Gender>F</Gender>
    <NationalID>123.456.789-00</NationalID>
  </Patient>
  <Doctors>
    <Responsible><Name>Dr. Souza</Name><License>12345</License></Responsible>
    <Requesting><Name>Dra. Lima</Name><License>54321</License></Requesting>
  </Doctors>
</Exam>`

type ingestionFixture struct {
	service  *IngestionService
	patients *fakePatientRepo
	doctors  *fakeDoctorRepo
	exams    *fakeExamRepo
	bus      *fakeEventBus
	dir      string
}

func newIngestionFixture(t *testing.T) *ingestionFixture {
	t.Helper()
	dir := t.TempDir()
	patients := newFakePatientRepo()
	doctors := newFakeDoctorRepo()
	exams := newFakeExamRepo()
	bus := newFakeEventBus()

	service := NewIngestionService(
		wxml.NewScanner(dir),
		NewEntityResolver(patients, doctors),
		NewExamUpserter(exams),
		exams,
		bus,
		nil,
		50,
	)

	return &ingestionFixture{service: service, patients: patients, doctors: doctors, exams: exams, bus: bus, dir: dir}
}

func (fx *ingestionFixture) writeFile(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(fx.dir, name), []byte(content), 0o644))
}

func TestIngestionService_Run(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local)

	t.Run("ingests a new export end to end", func(t *testing.T) {
		fx := newIngestionFixture(t)
		fx.writeFile(t, "PAT01##150320240930#EXAM.WXML", sampleExport)

		summary, err := fx.service.Run(context.Background(), date)

		require.NoError(t, err)
		assert.Equal(t, 1, summary.FilesFound)
		assert.Equal(t, 1, summary.Processed)
		assert.Equal(t, 1, summary.PatientsCreated)
		assert.Equal(t, 2, summary.DoctorsCreated)
		assert.Equal(t, 1, summary.ExamsCreated)
		assert.Zero(t, summary.Failed)

		exam, err := fx.exams.GetByNumber(context.Background(), "PAT01##150320240930#EXAM")
		require.NoError(t, err)
		assert.Equal(t, "2024-03-15", exam.ExamDate)
		assert.Equal(t, "09:30", exam.ExamTime)
		assert.True(t, exam.Processed)
		assert.Equal(t, entities.StatusPerformed, exam.Status)
		assert.NotNil(t, exam.ResponsibleDoctorID)
		assert.NotNil(t, exam.RequestingDoctorID)

		events := fx.bus.events()
		require.Len(t, events, 1)
		assert.Equal(t, entities.ExamEventTypeCreated, events[0].EventType)
	})

	t.Run("second run skips via the ledger", func(t *testing.T) {
		fx := newIngestionFixture(t)
		fx.writeFile(t, "PAT01##150320240930#EXAM.WXML", sampleExport)

		_, err := fx.service.Run(context.Background(), date)
		require.NoError(t, err)

		summary, err := fx.service.Run(context.Background(), date)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Skipped)
		assert.Zero(t, summary.Processed)
		assert.Zero(t, summary.ExamsCreated)
	})

	t.Run("one bad file does not abort the run", func(t *testing.T) {
		fx := newIngestionFixture(t)
		fx.writeFile(t, "PAT01##150320240930#EXAM.WXML", sampleExport)
		fx.writeFile(t, "PAT02##150320241100#EXAM.WXML", "<Exam><Patient>")

		summary, err := fx.service.Run(context.Background(), date)

		require.NoError(t, err)
		assert.Equal(t, 2, summary.FilesFound)
		assert.Equal(t, 1, summary.Processed)
		assert.Equal(t, 1, summary.Failed)
		require.Len(t, summary.Failures, 1)
		assert.Contains(t, summary.Failures[0].Path, "PAT02")
	})

	t.Run("missing patient name fails the file only", func(t *testing.T) {
		fx := newIngestionFixture(t)
		fx.writeFile(t, "PAT03##150320241200#EXAM.WXML", "<Exam><Patient><Gender>F</Gender></Patient></Exam>")

		summary, err := fx.service.Run(context.Background(), date)

		require.NoError(t, err)
		assert.Equal(t, 1, summary.Failed)
		assert.Zero(t, summary.Processed)
	})

	t.Run("missing directory yields an empty run", func(t *testing.T) {
		fx := newIngestionFixture(t)
		service := NewIngestionService(
			wxml.NewScanner(filepath.Join(fx.dir, "absent")),
			NewEntityResolver(fx.patients, fx.doctors),
			NewExamUpserter(fx.exams),
			fx.exams,
			nil,
			nil,
			50,
		)

		summary, err := service.Run(context.Background(), date)

		require.NoError(t, err)
		assert.Zero(t, summary.FilesFound)
		assert.Zero(t, summary.Failed)
	})

	t.Run("reingesting after a manual ledger reset updates the exam", func(t *testing.T) {
		fx := newIngestionFixture(t)
		fx.writeFile(t, "PAT01##150320240930#EXAM.WXML", sampleExport)

		_, err := fx.service.Run(context.Background(), date)
		require.NoError(t, err)

		// Clear the recorded source path so the ledger misses and the
		// upserter has to reconcile on the unique constraint.
		exam, err := fx.exams.GetByNumber(context.Background(), "PAT01##150320240930#EXAM")
		require.NoError(t, err)
		exam.SourcePath = ""
		require.NoError(t, fx.exams.Update(context.Background(), exam))

		summary, err := fx.service.Run(context.Background(), date)

		require.NoError(t, err)
		assert.Equal(t, 1, summary.Processed)
		assert.Equal(t, 1, summary.ExamsUpdated)
		assert.Zero(t, summary.ExamsCreated)

		events := fx.bus.events()
		require.Len(t, events, 2)
		assert.Equal(t, entities.ExamEventTypeUpdated, events[1].EventType)
	})
}
