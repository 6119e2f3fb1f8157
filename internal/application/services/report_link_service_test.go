package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitallink/clinic-records/backend/internal/adapters/wxml"
	"github.com/vitallink/clinic-records/backend/internal/domain/entities"
)

type linkFixture struct {
	service *ReportLinkService
	reports *fakeReportRepo
	exams   *fakeExamRepo
	bus     *fakeEventBus
	dir     string
}

func newLinkFixture(t *testing.T) *linkFixture {
	t.Helper()
	dir := t.TempDir()
	reports := newFakeReportRepo()
	exams := newFakeExamRepo()
	bus := newFakeEventBus()
	service := NewReportLinkService(wxml.NewScanner(dir), reports, exams, bus, 50)
	return &linkFixture{service: service, reports: reports, exams: exams, bus: bus, dir: dir}
}

func (fx *linkFixture) writePDF(t *testing.T, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(fx.dir, name), []byte("%PDF-1.4"), 0o644))
}

func (fx *linkFixture) storeExam(t *testing.T, exam *entities.Exam) *entities.Exam {
	t.Helper()
	upserter := NewExamUpserter(fx.exams)
	_, err := upserter.Upsert(context.Background(), exam)
	require.NoError(t, err)
	return exam
}

func TestReportLinkService_Run(t *testing.T) {
	t.Run("links by exact exam number", func(t *testing.T) {
		fx := newLinkFixture(t)
		exam := fx.storeExam(t, testExam("PAT01##150320240930#EXAM"))
		fx.writePDF(t, "PAT01##150320240930#EXAM.pdf")

		summary, err := fx.service.Run(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, summary.Registered)
		assert.Equal(t, 1, summary.Linked)
		assert.Zero(t, summary.Pending)

		linked, err := fx.reports.ListByExam(context.Background(), exam.ID)
		require.NoError(t, err)
		require.Len(t, linked, 1)
		assert.True(t, linked[0].Linked())

		events := fx.bus.events()
		require.Len(t, events, 1)
		assert.Equal(t, entities.ExamEventTypeLinked, events[0].EventType)
	})

	t.Run("falls back to nearest exam inside the date window", func(t *testing.T) {
		fx := newLinkFixture(t)

		near := testExam("OTHER-NUMBER-A")
		near.ExamDate = "2024-03-15"
		near.ExamTime = "09:00"
		fx.storeExam(t, near)

		far := testExam("OTHER-NUMBER-B")
		far.ExamDate = "2024-03-16"
		far.ExamTime = "18:00"
		fx.storeExam(t, far)

		fx.writePDF(t, "LAUDO##150320240930#.pdf")

		summary, err := fx.service.Run(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, summary.Linked)

		linked, err := fx.reports.ListByExam(context.Background(), near.ID)
		require.NoError(t, err)
		assert.Len(t, linked, 1)
	})

	t.Run("unmatched report stays pending and is retried", func(t *testing.T) {
		fx := newLinkFixture(t)
		fx.writePDF(t, "LAUDO##150320240930#.pdf")

		summary, err := fx.service.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Registered)
		assert.Zero(t, summary.Linked)
		assert.Equal(t, 1, summary.Pending)

		// The exam shows up later; the next pass links the report.
		exam := testExam("ANY##150320240930#")
		exam.ExamDate = "2024-03-15"
		exam.ExamTime = "09:30"
		fx.storeExam(t, exam)

		summary, err = fx.service.Run(context.Background())
		require.NoError(t, err)
		assert.Zero(t, summary.Registered)
		assert.Equal(t, 1, summary.Linked)
		assert.Zero(t, summary.Pending)
	})

	t.Run("missing report directory is not fatal", func(t *testing.T) {
		fx := newLinkFixture(t)
		service := NewReportLinkService(
			wxml.NewScanner(filepath.Join(fx.dir, "absent")),
			fx.reports, fx.exams, nil, 50,
		)

		summary, err := service.Run(context.Background())

		require.NoError(t, err)
		assert.Zero(t, summary.FilesFound)
	})
}
