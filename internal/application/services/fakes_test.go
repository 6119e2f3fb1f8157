package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/vitallink/clinic-records/backend/internal/domain/entities"
	"github.com/vitallink/clinic-records/backend/internal/domain/repositories"
	apperrors "github.com/vitallink/clinic-records/backend/pkg/errors"
)

// In-memory repository fakes shared by the service tests.

type fakePatientRepo struct {
	mu       sync.Mutex
	nextID   int64
	patients []*entities.Patient
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{nextID: 1}
}

func (f *fakePatientRepo) Create(ctx context.Context, patient *entities.Patient) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	patient.ID = f.nextID
	f.nextID++
	stored := *patient
	f.patients = append(f.patients, &stored)
	return nil
}

func (f *fakePatientRepo) GetByID(ctx context.Context, id int64) (*entities.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.patients {
		if p.ID == id {
			clone := *p
			return &clone, nil
		}
	}
	return nil, apperrors.NewNotFoundError("patient not found")
}

func (f *fakePatientRepo) GetByCPF(ctx context.Context, cpf string) (*entities.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.patients {
		if p.CPF != "" && p.CPF == cpf {
			clone := *p
			return &clone, nil
		}
	}
	return nil, apperrors.NewNotFoundError("patient not found")
}

func (f *fakePatientRepo) FindFirstByName(ctx context.Context, name string) (*entities.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *entities.Patient
	for _, p := range f.patients {
		if strings.Contains(p.FullName, name) {
			if best == nil || p.ID < best.ID {
				best = p
			}
		}
	}
	if best == nil {
		return nil, apperrors.NewNotFoundError("patient not found")
	}
	clone := *best
	return &clone, nil
}

func (f *fakePatientRepo) Update(ctx context.Context, patient *entities.Patient) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, p := range f.patients {
		if p.ID == patient.ID {
			stored := *patient
			f.patients[i] = &stored
			return nil
		}
	}
	return apperrors.NewNotFoundError("patient not found")
}

func (f *fakePatientRepo) List(ctx context.Context, filter repositories.PatientFilter) ([]*entities.Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*entities.Patient, 0, len(f.patients))
	for _, p := range f.patients {
		clone := *p
		out = append(out, &clone)
	}
	return out, nil
}

type fakeDoctorRepo struct {
	mu      sync.Mutex
	nextID  int64
	doctors []*entities.Doctor
}

func newFakeDoctorRepo() *fakeDoctorRepo {
	return &fakeDoctorRepo{nextID: 1}
}

func (f *fakeDoctorRepo) Create(ctx context.Context, doctor *entities.Doctor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doctor.ID = f.nextID
	f.nextID++
	stored := *doctor
	f.doctors = append(f.doctors, &stored)
	return nil
}

func (f *fakeDoctorRepo) GetByID(ctx context.Context, id int64) (*entities.Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.doctors {
		if d.ID == id {
			clone := *d
			return &clone, nil
		}
	}
	return nil, apperrors.NewNotFoundError("doctor not found")
}

func (f *fakeDoctorRepo) GetByCRM(ctx context.Context, crm string) (*entities.Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.doctors {
		if d.CRM == crm {
			clone := *d
			return &clone, nil
		}
	}
	return nil, apperrors.NewNotFoundError("doctor not found")
}

func (f *fakeDoctorRepo) Update(ctx context.Context, doctor *entities.Doctor) error {
	return nil
}

func (f *fakeDoctorRepo) List(ctx context.Context, filter repositories.DoctorFilter) ([]*entities.Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*entities.Doctor, 0, len(f.doctors))
	for _, d := range f.doctors {
		clone := *d
		out = append(out, &clone)
	}
	return out, nil
}

type fakeExamRepo struct {
	mu     sync.Mutex
	nextID int64
	exams  map[string]*entities.Exam

	insertErr      error
	vanishOnUpdate bool
}

func newFakeExamRepo() *fakeExamRepo {
	return &fakeExamRepo{nextID: 1, exams: make(map[string]*entities.Exam)}
}

func (f *fakeExamRepo) Insert(ctx context.Context, exam *entities.Exam) (repositories.ExamInsertOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return repositories.ExamInsertFailed, f.insertErr
	}
	if _, exists := f.exams[exam.ExamNumber]; exists {
		return repositories.ExamInsertConflict, nil
	}
	exam.ID = f.nextID
	f.nextID++
	stored := *exam
	f.exams[exam.ExamNumber] = &stored
	return repositories.ExamInsertCreated, nil
}

func (f *fakeExamRepo) UpdateByExamNumber(ctx context.Context, examNumber string, update repositories.ExamIngestUpdate) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	exam, exists := f.exams[examNumber]
	if !exists || f.vanishOnUpdate {
		return 0, apperrors.NewNotFoundError("exam not found")
	}
	exam.ResponsibleDoctorID = update.ResponsibleDoctorID
	exam.RequestingDoctorID = update.RequestingDoctorID
	exam.SourcePath = update.SourcePath
	exam.Processed = update.Processed
	exam.UpdatedAt = time.Now()
	return exam.ID, nil
}

func (f *fakeExamRepo) SourcePathExists(ctx context.Context, path string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, exam := range f.exams {
		if exam.SourcePath == path {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeExamRepo) GetByID(ctx context.Context, id int64) (*entities.Exam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, exam := range f.exams {
		if exam.ID == id {
			clone := *exam
			return &clone, nil
		}
	}
	return nil, apperrors.NewNotFoundError("exam not found")
}

func (f *fakeExamRepo) GetByNumber(ctx context.Context, examNumber string) (*entities.Exam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if exam, ok := f.exams[examNumber]; ok {
		clone := *exam
		return &clone, nil
	}
	return nil, apperrors.NewNotFoundError("exam not found")
}

func (f *fakeExamRepo) ListByDate(ctx context.Context, from, to string) ([]*entities.Exam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.Exam
	for _, exam := range f.exams {
		if exam.ExamDate >= from && exam.ExamDate <= to {
			clone := *exam
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeExamRepo) Update(ctx context.Context, exam *entities.Exam) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for number, stored := range f.exams {
		if stored.ID == exam.ID {
			clone := *exam
			f.exams[number] = &clone
			return nil
		}
	}
	return apperrors.NewNotFoundError("exam not found")
}

func (f *fakeExamRepo) List(ctx context.Context, filter repositories.ExamFilter) ([]*entities.Exam, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.Exam
	for _, exam := range f.exams {
		clone := *exam
		out = append(out, &clone)
	}
	return out, nil
}

type fakeReportRepo struct {
	mu      sync.Mutex
	reports map[string]*entities.Report
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{reports: make(map[string]*entities.Report)}
}

func (f *fakeReportRepo) Create(ctx context.Context, report *entities.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *report
	f.reports[report.ID] = &stored
	return nil
}

func (f *fakeReportRepo) GetByID(ctx context.Context, id string) (*entities.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if report, ok := f.reports[id]; ok {
		clone := *report
		return &clone, nil
	}
	return nil, apperrors.NewNotFoundError("report not found")
}

func (f *fakeReportRepo) GetByFilePath(ctx context.Context, path string) (*entities.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, report := range f.reports {
		if report.FilePath == path {
			clone := *report
			return &clone, nil
		}
	}
	return nil, apperrors.NewNotFoundError("report not found")
}

func (f *fakeReportRepo) ListUnlinked(ctx context.Context, limit int) ([]*entities.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.Report
	for _, report := range f.reports {
		if report.ExamID == nil {
			clone := *report
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeReportRepo) ListByExam(ctx context.Context, examID int64) ([]*entities.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.Report
	for _, report := range f.reports {
		if report.ExamID != nil && *report.ExamID == examID {
			clone := *report
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeReportRepo) Link(ctx context.Context, reportID string, examID int64, linkedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	report, ok := f.reports[reportID]
	if !ok {
		return apperrors.NewNotFoundError("report not found")
	}
	report.ExamID = &examID
	report.LinkedAt = &linkedAt
	return nil
}

type fakeEventBus struct {
	mu        sync.Mutex
	published []*entities.ExamEvent
}

func newFakeEventBus() *fakeEventBus {
	return &fakeEventBus{}
}

func (f *fakeEventBus) Publish(ctx context.Context, channel string, event *entities.ExamEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, event)
	return nil
}

func (f *fakeEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ExamEvent, error) {
	ch := make(chan *entities.ExamEvent)
	close(ch)
	return ch, nil
}

func (f *fakeEventBus) Unsubscribe(ctx context.Context, channel string) error { return nil }

func (f *fakeEventBus) Close() error { return nil }

func (f *fakeEventBus) events() []*entities.ExamEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*entities.ExamEvent, len(f.published))
	copy(out, f.published)
	return out
}
