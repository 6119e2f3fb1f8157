//go:build integration

package integration

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/vitallink/clinic-records/backend/internal/adapters/database"
	"github.com/vitallink/clinic-records/backend/internal/domain/entities"
	"github.com/vitallink/clinic-records/backend/internal/domain/repositories"
	"github.com/vitallink/clinic-records/backend/internal/infrastructure/clients/postgres"
)

type ExamAdapterIntegrationTestSuite struct {
	suite.Suite
	client      *postgres.Client
	db          *sql.DB
	patientRepo repositories.PatientRepository
	examRepo    repositories.ExamRepository
	patientID   int64
}

func (suite *ExamAdapterIntegrationTestSuite) SetupSuite() {
	suite.client = newTestPostgresClient(suite.T())
	suite.db = suite.client.DB()
	suite.patientRepo = database.NewPatientAdapter(suite.client)
	suite.examRepo = database.NewExamAdapter(suite.client)

	suite.runSchema()
}

func (suite *ExamAdapterIntegrationTestSuite) TearDownSuite() {
	if suite.client != nil {
		suite.client.Close()
	}
}

func (suite *ExamAdapterIntegrationTestSuite) SetupTest() {
	_, err := suite.db.Exec(`TRUNCATE TABLE reports, exams, doctors, patients RESTART IDENTITY CASCADE`)
	require.NoError(suite.T(), err)

	patient := &entities.Patient{
		PatientCode: "PAC20240315deadbeef",
		FullName:    "Maria da Silva",
		BirthDate:   "1980-12-25",
		Gender:      "Feminino",
		CPF:         "12345678900",
	}
	require.NoError(suite.T(), suite.patientRepo.Create(context.Background(), patient))
	suite.patientID = patient.ID
}

func (suite *ExamAdapterIntegrationTestSuite) runSchema() {
	schemaSQL, err := os.ReadFile("../../scripts/schema.sql")
	require.NoError(suite.T(), err)
	_, err = suite.db.Exec(string(schemaSQL))
	require.NoError(suite.T(), err)
}

func (suite *ExamAdapterIntegrationTestSuite) newExam(number string) *entities.Exam {
	return &entities.Exam{
		ExamNumber: number,
		PatientID:  suite.patientID,
		ExamDate:   "2024-03-15",
		ExamTime:   "09:30",
		SourcePath: "/mnt/exams/" + number + "##150320240930#.WXML",
		Processed:  true,
		Status:     entities.StatusPerformed,
	}
}

func (suite *ExamAdapterIntegrationTestSuite) TestInsertThenConflict() {
	ctx := context.Background()

	exam := suite.newExam("ECG-2024-001")
	outcome, err := suite.examRepo.Insert(ctx, exam)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), repositories.ExamInsertCreated, outcome)
	assert.NotZero(suite.T(), exam.ID)

	// Same exam number again hits the unique constraint
	dup := suite.newExam("ECG-2024-001")
	outcome, err = suite.examRepo.Insert(ctx, dup)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), repositories.ExamInsertConflict, outcome)
}

func (suite *ExamAdapterIntegrationTestSuite) TestUpdateByExamNumberAfterConflict() {
	ctx := context.Background()

	exam := suite.newExam("ECG-2024-002")
	_, err := suite.examRepo.Insert(ctx, exam)
	require.NoError(suite.T(), err)

	id, err := suite.examRepo.UpdateByExamNumber(ctx, "ECG-2024-002", repositories.ExamIngestUpdate{
		SourcePath: "/mnt/exams/redelivered/ECG-2024-002.WXML",
		Processed:  true,
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), exam.ID, id)

	got, err := suite.examRepo.GetByNumber(ctx, "ECG-2024-002")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "/mnt/exams/redelivered/ECG-2024-002.WXML", got.SourcePath)
}

func (suite *ExamAdapterIntegrationTestSuite) TestSourcePathLedger() {
	ctx := context.Background()

	exam := suite.newExam("ECG-2024-003")
	_, err := suite.examRepo.Insert(ctx, exam)
	require.NoError(suite.T(), err)

	exists, err := suite.examRepo.SourcePathExists(ctx, exam.SourcePath)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), exists)

	exists, err = suite.examRepo.SourcePathExists(ctx, "/mnt/exams/never-seen.WXML")
	require.NoError(suite.T(), err)
	assert.False(suite.T(), exists)
}

func (suite *ExamAdapterIntegrationTestSuite) TestListByDateOrdering() {
	ctx := context.Background()

	late := suite.newExam("ECG-2024-010")
	late.ExamTime = "16:00"
	early := suite.newExam("ECG-2024-011")
	early.ExamTime = "07:45"

	_, err := suite.examRepo.Insert(ctx, late)
	require.NoError(suite.T(), err)
	_, err = suite.examRepo.Insert(ctx, early)
	require.NoError(suite.T(), err)

	exams, err := suite.examRepo.ListByDate(ctx, "2024-03-15", "2024-03-15")
	require.NoError(suite.T(), err)
	require.Len(suite.T(), exams, 2)
	assert.Equal(suite.T(), "ECG-2024-011", exams[0].ExamNumber)
	assert.Equal(suite.T(), "ECG-2024-010", exams[1].ExamNumber)
}

func TestExamAdapterIntegrationTestSuite(t *testing.T) {
	if os.Getenv("TEST_DB_HOST") == "" && os.Getenv("CI") == "" {
		t.Skip("Skipping integration test: TEST_DB_HOST not set")
	}
	suite.Run(t, new(ExamAdapterIntegrationTestSuite))
}
