package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitallink/clinic-records/backend/internal/domain/entities"
	"github.com/vitallink/clinic-records/backend/internal/domain/repositories"
	"github.com/vitallink/clinic-records/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/vitallink/clinic-records/backend/pkg/errors"
)

func setupPatientAdapter(t *testing.T) (repositories.PatientRepository, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return NewPatientAdapter(postgres.NewClientFromDB(mockDB)), mock
}

func patientRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "patient_id", "full_name", "birth_date", "gender", "cpf", "created_at",
	})
}

func TestPatientAdapter_Create(t *testing.T) {
	adapter, mock := setupPatientAdapter(t)

	mock.ExpectQuery(`INSERT INTO "patients"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	patient := &entities.Patient{
		PatientCode: "PAC2024031512345",
		FullName:    "Maria da Silva",
		BirthDate:   "1980-12-25",
		Gender:      "Feminino",
		CPF:         "12345678900",
		CreatedAt:   time.Now(),
	}

	require.NoError(t, adapter.Create(context.Background(), patient))
	assert.Equal(t, int64(11), patient.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPatientAdapter_GetByCPF(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		adapter, mock := setupPatientAdapter(t)

		mock.ExpectQuery(`SELECT .+ FROM "patients"`).
			WillReturnRows(patientRows().AddRow(
				int64(11), "PAC2024031512345", "Maria da Silva",
				"1980-12-25", "Feminino", "12345678900", time.Now(),
			))

		patient, err := adapter.GetByCPF(context.Background(), "12345678900")

		require.NoError(t, err)
		assert.Equal(t, "Maria da Silva", patient.FullName)
		assert.Equal(t, "12345678900", patient.CPF)
	})

	t.Run("not found", func(t *testing.T) {
		adapter, mock := setupPatientAdapter(t)

		mock.ExpectQuery(`SELECT .+ FROM "patients"`).
			WillReturnRows(patientRows())

		patient, err := adapter.GetByCPF(context.Background(), "00000000000")

		assert.Nil(t, patient)
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestPatientAdapter_FindFirstByName(t *testing.T) {
	t.Run("orders by lowest id", func(t *testing.T) {
		adapter, mock := setupPatientAdapter(t)

		mock.ExpectQuery(`SELECT .+ FROM "patients" WHERE .+ ORDER BY "id" ASC LIMIT`).
			WillReturnRows(patientRows().AddRow(
				int64(3), "PAC2024010154321", "Maria da Silva Santos",
				"1975-01-01", "Feminino", nil, time.Now(),
			))

		patient, err := adapter.FindFirstByName(context.Background(), "Maria da Silva")

		require.NoError(t, err)
		assert.Equal(t, int64(3), patient.ID)
		assert.Empty(t, patient.CPF)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no match", func(t *testing.T) {
		adapter, mock := setupPatientAdapter(t)

		mock.ExpectQuery(`SELECT .+ FROM "patients"`).
			WillReturnRows(patientRows())

		patient, err := adapter.FindFirstByName(context.Background(), "Ghost")

		assert.Nil(t, patient)
		assert.True(t, apperrors.IsNotFound(err))
	})
}
