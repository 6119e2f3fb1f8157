package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/vitallink/clinic-records/backend/internal/domain/entities"
	"github.com/vitallink/clinic-records/backend/internal/domain/repositories"
	"github.com/vitallink/clinic-records/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/vitallink/clinic-records/backend/pkg/errors"
)

var patientColumns = []interface{}{
	"id", "patient_id", "full_name", "birth_date", "gender", "cpf", "created_at",
}

// PatientAdapter implements PatientRepository
type PatientAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPatientAdapter creates a new patient adapter
func NewPatientAdapter(client *postgres.Client) repositories.PatientRepository {
	return &PatientAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new patient and sets the generated row ID
func (a *PatientAdapter) Create(ctx context.Context, patient *entities.Patient) error {
	record := goqu.Record{
		"patient_id": patient.PatientCode,
		"full_name":  patient.FullName,
		"birth_date": patient.BirthDate,
		"gender":     patient.Gender,
		"cpf":        sql.NullString{String: patient.CPF, Valid: patient.CPF != ""},
		"created_at": patient.CreatedAt,
	}

	query, args, err := a.db.Insert("patients").Rows(record).Returning("id").ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&patient.ID); err != nil {
		return apperrors.NewInternalError("failed to create patient", err)
	}

	return nil
}

// GetByID retrieves a patient by row ID
func (a *PatientAdapter) GetByID(ctx context.Context, id int64) (*entities.Patient, error) {
	return a.getOne(ctx, goqu.Ex{"id": id}, fmt.Sprintf("patient with id %d not found", id))
}

// GetByCPF retrieves a patient by exact national ID match
func (a *PatientAdapter) GetByCPF(ctx context.Context, cpf string) (*entities.Patient, error) {
	return a.getOne(ctx, goqu.Ex{"cpf": cpf}, "patient with given cpf not found")
}

// FindFirstByName retrieves the first patient whose full name contains name,
// ordered by lowest row ID so repeated runs resolve to the same patient
func (a *PatientAdapter) FindFirstByName(ctx context.Context, name string) (*entities.Patient, error) {
	query, args, err := a.db.Select(patientColumns...).
		From("patients").
		Where(goqu.I("full_name").Like(fmt.Sprintf("%%%s%%", name))).
		Order(goqu.I("id").Asc()).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.scanPatient(ctx, query, args, fmt.Sprintf("no patient matching name %q", name))
}

func (a *PatientAdapter) getOne(ctx context.Context, where goqu.Ex, notFound string) (*entities.Patient, error) {
	query, args, err := a.db.Select(patientColumns...).
		From("patients").
		Where(where).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	return a.scanPatient(ctx, query, args, notFound)
}

func (a *PatientAdapter) scanPatient(ctx context.Context, query string, args []interface{}, notFound string) (*entities.Patient, error) {
	patient := &entities.Patient{}
	var cpf sql.NullString

	err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&patient.ID,
		&patient.PatientCode,
		&patient.FullName,
		&patient.BirthDate,
		&patient.Gender,
		&cpf,
		&patient.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(notFound)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get patient", err)
	}

	patient.CPF = cpf.String

	return patient, nil
}

// Update updates a patient
func (a *PatientAdapter) Update(ctx context.Context, patient *entities.Patient) error {
	record := goqu.Record{
		"full_name":  patient.FullName,
		"birth_date": patient.BirthDate,
		"gender":     patient.Gender,
		"cpf":        sql.NullString{String: patient.CPF, Valid: patient.CPF != ""},
	}

	query, args, err := a.db.Update("patients").
		Set(record).
		Where(goqu.Ex{"id": patient.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update patient", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("patient with id %d not found", patient.ID))
	}

	return nil
}

// List retrieves patients with filters
func (a *PatientAdapter) List(ctx context.Context, filter repositories.PatientFilter) ([]*entities.Patient, error) {
	ds := a.db.Select(patientColumns...).From("patients")

	if filter.Name != "" {
		ds = ds.Where(goqu.I("full_name").Like(fmt.Sprintf("%%%s%%", filter.Name)))
	}

	if filter.Gender != "" {
		ds = ds.Where(goqu.Ex{"gender": filter.Gender})
	}

	ds = ds.Order(goqu.I("id").Asc())

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

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list patients", err)
	}
	defer rows.Close()

	var patients []*entities.Patient
	for rows.Next() {
		patient := &entities.Patient{}
		var cpf sql.NullString

		err := rows.Scan(
			&patient.ID,
			&patient.PatientCode,
			&patient.FullName,
			&patient.BirthDate,
			&patient.Gender,
			&cpf,
			&patient.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan patient", err)
		}

		patient.CPF = cpf.String

		patients = append(patients, patient)
	}

	if err = rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating patients", err)
	}

	return patients, nil
}
