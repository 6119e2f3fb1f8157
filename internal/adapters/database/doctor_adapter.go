package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/vitallink/clinic-records/backend/internal/domain/entities"
	"github.com/vitallink/clinic-records/backend/internal/domain/repositories"
	"github.com/vitallink/clinic-records/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/vitallink/clinic-records/backend/pkg/errors"
)

var doctorColumns = []interface{}{"id", "name", "crm", "created_at"}

// DoctorAdapter implements DoctorRepository
type DoctorAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewDoctorAdapter creates a new doctor adapter
func NewDoctorAdapter(client *postgres.Client) repositories.DoctorRepository {
	return &DoctorAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new doctor and sets the generated row ID
func (a *DoctorAdapter) Create(ctx context.Context, doctor *entities.Doctor) error {
	record := goqu.Record{
		"name":       doctor.Name,
		"crm":        doctor.CRM,
		"created_at": doctor.CreatedAt,
	}

	query, args, err := a.db.Insert("doctors").Rows(record).Returning("id").ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&doctor.ID); err != nil {
		return apperrors.NewInternalError("failed to create doctor", err)
	}

	return nil
}

// GetByID retrieves a doctor by row ID
func (a *DoctorAdapter) GetByID(ctx context.Context, id int64) (*entities.Doctor, error) {
	return a.getOne(ctx, goqu.Ex{"id": id}, fmt.Sprintf("doctor with id %d not found", id))
}

// GetByCRM retrieves a doctor by exact license match
func (a *DoctorAdapter) GetByCRM(ctx context.Context, crm string) (*entities.Doctor, error) {
	return a.getOne(ctx, goqu.Ex{"crm": crm}, fmt.Sprintf("doctor with crm %s not found", crm))
}

func (a *DoctorAdapter) getOne(ctx context.Context, where goqu.Ex, notFound string) (*entities.Doctor, error) {
	query, args, err := a.db.Select(doctorColumns...).
		From("doctors").
		Where(where).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	doctor := &entities.Doctor{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&doctor.ID,
		&doctor.Name,
		&doctor.CRM,
		&doctor.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(notFound)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get doctor", err)
	}

	return doctor, nil
}

// Update updates a doctor
func (a *DoctorAdapter) Update(ctx context.Context, doctor *entities.Doctor) error {
	record := goqu.Record{
		"name": doctor.Name,
		"crm":  doctor.CRM,
	}

	query, args, err := a.db.Update("doctors").
		Set(record).
		Where(goqu.Ex{"id": doctor.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update doctor", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("doctor with id %d not found", doctor.ID))
	}

	return nil
}

// List retrieves doctors with filters
func (a *DoctorAdapter) List(ctx context.Context, filter repositories.DoctorFilter) ([]*entities.Doctor, error) {
	ds := a.db.Select(doctorColumns...).From("doctors")

	if filter.Name != "" {
		ds = ds.Where(goqu.I("name").Like(fmt.Sprintf("%%%s%%", filter.Name)))
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
		return nil, apperrors.NewInternalError("failed to list doctors", err)
	}
	defer rows.Close()

	var doctors []*entities.Doctor
	for rows.Next() {
		doctor := &entities.Doctor{}
		err := rows.Scan(
			&doctor.ID,
			&doctor.Name,
			&doctor.CRM,
			&doctor.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan doctor", err)
		}
		doctors = append(doctors, doctor)
	}

	if err = rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating doctors", err)
	}

	return doctors, nil
}
