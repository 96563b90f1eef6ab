package patient

import (
	"context"
	"errors"
	"fmt"

	"medrec/internal/appers"
	"medrec/pkg/db"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	insertPatientSQL = `
INSERT INTO patients (
  id, first_name, last_name, date_of_birth, gender, phone, email,
  address, blood_group, created_at, updated_at, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, true)`

	selectPatientSQL = `
SELECT id, first_name, last_name, date_of_birth, gender, phone, email,
       address, blood_group, created_at, updated_at
FROM patients
WHERE id = $1 AND is_active`

	listPatientsSQL = `
SELECT id, first_name, last_name, date_of_birth, gender, phone, email,
       address, blood_group, created_at, updated_at
FROM patients
WHERE is_active
ORDER BY last_name, first_name`

	updatePatientSQL = `
UPDATE patients
SET first_name = $2, last_name = $3, phone = $4, email = $5,
    address = $6, blood_group = $7, updated_at = now()
WHERE id = $1 AND is_active`

	softDeletePatientSQL = `
UPDATE patients
SET is_active = false, updated_at = now()
WHERE id = $1 AND is_active`
)

type Repo interface {
	Insert(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	List(ctx context.Context) ([]*Patient, error)
	Update(ctx context.Context, p *Patient) error
	SoftDelete(ctx context.Context, id uuid.UUID) error

	HealthCheck(ctx context.Context) error
}

type RepoImpl struct {
	db     db.DB
	logger *zap.SugaredLogger
}

func NewRepo(db db.DB, logger *zap.SugaredLogger) *RepoImpl {
	return &RepoImpl{db: db, logger: logger}
}

func (r *RepoImpl) HealthCheck(ctx context.Context) error {
	var result int
	if err := r.db.QueryRow(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

func (r *RepoImpl) Insert(ctx context.Context, p *Patient) error {
	r.logger.Debugf("[patient %s] start inserting into DB", p.ID)

	_, err := r.db.Exec(ctx, insertPatientSQL,
		p.ID, p.FirstName, p.LastName, p.DateOfBirth, p.Gender, p.Phone, p.Email,
		p.Address, p.BloodGroup, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		r.logger.Errorf("[patient %s] error inserting into DB: %v", p.ID, err)
		return fmt.Errorf("insert patient: %w", err)
	}

	return nil
}

func (r *RepoImpl) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var p Patient
	err := r.db.QueryRow(ctx, selectPatientSQL, id).Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Gender, &p.Phone, &p.Email,
		&p.Address, &p.BloodGroup, &p.CreatedAt, &p.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, appers.ErrPatientNotFound
	case err != nil:
		return nil, fmt.Errorf("select patient: %w", err)
	}

	return &p, nil
}

func (r *RepoImpl) List(ctx context.Context) ([]*Patient, error) {
	rows, err := r.db.Query(ctx, listPatientsSQL)
	if err != nil {
		return nil, fmt.Errorf("select patients: %w", err)
	}
	defer rows.Close()

	res := make([]*Patient, 0)
	for rows.Next() {
		var p Patient
		if err := rows.Scan(
			&p.ID, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.Gender, &p.Phone, &p.Email,
			&p.Address, &p.BloodGroup, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		res = append(res, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("patients rows err: %w", err)
	}

	return res, nil
}

func (r *RepoImpl) Update(ctx context.Context, p *Patient) error {
	result, err := r.db.Exec(ctx, updatePatientSQL,
		p.ID, p.FirstName, p.LastName, p.Phone, p.Email, p.Address, p.BloodGroup)
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	if result.RowsAffected() == 0 {
		return appers.ErrPatientNotFound
	}

	return nil
}

func (r *RepoImpl) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, softDeletePatientSQL, id)
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	if result.RowsAffected() == 0 {
		return appers.ErrPatientNotFound
	}

	return nil
}
