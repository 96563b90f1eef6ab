package doctor

import (
	"context"
	"errors"
	"fmt"

	"medrec/internal/appers"
	"medrec/internal/common"
	"medrec/pkg/db"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	insertDoctorSQL = `
INSERT INTO doctors (
  id, first_name, last_name, specialization, qualification, phone, email,
  consultation_fee, experience_years, created_at, updated_at, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9, $10, $11, true)`

	selectDoctorSQL = `
SELECT id, first_name, last_name, specialization, qualification, phone, email,
       consultation_fee::text, experience_years, created_at, updated_at
FROM doctors
WHERE id = $1 AND is_active`

	listDoctorsSQL = `
SELECT id, first_name, last_name, specialization, qualification, phone, email,
       consultation_fee::text, experience_years, created_at, updated_at
FROM doctors
WHERE is_active
ORDER BY last_name, first_name`

	listBySpecializationSQL = `
SELECT id, first_name, last_name, specialization, qualification, phone, email,
       consultation_fee::text, experience_years, created_at, updated_at
FROM doctors
WHERE is_active AND specialization = $1
ORDER BY last_name, first_name`

	updateDoctorSQL = `
UPDATE doctors
SET first_name = $2, last_name = $3, specialization = $4, qualification = $5,
    phone = $6, email = $7, consultation_fee = $8::numeric, experience_years = $9,
    updated_at = now()
WHERE id = $1 AND is_active`

	softDeleteDoctorSQL = `
UPDATE doctors
SET is_active = false, updated_at = now()
WHERE id = $1 AND is_active`
)

type Repo interface {
	Insert(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	List(ctx context.Context) ([]*Doctor, error)
	ListBySpecialization(ctx context.Context, specialization string) ([]*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
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

func (r *RepoImpl) Insert(ctx context.Context, d *Doctor) error {
	r.logger.Debugf("[doctor %s] start inserting into DB", d.ID)

	_, err := r.db.Exec(ctx, insertDoctorSQL,
		d.ID, d.FirstName, d.LastName, d.Specialization, d.Qualification, d.Phone, d.Email,
		d.ConsultationFee.String(), d.ExperienceYears, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		r.logger.Errorf("[doctor %s] error inserting into DB: %v", d.ID, err)
		return fmt.Errorf("insert doctor: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDoctor(row rowScanner) (*Doctor, error) {
	var (
		d   Doctor
		fee string
	)
	err := row.Scan(
		&d.ID, &d.FirstName, &d.LastName, &d.Specialization, &d.Qualification, &d.Phone, &d.Email,
		&fee, &d.ExperienceYears, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}

	d.ConsultationFee, err = common.ParseAmount(fee)
	if err != nil {
		return nil, fmt.Errorf("parse consultation fee: %w", err)
	}

	return &d, nil
}

func (r *RepoImpl) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := scanDoctor(r.db.QueryRow(ctx, selectDoctorSQL, id))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, appers.ErrDoctorNotFound
	case err != nil:
		return nil, fmt.Errorf("select doctor: %w", err)
	}

	return d, nil
}

func (r *RepoImpl) List(ctx context.Context) ([]*Doctor, error) {
	return r.queryMany(ctx, listDoctorsSQL)
}

func (r *RepoImpl) ListBySpecialization(ctx context.Context, specialization string) ([]*Doctor, error) {
	return r.queryMany(ctx, listBySpecializationSQL, specialization)
}

func (r *RepoImpl) queryMany(ctx context.Context, query string, args ...any) ([]*Doctor, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select doctors: %w", err)
	}
	defer rows.Close()

	res := make([]*Doctor, 0)
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan doctor: %w", err)
		}
		res = append(res, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("doctors rows err: %w", err)
	}

	return res, nil
}

func (r *RepoImpl) Update(ctx context.Context, d *Doctor) error {
	result, err := r.db.Exec(ctx, updateDoctorSQL,
		d.ID, d.FirstName, d.LastName, d.Specialization, d.Qualification,
		d.Phone, d.Email, d.ConsultationFee.String(), d.ExperienceYears)
	if err != nil {
		return fmt.Errorf("update doctor: %w", err)
	}
	if result.RowsAffected() == 0 {
		return appers.ErrDoctorNotFound
	}

	return nil
}

func (r *RepoImpl) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, softDeleteDoctorSQL, id)
	if err != nil {
		return fmt.Errorf("delete doctor: %w", err)
	}
	if result.RowsAffected() == 0 {
		return appers.ErrDoctorNotFound
	}

	return nil
}
