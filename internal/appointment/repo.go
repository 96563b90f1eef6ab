package appointment

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
	insertAppointmentSQL = `
INSERT INTO appointments (
  id, patient_id, doctor_id, appointment_datetime, reason, status,
  billing_status, notes, duration_minutes, created_at, updated_at, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, true)`

	selectAppointmentSQL = `
SELECT id, patient_id, doctor_id, appointment_datetime, reason, status,
       billing_status, notes, duration_minutes, created_at, updated_at
FROM appointments
WHERE id = $1 AND is_active`

	listAppointmentsSQL = `
SELECT id, patient_id, doctor_id, appointment_datetime, reason, status,
       billing_status, notes, duration_minutes, created_at, updated_at
FROM appointments
WHERE is_active
ORDER BY appointment_datetime DESC`

	listByPatientSQL = `
SELECT id, patient_id, doctor_id, appointment_datetime, reason, status,
       billing_status, notes, duration_minutes, created_at, updated_at
FROM appointments
WHERE is_active AND patient_id = $1
ORDER BY appointment_datetime DESC`

	listByDoctorSQL = `
SELECT id, patient_id, doctor_id, appointment_datetime, reason, status,
       billing_status, notes, duration_minutes, created_at, updated_at
FROM appointments
WHERE is_active AND doctor_id = $1
ORDER BY appointment_datetime DESC`

	updateAppointmentSQL = `
UPDATE appointments
SET appointment_datetime = $2, reason = $3, notes = $4, duration_minutes = $5, updated_at = now()
WHERE id = $1 AND is_active`

	setStatusSQL = `
UPDATE appointments
SET status = $2, billing_status = $3, notes = $4, updated_at = now()
WHERE id = $1 AND is_active`

	setBillingStatusSQL = `
UPDATE appointments
SET billing_status = $2, updated_at = now()
WHERE id = $1 AND is_active`

	softDeleteSQL = `
UPDATE appointments
SET is_active = false, updated_at = now()
WHERE id = $1 AND is_active`
)

type Repo interface {
	Insert(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context) ([]*Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	SetStatus(ctx context.Context, id uuid.UUID, status, billingStatus, notes string) error
	SetBillingStatus(ctx context.Context, id uuid.UUID, billingStatus string) error
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

func (r *RepoImpl) Insert(ctx context.Context, a *Appointment) error {
	r.logger.Debugf("[appointment %s] start inserting into DB", a.ID)

	_, err := r.db.Exec(ctx, insertAppointmentSQL,
		a.ID, a.PatientID, a.DoctorID, a.AppointmentDateTime, a.Reason, a.Status,
		a.BillingStatus, a.Notes, a.DurationMinutes, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		r.logger.Errorf("[appointment %s] error inserting into DB: %v", a.ID, err)
		return fmt.Errorf("insert appointment: %w", err)
	}

	return nil
}

func (r *RepoImpl) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	var a Appointment
	err := r.db.QueryRow(ctx, selectAppointmentSQL, id).Scan(
		&a.ID, &a.PatientID, &a.DoctorID, &a.AppointmentDateTime, &a.Reason, &a.Status,
		&a.BillingStatus, &a.Notes, &a.DurationMinutes, &a.CreatedAt, &a.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, appers.ErrAppointmentNotFound
	case err != nil:
		return nil, fmt.Errorf("select appointment: %w", err)
	}

	return &a, nil
}

func (r *RepoImpl) List(ctx context.Context) ([]*Appointment, error) {
	return r.queryMany(ctx, listAppointmentsSQL)
}

func (r *RepoImpl) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	return r.queryMany(ctx, listByPatientSQL, patientID)
}

func (r *RepoImpl) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Appointment, error) {
	return r.queryMany(ctx, listByDoctorSQL, doctorID)
}

func (r *RepoImpl) queryMany(ctx context.Context, query string, args ...any) ([]*Appointment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select appointments: %w", err)
	}
	defer rows.Close()

	res := make([]*Appointment, 0)
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(
			&a.ID, &a.PatientID, &a.DoctorID, &a.AppointmentDateTime, &a.Reason, &a.Status,
			&a.BillingStatus, &a.Notes, &a.DurationMinutes, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		res = append(res, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments rows err: %w", err)
	}

	return res, nil
}

func (r *RepoImpl) Update(ctx context.Context, a *Appointment) error {
	result, err := r.db.Exec(ctx, updateAppointmentSQL,
		a.ID, a.AppointmentDateTime, a.Reason, a.Notes, a.DurationMinutes)
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return appers.ErrAppointmentNotFound
	}

	return nil
}

func (r *RepoImpl) SetStatus(ctx context.Context, id uuid.UUID, status, billingStatus, notes string) error {
	result, err := r.db.Exec(ctx, setStatusSQL, id, status, billingStatus, notes)
	if err != nil {
		return fmt.Errorf("set appointment status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return appers.ErrAppointmentNotFound
	}

	return nil
}

func (r *RepoImpl) SetBillingStatus(ctx context.Context, id uuid.UUID, billingStatus string) error {
	result, err := r.db.Exec(ctx, setBillingStatusSQL, id, billingStatus)
	if err != nil {
		return fmt.Errorf("set billing status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return appers.ErrAppointmentNotFound
	}

	return nil
}

func (r *RepoImpl) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, softDeleteSQL, id)
	if err != nil {
		return fmt.Errorf("delete appointment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return appers.ErrAppointmentNotFound
	}

	return nil
}
