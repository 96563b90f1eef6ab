package billing

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

// Money columns are NUMERIC(18,2); they travel as text on the wire and are
// parsed into cents on scan.
const (
	billColumns = `
id, appointment_id, patient_id, doctor_id, bill_date,
consultation_fee::text, lab_tests_fee::text, medicine_fee::text, other_charges::text,
discount::text, total_amount::text, tax_amount::text, net_amount::text,
payment_status, payment_method, transaction_id, payment_date, notes, created_at, updated_at`

	insertBillSQL = `
INSERT INTO bills (
  id, appointment_id, patient_id, doctor_id, bill_date,
  consultation_fee, lab_tests_fee, medicine_fee, other_charges,
  discount, total_amount, tax_amount, net_amount,
  payment_status, payment_method, transaction_id, notes, created_at, updated_at, is_active)
VALUES ($1, $2, $3, $4, $5,
        $6::numeric, $7::numeric, $8::numeric, $9::numeric,
        $10::numeric, $11::numeric, $12::numeric, $13::numeric,
        $14, $15, $16, $17, $18, $19, true)`

	selectBillSQL = `
SELECT ` + billColumns + `
FROM bills
WHERE id = $1 AND is_active`

	selectBillByAppointmentSQL = `
SELECT ` + billColumns + `
FROM bills
WHERE appointment_id = $1 AND is_active`

	listBillsSQL = `
SELECT ` + billColumns + `
FROM bills
WHERE is_active
ORDER BY bill_date DESC`

	listBillsByPatientSQL = `
SELECT ` + billColumns + `
FROM bills
WHERE is_active AND patient_id = $1
ORDER BY bill_date DESC`

	updateChargesSQL = `
UPDATE bills
SET lab_tests_fee = $2::numeric, medicine_fee = $3::numeric, other_charges = $4::numeric,
    discount = $5::numeric, total_amount = $6::numeric, tax_amount = $7::numeric,
    net_amount = $8::numeric, notes = $9, updated_at = now()
WHERE id = $1 AND is_active`

	setPaymentSQL = `
UPDATE bills
SET payment_status = $2, payment_method = $3, transaction_id = $4, payment_date = $5, updated_at = now()
WHERE id = $1 AND is_active`

	softDeleteBillSQL = `
UPDATE bills
SET is_active = false, updated_at = now()
WHERE id = $1 AND is_active`
)

type Repo interface {
	Insert(ctx context.Context, b *Bill) error
	GetByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*Bill, error)
	List(ctx context.Context) ([]*Bill, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Bill, error)
	UpdateCharges(ctx context.Context, b *Bill) error
	SetPayment(ctx context.Context, b *Bill) error
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

func (r *RepoImpl) Insert(ctx context.Context, b *Bill) error {
	r.logger.Debugf("[bill %s] start inserting into DB", b.ID)

	_, err := r.db.Exec(ctx, insertBillSQL,
		b.ID, b.AppointmentID, b.PatientID, b.DoctorID, b.BillDate,
		b.ConsultationFee.String(), b.LabTestsFee.String(), b.MedicineFee.String(), b.OtherCharges.String(),
		b.Discount.String(), b.TotalAmount.String(), b.TaxAmount.String(), b.NetAmount.String(),
		b.PaymentStatus, b.PaymentMethod, b.TransactionID, b.Notes, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		r.logger.Errorf("[bill %s] error inserting into DB: %v", b.ID, err)
		return fmt.Errorf("insert bill: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBill(row rowScanner) (*Bill, error) {
	var (
		b       Bill
		amounts [8]string
	)
	err := row.Scan(
		&b.ID, &b.AppointmentID, &b.PatientID, &b.DoctorID, &b.BillDate,
		&amounts[0], &amounts[1], &amounts[2], &amounts[3],
		&amounts[4], &amounts[5], &amounts[6], &amounts[7],
		&b.PaymentStatus, &b.PaymentMethod, &b.TransactionID, &b.PaymentDate, &b.Notes, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}

	dst := []*common.Amount{
		&b.ConsultationFee, &b.LabTestsFee, &b.MedicineFee, &b.OtherCharges,
		&b.Discount, &b.TotalAmount, &b.TaxAmount, &b.NetAmount,
	}
	for i, s := range amounts {
		v, err := common.ParseAmount(s)
		if err != nil {
			return nil, fmt.Errorf("parse amount column %d: %w", i, err)
		}
		*dst[i] = v
	}

	return &b, nil
}

func (r *RepoImpl) GetByID(ctx context.Context, id uuid.UUID) (*Bill, error) {
	b, err := scanBill(r.db.QueryRow(ctx, selectBillSQL, id))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, appers.ErrBillNotFound
	case err != nil:
		return nil, fmt.Errorf("select bill: %w", err)
	}

	return b, nil
}

func (r *RepoImpl) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*Bill, error) {
	b, err := scanBill(r.db.QueryRow(ctx, selectBillByAppointmentSQL, appointmentID))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, appers.ErrBillNotFound
	case err != nil:
		return nil, fmt.Errorf("select bill by appointment: %w", err)
	}

	return b, nil
}

func (r *RepoImpl) List(ctx context.Context) ([]*Bill, error) {
	return r.queryMany(ctx, listBillsSQL)
}

func (r *RepoImpl) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Bill, error) {
	return r.queryMany(ctx, listBillsByPatientSQL, patientID)
}

func (r *RepoImpl) queryMany(ctx context.Context, query string, args ...any) ([]*Bill, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select bills: %w", err)
	}
	defer rows.Close()

	res := make([]*Bill, 0)
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		res = append(res, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bills rows err: %w", err)
	}

	return res, nil
}

func (r *RepoImpl) UpdateCharges(ctx context.Context, b *Bill) error {
	result, err := r.db.Exec(ctx, updateChargesSQL,
		b.ID, b.LabTestsFee.String(), b.MedicineFee.String(), b.OtherCharges.String(),
		b.Discount.String(), b.TotalAmount.String(), b.TaxAmount.String(),
		b.NetAmount.String(), b.Notes)
	if err != nil {
		return fmt.Errorf("update bill charges: %w", err)
	}
	if result.RowsAffected() == 0 {
		return appers.ErrBillNotFound
	}

	return nil
}

func (r *RepoImpl) SetPayment(ctx context.Context, b *Bill) error {
	result, err := r.db.Exec(ctx, setPaymentSQL, b.ID, b.PaymentStatus, b.PaymentMethod, b.TransactionID, b.PaymentDate)
	if err != nil {
		return fmt.Errorf("set bill payment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return appers.ErrBillNotFound
	}

	return nil
}

func (r *RepoImpl) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, softDeleteBillSQL, id)
	if err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	if result.RowsAffected() == 0 {
		return appers.ErrBillNotFound
	}

	return nil
}
