package billing

import (
	"time"

	"medrec/internal/common"

	"github.com/gofrs/uuid"
)

const (
	PaymentPending   = "Pending"
	PaymentPaid      = "Paid"
	PaymentCancelled = "Cancelled"

	// taxRatePercent is applied to the discounted total.
	taxRatePercent = 10
)

type Bill struct {
	ID              uuid.UUID     `json:"id" db:"id"`
	AppointmentID   uuid.UUID     `json:"appointmentId" db:"appointment_id"`
	PatientID       uuid.UUID     `json:"patientId" db:"patient_id"`
	DoctorID        uuid.UUID     `json:"doctorId" db:"doctor_id"`
	BillDate        time.Time     `json:"billDate" db:"bill_date"`
	ConsultationFee common.Amount `json:"consultationFee" db:"consultation_fee"`
	LabTestsFee     common.Amount `json:"labTestsFee" db:"lab_tests_fee"`
	MedicineFee     common.Amount `json:"medicineFee" db:"medicine_fee"`
	OtherCharges    common.Amount `json:"otherCharges" db:"other_charges"`
	Discount        common.Amount `json:"discount" db:"discount"`
	TotalAmount     common.Amount `json:"totalAmount" db:"total_amount"`
	TaxAmount       common.Amount `json:"taxAmount" db:"tax_amount"`
	NetAmount       common.Amount `json:"netAmount" db:"net_amount"`
	PaymentStatus   string        `json:"paymentStatus" db:"payment_status"`
	PaymentMethod   string        `json:"paymentMethod" db:"payment_method"`
	TransactionID   string        `json:"transactionId,omitempty" db:"transaction_id"`
	PaymentDate     *time.Time    `json:"paymentDate,omitempty" db:"payment_date"`
	Notes           string        `json:"notes" db:"notes"`
	CreatedAt       time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time     `json:"updatedAt" db:"updated_at"`
}

// CalculateAmounts derives total, tax and net from the fee components. Tax is
// charged on the discounted total.
func (b *Bill) CalculateAmounts() {
	b.TotalAmount = b.ConsultationFee + b.LabTestsFee + b.MedicineFee + b.OtherCharges
	b.TaxAmount = (b.TotalAmount - b.Discount).Percent(taxRatePercent)
	b.NetAmount = b.TotalAmount - b.Discount + b.TaxAmount
}

type UpdateChargesRequest struct {
	LabTestsFee  string `json:"labTestsFee" validate:"omitempty,amount"`
	MedicineFee  string `json:"medicineFee" validate:"omitempty,amount"`
	OtherCharges string `json:"otherCharges" validate:"omitempty,amount"`
	Discount     string `json:"discount" validate:"omitempty,amount"`
	Notes        string `json:"notes" validate:"omitempty,max=1000"`
}

type ProcessPaymentRequest struct {
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=Cash Card Insurance Online"`
	TransactionID string `json:"transactionId" validate:"omitempty,max=100"`
}
