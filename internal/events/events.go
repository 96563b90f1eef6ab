// Package events holds the cross-service topic names and payload shapes.
// Topic names are a contract between services and must not change without a
// coordinated migration.
package events

import (
	"time"

	"medrec/internal/common"

	"github.com/gofrs/uuid"
)

const (
	TopicAppointmentCreated   = "appointment-created"
	TopicAppointmentCompleted = "appointment-completed"
	TopicAppointmentCancelled = "appointment-cancelled"
	TopicBillPaymentProcessed = "billing-payment-processed"
)

type AppointmentCreatedEvent struct {
	AppointmentID       uuid.UUID `json:"appointmentId"`
	PatientID           uuid.UUID `json:"patientId"`
	DoctorID            uuid.UUID `json:"doctorId"`
	AppointmentDateTime time.Time `json:"appointmentDateTime"`
	Reason              string    `json:"reason"`
	Status              string    `json:"status"`
	CreatedAt           time.Time `json:"createdAt"`
}

type AppointmentCompletedEvent struct {
	AppointmentID   uuid.UUID     `json:"appointmentId"`
	PatientID       uuid.UUID     `json:"patientId"`
	DoctorID        uuid.UUID     `json:"doctorId"`
	CompletedAt     time.Time     `json:"completedAt"`
	Notes           string        `json:"notes"`
	ConsultationFee common.Amount `json:"consultationFee"`
}

type AppointmentCancelledEvent struct {
	AppointmentID uuid.UUID `json:"appointmentId"`
	PatientID     uuid.UUID `json:"patientId"`
	Reason        string    `json:"reason"`
	CancelledAt   time.Time `json:"cancelledAt"`
}

type BillPaymentProcessedEvent struct {
	BillID        uuid.UUID     `json:"billId"`
	AppointmentID uuid.UUID     `json:"appointmentId"`
	PatientID     uuid.UUID     `json:"patientId"`
	NetAmount     common.Amount `json:"netAmount"`
	PaymentStatus string        `json:"paymentStatus"`
	PaymentDate   time.Time     `json:"paymentDate"`
}
