package appointment

import (
	"time"

	"github.com/gofrs/uuid"
)

const (
	StatusScheduled = "Scheduled"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"

	// BillingPending is set when an appointment completes; later values are
	// copied verbatim from billing-payment-processed events.
	BillingPending = "Pending"
)

type Appointment struct {
	ID                  uuid.UUID `json:"id"`
	PatientID           uuid.UUID `json:"patientId"`
	DoctorID            uuid.UUID `json:"doctorId"`
	AppointmentDateTime time.Time `json:"appointmentDateTime"`
	Reason              string    `json:"reason"`
	Status              string    `json:"status"`
	BillingStatus       string    `json:"billingStatus"`
	Notes               string    `json:"notes"`
	DurationMinutes     int       `json:"durationMinutes"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

type CreateRequest struct {
	PatientID           string `json:"patientId" validate:"required,uuid4"`
	DoctorID            string `json:"doctorId" validate:"required,uuid4"`
	AppointmentDateTime string `json:"appointmentDateTime" validate:"required,rfc3339"`
	Reason              string `json:"reason" validate:"required,min=1,max=500"`
	Notes               string `json:"notes" validate:"omitempty,max=1000"`
	DurationMinutes     int    `json:"durationMinutes" validate:"omitempty,min=5,max=480"`
}

type UpdateRequest struct {
	AppointmentDateTime string `json:"appointmentDateTime" validate:"omitempty,rfc3339"`
	Reason              string `json:"reason" validate:"omitempty,max=500"`
	Notes               string `json:"notes" validate:"omitempty,max=1000"`
	DurationMinutes     int    `json:"durationMinutes" validate:"omitempty,min=5,max=480"`
}

type CompleteRequest struct {
	Notes           string `json:"notes" validate:"omitempty,max=1000"`
	ConsultationFee string `json:"consultationFee" validate:"required,amount"`
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=500"`
}
