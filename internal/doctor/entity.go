package doctor

import (
	"time"

	"medrec/internal/common"

	"github.com/gofrs/uuid"
)

type Doctor struct {
	ID              uuid.UUID     `json:"id" db:"id"`
	FirstName       string        `json:"firstName" db:"first_name"`
	LastName        string        `json:"lastName" db:"last_name"`
	Specialization  string        `json:"specialization" db:"specialization"`
	Qualification   string        `json:"qualification" db:"qualification"`
	Phone           string        `json:"phone" db:"phone"`
	Email           string        `json:"email" db:"email"`
	ConsultationFee common.Amount `json:"consultationFee" db:"consultation_fee"`
	ExperienceYears int           `json:"experienceYears" db:"experience_years"`
	CreatedAt       time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time     `json:"updatedAt" db:"updated_at"`
}

type CreateRequest struct {
	FirstName       string `json:"firstName" validate:"required,max=100"`
	LastName        string `json:"lastName" validate:"required,max=100"`
	Specialization  string `json:"specialization" validate:"required,max=100"`
	Qualification   string `json:"qualification" validate:"omitempty,max=200"`
	Phone           string `json:"phone" validate:"required,max=20"`
	Email           string `json:"email" validate:"omitempty,email"`
	ConsultationFee string `json:"consultationFee" validate:"required,amount"`
	ExperienceYears int    `json:"experienceYears" validate:"omitempty,min=0,max=80"`
}

type UpdateRequest struct {
	FirstName       string `json:"firstName" validate:"omitempty,max=100"`
	LastName        string `json:"lastName" validate:"omitempty,max=100"`
	Specialization  string `json:"specialization" validate:"omitempty,max=100"`
	Qualification   string `json:"qualification" validate:"omitempty,max=200"`
	Phone           string `json:"phone" validate:"omitempty,max=20"`
	Email           string `json:"email" validate:"omitempty,email"`
	ConsultationFee string `json:"consultationFee" validate:"omitempty,amount"`
	ExperienceYears int    `json:"experienceYears" validate:"omitempty,min=0,max=80"`
}
