package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medrec/internal/appers"
	"medrec/internal/common"
	"medrec/internal/events"
	"medrec/internal/outbox"
	"medrec/internal/transport/producer"
	"medrec/pkg/db"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

type Service interface {
	CreateBillFromAppointment(ctx context.Context, event events.AppointmentCompletedEvent) (*Bill, error)
	Get(ctx context.Context, id uuid.UUID) (*Bill, error)
	List(ctx context.Context) ([]*Bill, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Bill, error)
	UpdateCharges(ctx context.Context, id uuid.UUID, req UpdateChargesRequest) (*Bill, error)
	ProcessPayment(ctx context.Context, id uuid.UUID, req ProcessPaymentRequest) (*Bill, error)
	Cancel(ctx context.Context, id uuid.UUID) (*Bill, error)
	Delete(ctx context.Context, id uuid.UUID) error

	HealthCheck(ctx context.Context) (dbHealthy bool, kafkaHealthy bool, err error)
}

type ServiceImpl struct {
	db            db.DB
	repo          Repo
	outbox        outbox.Store
	kafkaProducer producer.Producer
	logger        *zap.SugaredLogger
}

func NewService(db db.DB, repo Repo, outboxStore outbox.Store, kafkaProducer producer.Producer, logger *zap.SugaredLogger) *ServiceImpl {
	return &ServiceImpl{
		db:            db,
		repo:          repo,
		outbox:        outboxStore,
		kafkaProducer: kafkaProducer,
		logger:        logger,
	}
}

func (s *ServiceImpl) HealthCheck(ctx context.Context) (dbHealthy bool, kafkaHealthy bool, err error) {
	dbErr := s.repo.HealthCheck(ctx)
	dbHealthy = dbErr == nil

	kafkaErr := s.kafkaProducer.HealthCheck(ctx)
	kafkaHealthy = kafkaErr == nil

	if !dbHealthy && !kafkaHealthy {
		return dbHealthy, kafkaHealthy, fmt.Errorf("database: %v, kafka: %v", dbErr, kafkaErr)
	}

	return dbHealthy, kafkaHealthy, nil
}

// CreateBillFromAppointment opens a pending bill for a completed appointment.
// The broker redelivers on failure, so an existing bill for the same
// appointment is returned as-is instead of creating a duplicate.
func (s *ServiceImpl) CreateBillFromAppointment(ctx context.Context, event events.AppointmentCompletedEvent) (*Bill, error) {
	existing, err := s.repo.GetByAppointmentID(ctx, event.AppointmentID)
	if err == nil {
		s.logger.Infof("[bill %s] already exists for appointment %s", existing.ID, event.AppointmentID)
		return existing, nil
	}
	if !errors.Is(err, appers.ErrBillNotFound) {
		return nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("bill id: %w", err)
	}

	now := time.Now().UTC()
	b := &Bill{
		ID:              id,
		AppointmentID:   event.AppointmentID,
		PatientID:       event.PatientID,
		DoctorID:        event.DoctorID,
		BillDate:        now,
		ConsultationFee: event.ConsultationFee,
		PaymentStatus:   PaymentPending,
		Notes:           event.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	b.CalculateAmounts()

	if err := s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Insert(ctx, b)
	}); err != nil {
		return nil, err
	}

	s.logger.Infof("[bill %s] created for appointment %s, net %s", b.ID, b.AppointmentID, b.NetAmount)
	return b, nil
}

func (s *ServiceImpl) Get(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ServiceImpl) List(ctx context.Context) ([]*Bill, error) {
	return s.repo.List(ctx)
}

func (s *ServiceImpl) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Bill, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *ServiceImpl) UpdateCharges(ctx context.Context, id uuid.UUID, req UpdateChargesRequest) (*Bill, error) {
	var result *Bill
	err := s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if b.PaymentStatus != PaymentPending {
			return appers.ErrBillNotPending
		}

		if err := applyCharge(&b.LabTestsFee, req.LabTestsFee); err != nil {
			return err
		}
		if err := applyCharge(&b.MedicineFee, req.MedicineFee); err != nil {
			return err
		}
		if err := applyCharge(&b.OtherCharges, req.OtherCharges); err != nil {
			return err
		}
		if err := applyCharge(&b.Discount, req.Discount); err != nil {
			return err
		}
		if req.Notes != "" {
			b.Notes = req.Notes
		}
		b.CalculateAmounts()

		if err := s.repo.UpdateCharges(ctx, b); err != nil {
			return err
		}

		result = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infof("[bill %s] charges updated, net %s", id, result.NetAmount)
	return result, nil
}

func applyCharge(dst *common.Amount, raw string) error {
	if raw == "" {
		return nil
	}
	v, err := common.ParseAmount(raw)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// ProcessPayment marks a pending bill as paid and queues
// billing-payment-processed in the same transaction.
func (s *ServiceImpl) ProcessPayment(ctx context.Context, id uuid.UUID, req ProcessPaymentRequest) (*Bill, error) {
	var result *Bill
	err := s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if b.PaymentStatus != PaymentPending {
			return appers.ErrBillNotPending
		}

		paidAt := time.Now().UTC()
		b.PaymentStatus = PaymentPaid
		b.PaymentMethod = req.PaymentMethod
		b.TransactionID = req.TransactionID
		b.PaymentDate = &paidAt

		if err := s.repo.SetPayment(ctx, b); err != nil {
			return err
		}
		if err := s.insertPaymentEvent(ctx, b, paidAt); err != nil {
			return err
		}

		result = b
		return nil
	})
	if err != nil {
		s.logger.Errorf("[bill %s] payment failed: %v", id, err)
		return nil, err
	}

	s.logger.Infof("[bill %s] paid %s via %s", id, result.NetAmount, result.PaymentMethod)
	return result, nil
}

// Cancel voids a pending bill. The appointment service listens on the same
// topic, so the cancelled status propagates back to the appointment.
func (s *ServiceImpl) Cancel(ctx context.Context, id uuid.UUID) (*Bill, error) {
	var result *Bill
	err := s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		b, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if b.PaymentStatus != PaymentPending {
			return appers.ErrBillNotPending
		}

		cancelledAt := time.Now().UTC()
		b.PaymentStatus = PaymentCancelled
		b.PaymentDate = &cancelledAt

		if err := s.repo.SetPayment(ctx, b); err != nil {
			return err
		}
		if err := s.insertPaymentEvent(ctx, b, cancelledAt); err != nil {
			return err
		}

		result = b
		return nil
	})
	if err != nil {
		s.logger.Errorf("[bill %s] cancel failed: %v", id, err)
		return nil, err
	}

	s.logger.Infof("[bill %s] cancelled", id)
	return result, nil
}

func (s *ServiceImpl) insertPaymentEvent(ctx context.Context, b *Bill, at time.Time) error {
	rec, err := outbox.NewRecord(events.TopicBillPaymentProcessed, events.BillPaymentProcessedEvent{
		BillID:        b.ID,
		AppointmentID: b.AppointmentID,
		PatientID:     b.PatientID,
		NetAmount:     b.NetAmount,
		PaymentStatus: b.PaymentStatus,
		PaymentDate:   at,
	})
	if err != nil {
		return err
	}
	return s.outbox.Insert(ctx, rec)
}

func (s *ServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.logger.Infof("[bill %s] deleted", id)
	return nil
}
