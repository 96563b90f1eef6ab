package appointment

import (
	"context"
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
	Create(ctx context.Context, req CreateRequest) (*Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context) ([]*Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Appointment, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Appointment, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Complete(ctx context.Context, id uuid.UUID, req CompleteRequest) (*Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID, req CancelRequest) (*Appointment, error)

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

// Create stores the appointment and its appointment-created outbox record in
// one transaction. No broker call happens here: publishing is the relay's
// job, so a down broker never fails the write.
func (s *ServiceImpl) Create(ctx context.Context, req CreateRequest) (*Appointment, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("appointment id: %w", err)
	}

	patientID, err := uuid.FromString(req.PatientID)
	if err != nil {
		return nil, fmt.Errorf("parse patientId: %w", err)
	}
	doctorID, err := uuid.FromString(req.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("parse doctorId: %w", err)
	}
	at, err := time.Parse(time.RFC3339, req.AppointmentDateTime)
	if err != nil {
		return nil, fmt.Errorf("parse appointmentDateTime: %w", err)
	}

	duration := req.DurationMinutes
	if duration == 0 {
		duration = 30
	}

	now := time.Now().UTC()
	a := &Appointment{
		ID:                  id,
		PatientID:           patientID,
		DoctorID:            doctorID,
		AppointmentDateTime: at.UTC(),
		Reason:              req.Reason,
		Status:              StatusScheduled,
		Notes:               req.Notes,
		DurationMinutes:     duration,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	rec, err := outbox.NewRecord(events.TopicAppointmentCreated, events.AppointmentCreatedEvent{
		AppointmentID:       a.ID,
		PatientID:           a.PatientID,
		DoctorID:            a.DoctorID,
		AppointmentDateTime: a.AppointmentDateTime,
		Reason:              a.Reason,
		Status:              a.Status,
		CreatedAt:           a.CreatedAt,
	})
	if err != nil {
		return nil, err
	}

	err = s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Insert(ctx, a); err != nil {
			return err
		}
		return s.outbox.Insert(ctx, rec)
	})
	if err != nil {
		s.logger.Errorf("[appointment %s] create failed: %v", a.ID, err)
		return nil, err
	}

	s.logger.Infof("[appointment %s] created", a.ID)
	return a, nil
}

func (s *ServiceImpl) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ServiceImpl) List(ctx context.Context) ([]*Appointment, error) {
	return s.repo.List(ctx)
}

func (s *ServiceImpl) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *ServiceImpl) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Appointment, error) {
	return s.repo.ListByDoctor(ctx, doctorID)
}

func (s *ServiceImpl) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.AppointmentDateTime != "" {
		at, err := time.Parse(time.RFC3339, req.AppointmentDateTime)
		if err != nil {
			return nil, fmt.Errorf("parse appointmentDateTime: %w", err)
		}
		a.AppointmentDateTime = at.UTC()
	}
	if req.Reason != "" {
		a.Reason = req.Reason
	}
	if req.Notes != "" {
		a.Notes = req.Notes
	}
	if req.DurationMinutes != 0 {
		a.DurationMinutes = req.DurationMinutes
	}

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}

	s.logger.Infof("[appointment %s] updated", id)
	return a, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.logger.Infof("[appointment %s] deleted", id)
	return nil
}

// Complete moves a scheduled appointment to Completed with billing Pending
// and enqueues appointment-completed carrying the consultation fee, all in
// one transaction.
func (s *ServiceImpl) Complete(ctx context.Context, id uuid.UUID, req CompleteRequest) (*Appointment, error) {
	fee, err := common.ParseAmount(req.ConsultationFee)
	if err != nil {
		return nil, err
	}

	var result *Appointment
	err = s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if a.Status != StatusScheduled {
			return appers.ErrAppointmentAlreadyFinal
		}

		completedAt := time.Now().UTC()
		if err := s.repo.SetStatus(ctx, id, StatusCompleted, BillingPending, req.Notes); err != nil {
			return err
		}

		rec, err := outbox.NewRecord(events.TopicAppointmentCompleted, events.AppointmentCompletedEvent{
			AppointmentID:   a.ID,
			PatientID:       a.PatientID,
			DoctorID:        a.DoctorID,
			CompletedAt:     completedAt,
			Notes:           req.Notes,
			ConsultationFee: fee,
		})
		if err != nil {
			return err
		}
		if err := s.outbox.Insert(ctx, rec); err != nil {
			return err
		}

		a.Status = StatusCompleted
		a.BillingStatus = BillingPending
		a.Notes = req.Notes
		a.UpdatedAt = completedAt
		result = a
		return nil
	})
	if err != nil {
		s.logger.Errorf("[appointment %s] complete failed: %v", id, err)
		return nil, err
	}

	s.logger.Infof("[appointment %s] completed", id)
	return result, nil
}

func (s *ServiceImpl) Cancel(ctx context.Context, id uuid.UUID, req CancelRequest) (*Appointment, error) {
	var result *Appointment
	err := s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		a, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if a.Status != StatusScheduled {
			return appers.ErrAppointmentAlreadyFinal
		}

		cancelledAt := time.Now().UTC()
		notes := "Cancelled: " + req.Reason
		if err := s.repo.SetStatus(ctx, id, StatusCancelled, a.BillingStatus, notes); err != nil {
			return err
		}

		rec, err := outbox.NewRecord(events.TopicAppointmentCancelled, events.AppointmentCancelledEvent{
			AppointmentID: a.ID,
			PatientID:     a.PatientID,
			Reason:        req.Reason,
			CancelledAt:   cancelledAt,
		})
		if err != nil {
			return err
		}
		if err := s.outbox.Insert(ctx, rec); err != nil {
			return err
		}

		a.Status = StatusCancelled
		a.Notes = notes
		a.UpdatedAt = cancelledAt
		result = a
		return nil
	})
	if err != nil {
		s.logger.Errorf("[appointment %s] cancel failed: %v", id, err)
		return nil, err
	}

	s.logger.Infof("[appointment %s] cancelled", id)
	return result, nil
}
