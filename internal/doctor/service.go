package doctor

import (
	"context"
	"fmt"
	"time"

	"medrec/internal/common"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Doctor, error)
	Get(ctx context.Context, id uuid.UUID) (*Doctor, error)
	List(ctx context.Context) ([]*Doctor, error)
	ListBySpecialization(ctx context.Context, specialization string) ([]*Doctor, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Doctor, error)
	Delete(ctx context.Context, id uuid.UUID) error

	HealthCheck(ctx context.Context) error
}

type ServiceImpl struct {
	repo   Repo
	logger *zap.SugaredLogger
}

func NewService(repo Repo, logger *zap.SugaredLogger) *ServiceImpl {
	return &ServiceImpl{repo: repo, logger: logger}
}

func (s *ServiceImpl) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}

func (s *ServiceImpl) Create(ctx context.Context, req CreateRequest) (*Doctor, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("doctor id: %w", err)
	}

	fee, err := common.ParseAmount(req.ConsultationFee)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	d := &Doctor{
		ID:              id,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Specialization:  req.Specialization,
		Qualification:   req.Qualification,
		Phone:           req.Phone,
		Email:           req.Email,
		ConsultationFee: fee,
		ExperienceYears: req.ExperienceYears,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Insert(ctx, d); err != nil {
		return nil, err
	}

	s.logger.Infof("[doctor %s] created", d.ID)
	return d, nil
}

func (s *ServiceImpl) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ServiceImpl) List(ctx context.Context) ([]*Doctor, error) {
	return s.repo.List(ctx)
}

func (s *ServiceImpl) ListBySpecialization(ctx context.Context, specialization string) ([]*Doctor, error) {
	return s.repo.ListBySpecialization(ctx, specialization)
}

func (s *ServiceImpl) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Doctor, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != "" {
		d.FirstName = req.FirstName
	}
	if req.LastName != "" {
		d.LastName = req.LastName
	}
	if req.Specialization != "" {
		d.Specialization = req.Specialization
	}
	if req.Qualification != "" {
		d.Qualification = req.Qualification
	}
	if req.Phone != "" {
		d.Phone = req.Phone
	}
	if req.Email != "" {
		d.Email = req.Email
	}
	if req.ConsultationFee != "" {
		fee, err := common.ParseAmount(req.ConsultationFee)
		if err != nil {
			return nil, err
		}
		d.ConsultationFee = fee
	}
	if req.ExperienceYears != 0 {
		d.ExperienceYears = req.ExperienceYears
	}

	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}

	s.logger.Infof("[doctor %s] updated", id)
	return d, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.logger.Infof("[doctor %s] deleted", id)
	return nil
}
