package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Patient, error)
	Get(ctx context.Context, id uuid.UUID) (*Patient, error)
	List(ctx context.Context) ([]*Patient, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Patient, error)
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

func (s *ServiceImpl) Create(ctx context.Context, req CreateRequest) (*Patient, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("patient id: %w", err)
	}

	dob, err := time.Parse(time.RFC3339, req.DateOfBirth)
	if err != nil {
		return nil, fmt.Errorf("parse dateOfBirth: %w", err)
	}

	now := time.Now().UTC()
	p := &Patient{
		ID:          id,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: dob.UTC(),
		Gender:      req.Gender,
		Phone:       req.Phone,
		Email:       req.Email,
		Address:     req.Address,
		BloodGroup:  req.BloodGroup,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Infof("[patient %s] created", p.ID)
	return p, nil
}

func (s *ServiceImpl) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ServiceImpl) List(ctx context.Context) ([]*Patient, error) {
	return s.repo.List(ctx)
}

func (s *ServiceImpl) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != "" {
		p.FirstName = req.FirstName
	}
	if req.LastName != "" {
		p.LastName = req.LastName
	}
	if req.Phone != "" {
		p.Phone = req.Phone
	}
	if req.Email != "" {
		p.Email = req.Email
	}
	if req.Address != "" {
		p.Address = req.Address
	}
	if req.BloodGroup != "" {
		p.BloodGroup = req.BloodGroup
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Infof("[patient %s] updated", id)
	return p, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.logger.Infof("[patient %s] deleted", id)
	return nil
}
