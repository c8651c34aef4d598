package services

import (
	"context"

	"stockplan/internal/models"
	"stockplan/internal/repositories"

	"github.com/google/uuid"
)

// DemandService maintains the gross-demand book that planning runs
// consume.
type DemandService interface {
	CreateDemand(ctx context.Context, demand *models.DemandRecord) (*models.DemandRecord, error)
	GetDemand(ctx context.Context, tenantID, id uuid.UUID) (*models.DemandRecord, error)
	ListDemands(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.DemandRecord, error)
	DeleteDemand(ctx context.Context, tenantID, id uuid.UUID) error
}

type demandService struct {
	demandRepo   repositories.DemandRepository
	materialRepo repositories.MaterialRepository
}

func NewDemandService(demandRepo repositories.DemandRepository, materialRepo repositories.MaterialRepository) DemandService {
	return &demandService{demandRepo: demandRepo, materialRepo: materialRepo}
}

func (s *demandService) CreateDemand(ctx context.Context, demand *models.DemandRecord) (*models.DemandRecord, error) {
	if err := demand.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.materialRepo.GetByID(ctx, demand.TenantID, demand.MaterialID); err != nil {
		return nil, err
	}
	if demand.ID == uuid.Nil {
		demand.ID = uuid.New()
	}
	if err := s.demandRepo.Create(ctx, demand); err != nil {
		return nil, err
	}
	return demand, nil
}

func (s *demandService) GetDemand(ctx context.Context, tenantID, id uuid.UUID) (*models.DemandRecord, error) {
	return s.demandRepo.GetByID(ctx, tenantID, id)
}

func (s *demandService) ListDemands(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.DemandRecord, error) {
	return s.demandRepo.List(ctx, tenantID, limit, offset)
}

func (s *demandService) DeleteDemand(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.demandRepo.Delete(ctx, tenantID, id)
}
