package services

import (
	"context"
	"errors"

	"stockplan/internal/common"
	"stockplan/internal/models"
	"stockplan/internal/repositories"

	"github.com/google/uuid"
)

// CatalogService maintains the authoritative per-material planning
// parameters.
type CatalogService interface {
	UpsertMaterial(ctx context.Context, tenantID uuid.UUID, material *models.Material) (*models.Material, error)
	GetMaterial(ctx context.Context, tenantID, id uuid.UUID) (*models.Material, error)
	GetMaterialByCode(ctx context.Context, tenantID uuid.UUID, code string) (*models.Material, error)
	DeleteMaterial(ctx context.Context, tenantID, id uuid.UUID) error
	ListMaterials(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Material, error)
	SearchMaterials(ctx context.Context, tenantID uuid.UUID, filter *models.MaterialSearchFilter) ([]*models.Material, error)
}

type catalogService struct {
	materialRepo repositories.MaterialRepository
	locationRepo repositories.LocationRepository
}

func NewCatalogService(materialRepo repositories.MaterialRepository, locationRepo repositories.LocationRepository) CatalogService {
	return &catalogService{
		materialRepo: materialRepo,
		locationRepo: locationRepo,
	}
}

// UpsertMaterial validates the fields and creates or updates the
// material. A code already used by a different material is a validation
// failure.
func (s *catalogService) UpsertMaterial(ctx context.Context, tenantID uuid.UUID, material *models.Material) (*models.Material, error) {
	material.TenantID = tenantID
	if err := material.Validate(); err != nil {
		return nil, err
	}

	if material.DefaultLocationID != nil {
		if _, err := s.locationRepo.GetByID(ctx, tenantID, *material.DefaultLocationID); err != nil {
			return nil, err
		}
	}

	existing, err := s.materialRepo.GetByCode(ctx, tenantID, material.Code)
	var notFound *common.NotFoundError
	switch {
	case err == nil:
		if material.ID != uuid.Nil && material.ID != existing.ID {
			return nil, common.NewValidationError("code", "code is already in use by another material")
		}
		material.ID = existing.ID
		material.CreatedAt = existing.CreatedAt
		if err := s.materialRepo.Update(ctx, material); err != nil {
			return nil, err
		}
	case errors.As(err, &notFound):
		if material.ID == uuid.Nil {
			material.ID = uuid.New()
		}
		if err := s.materialRepo.Create(ctx, material); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	return s.materialRepo.GetByID(ctx, tenantID, material.ID)
}

func (s *catalogService) GetMaterial(ctx context.Context, tenantID, id uuid.UUID) (*models.Material, error) {
	return s.materialRepo.GetByID(ctx, tenantID, id)
}

func (s *catalogService) GetMaterialByCode(ctx context.Context, tenantID uuid.UUID, code string) (*models.Material, error) {
	return s.materialRepo.GetByCode(ctx, tenantID, code)
}

func (s *catalogService) DeleteMaterial(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.materialRepo.Delete(ctx, tenantID, id)
}

func (s *catalogService) ListMaterials(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Material, error) {
	return s.materialRepo.List(ctx, tenantID, limit, offset)
}

func (s *catalogService) SearchMaterials(ctx context.Context, tenantID uuid.UUID, filter *models.MaterialSearchFilter) ([]*models.Material, error) {
	return s.materialRepo.Search(ctx, tenantID, filter)
}
