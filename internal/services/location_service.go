package services

import (
	"context"
	"fmt"

	"stockplan/internal/common"
	"stockplan/internal/models"
	"stockplan/internal/repositories"

	"github.com/google/uuid"
)

// maxHierarchyDepth caps the ancestor walk so a corrupted parent chain
// cannot loop forever.
const maxHierarchyDepth = 32

// LocationService manages the warehouse/zone/bin hierarchy.
type LocationService interface {
	CreateLocation(ctx context.Context, location *models.StorageLocation) (*models.StorageLocation, error)
	UpdateLocation(ctx context.Context, location *models.StorageLocation) (*models.StorageLocation, error)
	GetLocation(ctx context.Context, tenantID, id uuid.UUID) (*models.StorageLocation, error)
	ListLocations(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.StorageLocation, error)
	ListChildren(ctx context.Context, tenantID, parentID uuid.UUID) ([]*models.StorageLocation, error)
	DeleteLocation(ctx context.Context, tenantID, id uuid.UUID) error
	ComputeUtilization(ctx context.Context, tenantID, id uuid.UUID) (*models.LocationUtilization, error)
}

type locationService struct {
	locationRepo repositories.LocationRepository
	lotRepo      repositories.LotRepository
}

func NewLocationService(locationRepo repositories.LocationRepository, lotRepo repositories.LotRepository) LocationService {
	return &locationService{locationRepo: locationRepo, lotRepo: lotRepo}
}

func (s *locationService) CreateLocation(ctx context.Context, location *models.StorageLocation) (*models.StorageLocation, error) {
	if err := location.Validate(); err != nil {
		return nil, err
	}
	if location.ID == uuid.Nil {
		location.ID = uuid.New()
	}

	if location.ParentID != nil {
		if err := s.checkPlacement(ctx, location); err != nil {
			return nil, err
		}
	}

	if err := s.locationRepo.Create(ctx, location); err != nil {
		return nil, err
	}
	return location, nil
}

func (s *locationService) UpdateLocation(ctx context.Context, location *models.StorageLocation) (*models.StorageLocation, error) {
	if err := location.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.locationRepo.GetByID(ctx, location.TenantID, location.ID); err != nil {
		return nil, err
	}
	if location.ParentID != nil {
		if err := s.checkPlacement(ctx, location); err != nil {
			return nil, err
		}
	}
	if err := s.locationRepo.Update(ctx, location); err != nil {
		return nil, err
	}
	return location, nil
}

func (s *locationService) GetLocation(ctx context.Context, tenantID, id uuid.UUID) (*models.StorageLocation, error) {
	return s.locationRepo.GetByID(ctx, tenantID, id)
}

func (s *locationService) ListLocations(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.StorageLocation, error) {
	return s.locationRepo.List(ctx, tenantID, limit, offset)
}

func (s *locationService) ListChildren(ctx context.Context, tenantID, parentID uuid.UUID) ([]*models.StorageLocation, error) {
	return s.locationRepo.ListChildren(ctx, tenantID, parentID)
}

func (s *locationService) DeleteLocation(ctx context.Context, tenantID, id uuid.UUID) error {
	children, err := s.locationRepo.ListChildren(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		return &common.HierarchyViolationError{Message: "location still has child locations"}
	}
	return s.locationRepo.Delete(ctx, tenantID, id)
}

// ComputeUtilization sums remaining lot quantity over the location's
// whole subtree and divides by the location's capacity.
func (s *locationService) ComputeUtilization(ctx context.Context, tenantID, id uuid.UUID) (*models.LocationUtilization, error) {
	location, err := s.locationRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if location.Capacity == nil || !location.Capacity.IsPositive() {
		return nil, common.NewValidationError("capacity", "location has no capacity defined")
	}

	subtree, err := s.locationRepo.DescendantIDs(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	consumed, err := s.lotRepo.SumRemainingByLocations(ctx, tenantID, subtree)
	if err != nil {
		return nil, err
	}

	return &models.LocationUtilization{
		LocationID: id,
		Capacity:   *location.Capacity,
		Consumed:   consumed,
		Ratio:      consumed.Div(*location.Capacity),
	}, nil
}

// checkPlacement validates type compatibility with the parent and walks
// the ancestor chain to reject cycles.
func (s *locationService) checkPlacement(ctx context.Context, location *models.StorageLocation) error {
	parent, err := s.locationRepo.GetByID(ctx, location.TenantID, *location.ParentID)
	if err != nil {
		return err
	}
	if !parent.LocationType.CanContain(location.LocationType) {
		return &common.HierarchyViolationError{
			Message: fmt.Sprintf("a %s cannot contain a %s", parent.LocationType, location.LocationType),
		}
	}

	cursor := parent
	for depth := 0; depth < maxHierarchyDepth; depth++ {
		if cursor.ID == location.ID {
			return &common.HierarchyViolationError{Message: "location cannot be its own ancestor"}
		}
		if cursor.ParentID == nil {
			return nil
		}
		cursor, err = s.locationRepo.GetByID(ctx, location.TenantID, *cursor.ParentID)
		if err != nil {
			return err
		}
	}
	return &common.HierarchyViolationError{Message: "location hierarchy too deep"}
}
