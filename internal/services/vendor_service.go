package services

import (
	"context"

	"stockplan/internal/common"
	"stockplan/internal/models"
	"stockplan/internal/repositories"

	"github.com/google/uuid"
)

// VendorService is thin CRUD over the supplier directory.
type VendorService interface {
	CreateVendor(ctx context.Context, vendor *models.Vendor) (*models.Vendor, error)
	GetVendor(ctx context.Context, tenantID, id uuid.UUID) (*models.Vendor, error)
	UpdateVendor(ctx context.Context, vendor *models.Vendor) (*models.Vendor, error)
	DeleteVendor(ctx context.Context, tenantID, id uuid.UUID) error
	ListVendors(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Vendor, error)
}

type vendorService struct {
	vendorRepo repositories.VendorRepository
}

func NewVendorService(vendorRepo repositories.VendorRepository) VendorService {
	return &vendorService{vendorRepo: vendorRepo}
}

func (s *vendorService) CreateVendor(ctx context.Context, vendor *models.Vendor) (*models.Vendor, error) {
	if vendor.Name == "" {
		return nil, common.NewValidationError("name", "name is required")
	}
	if vendor.ID == uuid.Nil {
		vendor.ID = uuid.New()
	}
	vendor.IsActive = true
	if err := s.vendorRepo.Create(ctx, vendor); err != nil {
		return nil, err
	}
	return vendor, nil
}

func (s *vendorService) GetVendor(ctx context.Context, tenantID, id uuid.UUID) (*models.Vendor, error) {
	return s.vendorRepo.GetByID(ctx, tenantID, id)
}

func (s *vendorService) UpdateVendor(ctx context.Context, vendor *models.Vendor) (*models.Vendor, error) {
	if vendor.Name == "" {
		return nil, common.NewValidationError("name", "name is required")
	}
	if _, err := s.vendorRepo.GetByID(ctx, vendor.TenantID, vendor.ID); err != nil {
		return nil, err
	}
	if err := s.vendorRepo.Update(ctx, vendor); err != nil {
		return nil, err
	}
	return vendor, nil
}

func (s *vendorService) DeleteVendor(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.vendorRepo.Delete(ctx, tenantID, id)
}

func (s *vendorService) ListVendors(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Vendor, error) {
	return s.vendorRepo.List(ctx, tenantID, limit, offset)
}
