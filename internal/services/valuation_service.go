package services

import (
	"context"
	"errors"
	"log"
	"time"

	"stockplan/internal/caching"
	"stockplan/internal/common"
	"stockplan/internal/models"
	"stockplan/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultCurrency = "USD"

// ValuationService computes and stores the current value of a material's
// on-hand inventory under a chosen costing method.
type ValuationService interface {
	RecordValuation(ctx context.Context, tenantID, materialID uuid.UUID, method models.ValuationMethod, asOf time.Time, batchLotID *uuid.UUID) (*models.MaterialValuation, error)
	GetCurrentValue(ctx context.Context, tenantID, materialID uuid.UUID, method models.ValuationMethod) (*models.MaterialValuation, error)
	ApplyReceipt(ctx context.Context, tenantID uuid.UUID, material *models.Material, lot *models.BatchLot) error
	ListValuations(ctx context.Context, tenantID, materialID uuid.UUID, limit, offset int) ([]*models.MaterialValuation, error)
}

type valuationService struct {
	valuationRepo repositories.ValuationRepository
	materialRepo  repositories.MaterialRepository
	lotRepo       repositories.LotRepository
	cacheService  caching.CacheService
}

func NewValuationService(valuationRepo repositories.ValuationRepository, materialRepo repositories.MaterialRepository,
	lotRepo repositories.LotRepository, cacheService caching.CacheService) ValuationService {
	return &valuationService{
		valuationRepo: valuationRepo,
		materialRepo:  materialRepo,
		lotRepo:       lotRepo,
		cacheService:  cacheService,
	}
}

// RecordValuation computes unit value under the method as of the given
// date, deactivates the prior active record for the (material, method)
// pair and persists a new active one.
func (s *valuationService) RecordValuation(ctx context.Context, tenantID, materialID uuid.UUID, method models.ValuationMethod, asOf time.Time, batchLotID *uuid.UUID) (*models.MaterialValuation, error) {
	if !method.IsValid() {
		return nil, common.NewValidationError("method", "unknown valuation method")
	}

	material, err := s.materialRepo.GetByID(ctx, tenantID, materialID)
	if err != nil {
		return nil, err
	}

	valuation := &models.MaterialValuation{
		ID:            uuid.New(),
		TenantID:      tenantID,
		MaterialID:    materialID,
		Method:        method,
		ValuationDate: asOf,
		Currency:      defaultCurrency,
		IsActive:      true,
	}

	switch method {
	case models.ValuationFIFO, models.ValuationLIFO:
		unit, basis, err := s.layeredValue(ctx, tenantID, materialID, method)
		if err != nil {
			return nil, err
		}
		valuation.UnitValue = unit
		valuation.QuantityBasis = basis

	case models.ValuationMovingAverage:
		unit, basis, err := s.averageOfReceipts(ctx, tenantID, material)
		if err != nil {
			return nil, err
		}
		valuation.UnitValue = unit
		valuation.QuantityBasis = basis

	case models.ValuationStandardCost:
		basis := decimal.Zero
		lots, err := s.lotRepo.ListWithRemaining(ctx, tenantID, materialID)
		if err != nil {
			return nil, err
		}
		var latest *models.BatchLot
		for _, lot := range lots {
			basis = basis.Add(lot.RemainingQuantity)
			if latest == nil || lot.ReceivedDate.After(latest.ReceivedDate) {
				latest = lot
			}
		}
		valuation.UnitValue = material.StandardPrice
		valuation.QuantityBasis = basis
		// Variance against actual receipt cost is recorded but does not
		// alter the unit value.
		if latest != nil && !latest.UnitCost.Equal(material.StandardPrice) {
			log.Printf("standard cost variance for material %s: standard %s, latest receipt %s",
				material.Code, material.StandardPrice.String(), latest.UnitCost.String())
		}

	case models.ValuationBatchSpecific:
		if batchLotID == nil {
			return nil, common.NewValidationError("batch_lot_id", "batch lot id is required for batch-specific valuation")
		}
		lot, err := s.lotRepo.GetByID(ctx, tenantID, *batchLotID)
		if err != nil {
			var notFound *common.NotFoundError
			if errors.As(err, &notFound) {
				return nil, &common.InsufficientDataError{Message: "batch-specific valuation requires an existing lot"}
			}
			return nil, err
		}
		valuation.UnitValue = lot.UnitCost
		valuation.QuantityBasis = lot.RemainingQuantity
		valuation.BatchLotID = &lot.ID
	}

	valuation.TotalValue = valuation.UnitValue.Mul(valuation.QuantityBasis)

	if !method.IsBatchSpecific() {
		if err := s.valuationRepo.DeactivateActive(ctx, tenantID, materialID, method); err != nil {
			return nil, err
		}
	}
	if err := s.valuationRepo.Create(ctx, valuation); err != nil {
		return nil, err
	}

	if cacheErr := s.cacheService.DeleteValuation(ctx, tenantID, materialID, method); cacheErr != nil {
		log.Printf("Failed to invalidate valuation cache for material %s: %v", materialID.String(), cacheErr)
	}

	return valuation, nil
}

// layeredValue walks unconsumed lots in receipt order until the on-hand
// quantity is covered, weighting each layer by its remaining quantity.
func (s *valuationService) layeredValue(ctx context.Context, tenantID, materialID uuid.UUID, method models.ValuationMethod) (decimal.Decimal, decimal.Decimal, error) {
	lots, err := s.lotRepo.ListWithRemaining(ctx, tenantID, materialID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if len(lots) == 0 {
		return decimal.Zero, decimal.Zero, &common.InsufficientDataError{
			Message: method.String() + " valuation requires at least one unconsumed lot",
		}
	}

	// ListWithRemaining returns oldest receipt first; LIFO walks the
	// layers newest first.
	if method == models.ValuationLIFO {
		for i, j := 0, len(lots)-1; i < j; i, j = i+1, j-1 {
			lots[i], lots[j] = lots[j], lots[i]
		}
	}

	onHand := decimal.Zero
	for _, lot := range lots {
		onHand = onHand.Add(lot.RemainingQuantity)
	}

	needed := onHand
	totalCost := decimal.Zero
	for _, lot := range lots {
		if !needed.IsPositive() {
			break
		}
		alloc := decimal.Min(lot.RemainingQuantity, needed)
		totalCost = totalCost.Add(alloc.Mul(lot.UnitCost))
		needed = needed.Sub(alloc)
	}

	return totalCost.Div(onHand), onHand, nil
}

// averageOfReceipts recomputes the running weighted average over every
// receipt to date. With no receipts the standard price stands in with a
// zero quantity basis.
func (s *valuationService) averageOfReceipts(ctx context.Context, tenantID uuid.UUID, material *models.Material) (decimal.Decimal, decimal.Decimal, error) {
	totalCost, totalQty, err := s.lotRepo.ReceiptTotals(ctx, tenantID, material.ID)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if totalQty.IsZero() {
		return material.StandardPrice, decimal.Zero, nil
	}
	return totalCost.Div(totalQty), totalQty, nil
}

// ApplyReceipt folds one new receipt into the running moving average:
// newAvg = (oldAvg*oldQty + receiptCost*receiptQty) / (oldQty + receiptQty).
func (s *valuationService) ApplyReceipt(ctx context.Context, tenantID uuid.UUID, material *models.Material, lot *models.BatchLot) error {
	prior, err := s.valuationRepo.GetActive(ctx, tenantID, material.ID, models.ValuationMovingAverage)
	var notFound *common.NotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return err
	}

	oldAvg := decimal.Zero
	oldQty := decimal.Zero
	if prior != nil {
		oldAvg = prior.UnitValue
		oldQty = prior.QuantityBasis
	}

	newQty := oldQty.Add(lot.Quantity)
	newAvg := oldAvg.Mul(oldQty).Add(lot.UnitCost.Mul(lot.Quantity)).Div(newQty)

	valuation := &models.MaterialValuation{
		ID:            uuid.New(),
		TenantID:      tenantID,
		MaterialID:    material.ID,
		Method:        models.ValuationMovingAverage,
		ValuationDate: lot.ReceivedDate,
		UnitValue:     newAvg,
		TotalValue:    newAvg.Mul(newQty),
		QuantityBasis: newQty,
		Currency:      defaultCurrency,
		IsActive:      true,
	}

	if err := s.valuationRepo.DeactivateActive(ctx, tenantID, material.ID, models.ValuationMovingAverage); err != nil {
		return err
	}
	if err := s.valuationRepo.Create(ctx, valuation); err != nil {
		return err
	}

	if cacheErr := s.cacheService.DeleteValuation(ctx, tenantID, material.ID, models.ValuationMovingAverage); cacheErr != nil {
		log.Printf("Failed to invalidate valuation cache for material %s: %v", material.ID.String(), cacheErr)
	}
	return nil
}

// GetCurrentValue returns the latest active valuation for the pair,
// consulting the cache first.
func (s *valuationService) GetCurrentValue(ctx context.Context, tenantID, materialID uuid.UUID, method models.ValuationMethod) (*models.MaterialValuation, error) {
	if cached, err := s.cacheService.GetValuation(ctx, tenantID, materialID, method); cached != nil {
		return cached, nil
	} else if err != nil {
		// Cache errors fall through to the database.
		log.Printf("Valuation cache error for material %s: %v", materialID.String(), err)
	}

	valuation, err := s.valuationRepo.GetActive(ctx, tenantID, materialID, method)
	if err != nil {
		return nil, err
	}

	if cacheErr := s.cacheService.SetValuation(ctx, tenantID, valuation, 5*time.Minute); cacheErr != nil {
		log.Printf("Failed to cache valuation for material %s: %v", materialID.String(), cacheErr)
	}
	return valuation, nil
}

func (s *valuationService) ListValuations(ctx context.Context, tenantID, materialID uuid.UUID, limit, offset int) ([]*models.MaterialValuation, error) {
	return s.valuationRepo.ListByMaterial(ctx, tenantID, materialID, limit, offset)
}
