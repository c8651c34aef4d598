package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"stockplan/internal/common"
	"stockplan/internal/models"
	"stockplan/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// consumeAttempts bounds the automatic retry of the read-check-write
// sequence when two callers race on the same lot.
const consumeAttempts = 2

// ReceiveLotInput is the boundary payload for receiving stock into a
// new lot.
type ReceiveLotInput struct {
	MaterialID        uuid.UUID
	BatchNumber       string
	Quantity          decimal.Decimal
	UnitCost          decimal.Decimal
	LocationID        *uuid.UUID
	VendorID          *uuid.UUID
	ParentLotID       *uuid.UUID
	ManufacturingDate *time.Time
	ExpirationDate    *time.Time
	ReceivedDate      time.Time
}

// LotService tracks physical inventory units and enforces the
// consumption/quarantine lifecycle.
//
// Reservation semantics: a reservation is a hold, not a consumption.
// Reserve never decrements remaining quantity; it raises the lot's
// reserved quantity, and the lot status flips to reserved only when the
// whole remaining quantity is held. Partially held lots stay available.
type LotService interface {
	ReceiveLot(ctx context.Context, tenantID uuid.UUID, input *ReceiveLotInput) (*models.BatchLot, error)
	GetLot(ctx context.Context, tenantID, id uuid.UUID) (*models.BatchLot, error)
	ListLots(ctx context.Context, tenantID, materialID uuid.UUID, limit, offset int) ([]*models.BatchLot, error)
	Reserve(ctx context.Context, tenantID, lotID uuid.UUID, quantity decimal.Decimal) (*models.BatchLot, error)
	Consume(ctx context.Context, tenantID, lotID uuid.UUID, quantity decimal.Decimal) (*models.BatchLot, error)
	Quarantine(ctx context.Context, tenantID, lotID uuid.UUID, reason string) (*models.BatchLot, error)
	Release(ctx context.Context, tenantID, lotID uuid.UUID) (*models.BatchLot, error)
	Reject(ctx context.Context, tenantID, lotID uuid.UUID, reason string) (*models.BatchLot, error)
	Recall(ctx context.Context, tenantID, lotID uuid.UUID) (*models.BatchLot, error)
	SelectLotsForConsumption(ctx context.Context, tenantID, materialID uuid.UUID, quantity decimal.Decimal, policy models.AllocationPolicy) ([]*models.LotAllocation, error)
}

type lotService struct {
	db           repositories.Database
	lotRepo      repositories.LotRepository
	materialRepo repositories.MaterialRepository
	valuationSvc ValuationService
}

func NewLotService(db repositories.Database, lotRepo repositories.LotRepository,
	materialRepo repositories.MaterialRepository, valuationSvc ValuationService) LotService {
	return &lotService{
		db:           db,
		lotRepo:      lotRepo,
		materialRepo: materialRepo,
		valuationSvc: valuationSvc,
	}
}

func (s *lotService) ReceiveLot(ctx context.Context, tenantID uuid.UUID, input *ReceiveLotInput) (*models.BatchLot, error) {
	if !input.Quantity.IsPositive() {
		return nil, common.NewValidationError("quantity", "quantity must be > 0")
	}
	if input.UnitCost.IsNegative() {
		return nil, common.NewValidationError("unit_cost", "unit cost must be >= 0")
	}

	material, err := s.materialRepo.GetByID(ctx, tenantID, input.MaterialID)
	if err != nil {
		return nil, err
	}

	received := input.ReceivedDate
	if received.IsZero() {
		received = time.Now()
	}

	expiration := input.ExpirationDate
	if expiration == nil && material.ShelfLifeDays != nil {
		e := received.AddDate(0, 0, *material.ShelfLifeDays)
		expiration = &e
	}

	batchNumber := input.BatchNumber
	if batchNumber == "" {
		batchNumber = fmt.Sprintf("%s-%d", material.Code, received.UnixNano())
	}

	lot := &models.BatchLot{
		ID:                uuid.New(),
		TenantID:          tenantID,
		BatchNumber:       batchNumber,
		MaterialID:        material.ID,
		Quantity:          input.Quantity,
		RemainingQuantity: input.Quantity,
		ReservedQuantity:  decimal.Zero,
		UnitOfMeasure:     material.UnitOfMeasure,
		Status:            models.LotAvailable,
		ManufacturingDate: input.ManufacturingDate,
		ExpirationDate:    expiration,
		ReceivedDate:      received,
		UnitCost:          input.UnitCost,
		LocationID:        input.LocationID,
		VendorID:          input.VendorID,
		ParentLotID:       input.ParentLotID,
	}
	if lot.LocationID == nil {
		lot.LocationID = material.DefaultLocationID
	}
	if err := lot.Validate(); err != nil {
		return nil, err
	}

	if err := s.lotRepo.Create(ctx, lot); err != nil {
		return nil, err
	}

	if material.DefaultValuation == models.ValuationMovingAverage {
		if err := s.valuationSvc.ApplyReceipt(ctx, tenantID, material, lot); err != nil {
			return nil, err
		}
	}

	return lot, nil
}

func (s *lotService) GetLot(ctx context.Context, tenantID, id uuid.UUID) (*models.BatchLot, error) {
	lot, err := s.lotRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	// Surface the time-driven expiry override to callers.
	lot.Status = lot.EffectiveStatus(time.Now())
	return lot, nil
}

func (s *lotService) ListLots(ctx context.Context, tenantID, materialID uuid.UUID, limit, offset int) ([]*models.BatchLot, error) {
	lots, err := s.lotRepo.ListByMaterial(ctx, tenantID, materialID, limit, offset)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for _, lot := range lots {
		lot.Status = lot.EffectiveStatus(now)
	}
	return lots, nil
}

// Reserve places a hold on part or all of a lot's remaining quantity.
func (s *lotService) Reserve(ctx context.Context, tenantID, lotID uuid.UUID, quantity decimal.Decimal) (*models.BatchLot, error) {
	if !quantity.IsPositive() {
		return nil, common.NewValidationError("quantity", "quantity must be > 0")
	}
	return s.withLockedLot(ctx, tenantID, lotID, func(lot *models.BatchLot) error {
		status := lot.EffectiveStatus(time.Now())
		if status != models.LotAvailable {
			return &common.InvalidStateTransitionError{From: status.String(), To: models.LotReserved.String()}
		}
		unheld := lot.RemainingQuantity.Sub(lot.ReservedQuantity)
		if quantity.GreaterThan(unheld) {
			return &common.InsufficientQuantityError{Requested: quantity, Available: unheld}
		}
		lot.ReservedQuantity = lot.ReservedQuantity.Add(quantity)
		if lot.ReservedQuantity.Equal(lot.RemainingQuantity) {
			lot.Status = models.LotReserved
		}
		return nil
	})
}

// Consume decrements a lot's remaining quantity inside a row-locked
// transaction, retrying the whole read-check-write once if the store
// reports a serialization conflict.
func (s *lotService) Consume(ctx context.Context, tenantID, lotID uuid.UUID, quantity decimal.Decimal) (*models.BatchLot, error) {
	if !quantity.IsPositive() {
		return nil, common.NewValidationError("quantity", "quantity must be > 0")
	}

	var lot *models.BatchLot
	var err error
	for attempt := 0; attempt < consumeAttempts; attempt++ {
		lot, err = s.withLockedLot(ctx, tenantID, lotID, func(l *models.BatchLot) error {
			status := l.EffectiveStatus(time.Now())
			if status != models.LotAvailable && status != models.LotReserved {
				return &common.InvalidStateTransitionError{From: status.String(), To: models.LotConsumed.String()}
			}
			if quantity.GreaterThan(l.RemainingQuantity) {
				return &common.InsufficientQuantityError{Requested: quantity, Available: l.RemainingQuantity}
			}
			l.RemainingQuantity = l.RemainingQuantity.Sub(quantity)
			l.ReservedQuantity = decimal.Min(l.ReservedQuantity, l.RemainingQuantity)
			if l.RemainingQuantity.IsZero() {
				l.Status = models.LotConsumed
			}
			return nil
		})
		if err == nil || !isSerializationConflict(err) {
			return lot, err
		}
		log.Printf("consume conflict on lot %s, retrying (attempt %d)", lotID.String(), attempt+1)
	}
	return nil, err
}

func (s *lotService) Quarantine(ctx context.Context, tenantID, lotID uuid.UUID, reason string) (*models.BatchLot, error) {
	return s.transition(ctx, tenantID, lotID, models.LotQuarantine, &reason)
}

func (s *lotService) Release(ctx context.Context, tenantID, lotID uuid.UUID) (*models.BatchLot, error) {
	return s.transition(ctx, tenantID, lotID, models.LotAvailable, nil)
}

func (s *lotService) Reject(ctx context.Context, tenantID, lotID uuid.UUID, reason string) (*models.BatchLot, error) {
	return s.transition(ctx, tenantID, lotID, models.LotRejected, &reason)
}

func (s *lotService) Recall(ctx context.Context, tenantID, lotID uuid.UUID) (*models.BatchLot, error) {
	return s.transition(ctx, tenantID, lotID, models.LotRecalled, nil)
}

func (s *lotService) transition(ctx context.Context, tenantID, lotID uuid.UUID, next models.LotStatus, reason *string) (*models.BatchLot, error) {
	lot, err := s.lotRepo.GetByID(ctx, tenantID, lotID)
	if err != nil {
		return nil, err
	}

	current := lot.EffectiveStatus(time.Now())
	if !current.CanTransitionTo(next) {
		return nil, &common.InvalidStateTransitionError{From: current.String(), To: next.String()}
	}

	lot.Status = next
	if reason != nil {
		lot.QualityStatus = reason
	}
	if err := s.lotRepo.Update(ctx, lot); err != nil {
		return nil, err
	}
	return lot, nil
}

// SelectLotsForConsumption builds an ordered allocation plan over
// available, unexpired lots. Held quantities are not allocatable.
func (s *lotService) SelectLotsForConsumption(ctx context.Context, tenantID, materialID uuid.UUID, quantity decimal.Decimal, policy models.AllocationPolicy) ([]*models.LotAllocation, error) {
	if !quantity.IsPositive() {
		return nil, common.NewValidationError("quantity", "quantity must be > 0")
	}
	if !policy.IsValid() {
		return nil, common.NewValidationError("policy", "unknown allocation policy")
	}

	now := time.Now()
	lots, err := s.lotRepo.ListEligible(ctx, tenantID, materialID, policy, now)
	if err != nil {
		return nil, err
	}

	var allocations []*models.LotAllocation
	remaining := quantity
	available := decimal.Zero
	for _, lot := range lots {
		if lot.IsExpired(now) {
			continue
		}
		allocatable := lot.RemainingQuantity.Sub(lot.ReservedQuantity)
		if !allocatable.IsPositive() {
			continue
		}
		available = available.Add(allocatable)
		if remaining.IsPositive() {
			alloc := decimal.Min(allocatable, remaining)
			allocations = append(allocations, &models.LotAllocation{Lot: lot, AllocatedQuantity: alloc})
			remaining = remaining.Sub(alloc)
		}
	}

	if remaining.IsPositive() {
		return nil, &common.InsufficientStockError{
			MaterialID: materialID.String(),
			Requested:  quantity,
			Available:  available,
		}
	}
	return allocations, nil
}

// withLockedLot runs fn against a FOR UPDATE copy of the lot inside a
// transaction and persists the mutated quantities on success.
func (s *lotService) withLockedLot(ctx context.Context, tenantID, lotID uuid.UUID, fn func(*models.BatchLot) error) (*models.BatchLot, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	lot, err := s.lotRepo.GetForUpdateTx(ctx, tx, tenantID, lotID)
	if err != nil {
		return nil, err
	}
	if err := fn(lot); err != nil {
		return nil, err
	}
	if err := s.lotRepo.UpdateQuantitiesTx(ctx, tx, lot); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return lot, nil
}

func isSerializationConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
