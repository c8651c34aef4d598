package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stockplan/internal/common"
)

// LotStatus is the lifecycle state of a batch lot.
type LotStatus string

const (
	LotAvailable  LotStatus = "available"
	LotReserved   LotStatus = "reserved"
	LotOnHold     LotStatus = "on_hold"
	LotInQA       LotStatus = "in_qa"
	LotRejected   LotStatus = "rejected"
	LotConsumed   LotStatus = "consumed"
	LotExpired    LotStatus = "expired"
	LotQuarantine LotStatus = "quarantine"
	LotRecalled   LotStatus = "recalled"
)

// IsValid checks if the status is a known lifecycle state.
func (s LotStatus) IsValid() bool {
	switch s {
	case LotAvailable, LotReserved, LotOnHold, LotInQA, LotRejected,
		LotConsumed, LotExpired, LotQuarantine, LotRecalled:
		return true
	default:
		return false
	}
}

func (s LotStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transitions are permitted.
func (s LotStatus) IsTerminal() bool {
	switch s {
	case LotConsumed, LotRejected, LotExpired, LotRecalled:
		return true
	default:
		return false
	}
}

// lotTransitions encodes the permitted lifecycle edges. Expired is a
// time-driven transition applied by the sweep or the read-time override;
// Recalled is reachable from any non-terminal state.
var lotTransitions = map[LotStatus][]LotStatus{
	LotAvailable:  {LotReserved, LotConsumed, LotOnHold, LotQuarantine, LotInQA, LotExpired, LotRecalled},
	LotReserved:   {LotAvailable, LotConsumed, LotExpired, LotRecalled},
	LotOnHold:     {LotAvailable, LotRejected, LotRecalled},
	LotQuarantine: {LotAvailable, LotRejected, LotRecalled},
	LotInQA:       {LotAvailable, LotRejected, LotRecalled},
}

// CanTransitionTo reports whether the lifecycle permits moving to next.
func (s LotStatus) CanTransitionTo(next LotStatus) bool {
	if s.IsTerminal() {
		return false
	}
	for _, t := range lotTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// AllocationPolicy orders lots for consumption.
type AllocationPolicy string

const (
	PolicyFIFO AllocationPolicy = "fifo"
	PolicyLIFO AllocationPolicy = "lifo"
	PolicyFEFO AllocationPolicy = "fefo"
)

// IsValid checks if the policy is a known consumption ordering.
func (p AllocationPolicy) IsValid() bool {
	switch p {
	case PolicyFIFO, PolicyLIFO, PolicyFEFO:
		return true
	default:
		return false
	}
}

// BatchLot is a traceable quantity of material received or produced
// together, sharing a cost and expiration.
type BatchLot struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	TenantID          uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	BatchNumber       string          `json:"batch_number" db:"batch_number"`
	MaterialID        uuid.UUID       `json:"material_id" db:"material_id"`
	Quantity          decimal.Decimal `json:"quantity" db:"quantity"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity" db:"remaining_quantity"`
	ReservedQuantity  decimal.Decimal `json:"reserved_quantity" db:"reserved_quantity"`
	UnitOfMeasure     string          `json:"unit_of_measure" db:"unit_of_measure"`
	Status            LotStatus       `json:"status" db:"status"`
	QualityStatus     *string         `json:"quality_status" db:"quality_status"`
	ManufacturingDate *time.Time      `json:"manufacturing_date" db:"manufacturing_date"`
	ExpirationDate    *time.Time      `json:"expiration_date" db:"expiration_date"`
	ReceivedDate      time.Time       `json:"received_date" db:"received_date"`
	UnitCost          decimal.Decimal `json:"unit_cost" db:"unit_cost"`
	LocationID        *uuid.UUID      `json:"location_id" db:"location_id"`
	VendorID          *uuid.UUID      `json:"vendor_id" db:"vendor_id"`
	ParentLotID       *uuid.UUID      `json:"parent_lot_id" db:"parent_lot_id"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// IsExpired reports whether the lot's expiration date has passed as of
// the given time.
func (l *BatchLot) IsExpired(asOf time.Time) bool {
	return l.ExpirationDate != nil && l.ExpirationDate.Before(asOf)
}

// EffectiveStatus applies the time-driven expiration override: a lot in
// a non-terminal state whose expiration date has passed reads as expired
// regardless of the stored status.
func (l *BatchLot) EffectiveStatus(asOf time.Time) LotStatus {
	if !l.Status.IsTerminal() && l.IsExpired(asOf) {
		return LotExpired
	}
	return l.Status
}

// Validate enforces the lot quantity invariants.
func (l *BatchLot) Validate() error {
	if l.BatchNumber == "" {
		return common.NewValidationError("batch_number", "batch number is required")
	}
	if l.MaterialID == uuid.Nil {
		return common.NewValidationError("material_id", "material id is required")
	}
	if !l.Quantity.IsPositive() {
		return common.NewValidationError("quantity", "quantity must be > 0")
	}
	if l.RemainingQuantity.IsNegative() || l.RemainingQuantity.GreaterThan(l.Quantity) {
		return common.NewValidationError("remaining_quantity", "remaining quantity must be between 0 and quantity")
	}
	if l.ReservedQuantity.IsNegative() || l.ReservedQuantity.GreaterThan(l.RemainingQuantity) {
		return common.NewValidationError("reserved_quantity", "reserved quantity must be between 0 and remaining quantity")
	}
	if l.UnitCost.IsNegative() {
		return common.NewValidationError("unit_cost", "unit cost must be >= 0")
	}
	if !l.Status.IsValid() {
		return common.NewValidationError("status", "unknown lot status")
	}
	return nil
}

// LotAllocation is one (lot, quantity) pair of a consumption plan.
type LotAllocation struct {
	Lot               *BatchLot       `json:"lot"`
	AllocatedQuantity decimal.Decimal `json:"allocated_quantity"`
}
