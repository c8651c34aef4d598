package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ValuationMethod selects how a material's on-hand inventory is costed.
type ValuationMethod string

const (
	// ValuationFIFO values on-hand stock from the oldest unconsumed receipts first.
	ValuationFIFO ValuationMethod = "fifo"

	// ValuationLIFO values on-hand stock from the newest unconsumed receipts first.
	ValuationLIFO ValuationMethod = "lifo"

	// ValuationMovingAverage keeps a running weighted average of receipt costs.
	ValuationMovingAverage ValuationMethod = "moving_average"

	// ValuationStandardCost values stock at the material's fixed standard price.
	ValuationStandardCost ValuationMethod = "standard_cost"

	// ValuationBatchSpecific values a specific lot at its recorded unit cost.
	ValuationBatchSpecific ValuationMethod = "batch_specific"
)

// IsValid checks if the valuation method is valid
func (v ValuationMethod) IsValid() bool {
	switch v {
	case ValuationFIFO, ValuationLIFO, ValuationMovingAverage,
		ValuationStandardCost, ValuationBatchSpecific:
		return true
	default:
		return false
	}
}

func (v ValuationMethod) String() string {
	return string(v)
}

// RequiresLotData reports whether the method cannot be computed without
// lot history.
func (v ValuationMethod) RequiresLotData() bool {
	switch v {
	case ValuationFIFO, ValuationLIFO, ValuationBatchSpecific:
		return true
	default:
		return false
	}
}

// IsBatchSpecific reports whether the method values a single lot rather
// than the material's whole on-hand position.
func (v ValuationMethod) IsBatchSpecific() bool {
	return v == ValuationBatchSpecific
}

// MaterialValuation is one valuation record for a (material, method)
// pair. At most one record per pair is active at a time for non
// batch-specific methods.
type MaterialValuation struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	TenantID      uuid.UUID       `json:"tenant_id" db:"tenant_id"`
	MaterialID    uuid.UUID       `json:"material_id" db:"material_id"`
	Method        ValuationMethod `json:"method" db:"method"`
	ValuationDate time.Time       `json:"valuation_date" db:"valuation_date"`
	UnitValue     decimal.Decimal `json:"unit_value" db:"unit_value"`
	TotalValue    decimal.Decimal `json:"total_value" db:"total_value"`
	QuantityBasis decimal.Decimal `json:"quantity_basis" db:"quantity_basis"`
	Currency      string          `json:"currency" db:"currency"`
	BatchLotID    *uuid.UUID      `json:"batch_lot_id" db:"batch_lot_id"`
	IsActive      bool            `json:"is_active" db:"is_active"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}
