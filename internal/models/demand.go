package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stockplan/internal/common"
)

// DemandRecord is one gross-requirement input to the planning engine:
// a forecast or a firm order needing a quantity of material by a date.
type DemandRecord struct {
	ID         uuid.UUID        `json:"id" db:"id"`
	TenantID   uuid.UUID        `json:"tenant_id" db:"tenant_id"`
	MaterialID uuid.UUID        `json:"material_id" db:"material_id"`
	Quantity   decimal.Decimal  `json:"quantity" db:"quantity"`
	NeedDate   time.Time        `json:"need_date" db:"need_date"`
	SourceType DemandSourceType `json:"source_type" db:"source_type"`
	SourceID   *uuid.UUID       `json:"source_id" db:"source_id"`
	Priority   int              `json:"priority" db:"priority"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
}

// Validate enforces demand invariants at the boundary.
func (d *DemandRecord) Validate() error {
	if d.MaterialID == uuid.Nil {
		return common.NewValidationError("material_id", "material id is required")
	}
	if !d.Quantity.IsPositive() {
		return common.NewValidationError("quantity", "quantity must be > 0")
	}
	if d.NeedDate.IsZero() {
		return common.NewValidationError("need_date", "need date is required")
	}
	if !d.SourceType.IsValid() {
		return common.NewValidationError("source_type", "unknown demand source type")
	}
	return nil
}
