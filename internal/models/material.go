package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stockplan/internal/common"
)

// MaterialType classifies a catalog material.
type MaterialType string

const (
	MaterialRaw          MaterialType = "raw"
	MaterialComponent    MaterialType = "component"
	MaterialPackaging    MaterialType = "packaging"
	MaterialConsumable   MaterialType = "consumable"
	MaterialFinished     MaterialType = "finished"
	MaterialSemiFinished MaterialType = "semi_finished"
	MaterialByproduct    MaterialType = "byproduct"
	MaterialWaste        MaterialType = "waste"
	MaterialSpare        MaterialType = "spare"
)

// IsValid checks if the material type is a known classification.
func (t MaterialType) IsValid() bool {
	switch t {
	case MaterialRaw, MaterialComponent, MaterialPackaging, MaterialConsumable,
		MaterialFinished, MaterialSemiFinished, MaterialByproduct, MaterialWaste, MaterialSpare:
		return true
	default:
		return false
	}
}

func (t MaterialType) String() string {
	return string(t)
}

// Material holds per-material planning parameters and valuation defaults.
type Material struct {
	ID                 uuid.UUID        `json:"id" db:"id"`
	TenantID           uuid.UUID        `json:"tenant_id" db:"tenant_id"`
	Name               string           `json:"name" db:"name"`
	Code               string           `json:"code" db:"code"`
	MaterialType       MaterialType     `json:"material_type" db:"material_type"`
	UnitOfMeasure      string           `json:"unit_of_measure" db:"unit_of_measure"`
	StandardPrice      decimal.Decimal  `json:"standard_price" db:"standard_price"`
	LeadTimeDays       int              `json:"lead_time_days" db:"lead_time_days"`
	ReorderPoint       *decimal.Decimal `json:"reorder_point" db:"reorder_point"`
	EconomicOrderQty   *decimal.Decimal `json:"economic_order_qty" db:"economic_order_qty"`
	SafetyStock        decimal.Decimal  `json:"safety_stock" db:"safety_stock"`
	MinStock           *decimal.Decimal `json:"min_stock" db:"min_stock"`
	MaxStock           *decimal.Decimal `json:"max_stock" db:"max_stock"`
	OrderMultiple      *decimal.Decimal `json:"order_multiple" db:"order_multiple"`
	DefaultLocationID  *uuid.UUID       `json:"default_location_id" db:"default_location_id"`
	DefaultValuation   ValuationMethod  `json:"default_valuation_method" db:"default_valuation_method"`
	IsActive           bool             `json:"is_active" db:"is_active"`
	LotTracked         bool             `json:"lot_tracked" db:"lot_tracked"`
	ShelfLifeDays      *int             `json:"shelf_life_days" db:"shelf_life_days"`
	CreatedAt          time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at" db:"updated_at"`
}

// Validate enforces the catalog invariants at construct time.
func (m *Material) Validate() error {
	if m.Name == "" {
		return common.NewValidationError("name", "name is required")
	}
	if m.Code == "" {
		return common.NewValidationError("code", "code is required")
	}
	if !m.MaterialType.IsValid() {
		return common.NewValidationError("material_type", "unknown material type")
	}
	if m.UnitOfMeasure == "" {
		return common.NewValidationError("unit_of_measure", "unit of measure is required")
	}
	if !m.DefaultValuation.IsValid() {
		return common.NewValidationError("default_valuation_method", "unknown valuation method")
	}
	if m.LeadTimeDays < 0 {
		return common.NewValidationError("lead_time_days", "lead time must be >= 0")
	}
	if m.StandardPrice.IsNegative() {
		return common.NewValidationError("standard_price", "standard price must be >= 0")
	}
	if m.SafetyStock.IsNegative() {
		return common.NewValidationError("safety_stock", "safety stock must be >= 0")
	}
	if m.ReorderPoint != nil && m.ReorderPoint.IsNegative() {
		return common.NewValidationError("reorder_point", "reorder point must be >= 0")
	}
	if m.EconomicOrderQty != nil && !m.EconomicOrderQty.IsPositive() {
		return common.NewValidationError("economic_order_qty", "economic order quantity must be > 0")
	}
	if m.OrderMultiple != nil && !m.OrderMultiple.IsPositive() {
		return common.NewValidationError("order_multiple", "order multiple must be > 0")
	}
	if m.MinStock != nil && m.MaxStock != nil && m.MinStock.GreaterThan(*m.MaxStock) {
		return common.NewValidationError("min_stock", "min stock must not exceed max stock")
	}
	if m.ReorderPoint != nil && m.MaxStock != nil && m.ReorderPoint.GreaterThan(*m.MaxStock) {
		return common.NewValidationError("reorder_point", "reorder point must not exceed max stock")
	}
	if m.ShelfLifeDays != nil && *m.ShelfLifeDays < 0 {
		return common.NewValidationError("shelf_life_days", "shelf life must be >= 0")
	}
	return nil
}

// ReorderAlert reports a material whose available stock has fallen
// below its reorder point.
type ReorderAlert struct {
	TenantID     uuid.UUID       `json:"tenant_id"`
	MaterialID   uuid.UUID       `json:"material_id"`
	Name         string          `json:"name"`
	Code         string          `json:"code"`
	ReorderPoint decimal.Decimal `json:"reorder_point"`
	Available    decimal.Decimal `json:"available"`
}

// MaterialSearchFilter holds search and filter criteria for catalog queries.
type MaterialSearchFilter struct {
	Query        string        `json:"query,omitempty"`
	MaterialType *MaterialType `json:"material_type,omitempty"`
	ActiveOnly   bool          `json:"active_only,omitempty"`
	LotTracked   *bool         `json:"lot_tracked,omitempty"`
	SortBy       string        `json:"sort_by,omitempty"`
	SortOrder    string        `json:"sort_order,omitempty"`
	Limit        int           `json:"limit,omitempty"`
	Offset       int           `json:"offset,omitempty"`
}
