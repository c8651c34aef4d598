package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequirementStatus is the lifecycle state of a planned requirement.
type RequirementStatus string

const (
	RequirementPlanned   RequirementStatus = "planned"
	RequirementReleased  RequirementStatus = "released"
	RequirementConverted RequirementStatus = "converted"
	RequirementCancelled RequirementStatus = "cancelled"
)

// IsValid checks if the requirement status is a known state.
func (s RequirementStatus) IsValid() bool {
	switch s {
	case RequirementPlanned, RequirementReleased, RequirementConverted, RequirementCancelled:
		return true
	default:
		return false
	}
}

// RequirementPriority flags requirements whose release date is already past.
type RequirementPriority string

const (
	PriorityNormal   RequirementPriority = "normal"
	PriorityElevated RequirementPriority = "elevated"
)

// DemandSourceType identifies where a gross requirement came from.
type DemandSourceType string

const (
	SourceForecast        DemandSourceType = "forecast"
	SourceSalesOrder      DemandSourceType = "sales_order"
	SourceProductionOrder DemandSourceType = "production_order"
)

// IsValid checks if the demand source type is known.
func (t DemandSourceType) IsValid() bool {
	switch t {
	case SourceForecast, SourceSalesOrder, SourceProductionOrder:
		return true
	default:
		return false
	}
}

// MaterialRequirement is one planned-order record produced by a
// planning run, one per (material, due-date bucket). Records are never
// deleted; a later run supersedes them.
type MaterialRequirement struct {
	ID                 uuid.UUID           `json:"id" db:"id"`
	TenantID           uuid.UUID           `json:"tenant_id" db:"tenant_id"`
	RunID              uuid.UUID           `json:"run_id" db:"run_id"`
	MaterialID         uuid.UUID           `json:"material_id" db:"material_id"`
	RequirementDate    time.Time           `json:"requirement_date" db:"requirement_date"`
	RequiredQuantity   decimal.Decimal     `json:"required_quantity" db:"required_quantity"`
	AvailableQuantity  decimal.Decimal     `json:"available_quantity" db:"available_quantity"`
	NetRequirement     decimal.Decimal     `json:"net_requirement" db:"net_requirement"`
	PlannedOrderQty    decimal.Decimal     `json:"planned_order_qty" db:"planned_order_qty"`
	PlannedReleaseDate time.Time           `json:"planned_release_date" db:"planned_release_date"`
	SourceType         DemandSourceType    `json:"source_type" db:"source_type"`
	SourceID           *uuid.UUID          `json:"source_id" db:"source_id"`
	Priority           RequirementPriority `json:"priority" db:"priority"`
	Status             RequirementStatus   `json:"status" db:"status"`
	LeadTimeDays       int                 `json:"lead_time_days" db:"lead_time_days"`
	SafetyStock        decimal.Decimal     `json:"safety_stock" db:"safety_stock"`
	EconomicOrderQty   *decimal.Decimal    `json:"economic_order_qty" db:"economic_order_qty"`
	CreatedAt          time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at" db:"updated_at"`
}
