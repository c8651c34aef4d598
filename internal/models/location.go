package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"stockplan/internal/common"
)

// LocationType is a level in the storage hierarchy.
type LocationType string

const (
	LocationWarehouse LocationType = "warehouse"
	LocationArea      LocationType = "area"
	LocationZone      LocationType = "zone"
	LocationBin       LocationType = "bin"
	LocationShelf     LocationType = "shelf"
	LocationRack      LocationType = "rack"
	LocationCell      LocationType = "cell"
)

// locationRank orders location types from outermost to innermost.
// Shelf, rack and cell share the innermost rank.
var locationRank = map[LocationType]int{
	LocationWarehouse: 0,
	LocationArea:      1,
	LocationZone:      2,
	LocationBin:       3,
	LocationShelf:     4,
	LocationRack:      4,
	LocationCell:      4,
}

// IsValid checks if the location type is a known hierarchy level.
func (t LocationType) IsValid() bool {
	_, ok := locationRank[t]
	return ok
}

func (t LocationType) String() string {
	return string(t)
}

// CanContain reports whether a location of this type may parent a
// location of the child type.
func (t LocationType) CanContain(child LocationType) bool {
	pr, ok := locationRank[t]
	if !ok {
		return false
	}
	cr, ok := locationRank[child]
	if !ok {
		return false
	}
	return cr > pr
}

// StorageLocation is one node of the warehouse/zone/bin tree.
type StorageLocation struct {
	ID           uuid.UUID        `json:"id" db:"id"`
	TenantID     uuid.UUID        `json:"tenant_id" db:"tenant_id"`
	Name         string           `json:"name" db:"name"`
	Code         string           `json:"code" db:"code"`
	LocationType LocationType     `json:"location_type" db:"location_type"`
	ParentID     *uuid.UUID       `json:"parent_id" db:"parent_id"`
	Capacity     *decimal.Decimal `json:"capacity" db:"capacity"`
	CapacityUnit *string          `json:"capacity_unit" db:"capacity_unit"`
	IsActive     bool             `json:"is_active" db:"is_active"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
}

// Validate enforces field-level invariants; tree invariants (cycles,
// type ordering against the actual parent) are enforced by the service.
func (l *StorageLocation) Validate() error {
	if l.Name == "" {
		return common.NewValidationError("name", "name is required")
	}
	if l.Code == "" {
		return common.NewValidationError("code", "code is required")
	}
	if !l.LocationType.IsValid() {
		return common.NewValidationError("location_type", "unknown location type")
	}
	if l.Capacity != nil && l.Capacity.IsNegative() {
		return common.NewValidationError("capacity", "capacity must be >= 0")
	}
	return nil
}

// LocationUtilization is the capacity accounting result for a location.
type LocationUtilization struct {
	LocationID uuid.UUID       `json:"location_id"`
	Capacity   decimal.Decimal `json:"capacity"`
	Consumed   decimal.Decimal `json:"consumed"`
	Ratio      decimal.Decimal `json:"ratio"`
}
