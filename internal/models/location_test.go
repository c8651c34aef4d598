package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLocationTypeCanContain(t *testing.T) {
	tests := []struct {
		name    string
		parent  LocationType
		child   LocationType
		allowed bool
	}{
		{"warehouse contains area", LocationWarehouse, LocationArea, true},
		{"warehouse contains bin", LocationWarehouse, LocationBin, true},
		{"area contains zone", LocationArea, LocationZone, true},
		{"zone contains bin", LocationZone, LocationBin, true},
		{"bin contains shelf", LocationBin, LocationShelf, true},
		{"bin contains warehouse", LocationBin, LocationWarehouse, false},
		{"zone contains area", LocationZone, LocationArea, false},
		{"warehouse contains warehouse", LocationWarehouse, LocationWarehouse, false},
		{"shelf contains rack", LocationShelf, LocationRack, false},
		{"unknown parent", LocationType("hangar"), LocationBin, false},
		{"unknown child", LocationZone, LocationType("crate"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.parent.CanContain(tt.child))
		})
	}
}

func TestStorageLocationValidate(t *testing.T) {
	capacity := decimal.RequireFromString("500")
	valid := func() *StorageLocation {
		return &StorageLocation{
			Name:         "Bin 7",
			Code:         "BIN-07",
			LocationType: LocationBin,
			Capacity:     &capacity,
		}
	}

	assert.NoError(t, valid().Validate())

	negative := decimal.RequireFromString("-5")
	tests := []struct {
		name   string
		mutate func(*StorageLocation)
	}{
		{"missing name", func(l *StorageLocation) { l.Name = "" }},
		{"missing code", func(l *StorageLocation) { l.Code = "" }},
		{"unknown type", func(l *StorageLocation) { l.LocationType = LocationType("dock") }},
		{"negative capacity", func(l *StorageLocation) { l.Capacity = &negative }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			location := valid()
			tt.mutate(location)
			assert.Error(t, location.Validate())
		})
	}
}
