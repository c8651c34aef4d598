package handlers

import (
	"net/http"

	"stockplan/internal/common"
	"stockplan/internal/models"
	"stockplan/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// LocationHandlers handles storage hierarchy HTTP requests
type LocationHandlers struct {
	locationService services.LocationService
}

func NewLocationHandlers(locationService services.LocationService) *LocationHandlers {
	return &LocationHandlers{locationService: locationService}
}

// CreateLocationRequest represents the location creation payload
type CreateLocationRequest struct {
	Name         string           `json:"name"`
	Code         string           `json:"code"`
	LocationType string           `json:"location_type"`
	ParentID     *uuid.UUID       `json:"parent_id"`
	Capacity     *decimal.Decimal `json:"capacity"`
	CapacityUnit *string          `json:"capacity_unit"`
}

// CreateLocation handles adding a node to the storage tree
func (h *LocationHandlers) CreateLocation(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	var req CreateLocationRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	location := &models.StorageLocation{
		TenantID:     tenantID,
		Name:         req.Name,
		Code:         req.Code,
		LocationType: models.LocationType(req.LocationType),
		ParentID:     req.ParentID,
		Capacity:     req.Capacity,
		CapacityUnit: req.CapacityUnit,
		IsActive:     true,
	}

	created, err := h.locationService.CreateLocation(ctx, location)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// GetLocation handles getting a single location by id
func (h *LocationHandlers) GetLocation(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	location, err := h.locationService.GetLocation(ctx, tenantID, id)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, location)
}

// ListLocationsRequest represents query parameters for listing locations
type ListLocationsRequest struct {
	Limit    int    `query:"limit"`
	Offset   int    `query:"offset"`
	ParentID string `query:"parent_id"`
}

// ListLocations handles listing locations, optionally by parent
func (h *LocationHandlers) ListLocations(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	var req ListLocationsRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid query parameters")
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}
	if req.Limit > 100 {
		req.Limit = 100
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	var locations []*models.StorageLocation
	var err error
	if req.ParentID != "" {
		parentID, perr := common.ValidateUUID(req.ParentID, "parent_id")
		if perr != nil {
			return common.SendClientError(c, perr.Error())
		}
		locations, err = h.locationService.ListChildren(ctx, tenantID, parentID)
	} else {
		locations, err = h.locationService.ListLocations(ctx, tenantID, req.Limit, req.Offset)
	}
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"locations": locations,
		"limit":     req.Limit,
		"offset":    req.Offset,
	})
}

// DeleteLocation handles removing a leaf location
func (h *LocationHandlers) DeleteLocation(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.locationService.DeleteLocation(ctx, tenantID, id); err != nil {
		return common.SendDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetUtilization handles the subtree capacity accounting query
func (h *LocationHandlers) GetUtilization(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	utilization, err := h.locationService.ComputeUtilization(ctx, tenantID, id)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, utilization)
}
