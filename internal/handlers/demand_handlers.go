package handlers

import (
	"net/http"
	"time"

	"stockplan/internal/common"
	"stockplan/internal/models"
	"stockplan/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// DemandHandlers handles demand-book HTTP requests
type DemandHandlers struct {
	demandService services.DemandService
}

func NewDemandHandlers(demandService services.DemandService) *DemandHandlers {
	return &DemandHandlers{demandService: demandService}
}

// CreateDemandRequest represents the demand creation payload
type CreateDemandRequest struct {
	MaterialID uuid.UUID       `json:"material_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	NeedDate   time.Time       `json:"need_date"`
	SourceType string          `json:"source_type"`
	SourceID   *uuid.UUID      `json:"source_id"`
	Priority   int             `json:"priority"`
}

// CreateDemand handles recording a gross requirement
func (h *DemandHandlers) CreateDemand(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	var req CreateDemandRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	demand := &models.DemandRecord{
		TenantID:   tenantID,
		MaterialID: req.MaterialID,
		Quantity:   req.Quantity,
		NeedDate:   req.NeedDate,
		SourceType: models.DemandSourceType(req.SourceType),
		SourceID:   req.SourceID,
		Priority:   req.Priority,
	}

	created, err := h.demandService.CreateDemand(ctx, demand)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// GetDemand handles getting a single demand record
func (h *DemandHandlers) GetDemand(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	demand, err := h.demandService.GetDemand(ctx, tenantID, id)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, demand)
}

// ListDemandsRequest represents query parameters for listing demands
type ListDemandsRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// ListDemands handles listing the demand book
func (h *DemandHandlers) ListDemands(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	var req ListDemandsRequest
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

	demands, err := h.demandService.ListDemands(ctx, tenantID, req.Limit, req.Offset)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"demands": demands,
		"limit":   req.Limit,
		"offset":  req.Offset,
	})
}

// DeleteDemand handles removing a demand record
func (h *DemandHandlers) DeleteDemand(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.demandService.DeleteDemand(ctx, tenantID, id); err != nil {
		return common.SendDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
