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

// MaterialHandlers handles material catalog and valuation HTTP requests
type MaterialHandlers struct {
	catalogService   services.CatalogService
	valuationService services.ValuationService
}

func NewMaterialHandlers(catalogService services.CatalogService, valuationService services.ValuationService) *MaterialHandlers {
	return &MaterialHandlers{
		catalogService:   catalogService,
		valuationService: valuationService,
	}
}

// UpsertMaterialRequest represents the material create/update payload
type UpsertMaterialRequest struct {
	ID               *uuid.UUID       `json:"id"`
	Name             string           `json:"name"`
	Code             string           `json:"code"`
	MaterialType     string           `json:"material_type"`
	UnitOfMeasure    string           `json:"unit_of_measure"`
	StandardPrice    decimal.Decimal  `json:"standard_price"`
	LeadTimeDays     int              `json:"lead_time_days"`
	ReorderPoint     *decimal.Decimal `json:"reorder_point"`
	EconomicOrderQty *decimal.Decimal `json:"economic_order_qty"`
	SafetyStock      decimal.Decimal  `json:"safety_stock"`
	MinStock         *decimal.Decimal `json:"min_stock"`
	MaxStock         *decimal.Decimal `json:"max_stock"`
	OrderMultiple    *decimal.Decimal `json:"order_multiple"`
	DefaultLocation  *uuid.UUID       `json:"default_location_id"`
	DefaultValuation string           `json:"default_valuation_method"`
	LotTracked       bool             `json:"lot_tracked"`
	ShelfLifeDays    *int             `json:"shelf_life_days"`
}

// UpsertMaterial creates a material or updates it when an id or a known
// code is supplied
func (h *MaterialHandlers) UpsertMaterial(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	var req UpsertMaterialRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	material := &models.Material{
		TenantID:          tenantID,
		Name:              req.Name,
		Code:              req.Code,
		MaterialType:      models.MaterialType(req.MaterialType),
		UnitOfMeasure:     req.UnitOfMeasure,
		StandardPrice:     req.StandardPrice,
		LeadTimeDays:      req.LeadTimeDays,
		ReorderPoint:      req.ReorderPoint,
		EconomicOrderQty:  req.EconomicOrderQty,
		SafetyStock:       req.SafetyStock,
		MinStock:          req.MinStock,
		MaxStock:          req.MaxStock,
		OrderMultiple:     req.OrderMultiple,
		DefaultLocationID: req.DefaultLocation,
		DefaultValuation:  models.ValuationMethod(req.DefaultValuation),
		LotTracked:        req.LotTracked,
		ShelfLifeDays:     req.ShelfLifeDays,
		IsActive:          true,
	}
	if req.ID != nil {
		material.ID = *req.ID
	}

	saved, err := h.catalogService.UpsertMaterial(ctx, tenantID, material)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, saved)
}

// GetMaterial handles getting a single material by id
func (h *MaterialHandlers) GetMaterial(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	material, err := h.catalogService.GetMaterial(ctx, tenantID, id)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, material)
}

// ListMaterialsRequest represents query parameters for listing materials
type ListMaterialsRequest struct {
	Limit  int    `query:"limit"`
	Offset int    `query:"offset"`
	Query  string `query:"q"`
	Type   string `query:"type"`
}

// ListMaterials handles listing and searching the catalog
func (h *MaterialHandlers) ListMaterials(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	var req ListMaterialsRequest
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

	var materials []*models.Material
	var err error
	if req.Query != "" || req.Type != "" {
		filter := &models.MaterialSearchFilter{
			Query:  req.Query,
			Limit:  req.Limit,
			Offset: req.Offset,
		}
		if req.Type != "" {
			mt := models.MaterialType(req.Type)
			filter.MaterialType = &mt
		}
		materials, err = h.catalogService.SearchMaterials(ctx, tenantID, filter)
	} else {
		materials, err = h.catalogService.ListMaterials(ctx, tenantID, req.Limit, req.Offset)
	}
	if err != nil {
		return common.SendDomainError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"materials": materials,
		"limit":     req.Limit,
		"offset":    req.Offset,
	})
}

// DeleteMaterial handles removing a material from the catalog
func (h *MaterialHandlers) DeleteMaterial(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.catalogService.DeleteMaterial(ctx, tenantID, id); err != nil {
		return common.SendDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RecordValuationRequest represents the valuation snapshot payload
type RecordValuationRequest struct {
	Method     string     `json:"method"`
	AsOf       *time.Time `json:"as_of"`
	BatchLotID *uuid.UUID `json:"batch_lot_id"`
}

// RecordValuation computes and persists a valuation snapshot for a material
func (h *MaterialHandlers) RecordValuation(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	materialID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req RecordValuationRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	asOf := time.Now()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}

	valuation, err := h.valuationService.RecordValuation(ctx, tenantID, materialID, models.ValuationMethod(req.Method), asOf, req.BatchLotID)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, valuation)
}

// GetCurrentValuationRequest represents query parameters for the
// current-value lookup
type GetCurrentValuationRequest struct {
	Method string `query:"method"`
}

// GetCurrentValuation returns the active valuation for a material,
// computing one if none is recorded
func (h *MaterialHandlers) GetCurrentValuation(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	materialID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req GetCurrentValuationRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid query parameters")
	}

	method := models.ValuationMethod(req.Method)
	if req.Method == "" {
		material, err := h.catalogService.GetMaterial(ctx, tenantID, materialID)
		if err != nil {
			return common.SendDomainError(c, err)
		}
		method = material.DefaultValuation
	}

	valuation, err := h.valuationService.GetCurrentValue(ctx, tenantID, materialID, method)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, valuation)
}
