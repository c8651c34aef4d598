package handlers

import (
	"context"
	"net/http"
	"time"

	"stockplan/internal/common"
	"stockplan/internal/models"
	"stockplan/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// LotHandlers handles batch/lot ledger HTTP requests
type LotHandlers struct {
	lotService services.LotService
}

func NewLotHandlers(lotService services.LotService) *LotHandlers {
	return &LotHandlers{lotService: lotService}
}

// ReceiveLotRequest represents the stock receipt payload
type ReceiveLotRequest struct {
	MaterialID        uuid.UUID       `json:"material_id"`
	BatchNumber       string          `json:"batch_number"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	LocationID        *uuid.UUID      `json:"location_id"`
	VendorID          *uuid.UUID      `json:"vendor_id"`
	ParentLotID       *uuid.UUID      `json:"parent_lot_id"`
	ManufacturingDate *time.Time      `json:"manufacturing_date"`
	ExpirationDate    *time.Time      `json:"expiration_date"`
	ReceivedDate      *time.Time      `json:"received_date"`
}

// ReceiveLot handles receiving stock into a new lot
func (h *LotHandlers) ReceiveLot(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	var req ReceiveLotRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	input := &services.ReceiveLotInput{
		MaterialID:        req.MaterialID,
		BatchNumber:       req.BatchNumber,
		Quantity:          req.Quantity,
		UnitCost:          req.UnitCost,
		LocationID:        req.LocationID,
		VendorID:          req.VendorID,
		ParentLotID:       req.ParentLotID,
		ManufacturingDate: req.ManufacturingDate,
		ExpirationDate:    req.ExpirationDate,
	}
	if req.ReceivedDate != nil {
		input.ReceivedDate = *req.ReceivedDate
	}

	lot, err := h.lotService.ReceiveLot(ctx, tenantID, input)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, lot)
}

// GetLot handles getting a single lot by id
func (h *LotHandlers) GetLot(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	lot, err := h.lotService.GetLot(ctx, tenantID, id)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, lot)
}

// ListLotsRequest represents query parameters for listing lots
type ListLotsRequest struct {
	MaterialID string `query:"material_id"`
	Limit      int    `query:"limit"`
	Offset     int    `query:"offset"`
}

// ListLots handles listing lots for a material
func (h *LotHandlers) ListLots(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	var req ListLotsRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid query parameters")
	}
	materialID, err := common.ValidateUUID(req.MaterialID, "material_id")
	if err != nil {
		return common.SendClientError(c, err.Error())
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

	lots, err := h.lotService.ListLots(ctx, tenantID, materialID, req.Limit, req.Offset)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"lots":   lots,
		"limit":  req.Limit,
		"offset": req.Offset,
	})
}

// QuantityRequest represents a reserve or consume payload
type QuantityRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// Reserve handles placing a hold on a lot's remaining quantity
func (h *LotHandlers) Reserve(c echo.Context) error {
	return h.quantityAction(c, h.lotService.Reserve)
}

// Consume handles decrementing a lot's remaining quantity
func (h *LotHandlers) Consume(c echo.Context) error {
	return h.quantityAction(c, h.lotService.Consume)
}

func (h *LotHandlers) quantityAction(c echo.Context, action func(ctx context.Context, tenantID, lotID uuid.UUID, quantity decimal.Decimal) (*models.BatchLot, error)) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	lotID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req QuantityRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	lot, err := action(ctx, tenantID, lotID, req.Quantity)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, lot)
}

// ReasonRequest represents a quality action payload
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// Quarantine handles moving a lot into quarantine
func (h *LotHandlers) Quarantine(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}
	lotID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	var req ReasonRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	lot, err := h.lotService.Quarantine(ctx, tenantID, lotID, req.Reason)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, lot)
}

// Release handles returning a held lot to available
func (h *LotHandlers) Release(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}
	lotID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	lot, err := h.lotService.Release(ctx, tenantID, lotID)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, lot)
}

// Reject handles failing a lot out of quality review
func (h *LotHandlers) Reject(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}
	lotID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	var req ReasonRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	lot, err := h.lotService.Reject(ctx, tenantID, lotID, req.Reason)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, lot)
}

// Recall handles recalling a lot from any non-terminal state
func (h *LotHandlers) Recall(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}
	lotID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	lot, err := h.lotService.Recall(ctx, tenantID, lotID)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, lot)
}

// AllocateRequest represents the lot allocation payload
type AllocateRequest struct {
	MaterialID uuid.UUID       `json:"material_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Policy     string          `json:"policy"`
}

// Allocate handles building an allocation plan across lots
func (h *LotHandlers) Allocate(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	var req AllocateRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	policy := models.AllocationPolicy(req.Policy)
	if req.Policy == "" {
		policy = models.PolicyFIFO
	}

	allocations, err := h.lotService.SelectLotsForConsumption(ctx, tenantID, req.MaterialID, req.Quantity, policy)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"allocations": allocations,
	})
}
