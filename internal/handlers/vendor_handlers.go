package handlers

import (
	"net/http"

	"stockplan/internal/common"
	"stockplan/internal/models"
	"stockplan/internal/services"

	"github.com/labstack/echo/v4"
)

// VendorHandlers handles supplier directory HTTP requests
type VendorHandlers struct {
	vendorService services.VendorService
}

func NewVendorHandlers(vendorService services.VendorService) *VendorHandlers {
	return &VendorHandlers{vendorService: vendorService}
}

// VendorRequest represents the vendor create/update payload
type VendorRequest struct {
	Name    string  `json:"name"`
	Contact *string `json:"contact"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
}

// CreateVendor handles adding a supplier
func (h *VendorHandlers) CreateVendor(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	var req VendorRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	vendor := &models.Vendor{
		TenantID: tenantID,
		Name:     req.Name,
		Contact:  req.Contact,
		Email:    req.Email,
		Phone:    req.Phone,
	}
	created, err := h.vendorService.CreateVendor(ctx, vendor)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// GetVendor handles getting a single vendor
func (h *VendorHandlers) GetVendor(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	vendor, err := h.vendorService.GetVendor(ctx, tenantID, id)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, vendor)
}

// UpdateVendor handles updating a supplier
func (h *VendorHandlers) UpdateVendor(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req VendorRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	existing, err := h.vendorService.GetVendor(ctx, tenantID, id)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	existing.Name = req.Name
	existing.Contact = req.Contact
	existing.Email = req.Email
	existing.Phone = req.Phone

	updated, err := h.vendorService.UpdateVendor(ctx, existing)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// DeleteVendor handles removing a supplier
func (h *VendorHandlers) DeleteVendor(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.vendorService.DeleteVendor(ctx, tenantID, id); err != nil {
		return common.SendDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListVendorsRequest represents query parameters for listing vendors
type ListVendorsRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// ListVendors handles listing the supplier directory
func (h *VendorHandlers) ListVendors(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	var req ListVendorsRequest
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

	vendors, err := h.vendorService.ListVendors(ctx, tenantID, req.Limit, req.Offset)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"vendors": vendors,
		"limit":   req.Limit,
		"offset":  req.Offset,
	})
}
