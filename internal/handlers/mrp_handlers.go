package handlers

import (
	"net/http"

	"stockplan/internal/common"
	"stockplan/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// MRPHandlers handles planning-run HTTP requests
type MRPHandlers struct {
	mrpService    services.MRPService
	reportService services.ReportService
}

func NewMRPHandlers(mrpService services.MRPService, reportService services.ReportService) *MRPHandlers {
	return &MRPHandlers{mrpService: mrpService, reportService: reportService}
}

// RunPlanningRequest represents the planning-run payload
type RunPlanningRequest struct {
	HorizonDays int `json:"horizon_days"`
}

// RunPlanning handles kicking off a synchronous planning run
func (h *MRPHandlers) RunPlanning(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	var req RunPlanningRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	run, err := h.mrpService.RunPlanning(ctx, tenantID, req.HorizonDays)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, run)
}

// GetRun handles getting one planning run with its statistics
func (h *MRPHandlers) GetRun(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	run, err := h.mrpService.GetRun(ctx, tenantID, id)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, run)
}

// ListRunsRequest represents query parameters for listing runs
type ListRunsRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// ListRuns handles listing planning runs, most recent first
func (h *MRPHandlers) ListRuns(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	var req ListRunsRequest
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

	runs, err := h.mrpService.ListRuns(ctx, tenantID, req.Limit, req.Offset)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"runs":   runs,
		"limit":  req.Limit,
		"offset": req.Offset,
	})
}

// ListRequirementsRequest represents query parameters for listing
// requirements
type ListRequirementsRequest struct {
	RunID      string `query:"run_id"`
	MaterialID string `query:"material_id"`
	Limit      int    `query:"limit"`
	Offset     int    `query:"offset"`
}

// ListRequirements handles listing planned requirements by run or material
func (h *MRPHandlers) ListRequirements(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	var req ListRequirementsRequest
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

	switch {
	case req.RunID != "":
		runID, err := common.ValidateUUID(req.RunID, "run_id")
		if err != nil {
			return common.SendClientError(c, err.Error())
		}
		requirements, err := h.mrpService.ListRequirementsByRun(ctx, tenantID, runID)
		if err != nil {
			return common.SendDomainError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"requirements": requirements})
	case req.MaterialID != "":
		materialID, err := common.ValidateUUID(req.MaterialID, "material_id")
		if err != nil {
			return common.SendClientError(c, err.Error())
		}
		requirements, err := h.mrpService.ListRequirementsByMaterial(ctx, tenantID, materialID, req.Limit, req.Offset)
		if err != nil {
			return common.SendDomainError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"requirements": requirements,
			"limit":        req.Limit,
			"offset":       req.Offset,
		})
	default:
		return common.SendClientError(c, "run_id or material_id is required")
	}
}

// ConvertRequirementRequest represents the conversion payload
type ConvertRequirementRequest struct {
	OrderID *uuid.UUID `json:"order_id"`
}

// ConvertRequirement handles converting a planned requirement into a
// firm order reference
func (h *MRPHandlers) ConvertRequirement(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req ConvertRequirementRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	requirement, err := h.mrpService.ConvertRequirement(ctx, tenantID, id, req.OrderID)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, requirement)
}

// ExportRunReport handles generating a CSV report for a run and
// returning a download URL
func (h *MRPHandlers) ExportRunReport(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}

	id, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	url, err := h.reportService.ExportRunReport(ctx, tenantID, id)
	if err != nil {
		return common.SendDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}
