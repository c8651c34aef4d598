package middleware

import (
	"net/http"

	"stockplan/internal/common"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TenantHeader carries the caller's tenant on every request.
const TenantHeader = "X-Tenant-ID"

// TenantMiddleware resolves the tenant header into the request context.
// Every data-path handler depends on it; requests without a valid
// tenant never reach a repository.
func TenantMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(TenantHeader)
			if header == "" {
				return echo.NewHTTPError(http.StatusBadRequest, "missing tenant header")
			}
			tenantID, err := uuid.Parse(header)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid tenant id")
			}

			ctx := common.WithTenantID(c.Request().Context(), tenantID)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
