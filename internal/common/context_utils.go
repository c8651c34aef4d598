package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	// TenantIDKey carries the resolved tenant id through request contexts.
	TenantIDKey contextKey = "tenant_id"
)

// WithTenantID returns a context carrying the tenant id.
func WithTenantID(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, TenantIDKey, tenantID)
}

// GetTenantIDFromContext extracts the tenant id set by the tenant middleware.
func GetTenantIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(TenantIDKey).(uuid.UUID)
	return id, ok
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code string, message string, details map[string]string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

// SendValidationError sends a validation error response
func SendValidationError(c echo.Context, field, message string) error {
	details := map[string]string{
		field: message,
	}
	return c.JSON(http.StatusBadRequest, CreateErrorResponse("VALIDATION_ERROR", "Validation failed", details))
}

// SendClientError sends a client error response
func SendClientError(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, CreateErrorResponse("CLIENT_ERROR", message, nil))
}

// SendServerError sends a server error response
func SendServerError(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, CreateErrorResponse("SERVER_ERROR", message, nil))
}

// SendNotFoundError sends a not found error response
func SendNotFoundError(c echo.Context, resource string) error {
	return c.JSON(http.StatusNotFound, CreateErrorResponse("NOT_FOUND", fmt.Sprintf("%s not found", resource), nil))
}

// SendDomainError maps the service error taxonomy to an HTTP response.
// Unknown errors are reported as server errors without leaking internals.
func SendDomainError(c echo.Context, err error) error {
	var (
		validationErr   *ValidationError
		notFoundErr     *NotFoundError
		insufficientQty *InsufficientQuantityError
		insufficientStk *InsufficientStockError
		invalidState    *InvalidStateTransitionError
		hierarchyErr    *HierarchyViolationError
		dataErr         *InsufficientDataError
	)
	switch {
	case errors.As(err, &validationErr):
		return SendValidationError(c, validationErr.Field, validationErr.Message)
	case errors.As(err, &notFoundErr):
		return SendNotFoundError(c, notFoundErr.Resource)
	case errors.As(err, &insufficientQty):
		return c.JSON(http.StatusConflict, CreateErrorResponse("INSUFFICIENT_QUANTITY", insufficientQty.Error(), nil))
	case errors.As(err, &insufficientStk):
		return c.JSON(http.StatusConflict, CreateErrorResponse("INSUFFICIENT_STOCK", insufficientStk.Error(), nil))
	case errors.As(err, &invalidState):
		return c.JSON(http.StatusConflict, CreateErrorResponse("INVALID_STATE_TRANSITION", invalidState.Error(), nil))
	case errors.As(err, &hierarchyErr):
		return c.JSON(http.StatusBadRequest, CreateErrorResponse("HIERARCHY_VIOLATION", hierarchyErr.Error(), nil))
	case errors.As(err, &dataErr):
		return c.JSON(http.StatusUnprocessableEntity, CreateErrorResponse("INSUFFICIENT_DATA", dataErr.Error(), nil))
	default:
		return SendServerError(c, "Internal error")
	}
}

// ValidateUUID validates UUID format with comprehensive checks
func ValidateUUID(idStr string, fieldName string) (uuid.UUID, error) {
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		return uuid.Nil, fmt.Errorf("%s is required", fieldName)
	}
	if len(idStr) != 36 {
		return uuid.Nil, fmt.Errorf("%s must be exactly 36 characters (including hyphens)", fieldName)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s is not a valid UUID", fieldName)
	}
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%s cannot be the nil UUID", fieldName)
	}
	return id, nil
}
