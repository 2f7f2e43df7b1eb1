package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"kbine/internal/errors"
	"kbine/internal/service"
)

// CatalogHandler handles operator and plan browsing endpoints.
type CatalogHandler struct {
	catalogService service.CatalogService
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListOperators godoc
// @Summary List mobile network operators
// @Tags catalog
// @Produce json
// @Success 200 {array} model.Operator
// @Failure 500 {object} errors.ErrorResponse
// @Router /operators [get]
func (h *CatalogHandler) ListOperators(c echo.Context) error {
	operators, err := h.catalogService.ListOperators(c.Request().Context())
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, operators)
}

// ListPlans godoc
// @Summary List active data plans
// @Tags catalog
// @Produce json
// @Param operator_id query string false "Filter by operator"
// @Success 200 {array} model.Plan
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /plans [get]
func (h *CatalogHandler) ListPlans(c echo.Context) error {
	if raw := c.QueryParam("operator_id"); raw != "" {
		operatorID, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
				Error: "invalid operator_id",
				Code:  "INVALID_UUID",
			})
		}
		plans, err := h.catalogService.ListPlansByOperator(c.Request().Context(), operatorID)
		if err != nil {
			httpErr := errors.MapErrorToHTTP(err)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		}
		return c.JSON(http.StatusOK, plans)
	}

	plans, err := h.catalogService.ListPlans(c.Request().Context())
	if err != nil {
		httpErr := errors.MapErrorToHTTP(err)
		return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	}
	return c.JSON(http.StatusOK, plans)
}
