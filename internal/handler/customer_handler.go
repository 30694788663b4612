package handler

import (
	"net/http"

	"github.com/chaiyot/bay-booking/internal/dto"
	"github.com/chaiyot/bay-booking/internal/service"
	"github.com/labstack/echo/v4"
)

type CustomerHandler struct {
	matcher service.CustomerMatcher
}

func NewCustomerHandler(matcher service.CustomerMatcher) *CustomerHandler {
	return &CustomerHandler{matcher: matcher}
}

func (h *CustomerHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/v1/customers/match", h.MatchCustomer)
}

func (h *CustomerHandler) MatchCustomer(c echo.Context) error {
	var req dto.MatchCustomerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := h.matcher.GetOrCreateCustomer(c.Request().Context(), service.CustomerData{
		Name:  req.Name,
		Phone: req.Phone,
		Email: req.Email,
	}, req.AllowFuzzyName)
	if err != nil {
		return err
	}

	status := http.StatusOK
	if result.IsNew {
		status = http.StatusCreated
	}
	return c.JSON(status, dto.MatchCustomerResponse{
		Customer:   dto.ToCustomerResponse(result.Customer),
		IsNew:      result.IsNew,
		MatchedBy:  result.MatchedBy,
		Confidence: result.Confidence,
	})
}
