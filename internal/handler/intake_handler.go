package handler

import (
	"net/http"
	"strconv"

	"github.com/chaiyot/bay-booking/internal/models"
	"github.com/chaiyot/bay-booking/internal/service"
	"github.com/labstack/echo/v4"
)

type IntakeHandler struct {
	guard service.IngestGuard
}

func NewIntakeHandler(guard service.IngestGuard) *IntakeHandler {
	return &IntakeHandler{guard: guard}
}

func (h *IntakeHandler) RegisterRoutes(e *echo.Echo) {
	intake := e.Group("/api/v1/intake")
	intake.GET("/history", h.GetHistory)
	intake.GET("/stats", h.GetStats)
}

func (h *IntakeHandler) GetHistory(c echo.Context) error {
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}

	records, err := h.guard.GetHistory(c.Request().Context(), sourceFilter(c), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, records)
}

func (h *IntakeHandler) GetStats(c echo.Context) error {
	stats, err := h.guard.GetStats(c.Request().Context(), sourceFilter(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

func sourceFilter(c echo.Context) *models.SourceType {
	if s := c.QueryParam("source"); s != "" {
		st := models.SourceType(s)
		return &st
	}
	return nil
}
