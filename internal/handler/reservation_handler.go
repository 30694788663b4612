package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/chaiyot/bay-booking/internal/dto"
	"github.com/chaiyot/bay-booking/internal/service"
	"github.com/labstack/echo/v4"
)

type ReservationHandler struct {
	allocator service.ResourceAllocator
	matcher   service.CustomerMatcher
}

func NewReservationHandler(allocator service.ResourceAllocator, matcher service.CustomerMatcher) *ReservationHandler {
	return &ReservationHandler{allocator: allocator, matcher: matcher}
}

func (h *ReservationHandler) RegisterRoutes(e *echo.Echo) {
	v1 := e.Group("/api/v1")
	v1.POST("/reservations", h.CreateReservation)
	v1.GET("/reservations/:id", h.GetReservation)
	v1.DELETE("/reservations/:id", h.CancelReservation)
	v1.GET("/availability", h.CheckAvailability)
}

func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	var req dto.CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	data := service.CreateReservationData{
		Name:           req.Name,
		Phone:          req.Phone,
		Email:          req.Email,
		Date:           req.Date,
		StartTime:      req.StartTime,
		Duration:       req.Duration,
		NumberOfPeople: req.NumberOfPeople,
		Bay:            req.Bay,
		SourceChannel:  req.SourceChannel,
		ExternalKey:    req.ExternalKey,
		Notes:          req.Notes,
	}

	if req.MatchCustomer {
		result, err := h.matcher.GetOrCreateCustomer(c.Request().Context(), service.CustomerData{
			Name:  req.Name,
			Phone: req.Phone,
			Email: req.Email,
		}, req.AllowFuzzyName)
		if err != nil {
			return err
		}
		data.CustomerID = &result.Customer.ID
	}

	reservation, err := h.allocator.CreateReservation(c.Request().Context(), data)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, dto.ToReservationResponse(reservation))
}

func (h *ReservationHandler) GetReservation(c echo.Context) error {
	reservation, err := h.allocator.GetReservation(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToReservationResponse(reservation))
}

func (h *ReservationHandler) CancelReservation(c echo.Context) error {
	var req dto.CancelReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.CancelledBy == "" {
		req.CancelledBy = "api"
	}

	reservation, err := h.allocator.CancelReservation(c.Request().Context(), c.Param("id"), req.Reason, req.CancelledBy)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.ToReservationResponse(reservation))
}

func (h *ReservationHandler) CheckAvailability(c echo.Context) error {
	date := c.QueryParam("date")
	start := c.QueryParam("start")
	if date == "" || start == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date and start are required")
	}

	duration, err := strconv.ParseFloat(c.QueryParam("duration"), 64)
	if err != nil || duration <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid duration")
	}
	partySize, err := strconv.Atoi(c.QueryParam("party_size"))
	if err != nil || partySize <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid party_size")
	}

	availability, err := h.allocator.CheckAvailability(c.Request().Context(), date, start, duration, partySize)
	if err != nil {
		// Oversized parties are a definitive "no", not a client error
		if errors.Is(err, service.ErrPartyTooLarge) {
			return c.JSON(http.StatusOK, dto.AvailabilityResponse{Available: false})
		}
		return err
	}

	return c.JSON(http.StatusOK, dto.AvailabilityResponse{Available: availability.Available, Bay: availability.Bay})
}
