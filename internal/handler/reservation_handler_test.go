package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chaiyot/bay-booking/internal/dto"
	"github.com/chaiyot/bay-booking/internal/models"
	"github.com/chaiyot/bay-booking/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

// --- Mock ResourceAllocator ---

type mockAllocator struct {
	checkFn  func(ctx context.Context, date, startTime string, duration float64, partySize int) (*service.Availability, error)
	createFn func(ctx context.Context, data service.CreateReservationData) (*models.Reservation, error)
	cancelFn func(ctx context.Context, id, reason, cancelledBy string) (*models.Reservation, error)
	getFn    func(ctx context.Context, id string) (*models.Reservation, error)
}

func (m *mockAllocator) CheckAvailability(ctx context.Context, date, startTime string, duration float64, partySize int) (*service.Availability, error) {
	return m.checkFn(ctx, date, startTime, duration, partySize)
}
func (m *mockAllocator) CreateReservation(ctx context.Context, data service.CreateReservationData) (*models.Reservation, error) {
	return m.createFn(ctx, data)
}
func (m *mockAllocator) CancelReservation(ctx context.Context, id, reason, cancelledBy string) (*models.Reservation, error) {
	return m.cancelFn(ctx, id, reason, cancelledBy)
}
func (m *mockAllocator) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	return m.getFn(ctx, id)
}
func (m *mockAllocator) FindByExternalKey(ctx context.Context, key string) (*models.Reservation, error) {
	return nil, nil
}
func (m *mockAllocator) FindByDetails(ctx context.Context, name, phone, email, date, startTime string, sourceChannel *string) (*models.Reservation, error) {
	return nil, nil
}

// --- Mock CustomerMatcher ---

type mockMatcher struct {
	getOrCreateFn func(ctx context.Context, data service.CustomerData, allowFuzzyName bool) (*service.GetOrCreateResult, error)
}

func (m *mockMatcher) MatchCustomer(ctx context.Context, name, phone, email string, allowFuzzyName bool) (*service.MatchResult, error) {
	return nil, nil
}
func (m *mockMatcher) CreateCustomer(ctx context.Context, data service.CustomerData) (*models.Customer, error) {
	return nil, nil
}
func (m *mockMatcher) GetOrCreateCustomer(ctx context.Context, data service.CustomerData, allowFuzzyName bool) (*service.GetOrCreateResult, error) {
	return m.getOrCreateFn(ctx, data, allowFuzzyName)
}

func sampleReservation() *models.Reservation {
	return &models.Reservation{
		ID:             "BK251201001",
		Name:           "John Doe",
		PhoneNumber:    "0812345678",
		Date:           "2025-12-01",
		StartTime:      "14:00",
		Duration:       1,
		NumberOfPeople: 2,
		Bay:            "Bay 1",
		Status:         models.StatusConfirmed,
		SourceChannel:  "email",
		CreatedAt:      time.Now(),
	}
}

// --- Tests ---

func TestCreateReservation_Handler_Success(t *testing.T) {
	alloc := &mockAllocator{
		createFn: func(ctx context.Context, data service.CreateReservationData) (*models.Reservation, error) {
			return sampleReservation(), nil
		},
	}

	e := echo.New()
	body := `{"name":"John Doe","phone":"0812345678","date":"2025-12-01","start_time":"2:00 PM","duration":1,"number_of_people":2,"source_channel":"email"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewReservationHandler(alloc, nil)
	err := h.CreateReservation(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp dto.ReservationResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "BK251201001", resp.ID)
	assert.Equal(t, "14:00", resp.StartTime)
	assert.Equal(t, "Bay 1", resp.Bay)
}

func TestCreateReservation_Handler_MatchesCustomer(t *testing.T) {
	var linkedID *uint
	alloc := &mockAllocator{
		createFn: func(ctx context.Context, data service.CreateReservationData) (*models.Reservation, error) {
			linkedID = data.CustomerID
			return sampleReservation(), nil
		},
	}
	matcher := &mockMatcher{
		getOrCreateFn: func(ctx context.Context, data service.CustomerData, allowFuzzyName bool) (*service.GetOrCreateResult, error) {
			return &service.GetOrCreateResult{Customer: &models.Customer{ID: 17}}, nil
		},
	}

	e := echo.New()
	body := `{"name":"John Doe","phone":"0812345678","date":"2025-12-01","start_time":"14:00","duration":1,"number_of_people":2,"source_channel":"email","match_customer":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewReservationHandler(alloc, matcher)
	err := h.CreateReservation(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotNil(t, linkedID)
	assert.Equal(t, uint(17), *linkedID)
}

func TestCreateReservation_Handler_NoCapacity(t *testing.T) {
	alloc := &mockAllocator{
		createFn: func(ctx context.Context, data service.CreateReservationData) (*models.Reservation, error) {
			return nil, service.ErrNoCapacity
		},
	}

	e := echo.New()
	body := `{"name":"John Doe","phone":"0812345678","date":"2025-12-01","start_time":"14:00","duration":1,"number_of_people":2,"source_channel":"email"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewReservationHandler(alloc, nil)
	err := h.CreateReservation(c)

	assert.ErrorIs(t, err, service.ErrNoCapacity)
}

func TestCreateReservation_Handler_InvalidTime(t *testing.T) {
	alloc := &mockAllocator{
		createFn: func(ctx context.Context, data service.CreateReservationData) (*models.Reservation, error) {
			return nil, service.ErrInvalidTime
		},
	}

	e := echo.New()
	body := `{"name":"John Doe","phone":"0812345678","date":"2025-12-01","start_time":"26:00","duration":1,"number_of_people":2,"source_channel":"email"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewReservationHandler(alloc, nil)
	err := h.CreateReservation(c)

	assert.ErrorIs(t, err, service.ErrInvalidTime)
}

func TestCancelReservation_Handler_Success(t *testing.T) {
	alloc := &mockAllocator{
		cancelFn: func(ctx context.Context, id, reason, cancelledBy string) (*models.Reservation, error) {
			r := sampleReservation()
			r.Status = models.StatusCancelled
			r.CancellationReason = &reason
			r.CancelledBy = &cancelledBy
			return r, nil
		},
	}

	e := echo.New()
	body := `{"reason":"customer request","cancelled_by":"staff"}`
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/reservations/BK251201001", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("BK251201001")

	h := NewReservationHandler(alloc, nil)
	err := h.CancelReservation(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.ReservationResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.StatusCancelled, resp.Status)
	assert.Equal(t, "customer request", *resp.CancellationReason)
}

func TestCancelReservation_Handler_NotFound(t *testing.T) {
	alloc := &mockAllocator{
		cancelFn: func(ctx context.Context, id, reason, cancelledBy string) (*models.Reservation, error) {
			return nil, service.ErrNotFound
		},
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/reservations/BK999999999", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("BK999999999")

	h := NewReservationHandler(alloc, nil)
	err := h.CancelReservation(c)

	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestGetReservation_Handler_Success(t *testing.T) {
	alloc := &mockAllocator{
		getFn: func(ctx context.Context, id string) (*models.Reservation, error) {
			return sampleReservation(), nil
		},
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations/BK251201001", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("BK251201001")

	h := NewReservationHandler(alloc, nil)
	err := h.GetReservation(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCheckAvailability_Handler_Success(t *testing.T) {
	alloc := &mockAllocator{
		checkFn: func(ctx context.Context, date, startTime string, duration float64, partySize int) (*service.Availability, error) {
			return &service.Availability{Available: true, Bay: "Bay 2"}, nil
		},
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/availability?date=2025-12-01&start=14:00&duration=1&party_size=2", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewReservationHandler(alloc, nil)
	err := h.CheckAvailability(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.AvailabilityResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Available)
	assert.Equal(t, "Bay 2", resp.Bay)
}

func TestCheckAvailability_Handler_PartyTooLarge(t *testing.T) {
	alloc := &mockAllocator{
		checkFn: func(ctx context.Context, date, startTime string, duration float64, partySize int) (*service.Availability, error) {
			return nil, service.ErrPartyTooLarge
		},
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/availability?date=2025-12-01&start=14:00&duration=1&party_size=9", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewReservationHandler(alloc, nil)
	err := h.CheckAvailability(c)

	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.AvailabilityResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Available)
}

func TestCheckAvailability_Handler_MissingParams(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/availability", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := NewReservationHandler(nil, nil)
	err := h.CheckAvailability(c)

	he, ok := err.(*echo.HTTPError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}
