package dto

import (
	"time"

	"github.com/chaiyot/bay-booking/internal/models"
)

type ReservationResponse struct {
	ID                 string                   `json:"id"`
	CustomerID         *uint                    `json:"customer_id,omitempty"`
	Name               string                   `json:"name"`
	PhoneNumber        string                   `json:"phone_number"`
	Email              *string                  `json:"email,omitempty"`
	Date               string                   `json:"date"`
	StartTime          string                   `json:"start_time"`
	Duration           float64                  `json:"duration"`
	NumberOfPeople     int                      `json:"number_of_people"`
	Bay                string                   `json:"bay"`
	Status             models.ReservationStatus `json:"status"`
	SourceChannel      string                   `json:"source_channel"`
	ExternalKey        *string                  `json:"external_key,omitempty"`
	Notes              *string                  `json:"notes,omitempty"`
	CancellationReason *string                  `json:"cancellation_reason,omitempty"`
	CancelledBy        *string                  `json:"cancelled_by,omitempty"`
	CreatedAt          time.Time                `json:"created_at"`
}

type CustomerResponse struct {
	ID              uint    `json:"id"`
	CustomerCode    string  `json:"customer_code"`
	CustomerName    string  `json:"customer_name"`
	ContactNumber   *string `json:"contact_number,omitempty"`
	Email           *string `json:"email,omitempty"`
	NormalizedPhone *string `json:"normalized_phone,omitempty"`
	IsActive        bool    `json:"is_active"`
}

type MatchCustomerResponse struct {
	Customer   CustomerResponse `json:"customer"`
	IsNew      bool             `json:"is_new"`
	MatchedBy  string           `json:"matched_by,omitempty"`
	Confidence string           `json:"confidence,omitempty"`
}

type AvailabilityResponse struct {
	Available bool   `json:"available"`
	Bay       string `json:"bay,omitempty"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func ToReservationResponse(r *models.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:                 r.ID,
		CustomerID:         r.CustomerID,
		Name:               r.Name,
		PhoneNumber:        r.PhoneNumber,
		Email:              r.Email,
		Date:               r.Date,
		StartTime:          r.StartTime,
		Duration:           r.Duration,
		NumberOfPeople:     r.NumberOfPeople,
		Bay:                r.Bay,
		Status:             r.Status,
		SourceChannel:      r.SourceChannel,
		ExternalKey:        r.ExternalKey,
		Notes:              r.Notes,
		CancellationReason: r.CancellationReason,
		CancelledBy:        r.CancelledBy,
		CreatedAt:          r.CreatedAt,
	}
}

func ToCustomerResponse(c *models.Customer) CustomerResponse {
	return CustomerResponse{
		ID:              c.ID,
		CustomerCode:    c.CustomerCode,
		CustomerName:    c.CustomerName,
		ContactNumber:   c.ContactNumber,
		Email:           c.Email,
		NormalizedPhone: c.NormalizedPhone,
		IsActive:        c.IsActive,
	}
}
