package models

import "time"

type ReservationStatus string

const (
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCancelled ReservationStatus = "cancelled"
)

// Reservation rows are never deleted; cancellation flips Status and records
// who cancelled and why.
type Reservation struct {
	ID                 string            `gorm:"type:varchar(20);primaryKey" json:"id"`
	CustomerID         *uint             `gorm:"index" json:"customer_id,omitempty"`
	Name               string            `gorm:"type:varchar(255);not null" json:"name"`
	PhoneNumber        string            `gorm:"type:varchar(50);not null" json:"phone_number"`
	Email              *string           `gorm:"type:varchar(255)" json:"email,omitempty"`
	Date               string            `gorm:"type:varchar(10);not null;index" json:"date"`
	StartTime          string            `gorm:"type:varchar(5);not null" json:"start_time"`
	Duration           float64           `gorm:"not null" json:"duration"`
	NumberOfPeople     int               `gorm:"not null" json:"number_of_people"`
	Bay                string            `gorm:"type:varchar(20);not null" json:"bay"`
	Status             ReservationStatus `gorm:"type:varchar(20);not null;default:'confirmed'" json:"status"`
	SourceChannel      string            `gorm:"type:varchar(30);not null" json:"source_channel"`
	ExternalKey        *string           `gorm:"type:varchar(100);index" json:"external_key,omitempty"`
	Notes              *string           `gorm:"type:text" json:"notes,omitempty"`
	CancellationReason *string           `gorm:"type:text" json:"cancellation_reason,omitempty"`
	CancelledBy        *string           `gorm:"type:varchar(100)" json:"cancelled_by,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`

	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}
