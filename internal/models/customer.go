package models

import "time"

type Customer struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CustomerCode    string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"customer_code"`
	CustomerName    string    `gorm:"type:varchar(255);not null" json:"customer_name"`
	ContactNumber   *string   `gorm:"type:varchar(50)" json:"contact_number,omitempty"`
	Email           *string   `gorm:"type:varchar(255)" json:"email,omitempty"`
	NormalizedPhone *string   `gorm:"type:varchar(20)" json:"normalized_phone,omitempty"`
	IsActive        bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
