package models

import "time"

type SourceType string

const (
	SourceEmail    SourceType = "email"
	SourceLeadForm SourceType = "lead_form"
	SourceManual   SourceType = "manual"
)

type ActionTaken string

const (
	ActionReservationCreated   ActionTaken = "reservation_created"
	ActionReservationCancelled ActionTaken = "reservation_cancelled"
	ActionNoCapacity           ActionTaken = "no_capacity"
	ActionError                ActionTaken = "error"
)

// ProcessedMessage is the at-most-once barrier: one row per upstream message
// id, inserted exactly once and never updated.
type ProcessedMessage struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	MessageID     string      `gorm:"type:varchar(255);uniqueIndex;not null" json:"message_id"`
	SourceType    SourceType  `gorm:"type:varchar(30);not null;index" json:"source_type"`
	ActionTaken   ActionTaken `gorm:"type:varchar(30);not null" json:"action_taken"`
	ReservationID *string     `gorm:"type:varchar(20)" json:"reservation_id,omitempty"`
	ErrorMessage  *string     `gorm:"type:text" json:"error_message,omitempty"`
	Subject       *string     `gorm:"type:text" json:"subject,omitempty"`
	MessageDate   *time.Time  `json:"message_date,omitempty"`
	ProcessedAt   time.Time   `gorm:"autoCreateTime" json:"processed_at"`
}

func (ProcessedMessage) TableName() string {
	return "processed_messages"
}

func ValidSourceType(s SourceType) bool {
	switch s {
	case SourceEmail, SourceLeadForm, SourceManual:
		return true
	}
	return false
}

func ValidActionTaken(a ActionTaken) bool {
	switch a {
	case ActionReservationCreated, ActionReservationCancelled, ActionNoCapacity, ActionError:
		return true
	}
	return false
}
