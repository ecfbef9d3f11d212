package models

import (
	"time"
)

// CodeRecord is the idempotency record: the engine's memory of the last
// code it believes is live for a booking. It is best-effort and never
// authoritative over the lock service; every reconciliation re-validates
// what it implies before acting on it.
type CodeRecord struct {
	BookingID  string     `json:"booking_id" gorm:"primaryKey"`
	PropertyID string     `json:"property_id"`
	DeviceID   string     `json:"device_id" gorm:"not null"`
	RemoteID   string     `json:"access_code_id"`
	Code       string     `json:"code" gorm:"not null"`
	StartsAt   string     `json:"starts_at"`
	EndsAt     string     `json:"ends_at"`
	GuestName  string     `json:"guest_name"`
	CodeSource string     `json:"code_source"`
	UpdatedAt  time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

func (CodeRecord) TableName() string {
	return "code_records"
}
