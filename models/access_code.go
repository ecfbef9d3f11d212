package models

import (
	"github.com/lodgekey/lodgekey/schedule"
)

// CodeSource records where a code's digits came from. Diagnostic only;
// no decision is ever made on it.
type CodeSource string

const (
	SourcePhone             CodeSource = "phone"
	SourceBookingID         CodeSource = "booking_id"
	SourceBookingIDFallback CodeSource = "booking_id_fallback"
	SourceExisting          CodeSource = "existing"
	SourceFallbackExisting  CodeSource = "booking_id_fallback_existing"
)

// AccessCode is the desired state for one booking: a four-digit code on
// a device for a stay window. RemoteID is filled once the lock service
// confirms it.
type AccessCode struct {
	Code     string
	DeviceID string
	Window   schedule.Window
	RemoteID string
	Source   CodeSource
}

// RemoteCode is one entry as the lock service reports it. IsManaged and
// Type are the service's own classification flags; both are pointers/
// zero-tolerant because not every backend version sends them.
type RemoteCode struct {
	RemoteID  string `json:"access_code_id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	StartsAt  string `json:"starts_at"`
	EndsAt    string `json:"ends_at"`
	IsManaged *bool  `json:"is_managed"`
	Type      string `json:"type"`
}

// Unmanaged reports codes the service explicitly flags as not ours.
// An absent flag counts as managed.
func (c *RemoteCode) Unmanaged() bool {
	return c.IsManaged != nil && !*c.IsManaged
}

// TimeBound reports whether the code is (or may be) a time-bound code.
// An absent type counts as time-bound.
func (c *RemoteCode) TimeBound() bool {
	return c.Type == "" || c.Type == "time_bound"
}

// CreateCodeRequest is the create payload for the lock service.
type CreateCodeRequest struct {
	DeviceID string `json:"device_id"`
	Code     string `json:"code"`
	Name     string `json:"name,omitempty"`
	StartsAt string `json:"starts_at"`
	EndsAt   string `json:"ends_at"`
}

// Notification is the outbound guest message contract: recipient,
// subject, body. Rendering beyond that is out of scope.
type Notification struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}
