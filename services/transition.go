package services

import (
	"time"

	"github.com/lodgekey/lodgekey/models"
	"github.com/lodgekey/lodgekey/schedule"
)

// State is the engine's belief about a booking's code, derived from the
// idempotency record against the desired code.
type State int

const (
	// StateAbsent: no record; nothing is believed live.
	StateAbsent State = iota
	// StateProvisioned: the record matches the desired code and window.
	StateProvisioned
	// StateStale: a record exists but its device, code, or window differs.
	StateStale
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateProvisioned:
		return "provisioned"
	default:
		return "stale"
	}
}

// Action is the side effect a transition requires.
type Action int

const (
	// ActionCreate: provision the desired code.
	ActionCreate Action = iota
	// ActionNone: already up to date, touch nothing.
	ActionNone
	// ActionReplace: remove the old code, then provision the desired one.
	ActionReplace
)

// NextTransition is the pure provisioning policy: given the stored
// record and the desired code, it returns the current state and the
// action that converges them. No I/O happens here.
func NextTransition(record *models.CodeRecord, desired *models.AccessCode, tolerance time.Duration) (State, Action) {
	if record == nil {
		return StateAbsent, ActionCreate
	}

	if record.DeviceID != desired.DeviceID || record.Code != desired.Code {
		return StateStale, ActionReplace
	}

	start, ok := schedule.ParseRemoteTime(record.StartsAt)
	if !ok {
		return StateStale, ActionReplace
	}
	end, ok := schedule.ParseRemoteTime(record.EndsAt)
	if !ok {
		return StateStale, ActionReplace
	}

	stored := schedule.Window{Start: start, End: end}
	if stored.MatchesWithin(desired.Window, tolerance) {
		return StateProvisioned, ActionNone
	}
	return StateStale, ActionReplace
}
