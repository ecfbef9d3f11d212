// Package providers talks to remote lock services and normalizes their
// inconsistent response shapes into classified outcomes.
package providers

import (
	"context"
	"time"

	"github.com/lodgekey/lodgekey/models"
	"github.com/lodgekey/lodgekey/schedule"
)

// CreateResult classifies the outcome of a create call.
type CreateResult int

const (
	CreateSuccess CreateResult = iota
	CreateDuplicate
	CreateError
)

func (r CreateResult) String() string {
	switch r {
	case CreateSuccess:
		return "success"
	case CreateDuplicate:
		return "duplicate"
	default:
		return "error"
	}
}

// CreateOutcome carries the classification plus whatever the service
// disclosed about it.
type CreateOutcome struct {
	Result     CreateResult
	RemoteID   string
	StatusCode int
	Message    string
}

// LockProvider is the gateway contract for one remote lock service.
//
// ListCodes returns whatever it managed to collect before the first
// failing page; callers must treat a short or empty list as "search was
// inconclusive", never as "no codes exist". DeleteCode is idempotent:
// deleting an already-gone code succeeds.
type LockProvider interface {
	ListCodes(ctx context.Context, deviceID string) []models.RemoteCode
	CreateCode(ctx context.Context, req *models.CreateCodeRequest) *CreateOutcome
	DeleteCode(ctx context.Context, remoteID, deviceID string) error
	FindMatching(ctx context.Context, deviceID, code string, window schedule.Window, tolerance time.Duration) (*models.RemoteCode, bool)
	IsAvailable(ctx context.Context) bool
}
