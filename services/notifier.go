package services

import (
	"context"

	"github.com/lodgekey/lodgekey/models"
)

// Notifier delivers a guest notification. Only the send contract
// (recipient, subject, body) is consumed here; transport and rendering
// live behind the interface.
type Notifier interface {
	Notify(ctx context.Context, notification models.Notification) error
}
