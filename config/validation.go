package config

import (
	"fmt"
	"time"
)

// Validate checks everything that would otherwise fail at first use.
func (c *Config) Validate() error {
	if c.Lock.APIKey == "" {
		return fmt.Errorf("lock api key is required (LOCK_API_KEY)")
	}
	if c.Lock.BaseURL == "" {
		return fmt.Errorf("lock api base url is required")
	}
	if c.Lock.PageLimit <= 0 {
		return fmt.Errorf("lock page limit must be positive")
	}

	switch c.Idempotency.Backend {
	case "postgres", "redis", "none":
	default:
		return fmt.Errorf("unknown idempotency backend %q", c.Idempotency.Backend)
	}

	if len(c.Provisioning.PropertyLocks) == 0 {
		return fmt.Errorf("property lock mapping is empty")
	}
	if c.Provisioning.MatchToleranceMinutes < 0 {
		return fmt.Errorf("match tolerance must not be negative")
	}
	if _, err := time.LoadLocation(c.Provisioning.DefaultTimezone); err != nil {
		return fmt.Errorf("invalid default timezone %q: %v", c.Provisioning.DefaultTimezone, err)
	}
	for propertyID, tz := range c.Provisioning.PropertyTimezones {
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("invalid timezone %q for property %s: %v", tz, propertyID, err)
		}
	}

	if c.Cleanup.GraceDays < 0 {
		return fmt.Errorf("cleanup grace days must not be negative")
	}

	if c.Notifications.Enabled && len(c.Notifications.Endpoints) == 0 {
		return fmt.Errorf("notifications enabled but no endpoints configured")
	}

	return nil
}
