// Package notifications delivers guest notifications to configured
// downstream endpoints as signed JSON webhooks.
package notifications

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lodgekey/lodgekey/models"
	"github.com/lodgekey/lodgekey/utils"
)

type delivery struct {
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	SentAt    time.Time `json:"sent_at"`
}

// Manager fans one notification out to every configured endpoint.
// Delivery is retried with backoff; a partial failure fails the send.
type Manager struct {
	endpoints []string
	secret    string
	client    *http.Client
	logger    *utils.Logger
}

func NewManager(endpoints []string, secret string, timeout time.Duration) *Manager {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Manager{
		endpoints: endpoints,
		secret:    secret,
		client:    &http.Client{Timeout: timeout},
		logger:    utils.NewLogger("notifications"),
	}
}

func (m *Manager) Notify(ctx context.Context, notification models.Notification) error {
	payload, err := json.Marshal(delivery{
		Recipient: notification.Recipient,
		Subject:   notification.Subject,
		Body:      notification.Body,
		SentAt:    time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	signature := m.sign(payload)

	var firstErr error
	for _, endpoint := range m.endpoints {
		err := utils.Retry(ctx, utils.DefaultRetryConfig(), func() error {
			return m.deliver(ctx, endpoint, payload, signature)
		})
		if err != nil {
			m.logger.Error(ctx, "Notification delivery failed", map[string]interface{}{
				"endpoint": endpoint, "error": err.Error(),
			})
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (m *Manager) deliver(ctx context.Context, endpoint string, payload []byte, signature string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("X-Signature", signature)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

func (m *Manager) sign(payload []byte) string {
	if m.secret == "" {
		return ""
	}
	mac := hmac.New(sha256.New, []byte(m.secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
