package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/lodgekey/lodgekey/config"
	"github.com/lodgekey/lodgekey/models"
	"github.com/lodgekey/lodgekey/services"
	"github.com/lodgekey/lodgekey/utils"
)

const maxPayloadBytes = 1 << 20

// WebhookHandler is the inbound boundary: it resolves the payload's
// shape (single event, batch, or cleanup trigger) exactly once and
// feeds canonical envelopes to the reconciler.
type WebhookHandler struct {
	reconciler *services.Reconciler
	cfg        *config.Config
	logger     *utils.Logger
}

func NewWebhookHandler(reconciler *services.Reconciler, cfg *config.Config) *WebhookHandler {
	return &WebhookHandler{
		reconciler: reconciler,
		cfg:        cfg,
		logger:     utils.NewLogger("api"),
	}
}

// HandleBookingEvent accepts one event object or an array of them. A
// batch is processed strictly in order with positional results; one
// failing item never stops the rest.
func (h *WebhookHandler) HandleBookingEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Failed to read request body"})
		return
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid payload."})
		return
	}

	ctx := r.Context()

	if trimmed[0] == '[' {
		var envelopes []*models.EventEnvelope
		if err := json.Unmarshal(trimmed, &envelopes); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid payload."})
			return
		}

		results := make([]models.EventResult, 0, len(envelopes))
		allAccepted := true
		for _, env := range envelopes {
			// a JSON null element decodes to a nil envelope
			if env == nil {
				allAccepted = false
				results = append(results, models.Rejected("Invalid payload."))
				continue
			}
			result := h.reconciler.HandleEvent(ctx, env)
			if result.Status != models.StatusAccepted {
				allAccepted = false
			}
			results = append(results, result)
		}

		status := http.StatusOK
		if !allAccepted {
			status = http.StatusMultiStatus
		}
		writeJSON(w, status, results)
		return
	}

	var envelope models.EventEnvelope
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		h.logger.Error(ctx, "Unexpected payload shape", map[string]interface{}{"error": err.Error()})
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid payload."})
		return
	}

	if envelope.IsCleanupTrigger(h.cfg.Provisioning.SchedulerSource) {
		writeJSON(w, http.StatusOK, h.reconciler.Cleanup(ctx))
		return
	}

	result := h.reconciler.HandleEvent(ctx, &envelope)
	writeJSON(w, httpStatus(result), result)
}

// HandleCleanup runs the expired-code sweep on demand.
func (h *WebhookHandler) HandleCleanup(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.reconciler.Cleanup(r.Context()))
}
