package api

import (
	"net/http"
	"time"

	"github.com/lodgekey/lodgekey/monitoring"
	"github.com/lodgekey/lodgekey/providers"
)

type HealthResponse struct {
	Status      string           `json:"status"`
	Timestamp   time.Time        `json:"timestamp"`
	Uptime      string           `json:"uptime"`
	LockService string           `json:"lock_service,omitempty"`
	Counters    map[string]int64 `json:"counters,omitempty"`
}

type HealthHandler struct {
	metrics  *monitoring.Metrics
	provider providers.LockProvider
}

func NewHealthHandler(metrics *monitoring.Metrics, provider providers.LockProvider) *HealthHandler {
	return &HealthHandler{metrics: metrics, provider: provider}
}

func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
	}
	if h.metrics != nil {
		response.Uptime = h.metrics.Uptime().String()
		response.Counters = h.metrics.Snapshot()
	}
	if h.provider != nil {
		if h.provider.IsAvailable(r.Context()) {
			response.LockService = "available"
		} else {
			response.LockService = "unreachable"
			response.Status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, response)
}
