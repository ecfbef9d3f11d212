package api

import (
	"encoding/json"
	"net/http"

	"github.com/lodgekey/lodgekey/models"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

func httpStatus(result models.EventResult) int {
	switch result.Status {
	case models.StatusAccepted:
		return http.StatusOK
	case models.StatusRejected:
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
