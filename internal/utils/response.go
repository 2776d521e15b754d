package utils

import (
	"encoding/json"
	"net/http"

	"github.com/brizzai/address-relay/internal/logger"
	"go.uber.org/zap"
)

// SubmissionResponse is the body of every /api/address answer
type SubmissionResponse struct {
	OK    bool   `json:"ok"`
	Mode  string `json:"mode,omitempty"`
	Error string `json:"error,omitempty"`
}

// WriteJSON writes data as a JSON response with the given status
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// WriteError writes {"ok":false,"error":message}
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, SubmissionResponse{OK: false, Error: message})
}
