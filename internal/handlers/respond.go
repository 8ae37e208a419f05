package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/videotube/backend/internal/logging"
)

type envelope struct {
	StatusCode int    `json:"statusCode"`
	Success    bool   `json:"success"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message"`
}

type errorEnvelope struct {
	StatusCode int      `json:"statusCode"`
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors"`
}

// respondJSON writes a success envelope.
func respondJSON(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	writeJSON(ctx, w, status, envelope{
		StatusCode: status,
		Success:    true,
		Data:       data,
		Message:    message,
	})
}

// respondError translates err into its HTTP shape and writes an error
// envelope. Every handler failure funnels through here so the status mapping
// and logging stay in one place.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	status, message, details := httpError(err)

	logger := logging.FromContext(ctx)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request rejected", "status", status, "error", err)
	}

	if details == nil {
		details = []string{}
	}
	writeJSON(ctx, w, status, errorEnvelope{
		StatusCode: status,
		Success:    false,
		Message:    message,
		Errors:     details,
	})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
	}
}
