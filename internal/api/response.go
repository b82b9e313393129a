package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/UnknownOlympus/pharmacy-locator/internal/models"
)

type errorResponse struct {
	Error     string           `json:"error"`
	ErrorKind models.ErrorKind `json:"errorKind,omitempty"`
}

// WriteJSON encodes payload with the given status.
func WriteJSON(log *slog.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && log != nil {
		log.Error("failed to encode response", "error", err)
	}
}

func writeError(log *slog.Logger, w http.ResponseWriter, status int, message string) {
	WriteJSON(log, w, status, errorResponse{Error: message})
}

// statusForKind maps a failed lookup to the HTTP status returned with its snapshot.
func statusForKind(kind models.ErrorKind) int {
	switch kind {
	case models.KindNone:
		return http.StatusOK
	case models.KindPermissionDenied:
		return http.StatusForbidden
	case models.KindConfiguration:
		return http.StatusInternalServerError
	case models.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
