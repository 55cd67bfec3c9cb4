// internal/server/handlers/respond.go

package handlers

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"roomglobe/internal/adapter/backend"
	"roomglobe/internal/logging"
	"roomglobe/internal/service/rooms"
)

// Helper for JSON responses
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Failed to marshal response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Helper for error responses
func respondWithError(w http.ResponseWriter, code int, message string, err error) {
	response := map[string]string{"error": message}

	if err != nil && code >= 500 {
		logging.Error().Err(err).Int("code", code).Str("message", message).Msg("HTTP error")
	}

	jsonResponse, _ := json.Marshal(response)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(jsonResponse)
}

// respondWithServiceError maps service and backend errors onto HTTP statuses
func respondWithServiceError(w http.ResponseWriter, message string, err error) {
	var apiErr *backend.APIError

	switch {
	case errors.Is(err, rooms.ErrNotFound), errors.Is(err, backend.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Not found", nil)
	case errors.Is(err, rooms.ErrSelfLike):
		respondWithError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		respondWithError(w, http.StatusServiceUnavailable, "Backend unavailable", err)
	case errors.As(err, &apiErr) && apiErr.StatusCode < 500:
		msg := apiErr.Detail
		if msg == "" {
			msg = message
		}
		respondWithError(w, apiErr.StatusCode, msg, nil)
	default:
		respondWithError(w, http.StatusBadGateway, message, err)
	}
}
