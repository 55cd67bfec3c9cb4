// internal/server/handlers/globe.go

package handlers

import (
	"context"
	"net/http"
	"time"

	"roomglobe/internal/domain/globe"
)

// LayoutSource provides the static globe layout
type LayoutSource interface {
	Layout() globe.Layout
}

// Pinger checks that the backend is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// GlobeHandler serves the globe layout and health
type GlobeHandler struct {
	layout   LayoutSource
	backend  Pinger
	sessions func() int
}

// NewGlobeHandler creates a new globe handler
func NewGlobeHandler(layout LayoutSource, backend Pinger, sessions func() int) *GlobeHandler {
	return &GlobeHandler{
		layout:   layout,
		backend:  backend,
		sessions: sessions,
	}
}

// GetLayout returns node positions, edges and size constants
func (h *GlobeHandler) GetLayout(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.layout.Layout())
}

// Health reports service status. A dead backend degrades the globe to
// empty data, so it is reported but does not fail the check.
func (h *GlobeHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]interface{}{
		"status":  "ok",
		"backend": "ok",
	}
	if h.sessions != nil {
		status["sessions"] = h.sessions()
	}
	if err := h.backend.Ping(ctx); err != nil {
		status["backend"] = "unreachable"
	}

	respondWithJSON(w, http.StatusOK, status)
}
