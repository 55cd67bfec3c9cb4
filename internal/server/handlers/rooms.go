// internal/server/handlers/rooms.go

package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"roomglobe/internal/domain/room"
	"roomglobe/internal/service/rooms"
)

// RoomService defines the room operations the handlers need
type RoomService interface {
	WaitingRoom(ctx context.Context, groupID string) (*rooms.WaitingRoom, error)
	Join(ctx context.Context, groupID string) (*room.Group, error)
	Leave(ctx context.Context, groupID string) (*room.Group, error)
}

// RoomHandler handles waiting room requests
type RoomHandler struct {
	service RoomService
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(service RoomService) *RoomHandler {
	return &RoomHandler{
		service: service,
	}
}

// GetWaitingRoom returns a room with its members
func (h *RoomHandler) GetWaitingRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "Missing room ID", nil)
		return
	}

	wr, err := h.service.WaitingRoom(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, "Failed to load room", err)
		return
	}

	respondWithJSON(w, http.StatusOK, wr)
}

// JoinRoom adds the current user to a room
func (h *RoomHandler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	h.membership(w, r, h.service.Join, "Failed to join room")
}

// LeaveRoom removes the current user from a room
func (h *RoomHandler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	h.membership(w, r, h.service.Leave, "Failed to leave room")
}

func (h *RoomHandler) membership(
	w http.ResponseWriter,
	r *http.Request,
	action func(context.Context, string) (*room.Group, error),
	failure string,
) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "Missing room ID", nil)
		return
	}

	g, err := action(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, failure, err)
		return
	}

	if g == nil {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok", "group_id": id})
		return
	}
	respondWithJSON(w, http.StatusOK, g)
}
