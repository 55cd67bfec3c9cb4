// internal/server/handlers/people.go

package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"roomglobe/internal/domain/people"
	"roomglobe/internal/service/rooms"
)

// PeopleService defines the profile and like operations the handlers need
type PeopleService interface {
	Me(ctx context.Context) (*rooms.Me, error)
	Profile(ctx context.Context, userID string) (*rooms.Profile, error)
	Like(ctx context.Context, userID string) (*people.User, error)
	Unlike(ctx context.Context, userID string) (*people.User, error)
	Mutuals(ctx context.Context) ([]rooms.Mutual, error)
}

// PeopleHandler handles profile requests
type PeopleHandler struct {
	service PeopleService
}

// NewPeopleHandler creates a new people handler
func NewPeopleHandler(service PeopleService) *PeopleHandler {
	return &PeopleHandler{
		service: service,
	}
}

// GetMe returns the current user's profile and rooms
func (h *PeopleHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	me, err := h.service.Me(r.Context())
	if err != nil {
		respondWithServiceError(w, "Failed to load profile", err)
		return
	}

	respondWithJSON(w, http.StatusOK, me)
}

// GetProfile returns a member profile
func (h *PeopleHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "Missing user ID", nil)
		return
	}

	p, err := h.service.Profile(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, "Failed to load profile", err)
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

// Like records that the current user likes a member
func (h *PeopleHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.like(w, r, h.service.Like, "Failed to like user")
}

// Unlike withdraws a like
func (h *PeopleHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.like(w, r, h.service.Unlike, "Failed to unlike user")
}

func (h *PeopleHandler) like(
	w http.ResponseWriter,
	r *http.Request,
	action func(context.Context, string) (*people.User, error),
	failure string,
) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "Missing user ID", nil)
		return
	}

	u, err := action(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, failure, err)
		return
	}

	if u == nil {
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok", "user_id": id})
		return
	}
	respondWithJSON(w, http.StatusOK, u)
}

// GetMutuals returns members who like the current user back
func (h *PeopleHandler) GetMutuals(w http.ResponseWriter, r *http.Request) {
	mutuals, err := h.service.Mutuals(r.Context())
	if err != nil {
		respondWithServiceError(w, "Failed to load mutuals", err)
		return
	}

	respondWithJSON(w, http.StatusOK, mutuals)
}
