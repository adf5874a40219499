package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/AnshRaj112/vitalcoach-backend/internal/models"
)

type ProfileResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Profile *models.Profile `json:"profile,omitempty"`
}

// SubmitProfile handles PUT /api/profile.
func (h *Handler) SubmitProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var p models.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	saved, err := h.coach.SubmitProfile(ctx, userID, p)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileResponse{Success: true, Message: "Profile saved", Profile: saved})
}

// GetProfile handles GET /api/profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	p, err := h.coach.Profile(ctx, userID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ProfileResponse{Success: true, Profile: p})
}
