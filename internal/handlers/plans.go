package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/AnshRaj112/vitalcoach-backend/internal/models"
	"github.com/AnshRaj112/vitalcoach-backend/internal/services"
)

type PlansResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Plans   []models.PlanView `json:"plans"`
}

type PlanResponse struct {
	Success bool             `json:"success"`
	Plan    *models.PlanView `json:"plan"`
}

type UpdateHistoryResponse struct {
	Success bool                 `json:"success"`
	Role    models.Role          `json:"role"`
	Updates []models.LedgerEntry `json:"updates"`
}

type ResetResponse struct {
	Success bool `json:"success"`
	*services.ResetResult
}

// GeneratePlans handles POST /api/plans/generate. An optional profile body
// is saved first, so intake and generation can be one request.
func (h *Handler) GeneratePlans(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var p models.Profile
	err := json.NewDecoder(r.Body).Decode(&p)
	switch {
	case errors.Is(err, io.EOF):
	case err != nil:
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	default:
		if _, err := h.coach.SubmitProfile(r.Context(), userID, p); err != nil {
			h.writeAppError(w, r, err)
			return
		}
	}

	plans, err := h.coach.GeneratePlans(r.Context(), userID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, PlansResponse{Success: true, Message: "Plans generated", Plans: plans})
}

// GetPlans handles GET /api/plans.
func (h *Handler) GetPlans(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	plans, err := h.coach.CurrentPlans(ctx, userID)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PlansResponse{Success: true, Plans: plans})
}

// GetPlan handles GET /api/plans/{role}.
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	role, ok := roleParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	plan, err := h.coach.Plan(ctx, userID, role)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PlanResponse{Success: true, Plan: plan})
}

// GetUpdateHistory handles GET /api/plans/{role}/updates. Newest first.
func (h *Handler) GetUpdateHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	role, ok := roleParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	entries, err := h.coach.UpdateHistory(ctx, userID, role)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, UpdateHistoryResponse{Success: true, Role: role, Updates: entries})
}

// ResetPlan handles POST /api/plans/{role}/reset. Resetting an original plan
// succeeds with reset=false.
func (h *Handler) ResetPlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	role, ok := roleParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.lockWait)
	defer cancel()

	res, err := h.coach.ResetToOriginal(ctx, userID, role)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ResetResponse{Success: true, ResetResult: res})
}
