package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/AnshRaj112/vitalcoach-backend/internal/models"
	"github.com/AnshRaj112/vitalcoach-backend/internal/services"
)

type ChatRequest struct {
	Message   string `json:"message"`
	ThreadRef string `json:"thread_ref,omitempty"`
}

type ChatResponse struct {
	Success     bool        `json:"success"`
	Role        models.Role `json:"role"`
	Response    string      `json:"response"`
	PlanUpdated bool        `json:"plan_updated"`
	Version     int         `json:"version"`
}

type ChatHistoryResponse struct {
	Success bool          `json:"success"`
	Role    models.Role   `json:"role"`
	Turns   []models.Turn `json:"turns"`
}

type SessionStatsResponse struct {
	Success bool               `json:"success"`
	Role    models.Role        `json:"role"`
	Stats   models.ThreadStats `json:"stats"`
}

// Chat handles POST /api/chat/{role}: one conversation turn.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	role, ok := roleParam(w, r)
	if !ok {
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.coach.Chat(r.Context(), services.TurnRequest{
		UserID:    userID,
		Role:      role,
		Message:   req.Message,
		ThreadRef: req.ThreadRef,
	})
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ChatResponse{
		Success:     true,
		Role:        role,
		Response:    res.Response,
		PlanUpdated: res.PlanUpdated,
		Version:     res.Plan.Version,
	})
}

// GetChatHistory handles GET /api/chat/{role}/history.
// Query params:
//
//	limit (optional, default 20, max 100)
func (h *Handler) GetChatHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	role, ok := roleParam(w, r)
	if !ok {
		return
	}

	limit := 0
	if lStr := r.URL.Query().Get("limit"); lStr != "" {
		parsed, err := strconv.Atoi(lStr)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	turns, err := h.coach.ChatHistory(ctx, userID, role, limit)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ChatHistoryResponse{Success: true, Role: role, Turns: turns})
}

// ClearChat handles DELETE /api/chat/{role}. The plan and its update
// history are kept.
func (h *Handler) ClearChat(w http.ResponseWriter, r *http.Request) {
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

	if err := h.coach.ClearChat(ctx, userID, role); err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Success: true, Message: "Chat history cleared"})
}

// GetSessionStats handles GET /api/chat/{role}/stats.
func (h *Handler) GetSessionStats(w http.ResponseWriter, r *http.Request) {
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

	stats, err := h.coach.SessionStats(ctx, userID, role)
	if err != nil {
		h.writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionStatsResponse{Success: true, Role: role, Stats: stats})
}
