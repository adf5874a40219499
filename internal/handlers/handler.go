package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/vitalcoach-backend/internal/apperr"
	"github.com/AnshRaj112/vitalcoach-backend/internal/logger"
	"github.com/AnshRaj112/vitalcoach-backend/internal/middleware"
	"github.com/AnshRaj112/vitalcoach-backend/internal/models"
	"github.com/AnshRaj112/vitalcoach-backend/internal/services"
)

// readTimeout bounds store-only requests. Generation requests rely on the
// LLM timeout configured on the generator instead.
const readTimeout = 5 * time.Second

// defaultLockWait bounds clear and reset, which queue behind a running chat
// turn on the same plan.
const defaultLockWait = 3 * time.Minute

// Handler serves the coaching API.
type Handler struct {
	coach    *services.Coach
	events   *services.EventHub
	turns    *middleware.KeyedLimiter
	log      *logger.Logger
	lockWait time.Duration
}

// New builds a Handler. events delivers plan changes to WebSocket clients
// and turns limits WebSocket chat turns per user; both may be nil.
func New(coach *services.Coach, events *services.EventHub, turns *middleware.KeyedLimiter, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{coach: coach, events: events, turns: turns, log: log, lockWait: defaultLockWait}
}

// SetLockWait sets how long clear and reset wait for a turn in progress on
// the same plan. It should exceed the LLM timeout.
func (h *Handler) SetLockWait(d time.Duration) {
	if d > 0 {
		h.lockWait = d
	}
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Success: false, Message: message})
}

// writeAppError maps err onto the response. Internal errors are logged and
// never echoed to the client.
func (h *Handler) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeError(w, status, apperr.PublicMessage(err))
}

func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
	}
	return userID, ok
}

func roleParam(w http.ResponseWriter, r *http.Request) (models.Role, bool) {
	raw := chi.URLParam(r, "role")
	role, ok := models.ParseRole(raw)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown role: "+raw)
	}
	return role, ok
}

// Health reports liveness.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "status": "ok"})
}
