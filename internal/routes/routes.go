package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/vitalcoach-backend/internal/handlers"
)

// SetupRoutes registers the coaching API. auth must put the user id on the
// request context; turnLimit throttles HTTP chat turns and may be nil.
func SetupRoutes(r chi.Router, h *handlers.Handler, auth, turnLimit func(http.Handler) http.Handler) {
	// Health check (no auth)
	r.Get("/health", handlers.Health)

	r.Group(func(r chi.Router) {
		r.Use(auth)

		// Profile intake
		r.Put("/api/profile", h.SubmitProfile)
		r.Get("/api/profile", h.GetProfile)

		// Plans
		r.Post("/api/plans/generate", h.GeneratePlans)
		r.Get("/api/plans", h.GetPlans)
		r.Get("/api/plans/{role}", h.GetPlan)
		r.Get("/api/plans/{role}/updates", h.GetUpdateHistory)
		r.Post("/api/plans/{role}/reset", h.ResetPlan)

		// Chat
		r.Get("/api/chat/{role}/history", h.GetChatHistory)
		r.Get("/api/chat/{role}/stats", h.GetSessionStats)
		r.Delete("/api/chat/{role}", h.ClearChat)
		r.Group(func(r chi.Router) {
			if turnLimit != nil {
				r.Use(turnLimit)
			}
			r.Post("/api/chat/{role}", h.Chat)
		})

		// WebSocket chat (rate limited per frame inside the handler)
		r.Get("/ws/chat", h.ChatWebSocket)
	})
}
