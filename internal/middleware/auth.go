package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const userIDKey contextKey = "user_id"

// SessionResolver maps a session token to a user id.
type SessionResolver interface {
	ValidateSession(ctx context.Context, token string) (string, bool, error)
}

// SessionRefresher is implemented by resolvers with sliding expiration.
type SessionRefresher interface {
	RefreshSession(ctx context.Context, token string) error
}

// TrustedTokens treats the bearer token itself as the user id. Only for
// STORE_BACKEND=memory local runs, where there is no session store.
type TrustedTokens struct{}

func (TrustedTokens) ValidateSession(_ context.Context, token string) (string, bool, error) {
	return token, token != "", nil
}

// ExtractBearerToken returns the token from "Bearer <token>", or "".
func ExtractBearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// RequireSession rejects requests without a valid session and stores the
// user id in the request context. Browser WebSocket clients may pass the
// token as ?token= since they cannot set headers. Valid sessions are
// refreshed when the resolver is a SessionRefresher; a failed refresh does
// not reject the request.
func RequireSession(sessions SessionResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractBearerToken(r.Header.Get("Authorization"))
			if token == "" {
				token = r.URL.Query().Get("token")
			}
			if token == "" {
				writeJSONError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			userID, ok, err := sessions.ValidateSession(r.Context(), token)
			if err != nil || !ok {
				writeJSONError(w, http.StatusUnauthorized, "Invalid or expired session")
				return
			}
			if refresher, ok := sessions.(SessionRefresher); ok {
				_ = refresher.RefreshSession(r.Context(), token)
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the id stored by RequireSession.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"success":false,"message":"` + message + `"}`))
}
