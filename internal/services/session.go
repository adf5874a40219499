package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// SessionDuration is 7 days
	SessionDuration = 7 * 24 * time.Hour
	// SessionKeyPrefix is the Redis key prefix for sessions issued by the
	// auth service.
	SessionKeyPrefix = "session:"
)

// SessionValidator resolves bearer session tokens to user ids. Sessions are
// created by the external auth service; this side only reads and refreshes.
type SessionValidator struct {
	rdb redis.Cmdable
}

func NewSessionValidator(rdb redis.Cmdable) *SessionValidator {
	return &SessionValidator{rdb: rdb}
}

// ValidateSession checks if a session token is valid and returns the user ID
func (v *SessionValidator) ValidateSession(ctx context.Context, sessionToken string) (string, bool, error) {
	if sessionToken == "" {
		return "", false, nil
	}

	userIDStr, err := v.rdb.Get(ctx, SessionKeyPrefix+sessionToken).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return "", false, err
	}
	return userID.String(), true, nil
}

// RefreshSession extends the session expiration by 7 days from now.
func (v *SessionValidator) RefreshSession(ctx context.Context, sessionToken string) error {
	return v.rdb.Expire(ctx, SessionKeyPrefix+sessionToken, SessionDuration).Err()
}
