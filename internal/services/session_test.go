package services

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/vitalcoach-backend/internal/middleware"
)

var (
	_ middleware.SessionResolver  = (*SessionValidator)(nil)
	_ middleware.SessionRefresher = (*SessionValidator)(nil)
)

func TestSessionValidator(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	const userID = "5f0c7a8e-3b7b-4a5e-9d8f-1c2b3a4d5e6f"
	require.NoError(t, mr.Set(SessionKeyPrefix+"good", userID))
	require.NoError(t, mr.Set(SessionKeyPrefix+"garbled", "not-a-uuid"))

	v := NewSessionValidator(rdb)
	ctx := context.Background()

	tests := []struct {
		name    string
		token   string
		want    string
		ok      bool
		wantErr bool
	}{
		{"valid", "good", userID, true, false},
		{"empty token", "", "", false, false},
		{"unknown token", "missing", "", false, false},
		{"bad user id", "garbled", "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := v.ValidateSession(ctx, tt.token)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	require.NoError(t, v.RefreshSession(ctx, "good"))
	assert.Equal(t, SessionDuration, mr.TTL(SessionKeyPrefix+"good"))
}
