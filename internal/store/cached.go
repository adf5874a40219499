package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/vitalcoach-backend/internal/logger"
	"github.com/AnshRaj112/vitalcoach-backend/internal/models"
)

const (
	threadRecentKeyPrefix = "thread:"
	threadRecentKeySuffix = ":recent"
	threadRecentTTL       = 1 * time.Hour
	cacheOpTimeout        = 2 * time.Second
)

func threadRecentKey(userID string, role models.Role) string {
	return threadRecentKeyPrefix + userID + ":" + string(role) + threadRecentKeySuffix
}

// CachedStore keeps the most recent window of each thread in Redis in front
// of another PlanStore.
//
// Writers always overwrite the cached window with the state they just
// committed. Readers only fill a missing window (SETNX), so a slow reader
// never replaces a newer window with an older one.
type CachedStore struct {
	PlanStore
	rdb    redis.Cmdable
	window int
	log    *logger.Logger
}

func NewCachedStore(inner PlanStore, rdb redis.Cmdable, window int, log *logger.Logger) *CachedStore {
	if log == nil {
		log = logger.Nop()
	}
	return &CachedStore{PlanStore: inner, rdb: rdb, window: window, log: log}
}

func (s *CachedStore) RecentTurns(ctx context.Context, userID string, role models.Role, limit int) ([]models.Turn, error) {
	if limit <= 0 || limit > s.window {
		return s.PlanStore.RecentTurns(ctx, userID, role, limit)
	}

	key := threadRecentKey(userID, role)
	if turns, ok := s.cached(ctx, key); ok {
		return tail(turns, limit), nil
	}

	turns, err := s.PlanStore.RecentTurns(ctx, userID, role, s.window)
	if err != nil {
		return nil, err
	}
	s.warm(ctx, key, turns)
	return tail(turns, limit), nil
}

func (s *CachedStore) AppendTurn(ctx context.Context, userID string, role models.Role, turn models.Turn, rev *models.Revision) (*models.Plan, error) {
	plan, err := s.PlanStore.AppendTurn(ctx, userID, role, turn, rev)
	if err != nil {
		return nil, err
	}
	turns, err := s.PlanStore.RecentTurns(ctx, userID, role, s.window)
	if err != nil {
		s.invalidate(ctx, threadRecentKey(userID, role))
		return plan, nil
	}
	s.overwrite(ctx, threadRecentKey(userID, role), turns)
	return plan, nil
}

func (s *CachedStore) ClearThread(ctx context.Context, userID string, role models.Role) error {
	if err := s.PlanStore.ClearThread(ctx, userID, role); err != nil {
		return err
	}
	s.overwrite(ctx, threadRecentKey(userID, role), nil)
	return nil
}

func (s *CachedStore) ResetPlan(ctx context.Context, userID string, role models.Role) (bool, error) {
	reset, err := s.PlanStore.ResetPlan(ctx, userID, role)
	if err != nil || !reset {
		return reset, err
	}
	s.overwrite(ctx, threadRecentKey(userID, role), nil)
	return true, nil
}

func (s *CachedStore) ReplacePlans(ctx context.Context, userID string, contents map[models.Role]string, at time.Time) ([]models.Plan, error) {
	plans, err := s.PlanStore.ReplacePlans(ctx, userID, contents, at)
	if err != nil {
		return nil, err
	}
	for _, r := range models.Roles {
		s.overwrite(ctx, threadRecentKey(userID, r), nil)
	}
	return plans, nil
}

func (s *CachedStore) cached(ctx context.Context, key string) ([]models.Turn, bool) {
	cctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()

	raw, err := s.rdb.Get(cctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn("thread cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	var turns []models.Turn
	if err := json.Unmarshal(raw, &turns); err != nil {
		s.invalidate(ctx, key)
		return nil, false
	}
	return turns, true
}

func (s *CachedStore) warm(ctx context.Context, key string, turns []models.Turn) {
	data, err := json.Marshal(emptyIfNil(turns))
	if err != nil {
		return
	}
	cctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()
	if err := s.rdb.SetNX(cctx, key, data, threadRecentTTL).Err(); err != nil {
		s.log.Warn("thread cache warm failed", "key", key, "error", err)
	}
}

func (s *CachedStore) overwrite(ctx context.Context, key string, turns []models.Turn) {
	data, err := json.Marshal(emptyIfNil(turns))
	if err != nil {
		s.invalidate(ctx, key)
		return
	}
	cctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()
	if err := s.rdb.Set(cctx, key, data, threadRecentTTL).Err(); err != nil {
		s.log.Warn("thread cache write failed", "key", key, "error", err)
		s.invalidate(ctx, key)
	}
}

func (s *CachedStore) invalidate(ctx context.Context, key string) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheOpTimeout)
	defer cancel()
	if err := s.rdb.Del(cctx, key).Err(); err != nil {
		s.log.Error("thread cache invalidate failed", "key", key, "error", err)
	}
}

func tail(turns []models.Turn, limit int) []models.Turn {
	if limit > 0 && len(turns) > limit {
		return turns[len(turns)-limit:]
	}
	return turns
}

func emptyIfNil(turns []models.Turn) []models.Turn {
	if turns == nil {
		return []models.Turn{}
	}
	return turns
}
