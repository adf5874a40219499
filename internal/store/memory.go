package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AnshRaj112/vitalcoach-backend/internal/apperr"
	"github.com/AnshRaj112/vitalcoach-backend/internal/models"
)

type unitKey struct {
	userID string
	role   models.Role
}

type unit struct {
	plan   models.Plan
	turns  []models.Turn
	ledger []models.LedgerEntry
}

// MemoryStore keeps everything in process. Used for local development
// (STORE_BACKEND=memory) and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	units    map[unitKey]*unit
	profiles map[string]models.Profile
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		units:    make(map[unitKey]*unit),
		profiles: make(map[string]models.Profile),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) SaveProfile(_ context.Context, p models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = p
	return nil
}

func (s *MemoryStore) GetProfile(_ context.Context, userID string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, apperr.NotFoundf("no profile found for user")
	}
	return &p, nil
}

func (s *MemoryStore) GetPlan(_ context.Context, userID string, role models.Role) (*models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.units[unitKey{userID, role}]
	if !ok {
		return nil, planNotFound(role)
	}
	p := u.plan
	return &p, nil
}

func (s *MemoryStore) ListPlans(_ context.Context, userID string) ([]models.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Plan
	for _, r := range models.Roles {
		if u, ok := s.units[unitKey{userID, r}]; ok {
			out = append(out, u.plan)
		}
	}
	return out, nil
}

func (s *MemoryStore) ReplacePlans(_ context.Context, userID string, contents map[models.Role]string, at time.Time) ([]models.Plan, error) {
	if err := requireAllRoles(contents); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Plan, 0, len(models.Roles))
	for _, r := range models.Roles {
		p := freshPlan(userID, r, contents[r], at)
		s.units[unitKey{userID, r}] = &unit{plan: p}
		out = append(out, p)
	}
	return out, nil
}

func (s *MemoryStore) RecentTurns(_ context.Context, userID string, role models.Role, limit int) ([]models.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.units[unitKey{userID, role}]
	if !ok {
		return nil, nil
	}
	turns := u.turns
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	return append([]models.Turn(nil), turns...), nil
}

func (s *MemoryStore) AppendTurn(_ context.Context, userID string, role models.Role, turn models.Turn, rev *models.Revision) (*models.Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.units[unitKey{userID, role}]
	if !ok {
		return nil, planNotFound(role)
	}
	now := s.now()
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = now
	}
	u.turns = append(u.turns, turn)

	if rev != nil {
		u.plan.CurrentContent = rev.Content
		u.plan.IsUpdated = true
		u.plan.ModificationSummary = rev.Summary
		u.plan.Version++
		u.plan.UpdatedAt = now
		u.ledger = append(u.ledger, models.LedgerEntry{
			ID:        uuid.NewString(),
			Summary:   rev.Summary,
			Preview:   rev.Preview,
			Version:   u.plan.Version,
			Timestamp: now,
		})
	}
	p := u.plan
	return &p, nil
}

func (s *MemoryStore) ClearThread(_ context.Context, userID string, role models.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.units[unitKey{userID, role}]; ok {
		u.turns = nil
	}
	return nil
}

func (s *MemoryStore) ThreadStats(_ context.Context, userID string, role models.Role) (models.ThreadStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.units[unitKey{userID, role}]
	if !ok {
		return models.ThreadStats{}, nil
	}
	return statsFromTurns(u.turns), nil
}

func (s *MemoryStore) Ledger(_ context.Context, userID string, role models.Role) ([]models.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.units[unitKey{userID, role}]
	if !ok {
		return nil, nil
	}
	out := make([]models.LedgerEntry, 0, len(u.ledger))
	for i := len(u.ledger) - 1; i >= 0; i-- {
		out = append(out, u.ledger[i])
	}
	return out, nil
}

func (s *MemoryStore) ResetPlan(_ context.Context, userID string, role models.Role) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.units[unitKey{userID, role}]
	if !ok {
		return false, planNotFound(role)
	}
	if !u.plan.IsUpdated {
		return false, nil
	}
	u.plan.CurrentContent = u.plan.OriginalContent
	u.plan.IsUpdated = false
	u.plan.ModificationSummary = ""
	u.plan.Version = 1
	u.plan.UpdatedAt = s.now()
	u.turns = nil
	u.ledger = nil
	return true, nil
}

func freshPlan(userID string, role models.Role, content string, at time.Time) models.Plan {
	return models.Plan{
		UserID:          userID,
		Role:            role,
		OriginalContent: content,
		CurrentContent:  content,
		Version:         1,
		GeneratedAt:     at,
		UpdatedAt:       at,
	}
}

func planNotFound(role models.Role) error {
	return apperr.NotFoundf("no %s plan found, generate plans first", role)
}
