// Package store persists profiles and the per-(user, role) consistency unit:
// the Plan, its conversation Thread and its update Ledger.
//
// Every method that mutates more than one of the three does so atomically.
// Callers never perform a separate read followed by a write.
package store

import (
	"context"
	"time"

	"github.com/AnshRaj112/vitalcoach-backend/internal/models"
)

// PlanStore is the Plan / Thread / Ledger store.
type PlanStore interface {
	// GetPlan returns the plan for (user, role) or an apperr.NotFound error.
	GetPlan(ctx context.Context, userID string, role models.Role) (*models.Plan, error)
	// ListPlans returns the user's plans in models.Roles order.
	ListPlans(ctx context.Context, userID string) ([]models.Plan, error)
	// ReplacePlans overwrites all four plans with fresh originals and clears
	// every thread and ledger of the user.
	ReplacePlans(ctx context.Context, userID string, contents map[models.Role]string, at time.Time) ([]models.Plan, error)

	// RecentTurns returns at most limit of the newest turns, oldest first.
	// A limit <= 0 returns the whole thread.
	RecentTurns(ctx context.Context, userID string, role models.Role, limit int) ([]models.Turn, error)
	// AppendTurn records a turn. When rev is non-nil the plan's current
	// content is replaced and a ledger entry is appended in the same unit.
	AppendTurn(ctx context.Context, userID string, role models.Role, turn models.Turn, rev *models.Revision) (*models.Plan, error)
	// ClearThread deletes the thread only.
	ClearThread(ctx context.Context, userID string, role models.Role) error
	ThreadStats(ctx context.Context, userID string, role models.Role) (models.ThreadStats, error)

	// Ledger returns the update history newest first.
	Ledger(ctx context.Context, userID string, role models.Role) ([]models.LedgerEntry, error)

	// ResetPlan restores the original content and clears thread and ledger.
	// It reports false, and changes nothing, when the plan is not updated.
	ResetPlan(ctx context.Context, userID string, role models.Role) (bool, error)
}

// ProfileStore holds the single current profile of each user.
type ProfileStore interface {
	SaveProfile(ctx context.Context, p models.Profile) error
	// GetProfile returns the profile or an apperr.NotFound error.
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
}

func statsFromTurns(turns []models.Turn) models.ThreadStats {
	st := models.ThreadStats{TotalTurns: len(turns)}
	if len(turns) == 0 {
		return st
	}
	for _, t := range turns {
		if t.IsRevision {
			st.RevisionCount++
		}
	}
	first, last := turns[0].Timestamp, turns[len(turns)-1].Timestamp
	st.FirstActivity = &first
	st.LastActivity = &last
	st.DurationMinutes = last.Sub(first).Minutes()
	return st
}
