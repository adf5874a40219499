package models

import "time"

// Turn is one (user message, assistant response) exchange in a thread.
type Turn struct {
	ID         string    `json:"id"`
	HumanText  string    `json:"human"`
	AIText     string    `json:"ai"`
	IsRevision bool      `json:"is_update"`
	ThreadRef  string    `json:"thread_ref,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// ThreadStats summarizes a conversation thread.
type ThreadStats struct {
	TotalTurns      int        `json:"total_turns"`
	RevisionCount   int        `json:"plan_updates_count"`
	FirstActivity   *time.Time `json:"first_activity,omitempty"`
	LastActivity    *time.Time `json:"most_recent_activity,omitempty"`
	DurationMinutes float64    `json:"session_duration_minutes"`
}
