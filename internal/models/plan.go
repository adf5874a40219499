package models

import "time"

// Plan is the authoritative document for one (user, role).
//
// IsUpdated is true iff CurrentContent differs from OriginalContent, and
// ModificationSummary is set iff IsUpdated.
type Plan struct {
	UserID              string    `json:"user_id"`
	Role                Role      `json:"role"`
	OriginalContent     string    `json:"original_content"`
	CurrentContent      string    `json:"current_content"`
	IsUpdated           bool      `json:"is_updated"`
	ModificationSummary string    `json:"modification_summary,omitempty"`
	Version             int       `json:"version"`
	GeneratedAt         time.Time `json:"generated_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// PlanView is the read-only projection returned to clients.
type PlanView struct {
	Role          Role      `json:"role"`
	Content       string    `json:"content"`
	IsUpdated     bool      `json:"is_updated"`
	Modifications string    `json:"modifications,omitempty"`
	Version       int       `json:"version"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (p Plan) View() PlanView {
	return PlanView{
		Role:          p.Role,
		Content:       p.CurrentContent,
		IsUpdated:     p.IsUpdated,
		Modifications: p.ModificationSummary,
		Version:       p.Version,
		UpdatedAt:     p.UpdatedAt,
	}
}

// Revision carries an accepted plan change into the store.
type Revision struct {
	Content string
	Summary string
	Preview string
}

// LedgerEntry is one accepted revision in the update history.
type LedgerEntry struct {
	ID        string    `json:"id"`
	Summary   string    `json:"summary"`
	Preview   string    `json:"preview"`
	Version   int       `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}
