package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AnshRaj112/vitalcoach-backend/internal/apperr"
	"github.com/AnshRaj112/vitalcoach-backend/internal/models"
)

// Column lists shared by queries; they must match database.SchemaStatements.
const (
	planColumns = `user_id, role, original_content, current_content, is_updated,
	modification_summary, version, generated_at, updated_at`
	turnColumns     = `id, user_id, role, human_text, ai_text, is_revision, thread_ref, created_at`
	revisionColumns = `id, user_id, role, version, summary, preview, created_at`
)

// PostgresStore keeps plans, threads and ledgers in PostgreSQL. Every
// multi-entity change runs in one transaction holding the plan row lock.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*models.Plan, error) {
	var p models.Plan
	var role string
	if err := row.Scan(&p.UserID, &role, &p.OriginalContent, &p.CurrentContent, &p.IsUpdated,
		&p.ModificationSummary, &p.Version, &p.GeneratedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Role = models.Role(role)
	return &p, nil
}

func (s *PostgresStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPlan(ctx context.Context, userID string, role models.Role) (*models.Plan, error) {
	p, err := scanPlan(s.db.QueryRowContext(ctx,
		`SELECT `+planColumns+` FROM plans WHERE user_id = $1 AND role = $2`, userID, string(role)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, planNotFound(role)
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListPlans(ctx context.Context, userID string) ([]models.Plan, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+planColumns+` FROM plans WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	byRole := make(map[models.Role]models.Plan)
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		byRole[p.Role] = *p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []models.Plan
	for _, r := range models.Roles {
		if p, ok := byRole[r]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *PostgresStore) ReplacePlans(ctx context.Context, userID string, contents map[models.Role]string, at time.Time) ([]models.Plan, error) {
	if err := requireAllRoles(contents); err != nil {
		return nil, err
	}
	out := make([]models.Plan, 0, len(models.Roles))
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM chat_turns WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("clear threads: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM plan_revisions WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("clear ledgers: %w", err)
		}
		for _, r := range models.Roles {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO plans (`+planColumns+`)
				VALUES ($1, $2, $3, $3, FALSE, '', 1, $4, $4)
				ON CONFLICT (user_id, role) DO UPDATE SET
					original_content = EXCLUDED.original_content,
					current_content = EXCLUDED.current_content,
					is_updated = FALSE,
					modification_summary = '',
					version = 1,
					generated_at = EXCLUDED.generated_at,
					updated_at = EXCLUDED.updated_at`,
				userID, string(r), contents[r], at)
			if err != nil {
				return fmt.Errorf("upsert %s plan: %w", r, err)
			}
			out = append(out, freshPlan(userID, r, contents[r], at))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) RecentTurns(ctx context.Context, userID string, role models.Role, limit int) ([]models.Turn, error) {
	q := `SELECT id, human_text, ai_text, is_revision, thread_ref, created_at
		FROM chat_turns WHERE user_id = $1 AND role = $2 ORDER BY seq DESC`
	args := []any{userID, string(role)}
	if limit > 0 {
		q += ` LIMIT $3`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("recent turns: %w", err)
	}
	defer rows.Close()

	var turns []models.Turn
	for rows.Next() {
		var t models.Turn
		if err := rows.Scan(&t.ID, &t.HumanText, &t.AIText, &t.IsRevision, &t.ThreadRef, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to oldest-first.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

func (s *PostgresStore) AppendTurn(ctx context.Context, userID string, role models.Role, turn models.Turn, rev *models.Revision) (*models.Plan, error) {
	now := s.now()
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = now
	}

	var plan *models.Plan
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		plan, err = scanPlan(tx.QueryRowContext(ctx,
			`SELECT `+planColumns+` FROM plans WHERE user_id = $1 AND role = $2 FOR UPDATE`, userID, string(role)))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return planNotFound(role)
			}
			return fmt.Errorf("lock plan: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chat_turns (`+turnColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			turn.ID, userID, string(role), turn.HumanText, turn.AIText, turn.IsRevision, turn.ThreadRef, turn.Timestamp); err != nil {
			return fmt.Errorf("insert turn: %w", err)
		}

		if rev == nil {
			return nil
		}

		plan.Version++
		plan.CurrentContent = rev.Content
		plan.IsUpdated = true
		plan.ModificationSummary = rev.Summary
		plan.UpdatedAt = now

		if _, err := tx.ExecContext(ctx, `
			UPDATE plans SET current_content = $3, is_updated = TRUE, modification_summary = $4,
				version = $5, updated_at = $6
			WHERE user_id = $1 AND role = $2`,
			userID, string(role), rev.Content, rev.Summary, plan.Version, now); err != nil {
			return fmt.Errorf("update plan: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO plan_revisions (`+revisionColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			uuid.NewString(), userID, string(role), plan.Version, rev.Summary, rev.Preview, now); err != nil {
			return fmt.Errorf("insert revision: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *PostgresStore) ClearThread(ctx context.Context, userID string, role models.Role) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM chat_turns WHERE user_id = $1 AND role = $2`, userID, string(role)); err != nil {
		return fmt.Errorf("clear thread: %w", err)
	}
	return nil
}

func (s *PostgresStore) ThreadStats(ctx context.Context, userID string, role models.Role) (models.ThreadStats, error) {
	var st models.ThreadStats
	var first, last sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_revision), MIN(created_at), MAX(created_at)
		FROM chat_turns WHERE user_id = $1 AND role = $2`, userID, string(role)).
		Scan(&st.TotalTurns, &st.RevisionCount, &first, &last)
	if err != nil {
		return st, fmt.Errorf("thread stats: %w", err)
	}
	if first.Valid && last.Valid {
		st.FirstActivity = &first.Time
		st.LastActivity = &last.Time
		st.DurationMinutes = last.Time.Sub(first.Time).Minutes()
	}
	return st, nil
}

func (s *PostgresStore) Ledger(ctx context.Context, userID string, role models.Role) ([]models.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, summary, preview, version, created_at FROM plan_revisions
		WHERE user_id = $1 AND role = $2 ORDER BY version DESC`, userID, string(role))
	if err != nil {
		return nil, fmt.Errorf("ledger: %w", err)
	}
	defer rows.Close()

	var out []models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.ID, &e.Summary, &e.Preview, &e.Version, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ResetPlan(ctx context.Context, userID string, role models.Role) (bool, error) {
	var reset bool
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var updated bool
		err := tx.QueryRowContext(ctx,
			`SELECT is_updated FROM plans WHERE user_id = $1 AND role = $2 FOR UPDATE`, userID, string(role)).Scan(&updated)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return planNotFound(role)
			}
			return fmt.Errorf("lock plan: %w", err)
		}
		if !updated {
			return nil
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE plans SET current_content = original_content, is_updated = FALSE,
				modification_summary = '', version = 1, updated_at = $3
			WHERE user_id = $1 AND role = $2`, userID, string(role), s.now()); err != nil {
			return fmt.Errorf("restore plan: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM chat_turns WHERE user_id = $1 AND role = $2`, userID, string(role)); err != nil {
			return fmt.Errorf("clear thread: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM plan_revisions WHERE user_id = $1 AND role = $2`, userID, string(role)); err != nil {
			return fmt.Errorf("clear ledger: %w", err)
		}
		reset = true
		return nil
	})
	return reset, err
}

func requireAllRoles(contents map[models.Role]string) error {
	for _, r := range models.Roles {
		if _, ok := contents[r]; !ok {
			return apperr.Validationf("missing %s plan content", r)
		}
	}
	return nil
}
