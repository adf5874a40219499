package database

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"github.com/AnshRaj112/vitalcoach-backend/internal/logger"
)

// ConnectPostgres opens the pool, pings it and creates the coaching tables.
func ConnectPostgres(postgresURI string, log *logger.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", postgresURI)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("connected to PostgreSQL", "uri", MaskURI(postgresURI))

	if err := InitPostgresTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("PostgreSQL tables initialized")
	return db, nil
}

// SchemaStatements is the DDL for plans, chat turns and the update ledger.
// All statements are idempotent.
var SchemaStatements = []string{
	// One row per (user, role). original_content is written only by generation.
	`CREATE TABLE IF NOT EXISTS plans (
		user_id VARCHAR(255) NOT NULL,
		role VARCHAR(32) NOT NULL,
		original_content TEXT NOT NULL,
		current_content TEXT NOT NULL,
		is_updated BOOLEAN NOT NULL DEFAULT FALSE,
		modification_summary TEXT NOT NULL DEFAULT '',
		version INTEGER NOT NULL DEFAULT 1,
		generated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, role)
	)`,

	// Thread turns; seq gives the total order within a thread.
	`CREATE TABLE IF NOT EXISTS chat_turns (
		seq BIGSERIAL PRIMARY KEY,
		id UUID NOT NULL UNIQUE,
		user_id VARCHAR(255) NOT NULL,
		role VARCHAR(32) NOT NULL,
		human_text TEXT NOT NULL,
		ai_text TEXT NOT NULL,
		is_revision BOOLEAN NOT NULL DEFAULT FALSE,
		thread_ref VARCHAR(255) NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		FOREIGN KEY (user_id, role) REFERENCES plans(user_id, role) ON DELETE CASCADE
	)`,

	// Update ledger, one entry per revision.
	`CREATE TABLE IF NOT EXISTS plan_revisions (
		id UUID PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		role VARCHAR(32) NOT NULL,
		version INTEGER NOT NULL,
		summary TEXT NOT NULL,
		preview TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, role, version),
		FOREIGN KEY (user_id, role) REFERENCES plans(user_id, role) ON DELETE CASCADE
	)`,

	`CREATE INDEX IF NOT EXISTS idx_chat_turns_thread ON chat_turns(user_id, role, seq)`,
	`CREATE INDEX IF NOT EXISTS idx_plan_revisions_unit ON plan_revisions(user_id, role, version)`,
}

// InitPostgresTables creates the tables if they don't exist.
func InitPostgresTables(ctx context.Context, db *sql.DB) error {
	for _, query := range SchemaStatements {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return err
		}
	}
	return nil
}
