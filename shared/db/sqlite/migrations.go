package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migration represents a single database migration
type migration struct {
	version int
	name    string
	up      string
}

// migrations is the ordered list of all database migrations.
// Each migration should be idempotent and safe to run multiple times.
var migrations = []migration{
	{
		version: 1,
		name:    "create_posts_table",
		up: `
			CREATE TABLE IF NOT EXISTS posts (
				id INTEGER PRIMARY KEY,
				title TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				published_date TIMESTAMP NOT NULL,
				keywords TEXT NOT NULL DEFAULT '[]',
				image TEXT NOT NULL DEFAULT '',
				audience TEXT NOT NULL DEFAULT '[]',
				reading_time TEXT NOT NULL DEFAULT '',
				preview_token TEXT NOT NULL DEFAULT '',
				previous_id INTEGER,
				next_id INTEGER,
				content TEXT NOT NULL,
				source TEXT NOT NULL DEFAULT '',
				updated_at TIMESTAMP NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_posts_published_date
			ON posts(published_date DESC);
		`,
	},
	{
		version: 2,
		name:    "create_index_runs_table",
		up: `
			CREATE TABLE IF NOT EXISTS index_runs (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				post_count INTEGER NOT NULL,
				completed_at TIMESTAMP NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_index_runs_completed_at
			ON index_runs(completed_at DESC);
		`,
	},
}

// runMigrations executes all pending migrations
func runMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	currentVersion := 0
	err = db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue // Already applied
		}

		if err := applyMigration(ctx, db, m); err != nil {
			return err
		}
	}

	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for migration %d: %w", m.version, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.up); err != nil {
		return fmt.Errorf("failed to execute migration %d (%s): %w", m.version, m.name, err)
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, name) VALUES (?, ?)", m.version, m.name); err != nil {
		return fmt.Errorf("failed to record migration %d: %w", m.version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
	}
	return nil
}
