package database

import (
	"context"
	"fmt"
)

type migration struct {
	sql     string
	version int
}

var migrations = []migration{
	{
		version: 1,
		sql: `
			CREATE TABLE runs (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				input TEXT NOT NULL,
				output TEXT NOT NULL,
				format TEXT NOT NULL,
				started_at INTEGER NOT NULL,
				finished_at INTEGER,
				total INTEGER NOT NULL DEFAULT 0,
				converted INTEGER NOT NULL DEFAULT 0,
				failed INTEGER NOT NULL DEFAULT 0
			);

			CREATE TABLE failures (
				run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
				record_index INTEGER NOT NULL,
				error_class TEXT NOT NULL,
				message TEXT NOT NULL
			);

			CREATE INDEX idx_runs_started ON runs(started_at);
			CREATE INDEX idx_failures_run ON failures(run_id);
		`,
	},
}

func (m *Manager) runMigrations(ctx context.Context) error {
	// Get current version
	var currentVersion int
	err := m.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current database version: %w", err)
	}

	// Run migrations
	for _, migration := range migrations {
		if migration.version <= currentVersion {
			continue
		}
		if err := m.executeMigration(ctx, migration); err != nil {
			return err
		}
	}

	return nil
}

func (m *Manager) executeMigration(ctx context.Context, migration migration) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, migration.sql); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to execute migration %d: %w", migration.version, err)
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", migration.version)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to update database version to %d: %w", migration.version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", migration.version, err)
	}
	return nil
}
