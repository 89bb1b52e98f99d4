package database

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openJournalDB(t *testing.T) *sql.DB {
	t.Helper()

	manager, err := NewManager(context.Background(), MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })
	return manager.DB()
}

func columnNames(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.QueryContext(context.Background(), "SELECT name FROM pragma_table_info(?) ORDER BY cid", table)
	require.NoError(t, err)
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	return names
}

func userVersion(t *testing.T, db *sql.DB) int {
	t.Helper()

	var version int
	require.NoError(t, db.QueryRowContext(context.Background(), "PRAGMA user_version").Scan(&version))
	return version
}

func TestJournalSchemaColumns(t *testing.T) {
	t.Parallel()

	db := openJournalDB(t)

	tests := []struct {
		table string
		want  []string
	}{
		{
			table: "runs",
			want: []string{
				"id", "input", "output", "format", "started_at", "finished_at",
				"total", "converted", "failed",
			},
		},
		{
			table: "failures",
			want:  []string{"run_id", "record_index", "error_class", "message"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, columnNames(t, db, tt.table))
		})
	}
}

func TestJournalSchemaIndexes(t *testing.T) {
	t.Parallel()

	db := openJournalDB(t)
	for _, name := range []string{"idx_runs_started", "idx_failures_run"} {
		var table string
		err := db.QueryRowContext(context.Background(),
			"SELECT tbl_name FROM sqlite_master WHERE type = 'index' AND name = ?", name).Scan(&table)
		require.NoError(t, err, name)
	}
}

func TestFailuresCascadeWithRun(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openJournalDB(t)

	res, err := db.ExecContext(ctx,
		"INSERT INTO runs (input, output, format, started_at) VALUES ('in.mrc', 'out.mrc', 'marc', 1)")
	require.NoError(t, err)
	runID, err := res.LastInsertId()
	require.NoError(t, err)

	for i := range 3 {
		_, err = db.ExecContext(ctx,
			"INSERT INTO failures (run_id, record_index, error_class, message) VALUES (?, ?, 'decode', 'bad')",
			runID, i)
		require.NoError(t, err)
	}

	_, err = db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", runID)
	require.NoError(t, err)

	var remaining int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM failures").Scan(&remaining))
	assert.Equal(t, 0, remaining)
}

func TestFailureRequiresRun(t *testing.T) {
	t.Parallel()

	_, err := openJournalDB(t).ExecContext(context.Background(),
		"INSERT INTO failures (run_id, record_index, error_class, message) VALUES (42, 0, 'decode', 'bad')")
	require.Error(t, err)
}

func TestRunMigrationsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openJournalDB(t)
	manager := &Manager{db: db}

	_, err := db.ExecContext(ctx,
		"INSERT INTO runs (input, output, format, started_at) VALUES ('in.mrc', 'out.mrc', 'marc', 1)")
	require.NoError(t, err)

	require.NoError(t, manager.runMigrations(ctx))
	assert.Equal(t, len(migrations), userVersion(t, db))

	var runs int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&runs))
	assert.Equal(t, 1, runs)
}

func TestExecuteMigrationRollsBack(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openJournalDB(t)
	manager := &Manager{db: db}

	err := manager.executeMigration(ctx, migration{
		version: len(migrations) + 1,
		sql:     "CREATE TABLE notes (id INTEGER); CREATE TABLE runs (id INTEGER)",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute migration")
	assert.Equal(t, len(migrations), userVersion(t, db))

	var count int
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'notes'").Scan(&count))
	assert.Equal(t, 0, count)
}
