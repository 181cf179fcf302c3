package database

import (
	"database/sql"
	"fmt"

	"github.com/velotrack/rides-backend-go/internal/logger"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered schema history. The server ships as a single
// binary, so the SQL lives here instead of on-disk files.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_rides",
		SQL: `
			CREATE TABLE IF NOT EXISTS rides (
				id TEXT PRIMARY KEY,
				start_time_ms INTEGER NOT NULL,
				end_time_ms INTEGER,
				elapsed_ms INTEGER NOT NULL DEFAULT 0,
				moving_ms INTEGER NOT NULL DEFAULT 0,
				manual_paused_ms INTEGER NOT NULL DEFAULT 0,
				auto_paused_ms INTEGER NOT NULL DEFAULT 0,
				distance_m REAL NOT NULL DEFAULT 0,
				avg_speed_mps REAL NOT NULL DEFAULT 0,
				max_speed_mps REAL NOT NULL DEFAULT 0,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_rides_start_time ON rides(start_time_ms);
			CREATE INDEX IF NOT EXISTS idx_rides_end_time ON rides(end_time_ms);
		`,
	},
	{
		Version: 2,
		Name:    "create_track_points",
		SQL: `
			CREATE TABLE IF NOT EXISTS track_points (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				ride_id TEXT NOT NULL REFERENCES rides(id) ON DELETE CASCADE,
				timestamp_ms INTEGER NOT NULL,
				latitude REAL NOT NULL,
				longitude REAL NOT NULL,
				speed_mps REAL NOT NULL DEFAULT 0,
				accuracy_m REAL NOT NULL DEFAULT 0,
				is_manually_paused INTEGER NOT NULL DEFAULT 0,
				is_auto_paused INTEGER NOT NULL DEFAULT 0
			);
			CREATE INDEX IF NOT EXISTS idx_track_points_ride ON track_points(ride_id, timestamp_ms);
		`,
	},
}

// Migrate applies any unapplied migrations in version order.
func Migrate(db *sql.DB) error {
	if err := initMigrationsTable(db); err != nil {
		return err
	}

	applied, err := appliedMigrations(db)
	if err != nil {
		return err
	}

	log := logger.WithComponent("database")
	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if _, err := db.Exec(m.SQL); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Name, err)
		}
		if _, err := db.Exec("INSERT INTO migrations (version, name) VALUES (?, ?)", m.Version, m.Name); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
		log.Info().Int("version", m.Version).Str("name", m.Name).Msg("migration applied")
	}

	return nil
}

// initMigrationsTable creates the migrations tracking table
func initMigrationsTable(db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	_, err := db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// appliedMigrations returns the set of applied migration versions
func appliedMigrations(db *sql.DB) (map[int]bool, error) {
	rows, err := db.Query("SELECT version FROM migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}

	return applied, nil
}
