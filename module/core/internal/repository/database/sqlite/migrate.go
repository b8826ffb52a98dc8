package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS alarm_history (
		id TEXT PRIMARY KEY,
		destination_name TEXT NOT NULL,
		destination_address TEXT NOT NULL,
		destination_lat REAL NOT NULL,
		destination_lng REAL NOT NULL,
		start_lat REAL NOT NULL,
		start_lng REAL NOT NULL,
		radius_meters REAL NOT NULL,
		triggered_at TEXT NOT NULL,
		distance_at_trigger REAL NOT NULL,
		duration_minutes INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS alarm_history_triggered_at_idx ON alarm_history (triggered_at)`,
	`CREATE TABLE IF NOT EXISTS recurring_alarms (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		destination_name TEXT NOT NULL,
		destination_address TEXT NOT NULL,
		destination_lat REAL NOT NULL,
		destination_lng REAL NOT NULL,
		radius_meters REAL NOT NULL,
		days_of_week TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT,
		enabled INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
}

func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// timeLayout is RFC3339 with a fixed-width fraction so stored text sorts
// in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
