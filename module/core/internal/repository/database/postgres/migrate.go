package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS alarm_history (
		id TEXT PRIMARY KEY,
		destination_name TEXT NOT NULL,
		destination_address TEXT NOT NULL,
		destination_lat DOUBLE PRECISION NOT NULL,
		destination_lng DOUBLE PRECISION NOT NULL,
		start_lat DOUBLE PRECISION NOT NULL,
		start_lng DOUBLE PRECISION NOT NULL,
		radius_meters DOUBLE PRECISION NOT NULL,
		triggered_at TIMESTAMPTZ NOT NULL,
		distance_at_trigger DOUBLE PRECISION NOT NULL,
		duration_minutes INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS alarm_history_triggered_at_idx ON alarm_history (triggered_at DESC)`,
	`CREATE TABLE IF NOT EXISTS recurring_alarms (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		destination_name TEXT NOT NULL,
		destination_address TEXT NOT NULL,
		destination_lat DOUBLE PRECISION NOT NULL,
		destination_lng DOUBLE PRECISION NOT NULL,
		radius_meters DOUBLE PRECISION NOT NULL,
		days_of_week TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT,
		enabled BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
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
