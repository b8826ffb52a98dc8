package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nandanugg/sonecaz/module/core/domain"
	"github.com/nandanugg/sonecaz/module/core/internal/repository/database"
)

var _ database.RecurringAlarmRepository = (*RecurringRepo)(nil)

const recurringColumns = `id, name, destination_name, destination_address, destination_lat, destination_lng, radius_meters, days_of_week, start_time, end_time, enabled, created_at, updated_at`

type RecurringRepo struct {
	db *sql.DB
}

func NewRecurringRepo(db *sql.DB) *RecurringRepo {
	return &RecurringRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecurring(row rowScanner) (*domain.RecurringAlarmSpec, error) {
	var s domain.RecurringAlarmSpec
	var days, start string
	var end sql.NullString
	if err := row.Scan(
		&s.ID, &s.Name, &s.Destination.Name, &s.Destination.Address,
		&s.Destination.Location.Lat, &s.Destination.Location.Lng,
		&s.RadiusMeters, &days, &start, &end, &s.Enabled, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if s.DaysOfWeek, err = domain.ParseDays(days); err != nil {
		return nil, fmt.Errorf("recurring %s: %w", s.ID, err)
	}
	if s.StartTime, err = domain.ParseTimeOfDay(start); err != nil {
		return nil, fmt.Errorf("recurring %s: %w", s.ID, err)
	}
	if end.Valid {
		e, err := domain.ParseTimeOfDay(end.String)
		if err != nil {
			return nil, fmt.Errorf("recurring %s: %w", s.ID, err)
		}
		s.EndTime = &e
	}
	return &s, nil
}

func endTimeArg(e *domain.TimeOfDay) sql.NullString {
	if e == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: e.String(), Valid: true}
}

func (r *RecurringRepo) List(ctx context.Context) ([]domain.RecurringAlarmSpec, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_alarms ORDER BY start_time, name`,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.RecurringAlarmSpec
	for rows.Next() {
		s, err := scanRecurring(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *s)
	}
	return results, rows.Err()
}

func (r *RecurringRepo) Get(ctx context.Context, id string) (*domain.RecurringAlarmSpec, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_alarms WHERE id = $1`,
		id,
	)
	s, err := scanRecurring(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("recurring %s: %w", id, domain.ErrNotFound)
	}
	return s, err
}

func (r *RecurringRepo) Upsert(ctx context.Context, s *domain.RecurringAlarmSpec) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_alarms (`+recurringColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			destination_name = EXCLUDED.destination_name,
			destination_address = EXCLUDED.destination_address,
			destination_lat = EXCLUDED.destination_lat,
			destination_lng = EXCLUDED.destination_lng,
			radius_meters = EXCLUDED.radius_meters,
			days_of_week = EXCLUDED.days_of_week,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			enabled = EXCLUDED.enabled,
			updated_at = EXCLUDED.updated_at`,
		s.ID, s.Name, s.Destination.Name, s.Destination.Address,
		s.Destination.Location.Lat, s.Destination.Location.Lng,
		s.RadiusMeters, domain.FormatDays(s.DaysOfWeek), s.StartTime.String(), endTimeArg(s.EndTime),
		s.Enabled, s.CreatedAt, s.UpdatedAt,
	)
	return err
}

func (r *RecurringRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recurring_alarms WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("recurring %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
