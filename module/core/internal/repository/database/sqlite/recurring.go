package sqlite

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
	var days, start, created, updated string
	var end sql.NullString
	if err := row.Scan(
		&s.ID, &s.Name, &s.Destination.Name, &s.Destination.Address,
		&s.Destination.Location.Lat, &s.Destination.Location.Lng,
		&s.RadiusMeters, &days, &start, &end, &s.Enabled, &created, &updated,
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
	if s.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("recurring %s: created_at: %w", s.ID, err)
	}
	if s.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("recurring %s: updated_at: %w", s.ID, err)
	}
	return &s, nil
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
		`SELECT `+recurringColumns+` FROM recurring_alarms WHERE id = ?`,
		id,
	)
	s, err := scanRecurring(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("recurring %s: %w", id, domain.ErrNotFound)
	}
	return s, err
}

func (r *RecurringRepo) Upsert(ctx context.Context, s *domain.RecurringAlarmSpec) error {
	var end sql.NullString
	if s.EndTime != nil {
		end = sql.NullString{String: s.EndTime.String(), Valid: true}
	}
	return retryOp(ctx, defaultRetryConfig, func() error {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO recurring_alarms (`+recurringColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				name = excluded.name,
				destination_name = excluded.destination_name,
				destination_address = excluded.destination_address,
				destination_lat = excluded.destination_lat,
				destination_lng = excluded.destination_lng,
				radius_meters = excluded.radius_meters,
				days_of_week = excluded.days_of_week,
				start_time = excluded.start_time,
				end_time = excluded.end_time,
				enabled = excluded.enabled,
				updated_at = excluded.updated_at`,
			s.ID, s.Name, s.Destination.Name, s.Destination.Address,
			s.Destination.Location.Lat, s.Destination.Location.Lng,
			s.RadiusMeters, domain.FormatDays(s.DaysOfWeek), s.StartTime.String(), end,
			s.Enabled, formatTime(s.CreatedAt), formatTime(s.UpdatedAt),
		)
		return err
	})
}

func (r *RecurringRepo) Delete(ctx context.Context, id string) error {
	var n int64
	err := retryOp(ctx, defaultRetryConfig, func() error {
		res, err := r.db.ExecContext(ctx, `DELETE FROM recurring_alarms WHERE id = ?`, id)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("recurring %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
