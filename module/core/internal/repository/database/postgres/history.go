package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nandanugg/sonecaz/module/core/domain"
	"github.com/nandanugg/sonecaz/module/core/internal/repository/database"
)

var _ database.HistoryRepository = (*HistoryRepo)(nil)

const historyColumns = `id, destination_name, destination_address, destination_lat, destination_lng, start_lat, start_lng, radius_meters, triggered_at, distance_at_trigger, duration_minutes`

type HistoryRepo struct {
	db *sql.DB
}

func NewHistoryRepo(db *sql.DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

func (r *HistoryRepo) Insert(ctx context.Context, rec *domain.AlarmHistoryRecord) error {
	var duration sql.NullInt64
	if rec.DurationMinutes != nil {
		duration = sql.NullInt64{Int64: int64(*rec.DurationMinutes), Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO alarm_history (`+historyColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		rec.ID, rec.DestinationName, rec.DestinationAddress,
		rec.DestinationLocation.Lat, rec.DestinationLocation.Lng,
		rec.StartLocation.Lat, rec.StartLocation.Lng,
		rec.RadiusMeters, rec.TriggeredAt, rec.DistanceAtTrigger, duration,
	)
	return err
}

func (r *HistoryRepo) List(ctx context.Context, limit int) ([]domain.AlarmHistoryRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+historyColumns+` FROM alarm_history ORDER BY triggered_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.AlarmHistoryRecord
	for rows.Next() {
		var rec domain.AlarmHistoryRecord
		var duration sql.NullInt64
		if err := rows.Scan(
			&rec.ID, &rec.DestinationName, &rec.DestinationAddress,
			&rec.DestinationLocation.Lat, &rec.DestinationLocation.Lng,
			&rec.StartLocation.Lat, &rec.StartLocation.Lng,
			&rec.RadiusMeters, &rec.TriggeredAt, &rec.DistanceAtTrigger, &duration,
		); err != nil {
			return nil, err
		}
		if duration.Valid {
			d := int(duration.Int64)
			rec.DurationMinutes = &d
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

func (r *HistoryRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM alarm_history WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("history %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *HistoryRepo) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM alarm_history`)
	return err
}

func (r *HistoryRepo) Prune(ctx context.Context, keep int) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM alarm_history WHERE id NOT IN (SELECT id FROM alarm_history ORDER BY triggered_at DESC LIMIT $1)`,
		keep,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
