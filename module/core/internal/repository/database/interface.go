package database

import (
	"context"

	"github.com/nandanugg/sonecaz/module/core/domain"
)

type HistoryRepository interface {
	Insert(ctx context.Context, rec *domain.AlarmHistoryRecord) error
	List(ctx context.Context, limit int) ([]domain.AlarmHistoryRecord, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	// Prune keeps the newest keep records and returns how many were removed.
	Prune(ctx context.Context, keep int) (int64, error)
}

type RecurringAlarmRepository interface {
	List(ctx context.Context) ([]domain.RecurringAlarmSpec, error)
	Get(ctx context.Context, id string) (*domain.RecurringAlarmSpec, error)
	Upsert(ctx context.Context, spec *domain.RecurringAlarmSpec) error
	Delete(ctx context.Context, id string) error
}
