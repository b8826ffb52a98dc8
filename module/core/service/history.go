package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nandanugg/sonecaz/module/core/domain"
	"github.com/nandanugg/sonecaz/module/core/internal/repository/database"
)

const MaxHistoryItems = 100

var _ HistorySink = (*HistoryService)(nil)

type HistoryService struct {
	repo database.HistoryRepository
}

func NewHistoryService(repo database.HistoryRepository) *HistoryService {
	return &HistoryService{repo: repo}
}

// AppendHistory stores rec and trims the log to the newest
// MaxHistoryItems records.
func (s *HistoryService) AppendHistory(ctx context.Context, rec domain.AlarmHistoryRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if err := s.repo.Insert(ctx, &rec); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	if _, err := s.repo.Prune(ctx, MaxHistoryItems); err != nil {
		return fmt.Errorf("prune history: %w", err)
	}
	return nil
}

func (s *HistoryService) List(ctx context.Context, limit int) ([]domain.AlarmHistoryRecord, error) {
	if limit <= 0 || limit > MaxHistoryItems {
		limit = MaxHistoryItems
	}
	return s.repo.List(ctx, limit)
}

func (s *HistoryService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *HistoryService) Clear(ctx context.Context) error {
	return s.repo.DeleteAll(ctx)
}
