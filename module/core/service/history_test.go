package service

import (
	"context"
	"errors"
	"testing"

	"github.com/nandanugg/sonecaz/module/core/domain"
)

func TestAppendHistory_AssignsIDAndPrunes(t *testing.T) {
	var inserted *domain.AlarmHistoryRecord
	var keep int
	repo := &mockHistoryRepo{
		insertFn: func(_ context.Context, rec *domain.AlarmHistoryRecord) error {
			inserted = rec
			return nil
		},
		pruneFn: func(_ context.Context, k int) (int64, error) {
			keep = k
			return 1, nil
		},
	}

	svc := NewHistoryService(repo)
	if err := svc.AppendHistory(context.Background(), domain.AlarmHistoryRecord{DestinationName: "Office"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inserted == nil || inserted.ID == "" {
		t.Fatal("expected insert with generated id")
	}
	if keep != MaxHistoryItems {
		t.Errorf("expected prune to keep %d, got %d", MaxHistoryItems, keep)
	}
}

func TestAppendHistory_InsertError(t *testing.T) {
	pruned := false
	repo := &mockHistoryRepo{
		insertFn: func(context.Context, *domain.AlarmHistoryRecord) error {
			return errors.New("disk full")
		},
		pruneFn: func(context.Context, int) (int64, error) {
			pruned = true
			return 0, nil
		},
	}

	svc := NewHistoryService(repo)
	err := svc.AppendHistory(context.Background(), domain.AlarmHistoryRecord{ID: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if pruned {
		t.Error("prune must not run after a failed insert")
	}
}

func TestHistoryList_ClampsLimit(t *testing.T) {
	var got []int
	repo := &mockHistoryRepo{
		listFn: func(_ context.Context, limit int) ([]domain.AlarmHistoryRecord, error) {
			got = append(got, limit)
			return nil, nil
		},
	}

	svc := NewHistoryService(repo)
	for _, l := range []int{0, 20, 500} {
		if _, err := svc.List(context.Background(), l); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	want := []int{MaxHistoryItems, 20, MaxHistoryItems}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d: expected limit %d, got %d", i, want[i], got[i])
		}
	}
}

func TestHistoryDelete(t *testing.T) {
	repo := &mockHistoryRepo{
		deleteFn: func(_ context.Context, id string) error {
			if id != "h1" {
				return domain.ErrNotFound
			}
			return nil
		},
		deleteAllFn: func(context.Context) error { return nil },
	}

	svc := NewHistoryService(repo)
	if err := svc.Delete(context.Background(), "h1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Delete(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := svc.Clear(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
