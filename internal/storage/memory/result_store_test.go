package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"arb-backtest-lab/internal/domain"
	"arb-backtest-lab/internal/storage"
)

func makeResults(runID string, generatedAt time.Time) *domain.BacktestResults {
	return &domain.BacktestResults{
		RunID:       runID,
		NetProfit:   100,
		GeneratedAt: generatedAt,
	}
}

func TestResultStore_InsertGet(t *testing.T) {
	ctx := context.Background()
	store := NewResultStore()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	if err := store.Insert(ctx, makeResults("run-1", now)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Insert(ctx, makeResults("run-1", now)); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}

	got, err := store.GetByID(ctx, "run-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.NetProfit != 100 {
		t.Errorf("netProfit = %v, want 100", got.NetProfit)
	}

	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestResultStore_GetAllOrdered(t *testing.T) {
	ctx := context.Background()
	store := NewResultStore()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	_ = store.Insert(ctx, makeResults("run-b", now.Add(time.Hour)))
	_ = store.Insert(ctx, makeResults("run-a", now))

	all, err := store.GetAll(ctx)
	if err != nil {
		t.Fatalf("getAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 results, got %d", len(all))
	}
	if all[0].RunID != "run-a" || all[1].RunID != "run-b" {
		t.Errorf("wrong order: %s, %s", all[0].RunID, all[1].RunID)
	}
}
