package storage

import (
	"context"
	"time"

	"arb-backtest-lab/internal/domain"
)

// TradeStore provides access to the historical trade corpus. It is the
// engine's only source of trades: the backtest merely filters and replays
// what it receives.
type TradeStore interface {
	// Insert adds a single trade. Returns ErrDuplicateKey if the ID exists.
	Insert(ctx context.Context, t *domain.HistoricalTrade) error

	// InsertBulk adds multiple trades atomically. Fails the entire batch on
	// any duplicate.
	InsertBulk(ctx context.Context, trades []*domain.HistoricalTrade) error

	// GetByTimeRange retrieves trades on the given networks with
	// start <= timestamp < end, ordered by timestamp ascending. An empty
	// network list matches all networks.
	GetByTimeRange(ctx context.Context, networks []string, start, end time.Time) ([]*domain.HistoricalTrade, error)
}

// QueryObserver receives per-query timing from instrumented store backends.
// The operation name identifies the query, seconds is wall time spent in the
// driver, and err is whatever the query returned.
type QueryObserver func(operation string, seconds float64, err error)

// ResultStore persists completed backtest reports for later inspection.
type ResultStore interface {
	// Insert stores a run's results. Returns ErrDuplicateKey if the run ID
	// exists.
	Insert(ctx context.Context, r *domain.BacktestResults) error

	// GetByID retrieves results by run ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, runID string) (*domain.BacktestResults, error)

	// GetAll retrieves all stored results ordered by generation time
	// ascending.
	GetAll(ctx context.Context) ([]*domain.BacktestResults, error)
}
