package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"arb-backtest-lab/internal/domain"
	"arb-backtest-lab/internal/storage"
)

// ResultStore implements storage.ResultStore using PostgreSQL. It persists
// the summary scalars of a report; curves and rollups stay with the
// reporting exports. Loaded results therefore carry empty breakdown slices.
type ResultStore struct {
	pool *Pool
}

// NewResultStore creates a new ResultStore.
func NewResultStore(pool *Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ResultStore = (*ResultStore)(nil)

// Insert stores a run's summary. Returns ErrDuplicateKey if the run ID
// exists.
func (s *ResultStore) Insert(ctx context.Context, r *domain.BacktestResults) (err error) {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}
	defer s.pool.observe("insert_results", time.Now(), &err)

	query := `
		INSERT INTO backtest_results (
			run_id, start_date, end_date, initial_capital,
			total_trades, successful_trades, total_profit, total_costs, net_profit,
			roi, sharpe_ratio, sortino_ratio, win_rate, profit_factor,
			max_drawdown, max_drawdown_duration,
			execution_time_ms, data_quality, confidence, generated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9,
			$10, $11, $12, $13, $14,
			$15, $16,
			$17, $18, $19, $20
		)
	`

	_, err = s.pool.Exec(ctx, query,
		r.RunID, r.Config.StartDate, r.Config.EndDate, r.Config.InitialCapital,
		r.TotalTrades, r.SuccessfulTrades, r.TotalProfit, r.TotalCosts, r.NetProfit,
		r.ROI, r.SharpeRatio, infToNull(r.SortinoRatio), r.WinRate, infToNull(r.ProfitFactor),
		r.MaxDrawdown, r.MaxDrawdownDuration,
		r.ExecutionTimeMs, r.DataQuality, r.Confidence, r.GeneratedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert backtest results: %w", err)
	}
	return nil
}

const selectResultsColumns = `
	SELECT run_id, start_date, end_date, initial_capital,
	       total_trades, successful_trades, total_profit, total_costs, net_profit,
	       roi, sharpe_ratio, sortino_ratio, win_rate, profit_factor,
	       max_drawdown, max_drawdown_duration,
	       execution_time_ms, data_quality, confidence, generated_at
	FROM backtest_results
`

// GetByID retrieves a summary by run ID. Returns ErrNotFound if absent.
func (s *ResultStore) GetByID(ctx context.Context, runID string) (_ *domain.BacktestResults, err error) {
	defer s.pool.observe("get_results_by_id", time.Now(), &err)

	row := s.pool.QueryRow(ctx, selectResultsColumns+" WHERE run_id = $1", runID)

	r, err := scanResults(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get backtest results: %w", err)
	}
	return r, nil
}

// GetAll retrieves all stored summaries ordered by generation time ascending.
func (s *ResultStore) GetAll(ctx context.Context) (_ []*domain.BacktestResults, err error) {
	defer s.pool.observe("get_all_results", time.Now(), &err)

	rows, err := s.pool.Query(ctx, selectResultsColumns+" ORDER BY generated_at ASC, run_id ASC")
	if err != nil {
		return nil, fmt.Errorf("query backtest results: %w", err)
	}
	defer rows.Close()

	var out []*domain.BacktestResults
	for rows.Next() {
		r, err := scanResults(rows)
		if err != nil {
			return nil, fmt.Errorf("scan backtest results: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate backtest results: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResults(row rowScanner) (*domain.BacktestResults, error) {
	var r domain.BacktestResults
	var sortino, profitFactor sql.NullFloat64

	err := row.Scan(
		&r.RunID, &r.Config.StartDate, &r.Config.EndDate, &r.Config.InitialCapital,
		&r.TotalTrades, &r.SuccessfulTrades, &r.TotalProfit, &r.TotalCosts, &r.NetProfit,
		&r.ROI, &r.SharpeRatio, &sortino, &r.WinRate, &profitFactor,
		&r.MaxDrawdown, &r.MaxDrawdownDuration,
		&r.ExecutionTimeMs, &r.DataQuality, &r.Confidence, &r.GeneratedAt,
	)
	if err != nil {
		return nil, err
	}

	r.SortinoRatio = nullToInf(sortino)
	r.ProfitFactor = nullToInf(profitFactor)
	return &r, nil
}

// infToNull maps the +Inf sentinel of unbounded ratios to SQL NULL; DOUBLE
// PRECISION has no portable infinity across drivers.
func infToNull(v float64) any {
	if math.IsInf(v, 0) {
		return nil
	}
	return v
}

func nullToInf(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.Inf(1)
	}
	return v.Float64
}
