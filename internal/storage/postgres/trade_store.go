package postgres

import (
	"context"
	"fmt"
	"time"

	"arb-backtest-lab/internal/domain"
	"arb-backtest-lab/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

const insertTradeQuery = `
	INSERT INTO historical_trades (
		id, ts, network, strategy,
		entry_price, exit_price, expected_profit, gas_cost,
		execution_time_ms, success, volatility, liquidity, gas_price
	) VALUES (
		$1, $2, $3, $4,
		$5, $6, $7, $8,
		$9, $10, $11, $12, $13
	)
`

// Insert adds a single trade. Returns ErrDuplicateKey if the ID exists.
func (s *TradeStore) Insert(ctx context.Context, t *domain.HistoricalTrade) (err error) {
	if t == nil || t.ID == "" {
		return storage.ErrInvalidInput
	}
	defer s.pool.observe("insert_trade", time.Now(), &err)

	_, err = s.pool.Exec(ctx, insertTradeQuery,
		t.ID, t.Timestamp, t.Network, t.Strategy,
		t.EntryPrice, t.ExitPrice, t.ExpectedProfit, t.GasCost,
		t.ExecutionTime, t.Success, t.Volatility, t.Liquidity, t.GasPrice,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert historical trade: %w", err)
	}
	return nil
}

// InsertBulk adds multiple trades atomically. Fails the entire batch on any
// duplicate.
func (s *TradeStore) InsertBulk(ctx context.Context, trades []*domain.HistoricalTrade) (err error) {
	if len(trades) == 0 {
		return nil
	}
	defer s.pool.observe("insert_trades_bulk", time.Now(), &err)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trades {
		if t == nil || t.ID == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, insertTradeQuery,
			t.ID, t.Timestamp, t.Network, t.Strategy,
			t.EntryPrice, t.ExitPrice, t.ExpectedProfit, t.GasCost,
			t.ExecutionTime, t.Success, t.Volatility, t.Liquidity, t.GasPrice,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert historical trade %s: %w", t.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByTimeRange retrieves trades on the given networks with
// start <= ts < end, ordered by timestamp ascending. An empty network list
// matches all networks.
func (s *TradeStore) GetByTimeRange(ctx context.Context, networks []string, start, end time.Time) (_ []*domain.HistoricalTrade, err error) {
	defer s.pool.observe("get_trades_by_time_range", time.Now(), &err)

	query := `
		SELECT id, ts, network, strategy,
		       entry_price, exit_price, expected_profit, gas_cost,
		       execution_time_ms, success, volatility, liquidity, gas_price
		FROM historical_trades
		WHERE ts >= $1 AND ts < $2
		  AND (cardinality($3::text[]) = 0 OR network = ANY($3))
		ORDER BY ts ASC, id ASC
	`

	if networks == nil {
		networks = []string{} // nil would reach the query as SQL NULL
	}
	rows, err := s.pool.Query(ctx, query, start, end, networks)
	if err != nil {
		return nil, fmt.Errorf("query historical trades: %w", err)
	}
	defer rows.Close()

	var out []*domain.HistoricalTrade
	for rows.Next() {
		var t domain.HistoricalTrade
		if err := rows.Scan(
			&t.ID, &t.Timestamp, &t.Network, &t.Strategy,
			&t.EntryPrice, &t.ExitPrice, &t.ExpectedProfit, &t.GasCost,
			&t.ExecutionTime, &t.Success, &t.Volatility, &t.Liquidity, &t.GasPrice,
		); err != nil {
			return nil, fmt.Errorf("scan historical trade: %w", err)
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate historical trades: %w", err)
	}
	return out, nil
}
