package clickhouse

import (
	"context"
	"fmt"
	"time"

	"arb-backtest-lab/internal/domain"
	"arb-backtest-lab/internal/storage"
)

// TradeStore implements storage.TradeStore using ClickHouse, suited to bulk
// analytical corpora. MergeTree does not enforce uniqueness at insert time,
// so duplicates are detected with explicit existence checks before insert.
type TradeStore struct {
	conn *Conn
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(conn *Conn) *TradeStore {
	return &TradeStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// Insert adds a single trade. Returns ErrDuplicateKey if the ID exists.
func (s *TradeStore) Insert(ctx context.Context, t *domain.HistoricalTrade) error {
	if t == nil || t.ID == "" {
		return storage.ErrInvalidInput
	}
	return s.InsertBulk(ctx, []*domain.HistoricalTrade{t})
}

// InsertBulk adds multiple trades. Fails the entire batch on any duplicate.
func (s *TradeStore) InsertBulk(ctx context.Context, trades []*domain.HistoricalTrade) (err error) {
	if len(trades) == 0 {
		return nil
	}
	defer s.conn.observe("insert_trades_bulk", time.Now(), &err)

	seen := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		if t == nil || t.ID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[t.ID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[t.ID] = struct{}{}
	}

	for _, t := range trades {
		exists, err := s.exists(ctx, t.ID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO historical_trades (
			id, ts, network, strategy,
			entry_price, exit_price, expected_profit, gas_cost,
			execution_time_ms, success, volatility, liquidity, gas_price
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, t := range trades {
		err = batch.Append(
			t.ID, t.Timestamp, t.Network, t.Strategy,
			t.EntryPrice, t.ExitPrice, t.ExpectedProfit, t.GasCost,
			t.ExecutionTime, t.Success, t.Volatility, t.Liquidity, t.GasPrice,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByTimeRange retrieves trades on the given networks with
// start <= ts < end, ordered by timestamp ascending. An empty network list
// matches all networks.
func (s *TradeStore) GetByTimeRange(ctx context.Context, networks []string, start, end time.Time) (_ []*domain.HistoricalTrade, err error) {
	defer s.conn.observe("get_trades_by_time_range", time.Now(), &err)

	query := `
		SELECT id, ts, network, strategy,
		       entry_price, exit_price, expected_profit, gas_cost,
		       execution_time_ms, success, volatility, liquidity, gas_price
		FROM historical_trades
		WHERE ts >= ? AND ts < ?
	`
	args := []any{start, end}
	if len(networks) > 0 {
		query += " AND network IN (?)"
		args = append(args, networks)
	}
	query += " ORDER BY ts ASC, id ASC"

	rows, err := s.conn.Query(ctx, query, args...)
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

func (s *TradeStore) exists(ctx context.Context, id string) (bool, error) {
	var count uint64
	row := s.conn.QueryRow(ctx, "SELECT count() FROM historical_trades WHERE id = ?", id)
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
