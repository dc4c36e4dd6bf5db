package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arb-backtest-lab/internal/domain"
	"arb-backtest-lab/internal/storage"
)

func makeTrade(id, network string, ts time.Time) *domain.HistoricalTrade {
	return &domain.HistoricalTrade{
		ID:             id,
		Timestamp:      ts,
		Network:        network,
		Strategy:       "arbitrage",
		EntryPrice:     1.01,
		ExitPrice:      1.02,
		ExpectedProfit: 42.5,
		GasCost:        1.5,
		ExecutionTime:  1200,
		Success:        true,
		Volatility:     12.5,
		Liquidity:      500000,
		GasPrice:       30,
	}
}

// Input validation and the intra-batch duplicate check run before any query,
// so they need no live connection.
func TestTradeStore_InputValidation(t *testing.T) {
	ctx := context.Background()
	store := NewTradeStore(&Conn{})
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	err := store.Insert(ctx, nil)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	err = store.Insert(ctx, &domain.HistoricalTrade{})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	assert.NoError(t, store.InsertBulk(ctx, nil))

	err = store.InsertBulk(ctx, []*domain.HistoricalTrade{
		makeTrade("t1", "ethereum", base),
		nil,
	})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	err = store.InsertBulk(ctx, []*domain.HistoricalTrade{
		makeTrade("t1", "ethereum", base),
		makeTrade("t1", "ethereum", base.Add(time.Minute)),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTradeStore_InsertAndDuplicateDetection(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(conn)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Insert(ctx, makeTrade("t1", "ethereum", base)))

	// MergeTree has no unique constraint; the store must still reject a
	// re-insert of a known ID.
	err := store.Insert(ctx, makeTrade("t1", "ethereum", base))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	err = store.InsertBulk(ctx, []*domain.HistoricalTrade{
		makeTrade("t2", "ethereum", base.Add(time.Hour)),
		makeTrade("t1", "ethereum", base),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetByTimeRange(ctx, nil, base.Add(-time.Hour), base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1, "rejected batches must not land")
	assert.Equal(t, "t1", got[0].ID)
	assert.Equal(t, 42.5, got[0].ExpectedProfit)
	assert.True(t, got[0].Success)
	assert.True(t, got[0].Timestamp.Equal(base))
}

func TestTradeStore_GetByTimeRange(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeStore(conn)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.InsertBulk(ctx, []*domain.HistoricalTrade{
		makeTrade("t2", "ethereum", base.Add(2*time.Hour)),
		makeTrade("t1", "ethereum", base),
		makeTrade("t3", "polygon", base.Add(time.Hour)),
		makeTrade("t4", "ethereum", base.Add(10*time.Hour)),
	}))

	// Timestamp ordering across networks.
	all, err := store.GetByTimeRange(ctx, nil, base, base.Add(4*time.Hour))
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "t1", all[0].ID)
	assert.Equal(t, "t3", all[1].ID)
	assert.Equal(t, "t2", all[2].ID)

	// Network filter.
	eth, err := store.GetByTimeRange(ctx, []string{"ethereum"}, base, base.Add(4*time.Hour))
	require.NoError(t, err)
	assert.Len(t, eth, 2)

	// Exclusive end bound.
	window, err := store.GetByTimeRange(ctx, nil, base, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, window, 1)
}
