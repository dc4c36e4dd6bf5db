package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"arb-backtest-lab/internal/domain"
	"arb-backtest-lab/internal/storage/memory"
)

var testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func testConfig() *domain.BacktestConfig {
	return &domain.BacktestConfig{
		StartDate:      testStart,
		EndDate:        testStart.AddDate(0, 1, 0),
		InitialCapital: 10000,
		MaxDrawdown:    50,
		Strategies:     []string{"arbitrage"},
		Networks:       []string{"ethereum"},
		RiskParams:     domain.DefaultRiskParameters,
		SlippageModel:  domain.SlippageRealistic,
		FeeModel:       domain.FeeZero,
		LatencyModel:   domain.LatencyInstant,
	}
}

func seedTrades(t *testing.T, store *memory.TradeStore, n int) {
	t.Helper()
	trades := make([]*domain.HistoricalTrade, n)
	for i := range trades {
		trades[i] = &domain.HistoricalTrade{
			ID:             fmt.Sprintf("trade-%03d", i),
			Timestamp:      testStart.Add(time.Duration(i) * time.Hour),
			Network:        "ethereum",
			Strategy:       "arbitrage",
			ExpectedProfit: 50,
			GasCost:        5,
			Success:        true,
		}
	}
	if err := store.InsertBulk(context.Background(), trades); err != nil {
		t.Fatalf("seed trades: %v", err)
	}
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestRun_InvalidConfigs(t *testing.T) {
	o := New(Options{TradeStore: memory.NewTradeStore()})
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*domain.BacktestConfig)
	}{
		{"start after end", func(c *domain.BacktestConfig) {
			c.StartDate = c.EndDate.AddDate(0, 1, 0)
		}},
		{"start equals end", func(c *domain.BacktestConfig) {
			c.EndDate = c.StartDate
		}},
		{"zero capital", func(c *domain.BacktestConfig) {
			c.InitialCapital = 0
		}},
		{"negative capital", func(c *domain.BacktestConfig) {
			c.InitialCapital = -100
		}},
		{"no strategies", func(c *domain.BacktestConfig) {
			c.Strategies = nil
		}},
		{"no networks", func(c *domain.BacktestConfig) {
			c.Networks = nil
		}},
		{"negative risk param", func(c *domain.BacktestConfig) {
			c.RiskParams.MaxPositionSize = -1
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(cfg)
			_, err := o.Run(ctx, cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestRun_UnknownCostModel(t *testing.T) {
	o := New(Options{TradeStore: memory.NewTradeStore()})
	cfg := testConfig()
	cfg.SlippageModel = "bogus"

	_, err := o.Run(context.Background(), cfg)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestRun_EndToEnd(t *testing.T) {
	tradeStore := memory.NewTradeStore()
	resultStore := memory.NewResultStore()
	seedTrades(t, tradeStore, 20)

	now := testStart.AddDate(0, 2, 0)
	o := New(Options{
		TradeStore:  tradeStore,
		ResultStore: resultStore,
		Seed:        1,
		Now:         fixedClock(now),
		NewID:       func() string { return "run-fixed" },
	})

	results, err := o.Run(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if results.RunID != "run-fixed" {
		t.Errorf("run id = %s", results.RunID)
	}
	if !results.GeneratedAt.Equal(now) {
		t.Errorf("generated at = %v", results.GeneratedAt)
	}
	if results.TotalTrades == 0 {
		t.Fatal("no trades simulated")
	}
	// zero-cost models and zero volatility leave expected profit minus gas
	if got := results.NetProfit / float64(results.TotalTrades); got != 45 {
		t.Errorf("per-trade net profit = %v, want 45", got)
	}
	if results.BenchmarkComparison != nil {
		t.Error("benchmark comparison set without a benchmark")
	}

	stored, err := resultStore.GetByID(context.Background(), "run-fixed")
	if err != nil {
		t.Fatalf("results not persisted: %v", err)
	}
	if stored.NetProfit != results.NetProfit {
		t.Errorf("persisted net profit = %v, want %v", stored.NetProfit, results.NetProfit)
	}
}

func TestRun_SeedIdempotence(t *testing.T) {
	tradeStore := memory.NewTradeStore()
	seedTrades(t, tradeStore, 50)

	cfg := testConfig()
	cfg.SlippageModel = domain.SlippageDynamic
	cfg.LatencyModel = domain.LatencyRealistic

	run := func() *domain.BacktestResults {
		o := New(Options{TradeStore: tradeStore, Seed: 99})
		r, err := o.Run(context.Background(), cfg)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		return r
	}

	first := run()
	second := run()

	if first.TotalTrades != second.TotalTrades {
		t.Errorf("trade counts diverged: %d vs %d", first.TotalTrades, second.TotalTrades)
	}
	if first.NetProfit != second.NetProfit {
		t.Errorf("net profit diverged: %v vs %v", first.NetProfit, second.NetProfit)
	}
	if first.TotalCosts != second.TotalCosts {
		t.Errorf("total costs diverged: %v vs %v", first.TotalCosts, second.TotalCosts)
	}
}

func TestRun_BenchmarkComparison(t *testing.T) {
	tradeStore := memory.NewTradeStore()
	seedTrades(t, tradeStore, 10)

	cfg := testConfig()
	cfg.Benchmark = "hodl_eth"

	var askedName string
	o := New(Options{
		TradeStore: tradeStore,
		Seed:       1,
		Benchmark: func(_ context.Context, name string, _ *domain.BacktestConfig) (float64, error) {
			askedName = name
			return 1.5, nil
		},
	})

	results, err := o.Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if askedName != "hodl_eth" {
		t.Errorf("benchmark asked for %q", askedName)
	}
	cmp := results.BenchmarkComparison
	if cmp == nil {
		t.Fatal("benchmark comparison missing")
	}
	if cmp.BenchmarkReturn != 1.5 {
		t.Errorf("benchmark return = %v", cmp.BenchmarkReturn)
	}
	if cmp.Alpha != results.ROI-1.5 {
		t.Errorf("alpha = %v", cmp.Alpha)
	}
}

func TestRun_BenchmarkError(t *testing.T) {
	tradeStore := memory.NewTradeStore()
	seedTrades(t, tradeStore, 5)

	cfg := testConfig()
	cfg.Benchmark = "hodl_eth"

	wantErr := errors.New("benchmark source down")
	o := New(Options{
		TradeStore: tradeStore,
		Benchmark: func(context.Context, string, *domain.BacktestConfig) (float64, error) {
			return 0, wantErr
		},
	})

	_, err := o.Run(context.Background(), cfg)
	if !errors.Is(err, wantErr) {
		t.Errorf("expected benchmark error, got %v", err)
	}
}

func TestStoreBenchmark(t *testing.T) {
	tradeStore := memory.NewTradeStore()
	trades := []*domain.HistoricalTrade{
		{ID: "a", Timestamp: testStart, Network: "ethereum", Strategy: "hodl_eth", ExpectedProfit: 120},
		{ID: "b", Timestamp: testStart.Add(time.Hour), Network: "ethereum", Strategy: "hodl_eth", ExpectedProfit: 80},
		{ID: "c", Timestamp: testStart.Add(2 * time.Hour), Network: "ethereum", Strategy: "arbitrage", ExpectedProfit: 500},
	}
	if err := tradeStore.InsertBulk(context.Background(), trades); err != nil {
		t.Fatalf("seed: %v", err)
	}

	fn := StoreBenchmark(tradeStore)
	got, err := fn(context.Background(), "hodl_eth", testConfig())
	if err != nil {
		t.Fatalf("benchmark: %v", err)
	}
	if got != 2 { // (120+80)/10000*100
		t.Errorf("benchmark return = %v, want 2", got)
	}
}

// blockingTradeStore parks GetByTimeRange until released, so a second Run
// can be attempted while the first is in flight.
type blockingTradeStore struct {
	*memory.TradeStore
	entered chan struct{}
	release chan struct{}
}

func (s *blockingTradeStore) GetByTimeRange(ctx context.Context, networks []string, start, end time.Time) ([]*domain.HistoricalTrade, error) {
	select {
	case s.entered <- struct{}{}:
	default:
	}
	<-s.release // reads return immediately once the channel is closed
	return s.TradeStore.GetByTimeRange(ctx, networks, start, end)
}

func TestRun_RejectsConcurrentRuns(t *testing.T) {
	blocking := &blockingTradeStore{
		TradeStore: memory.NewTradeStore(),
		entered:    make(chan struct{}, 1),
		release:    make(chan struct{}),
	}

	o := New(Options{TradeStore: blocking, Seed: 1})
	cfg := testConfig()

	done := make(chan error, 1)
	go func() {
		_, err := o.Run(context.Background(), cfg)
		done <- err
	}()

	<-blocking.entered

	_, err := o.Run(context.Background(), cfg)
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("expected ErrAlreadyRunning, got %v", err)
	}

	close(blocking.release)
	if err := <-done; err != nil {
		t.Errorf("first run failed: %v", err)
	}

	// the slot is free again once the first run finishes
	if _, err := o.Run(context.Background(), cfg); err != nil {
		t.Errorf("sequential rerun failed: %v", err)
	}
}

func TestRun_ProgressForwarded(t *testing.T) {
	tradeStore := memory.NewTradeStore()
	seedTrades(t, tradeStore, 250)

	var updates []domain.ProgressUpdate
	o := New(Options{
		TradeStore: tradeStore,
		Seed:       1,
		OnProgress: func(u domain.ProgressUpdate) { updates = append(updates, u) },
	})

	if _, err := o.Run(context.Background(), testConfig()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(updates) != 2 {
		t.Fatalf("expected 2 progress updates for 250 trades, got %d", len(updates))
	}
	if updates[0].TradesProcessed != 100 || updates[1].TradesProcessed != 200 {
		t.Errorf("unexpected update cadence: %+v", updates)
	}
}
