// Package orchestrator coordinates one backtest run end to end:
// load trades → simulate → compute metrics → compare benchmark → persist.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"arb-backtest-lab/internal/benchmark"
	"arb-backtest-lab/internal/costs"
	"arb-backtest-lab/internal/domain"
	"arb-backtest-lab/internal/metrics"
	"arb-backtest-lab/internal/observability"
	"arb-backtest-lab/internal/simulation"
	"arb-backtest-lab/internal/storage"
)

// ErrAlreadyRunning is returned when a run is started while another run on
// the same orchestrator is still in flight.
var ErrAlreadyRunning = errors.New("backtest already running")

// ErrInvalidConfig wraps all run configuration validation failures.
var ErrInvalidConfig = errors.New("invalid backtest config")

// BenchmarkFunc resolves the benchmark's return percentage for the run
// period. It is only called when the config names a benchmark.
type BenchmarkFunc func(ctx context.Context, name string, cfg *domain.BacktestConfig) (float64, error)

// Options for creating an Orchestrator.
type Options struct {
	// Required stores
	TradeStore storage.TradeStore

	// Optional collaborators
	ResultStore storage.ResultStore // persisted run summaries; nil skips persistence
	Benchmark   BenchmarkFunc       // nil skips benchmark comparison
	Metrics     *observability.Metrics

	// Options
	OnProgress simulation.ProgressFunc
	Seed       int64 // seed for all stochastic draws; same seed, same results
	Verbose    bool

	// Injectable for deterministic tests
	Now   func() time.Time
	NewID func() string
}

// Orchestrator runs backtests. A single orchestrator rejects concurrent
// runs; create one per independent run stream if parallelism is needed.
type Orchestrator struct {
	tradeStore  storage.TradeStore
	resultStore storage.ResultStore
	benchmark   BenchmarkFunc
	metrics     *observability.Metrics

	onProgress simulation.ProgressFunc
	seed       int64
	verbose    bool

	now   func() time.Time
	newID func() string

	running atomic.Bool
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		tradeStore:  opts.TradeStore,
		resultStore: opts.ResultStore,
		benchmark:   opts.Benchmark,
		metrics:     opts.Metrics,
		onProgress:  opts.OnProgress,
		seed:        opts.Seed,
		verbose:     opts.Verbose,
		now:         opts.Now,
		newID:       opts.NewID,
	}
	if o.now == nil {
		o.now = func() time.Time { return time.Now().UTC() }
	}
	if o.newID == nil {
		o.newID = func() string { return uuid.NewString() }
	}
	return o
}

// Run executes one backtest and returns its results. Only one run may be in
// flight per orchestrator; concurrent calls fail with ErrAlreadyRunning.
func (o *Orchestrator) Run(ctx context.Context, cfg *domain.BacktestConfig) (*domain.BacktestResults, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}

	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	defer o.running.Store(false)

	if o.metrics != nil {
		o.metrics.RecordRunStart()
	}
	started := o.now()

	o.log("loading trades %s to %s (%d networks)",
		cfg.StartDate.Format("2006-01-02"), cfg.EndDate.Format("2006-01-02"), len(cfg.Networks))
	trades, err := o.tradeStore.GetByTimeRange(ctx, cfg.Networks, cfg.StartDate, cfg.EndDate)
	if err != nil {
		o.recordEnd("failed", started)
		return nil, fmt.Errorf("load trades: %w", err)
	}
	o.log("loaded %d trades", len(trades))

	models, err := costs.New(cfg.SlippageModel, cfg.FeeModel, cfg.LatencyModel,
		rand.New(rand.NewSource(o.seed)))
	if err != nil {
		o.recordEnd("failed", started)
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	sim := simulation.New(simulation.Options{
		Costs:      models,
		OnProgress: o.progressHook(),
	})

	outcome := sim.Run(trades, cfg)
	o.log("simulation %s: %d/%d trades executed, final capital %.2f, max drawdown %.2f%%",
		outcome.State, len(outcome.Trades), outcome.EligibleTrades,
		outcome.FinalCapital, outcome.MaxDrawdown)

	results := metrics.Compute(outcome.Trades, cfg)
	results.RunID = o.newID()
	results.GeneratedAt = o.now()
	results.ExecutionTimeMs = results.GeneratedAt.Sub(started).Milliseconds()

	if cfg.Benchmark != "" && o.benchmark != nil {
		benchReturn, err := o.benchmark(ctx, cfg.Benchmark, cfg)
		if err != nil {
			o.recordEnd("failed", started)
			return nil, fmt.Errorf("benchmark %s: %w", cfg.Benchmark, err)
		}
		results.BenchmarkComparison = benchmark.Compare(
			cfg.Benchmark, results.ROI, benchReturn, results.SharpeRatio)
	}

	if o.resultStore != nil {
		if err := o.resultStore.Insert(ctx, results); err != nil {
			o.recordEnd("failed", started)
			return nil, fmt.Errorf("persist results %s: %w", results.RunID, err)
		}
	}

	o.recordOutcome(outcome)
	o.recordEnd(string(outcome.State), started)
	o.log("run %s completed in %dms", results.RunID, results.ExecutionTimeMs)
	return results, nil
}

// progressHook fans a progress update out to the caller callback and the
// Prometheus gauges.
func (o *Orchestrator) progressHook() simulation.ProgressFunc {
	if o.onProgress == nil && o.metrics == nil {
		return nil
	}
	return func(u domain.ProgressUpdate) {
		if o.metrics != nil {
			o.metrics.RecordProgress(u.ProgressPct, u.Capital)
		}
		if o.onProgress != nil {
			o.onProgress(u)
		}
	}
}

func (o *Orchestrator) recordOutcome(out *simulation.Outcome) {
	if o.metrics == nil {
		return
	}
	o.metrics.TradesSimulated.Add(float64(len(out.Trades)))
	o.metrics.TradesFailed.Add(float64(out.FailedExecutions))
	for reason, n := range out.RejectedTrades {
		o.metrics.TradesRejected.WithLabelValues(reason).Add(float64(n))
	}
	if out.State == simulation.StateEmergencyStopped {
		o.metrics.EmergencyStops.Inc()
	}
}

func (o *Orchestrator) recordEnd(status string, started time.Time) {
	if o.metrics == nil {
		return
	}
	o.metrics.RecordRunEnd(status, o.now().Sub(started).Seconds())
}

// StoreBenchmark builds a BenchmarkFunc that treats the benchmark name as a
// strategy in the historical corpus: its return is the sum of expected
// profits of that strategy's trades over the run period, relative to the
// configured initial capital.
func StoreBenchmark(store storage.TradeStore) BenchmarkFunc {
	return func(ctx context.Context, name string, cfg *domain.BacktestConfig) (float64, error) {
		trades, err := store.GetByTimeRange(ctx, cfg.Networks, cfg.StartDate, cfg.EndDate)
		if err != nil {
			return 0, err
		}
		var total float64
		for _, t := range trades {
			if t.Strategy == name {
				total += t.ExpectedProfit
			}
		}
		return total / cfg.InitialCapital * 100, nil
	}
}

// validate rejects configs that cannot produce a meaningful run.
func validate(cfg *domain.BacktestConfig) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	if !cfg.StartDate.Before(cfg.EndDate) {
		return fmt.Errorf("%w: start date %s must precede end date %s",
			ErrInvalidConfig, cfg.StartDate.Format("2006-01-02"), cfg.EndDate.Format("2006-01-02"))
	}
	if cfg.InitialCapital <= 0 {
		return fmt.Errorf("%w: initial capital must be positive, got %v",
			ErrInvalidConfig, cfg.InitialCapital)
	}
	if len(cfg.Strategies) == 0 {
		return fmt.Errorf("%w: at least one strategy required", ErrInvalidConfig)
	}
	if len(cfg.Networks) == 0 {
		return fmt.Errorf("%w: at least one network required", ErrInvalidConfig)
	}
	if err := cfg.RiskParams.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func (o *Orchestrator) log(format string, args ...interface{}) {
	if o.verbose {
		log.Printf("[orchestrator] "+format, args...)
	}
}
