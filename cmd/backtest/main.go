// Package main runs a single backtest over the stored historical corpus.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"arb-backtest-lab/internal/config"
	"arb-backtest-lab/internal/domain"
	"arb-backtest-lab/internal/observability"
	"arb-backtest-lab/internal/orchestrator"
	"arb-backtest-lab/internal/reporting"
	"arb-backtest-lab/internal/storage"
	chstore "arb-backtest-lab/internal/storage/clickhouse"
	"arb-backtest-lab/internal/storage/memory"
	"arb-backtest-lab/internal/storage/migrations"
	pgstore "arb-backtest-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config (required)")
	seed := flag.Int64("seed", 0, "Override the configured random seed")
	benchmarkName := flag.String("benchmark", "", "Override the configured benchmark strategy")
	outputJSON := flag.Bool("json", false, "Output results as JSON")
	persist := flag.Bool("persist", true, "Persist results to storage")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	if *configPath == "" {
		logger.Fatal("--config is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if *verbose {
		cfg.Log.Verbose = true
	}

	runCfg, err := cfg.ToBacktestConfig()
	if err != nil {
		logger.Fatalf("invalid config: %v", err)
	}
	if *benchmarkName != "" {
		runCfg.Benchmark = *benchmarkName
	}

	runSeed := cfg.Backtest.Seed
	if *seed != 0 {
		runSeed = *seed
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics("")
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
				logger.Printf("metrics server: %v", err)
			}
		}()
		logger.Printf("Serving metrics on %s/metrics", cfg.Metrics.Addr)
	}

	tradeStore, resultStore, closeStores, err := openStores(ctx, cfg, metrics)
	if err != nil {
		logger.Fatalf("open storage: %v", err)
	}
	defer closeStores()

	if !*persist {
		resultStore = nil
	}

	orch := orchestrator.New(orchestrator.Options{
		TradeStore:  tradeStore,
		ResultStore: resultStore,
		Benchmark:   orchestrator.StoreBenchmark(tradeStore),
		Metrics:     metrics,
		Seed:        runSeed,
		Verbose:     cfg.Log.Verbose,
		OnProgress: func(u domain.ProgressUpdate) {
			if cfg.Log.Verbose {
				logger.Printf("progress %.1f%% (%d trades, capital %.2f)",
					u.ProgressPct, u.TradesProcessed, u.Capital)
			}
		},
	})

	logger.Printf("Running backtest %s to %s: strategies=[%s] networks=[%s]",
		runCfg.StartDate.Format("2006-01-02"), runCfg.EndDate.Format("2006-01-02"),
		strings.Join(runCfg.Strategies, ","), strings.Join(runCfg.Networks, ","))

	results, err := orch.Run(ctx, runCfg)
	if err != nil {
		logger.Fatalf("backtest failed: %v", err)
	}

	if *outputJSON {
		output, err := reporting.MarshalResults(results)
		if err != nil {
			logger.Fatalf("marshal results: %v", err)
		}
		fmt.Println(string(output))
		return
	}
	fmt.Print(reporting.RenderMarkdown(results))
}

// openStores builds the trade and result stores for the configured backend.
// The returned func closes whatever connections were opened. When metrics is
// non-nil, database query timing is reported to it.
func openStores(ctx context.Context, cfg *config.Config, metrics *observability.Metrics) (storage.TradeStore, storage.ResultStore, func(), error) {
	switch cfg.Storage.Backend {
	case "memory":
		return memory.NewTradeStore(), memory.NewResultStore(), func() {}, nil

	case "postgres":
		if cfg.Storage.PostgresDSN == "" {
			return nil, nil, nil, fmt.Errorf("postgres backend needs postgres_dsn")
		}
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		if metrics != nil {
			pool.Observer = func(op string, seconds float64, err error) {
				metrics.RecordDBQuery("postgres", op, seconds, err)
			}
		}
		return pgstore.NewTradeStore(pool), pgstore.NewResultStore(pool), pool.Close, nil

	case "clickhouse":
		if cfg.Storage.ClickhouseDSN == "" {
			return nil, nil, nil, fmt.Errorf("clickhouse backend needs clickhouse_dsn")
		}
		conn, err := chstore.NewConn(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			conn.Close()
			return nil, nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		if metrics != nil {
			conn.Observer = func(op string, seconds float64, err error) {
				metrics.RecordDBQuery("clickhouse", op, seconds, err)
			}
		}
		// Run summaries stay in memory; ClickHouse only holds the trade corpus.
		return chstore.NewTradeStore(conn), memory.NewResultStore(), func() { _ = conn.Close() }, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
