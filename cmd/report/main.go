// Package main renders reports for stored backtest runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/olekukonko/tablewriter"

	"arb-backtest-lab/internal/reporting"
	"arb-backtest-lab/internal/storage/migrations"
	pgstore "arb-backtest-lab/internal/storage/postgres"
)

func main() {
	// Parse flags
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (required)")
	runID := flag.String("run-id", "", "Run to render; omit with --list to show all runs")
	list := flag.Bool("list", false, "List stored runs instead of rendering one")
	outputDir := flag.String("output-dir", "", "Write report files here instead of stdout")
	flag.Parse()

	// Setup logger
	logger := log.New(os.Stderr, "[report] ", log.LstdFlags)

	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}
	if !*list && *runID == "" {
		logger.Fatal("--run-id is required unless --list is set")
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("run migrations: %v", err)
	}

	gen := reporting.NewGenerator(pgstore.NewResultStore(pool))

	if *list {
		rows, err := gen.ListRuns(ctx)
		if err != nil {
			logger.Fatalf("list runs: %v", err)
		}
		printRunTable(rows)
		return
	}

	doc, err := gen.Generate(ctx, *runID)
	if err != nil {
		logger.Fatalf("generate report: %v", err)
	}

	if *outputDir == "" {
		fmt.Print(doc.Markdown)
		return
	}

	if err := writeReportFiles(*outputDir, doc); err != nil {
		logger.Fatalf("write report: %v", err)
	}
	logger.Printf("Report for %s rendered at %s, written to %s",
		doc.RunID, doc.RenderedAt.Format(time.RFC3339), *outputDir)
}

// printRunTable prints the run history to stdout.
func printRunTable(rows []reporting.SummaryRow) {
	if len(rows) == 0 {
		fmt.Println("no stored runs")
		return
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Run", "Generated", "Trades", "Net Profit", "ROI%", "Max DD%", "Sharpe")
	for _, r := range rows {
		table.Append(
			r.RunID,
			r.GeneratedAt.Format(time.RFC3339),
			fmt.Sprintf("%d", r.Trades),
			fmt.Sprintf("%.2f", r.NetProfit),
			fmt.Sprintf("%.2f", r.ROI),
			fmt.Sprintf("%.2f", r.MaxDrawdown),
			fmt.Sprintf("%.2f", r.Sharpe),
		)
	}
	table.Render()
}

// writeReportFiles writes all rendered formats for one run.
func writeReportFiles(dir string, doc *reporting.Document) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	files := map[string][]byte{
		doc.RunID + ".md":             []byte(doc.Markdown),
		doc.RunID + "_daily.csv":      []byte(doc.DailyCSV),
		doc.RunID + "_equity.csv":     []byte(doc.EquityCSV),
		doc.RunID + "_strategies.csv": []byte(doc.StrategyCSV),
		doc.RunID + ".json":           doc.JSON,
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return err
		}
	}
	return nil
}
