package reporting

import (
	"context"
	"fmt"
	"time"

	"arb-backtest-lab/internal/storage"
)

// Generator produces report documents from stored backtest results.
type Generator struct {
	resultStore storage.ResultStore
	now         func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(resultStore storage.ResultStore) *Generator {
	return &Generator{
		resultStore: resultStore,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Document bundles all rendered outputs for one backtest run.
type Document struct {
	RunID       string
	RenderedAt  time.Time // when this document was produced, from the generator's clock
	Markdown    string
	DailyCSV    string
	EquityCSV   string
	StrategyCSV string
	JSON        []byte
}

// Generate loads a stored run and renders all output formats.
func (g *Generator) Generate(ctx context.Context, runID string) (*Document, error) {
	results, err := g.resultStore.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load results %s: %w", runID, err)
	}

	jsonBytes, err := MarshalResults(results)
	if err != nil {
		return nil, fmt.Errorf("marshal results %s: %w", runID, err)
	}

	return &Document{
		RunID:       results.RunID,
		RenderedAt:  g.now(),
		Markdown:    RenderMarkdown(results),
		DailyCSV:    RenderDailyCSV(results.DailyReturns),
		EquityCSV:   RenderEquityCSV(results.EquityCurve),
		StrategyCSV: RenderGroupCSV("strategy", results.StrategyPerformance),
		JSON:        jsonBytes,
	}, nil
}

// SummaryRow is one line in the run history listing.
type SummaryRow struct {
	RunID       string
	GeneratedAt time.Time
	Trades      int
	NetProfit   float64
	ROI         float64
	MaxDrawdown float64
	Sharpe      float64
}

// ListRuns returns summary rows for all stored runs, oldest first.
func (g *Generator) ListRuns(ctx context.Context) ([]SummaryRow, error) {
	all, err := g.resultStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	rows := make([]SummaryRow, 0, len(all))
	for _, r := range all {
		rows = append(rows, SummaryRow{
			RunID:       r.RunID,
			GeneratedAt: r.GeneratedAt,
			Trades:      r.TotalTrades,
			NetProfit:   r.NetProfit,
			ROI:         r.ROI,
			MaxDrawdown: r.MaxDrawdown,
			Sharpe:      r.SharpeRatio,
		})
	}
	return rows, nil
}
