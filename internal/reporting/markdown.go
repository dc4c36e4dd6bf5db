package reporting

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"arb-backtest-lab/internal/domain"
)

// formatRatio renders a ratio for display. Unbounded ratios (no losing
// days, no losing trades) render as "inf" rather than Go's "+Inf".
func formatRatio(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	if math.IsInf(v, -1) {
		return "-inf"
	}
	return fmt.Sprintf("%.2f", v)
}

// RenderMarkdown renders backtest results as a Markdown report.
func RenderMarkdown(r *domain.BacktestResults) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Backtest Report\n\n")
	sb.WriteString(fmt.Sprintf("Run: %s\n\n", r.RunID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Period: %s to %s | Initial Capital: %.2f\n\n",
		r.Config.StartDate.Format("2006-01-02"),
		r.Config.EndDate.Format("2006-01-02"),
		r.Config.InitialCapital))

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Trades | %d |\n", r.TotalTrades))
	sb.WriteString(fmt.Sprintf("| Successful Trades | %d |\n", r.SuccessfulTrades))
	sb.WriteString(fmt.Sprintf("| Win Rate | %.2f%% |\n", r.WinRate))
	sb.WriteString(fmt.Sprintf("| Total Profit (gross) | %.2f |\n", r.TotalProfit))
	sb.WriteString(fmt.Sprintf("| Total Costs | %.2f |\n", r.TotalCosts))
	sb.WriteString(fmt.Sprintf("| Net Profit | %.2f |\n", r.NetProfit))
	sb.WriteString(fmt.Sprintf("| ROI | %.2f%% |\n", r.ROI))
	sb.WriteString(fmt.Sprintf("| Sharpe Ratio | %s |\n", formatRatio(r.SharpeRatio)))
	sb.WriteString(fmt.Sprintf("| Sortino Ratio | %s |\n", formatRatio(r.SortinoRatio)))
	sb.WriteString(fmt.Sprintf("| Profit Factor | %s |\n", formatRatio(r.ProfitFactor)))
	sb.WriteString(fmt.Sprintf("| Max Drawdown | %.2f%% |\n", r.MaxDrawdown))
	sb.WriteString(fmt.Sprintf("| Max Drawdown Duration | %d |\n", r.MaxDrawdownDuration))
	sb.WriteString(fmt.Sprintf("| Average Win | %.2f |\n", r.AverageWin))
	sb.WriteString(fmt.Sprintf("| Average Loss | %.2f |\n", r.AverageLoss))
	sb.WriteString(fmt.Sprintf("| Largest Win | %.2f |\n", r.LargestWin))
	sb.WriteString(fmt.Sprintf("| Largest Loss | %.2f |\n", r.LargestLoss))
	sb.WriteString(fmt.Sprintf("| Data Quality | %.0f |\n", r.DataQuality))
	sb.WriteString(fmt.Sprintf("| Confidence | %.0f |\n", r.Confidence))
	sb.WriteString(fmt.Sprintf("| Execution Time (ms) | %d |\n", r.ExecutionTimeMs))
	sb.WriteString("\n")

	// Strategy breakdown
	sb.WriteString("## Strategy Performance\n\n")
	writeGroupTable(&sb, "Strategy", r.StrategyPerformance)

	// Network breakdown
	sb.WriteString("## Network Performance\n\n")
	writeGroupTable(&sb, "Network", r.NetworkPerformance)

	// Monthly returns
	sb.WriteString("## Monthly Returns\n\n")
	if len(r.MonthlyReturns) > 0 {
		sb.WriteString("| Month | Profit | Return% | Best Day | Worst Day |\n")
		sb.WriteString("|-------|--------|---------|----------|-----------|\n")
		for _, m := range r.MonthlyReturns {
			sb.WriteString(fmt.Sprintf("| %s | %.2f | %.2f | %.2f | %.2f |\n",
				m.Month, m.Profit, m.ReturnPct, m.BestDay, m.WorstDay))
		}
	} else {
		sb.WriteString("No monthly returns available.\n")
	}
	sb.WriteString("\n")

	// Drawdown analysis
	sb.WriteString("## Drawdown Periods\n\n")
	if len(r.DrawdownAnalysis) > 0 {
		sb.WriteString("| Start | End | Duration | Max Drawdown% | Recovered |\n")
		sb.WriteString("|-------|-----|----------|---------------|-----------|\n")
		for _, d := range r.DrawdownAnalysis {
			recovered := "no"
			if d.Recovery > 0 {
				recovered = "yes"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %.2f | %s |\n",
				d.StartDate.Format("2006-01-02"), d.EndDate.Format("2006-01-02"),
				d.Duration, d.MaxDrawdown, recovered))
		}
	} else {
		sb.WriteString("No drawdown periods recorded.\n")
	}
	sb.WriteString("\n")

	// Benchmark
	if r.BenchmarkComparison != nil {
		b := r.BenchmarkComparison
		sb.WriteString("## Benchmark Comparison\n\n")
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Benchmark | %s |\n", b.Benchmark))
		sb.WriteString(fmt.Sprintf("| Our Return | %.2f%% |\n", b.OurReturn))
		sb.WriteString(fmt.Sprintf("| Benchmark Return | %.2f%% |\n", b.BenchmarkReturn))
		sb.WriteString(fmt.Sprintf("| Alpha | %.2f |\n", b.Alpha))
		sb.WriteString(fmt.Sprintf("| Beta | %.2f |\n", b.Beta))
		sb.WriteString(fmt.Sprintf("| Information Ratio | %s |\n", formatRatio(b.InformationRatio)))
		sb.WriteString(fmt.Sprintf("| Tracking Error | %.2f |\n", b.TrackingError))
		sb.WriteString("\n")
	}

	return sb.String()
}

// writeGroupTable writes a per-group performance table sorted by key.
func writeGroupTable(sb *strings.Builder, label string, groups map[string]*domain.GroupPerformance) {
	if len(groups) == 0 {
		sb.WriteString("No data available.\n\n")
		return
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sb.WriteString(fmt.Sprintf("| %s | Trades | Wins | WinRate%% | Profit | AvgProfit | ProfitFactor | Best | Worst |\n", label))
	sb.WriteString("|------|--------|------|----------|--------|-----------|--------------|------|-------|\n")
	for _, k := range keys {
		g := groups[k]
		sb.WriteString(fmt.Sprintf("| %s | %d | %d | %.2f | %.2f | %.2f | %s | %.2f | %.2f |\n",
			k, g.Trades, g.Wins, g.WinRate, g.TotalProfit, g.AvgProfit,
			formatRatio(g.ProfitFactor), g.BestTrade, g.WorstTrade))
	}
	sb.WriteString("\n")
}
