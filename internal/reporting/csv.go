package reporting

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"arb-backtest-lab/internal/domain"
)

// RenderGroupCSV renders a per-strategy or per-network rollup as CSV string,
// rows sorted by group key. Unbounded profit factors encode as "inf".
func RenderGroupCSV(label string, groups map[string]*domain.GroupPerformance) string {
	var sb strings.Builder

	sb.WriteString(label + ",trades,wins,win_rate,total_profit,avg_profit,profit_factor,best_trade,worst_trade\n")

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		g := groups[k]
		pf := fmt.Sprintf("%.6f", g.ProfitFactor)
		if math.IsInf(g.ProfitFactor, 1) {
			pf = "inf"
		}
		sb.WriteString(fmt.Sprintf("%s,%d,%d,%.6f,%.6f,%.6f,%s,%.6f,%.6f\n",
			k, g.Trades, g.Wins, g.WinRate, g.TotalProfit, g.AvgProfit,
			pf, g.BestTrade, g.WorstTrade))
	}

	return sb.String()
}

// RenderDailyCSV renders daily returns as CSV string.
func RenderDailyCSV(days []domain.DailyReturn) string {
	var sb strings.Builder

	sb.WriteString("date,profit,return_pct,trades\n")
	for _, d := range days {
		sb.WriteString(fmt.Sprintf("%s,%.6f,%.6f,%d\n",
			d.Date, d.Profit, d.ReturnPct, d.Trades))
	}

	return sb.String()
}

// RenderEquityCSV renders the equity curve as CSV string.
func RenderEquityCSV(curve []domain.EquityPoint) string {
	var sb strings.Builder

	sb.WriteString("timestamp,equity,drawdown_pct,trade_count\n")
	for _, p := range curve {
		sb.WriteString(fmt.Sprintf("%s,%.6f,%.6f,%d\n",
			p.Timestamp.Format(time.RFC3339), p.Equity, p.Drawdown, p.TradeCount))
	}

	return sb.String()
}
