// Package metrics aggregates a simulated trade stream into the full
// performance report: totals, risk-adjusted ratios, rollups, equity curve and
// drawdown segmentation.
package metrics

import (
	"math"

	"arb-backtest-lab/internal/domain"
)

// riskFreeRateDaily is the daily risk-free rate used by the Sharpe and
// Sortino numerators (2% annual over 365 days).
const riskFreeRateDaily = 0.02 / 365

// Compute derives all statistics from the simulated trade stream. Trades are
// expected in replay order. Every ratio resolves to a well-defined value
// (0 or +Inf) under degenerate inputs, so the report is always fully
// populated.
func Compute(trades []*domain.SimulatedTrade, cfg *domain.BacktestConfig) *domain.BacktestResults {
	res := &domain.BacktestResults{
		Config:      *cfg,
		TotalTrades: len(trades),
	}

	var sumWins, sumLosses float64 // sumLosses accumulated as a positive magnitude
	var winCount, lossCount int
	largestWin := 0.0
	largestLoss := 0.0
	for _, t := range trades {
		res.TotalProfit += t.ExpectedProfit
		res.TotalCosts += t.Slippage + t.Fees + t.GasCost
		res.NetProfit += t.ActualProfit
		if t.Success {
			res.SuccessfulTrades++
		}
		if t.ActualProfit > 0 {
			winCount++
			sumWins += t.ActualProfit
			if t.ActualProfit > largestWin {
				largestWin = t.ActualProfit
			}
		} else if t.ActualProfit < 0 {
			lossCount++
			sumLosses += -t.ActualProfit
			if t.ActualProfit < largestLoss {
				largestLoss = t.ActualProfit
			}
		}
	}

	if res.TotalTrades > 0 {
		res.WinRate = float64(res.SuccessfulTrades) / float64(res.TotalTrades) * 100
	}
	res.ROI = ((cfg.InitialCapital+res.NetProfit)/cfg.InitialCapital - 1) * 100
	res.ProfitFactor = profitFactor(sumWins, sumLosses)
	res.LargestWin = largestWin
	res.LargestLoss = largestLoss
	if winCount > 0 {
		res.AverageWin = sumWins / float64(winCount)
	}
	if lossCount > 0 {
		res.AverageLoss = -sumLosses / float64(lossCount)
	}

	res.DailyReturns = computeDailyReturns(trades, cfg.InitialCapital)
	res.SharpeRatio = computeSharpe(res.DailyReturns)
	res.SortinoRatio = computeSortino(res.DailyReturns)

	res.EquityCurve = buildEquityCurve(trades, cfg)
	res.DrawdownAnalysis = segmentDrawdowns(res.EquityCurve)
	for _, p := range res.EquityCurve {
		if p.Drawdown > res.MaxDrawdown {
			res.MaxDrawdown = p.Drawdown
		}
	}
	for _, d := range res.DrawdownAnalysis {
		if d.Duration > res.MaxDrawdownDuration {
			res.MaxDrawdownDuration = d.Duration
		}
	}

	res.StrategyPerformance = rollup(trades, func(t *domain.SimulatedTrade) string { return t.Strategy })
	res.NetworkPerformance = rollup(trades, func(t *domain.SimulatedTrade) string { return t.Network })
	res.MonthlyReturns = computeMonthlyReturns(res.DailyReturns, cfg.InitialCapital)

	res.DataQuality = dataQuality(res.TotalTrades)
	res.Confidence = confidence(res.TotalTrades, cfg)

	return res
}

// profitFactor is total gains over total losses; +Inf with gains but no
// losses, 0 with no gains at all.
func profitFactor(sumWins, sumLosses float64) float64 {
	if sumLosses == 0 {
		if sumWins > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return sumWins / sumLosses
}

// computeDailyReturns buckets trades by calendar day and relates each day's
// profit to the capital at the start of that day. Capital advances
// additively day over day.
func computeDailyReturns(trades []*domain.SimulatedTrade, initialCapital float64) []domain.DailyReturn {
	if len(trades) == 0 {
		return nil
	}

	type bucket struct {
		profit float64
		trades int
	}
	byDay := make(map[string]*bucket)
	var order []string
	for _, t := range trades {
		day := t.Timestamp.Format("2006-01-02")
		b, ok := byDay[day]
		if !ok {
			b = &bucket{}
			byDay[day] = b
			order = append(order, day)
		}
		b.profit += t.ActualProfit
		b.trades++
	}

	capital := initialCapital
	returns := make([]domain.DailyReturn, 0, len(order))
	for _, day := range order {
		b := byDay[day]
		pct := 0.0
		if capital != 0 {
			pct = b.profit / capital * 100
		}
		returns = append(returns, domain.DailyReturn{
			Date:      day,
			Profit:    b.profit,
			ReturnPct: pct,
			Trades:    b.trades,
		})
		capital += b.profit
	}
	return returns
}

// computeSharpe is mean daily excess return over the standard deviation of
// daily returns. Returns 0 with fewer than 2 samples or zero deviation.
func computeSharpe(daily []domain.DailyReturn) float64 {
	if len(daily) < 2 {
		return 0
	}
	returns := dailyPcts(daily)
	mean := computeMean(returns)
	stddev := computeStddev(returns, mean)
	if stddev == 0 {
		return 0
	}
	return (mean - riskFreeRateDaily) / stddev
}

// computeSortino uses only the deviation of negative daily returns in the
// denominator. Returns +Inf when no day lost money, 0 with fewer than 2
// samples.
func computeSortino(daily []domain.DailyReturn) float64 {
	if len(daily) < 2 {
		return 0
	}
	returns := dailyPcts(daily)
	var negatives []float64
	for _, r := range returns {
		if r < 0 {
			negatives = append(negatives, r)
		}
	}
	if len(negatives) == 0 {
		return math.Inf(1)
	}
	downside := computeStddev(negatives, computeMean(negatives))
	if downside == 0 {
		return 0
	}
	return (computeMean(returns) - riskFreeRateDaily) / downside
}

func dailyPcts(daily []domain.DailyReturn) []float64 {
	out := make([]float64, len(daily))
	for i, d := range daily {
		out[i] = d.ReturnPct
	}
	return out
}

func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeStddev is the population standard deviation (n denominator),
// matching how the source system treats its return series.
func computeStddev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

// buildEquityCurve produces one pre-trade point plus one point per simulated
// trade, tracking running equity, peak equity and drawdown percentage.
func buildEquityCurve(trades []*domain.SimulatedTrade, cfg *domain.BacktestConfig) []domain.EquityPoint {
	curve := make([]domain.EquityPoint, 0, len(trades)+1)
	curve = append(curve, domain.EquityPoint{
		Timestamp:  cfg.StartDate,
		Equity:     cfg.InitialCapital,
		Drawdown:   0,
		TradeCount: 0,
	})

	equity := cfg.InitialCapital
	peak := cfg.InitialCapital
	for i, t := range trades {
		equity += t.ActualProfit
		if equity > peak {
			peak = equity
		}
		drawdown := 0.0
		if peak > 0 {
			drawdown = (peak - equity) / peak * 100
		}
		curve = append(curve, domain.EquityPoint{
			Timestamp:  t.Timestamp,
			Equity:     equity,
			Drawdown:   drawdown,
			TradeCount: i + 1,
		})
	}
	return curve
}

// segmentDrawdowns extracts maximal contiguous runs of equity points with
// drawdown > 0.
func segmentDrawdowns(curve []domain.EquityPoint) []domain.DrawdownPeriod {
	var periods []domain.DrawdownPeriod
	var current *domain.DrawdownPeriod

	for _, p := range curve {
		if p.Drawdown > 0 {
			if current == nil {
				current = &domain.DrawdownPeriod{
					StartDate:   p.Timestamp,
					MaxDrawdown: p.Drawdown,
				}
			}
			current.EndDate = p.Timestamp
			current.Duration++
			if p.Drawdown > current.MaxDrawdown {
				current.MaxDrawdown = p.Drawdown
			}
		} else if current != nil {
			// the period closed: equity regained its peak
			current.Recovery = current.Duration
			periods = append(periods, *current)
			current = nil
		}
	}
	if current != nil {
		periods = append(periods, *current)
	}
	return periods
}

// rollup groups trades by key and computes the per-group statistics.
func rollup(trades []*domain.SimulatedTrade, key func(*domain.SimulatedTrade) string) map[string]*domain.GroupPerformance {
	groups := make(map[string]*domain.GroupPerformance)
	sums := make(map[string][2]float64) // wins magnitude, losses magnitude

	for _, t := range trades {
		k := key(t)
		g, ok := groups[k]
		if !ok {
			g = &domain.GroupPerformance{
				BestTrade:  math.Inf(-1),
				WorstTrade: math.Inf(1),
			}
			groups[k] = g
		}
		g.Trades++
		g.TotalProfit += t.ActualProfit
		if t.Success {
			g.Wins++
		}
		s := sums[k]
		if t.ActualProfit > 0 {
			s[0] += t.ActualProfit
		} else {
			s[1] += -t.ActualProfit
		}
		sums[k] = s
		if t.ActualProfit > g.BestTrade {
			g.BestTrade = t.ActualProfit
		}
		if t.ActualProfit < g.WorstTrade {
			g.WorstTrade = t.ActualProfit
		}
	}

	for k, g := range groups {
		g.WinRate = float64(g.Wins) / float64(g.Trades) * 100
		g.AvgProfit = g.TotalProfit / float64(g.Trades)
		g.ProfitFactor = profitFactor(sums[k][0], sums[k][1])
	}
	return groups
}

// computeMonthlyReturns groups daily profit by calendar month. The monthly
// return is relative to initial capital; best/worst day are that month's
// extreme daily profits.
func computeMonthlyReturns(daily []domain.DailyReturn, initialCapital float64) []domain.MonthlyReturn {
	if len(daily) == 0 {
		return nil
	}

	byMonth := make(map[string]*domain.MonthlyReturn)
	var order []string
	for _, d := range daily {
		month := d.Date[:7] // YYYY-MM of YYYY-MM-DD
		m, ok := byMonth[month]
		if !ok {
			m = &domain.MonthlyReturn{
				Month:    month,
				BestDay:  math.Inf(-1),
				WorstDay: math.Inf(1),
			}
			byMonth[month] = m
			order = append(order, month)
		}
		m.Profit += d.Profit
		if d.Profit > m.BestDay {
			m.BestDay = d.Profit
		}
		if d.Profit < m.WorstDay {
			m.WorstDay = d.Profit
		}
	}

	months := make([]domain.MonthlyReturn, 0, len(order))
	for _, k := range order {
		m := byMonth[k]
		m.ReturnPct = m.Profit / initialCapital * 100
		months = append(months, *m)
	}
	return months
}

// dataQuality is a step function of sample count.
func dataQuality(trades int) float64 {
	switch {
	case trades < 100:
		return 50
	case trades < 500:
		return 70
	case trades < 1000:
		return 85
	default:
		return 95
	}
}

// confidence scores how much the report can be trusted: more trades, a longer
// window and broader strategy/network coverage all add to a base of 50,
// capped at 95.
func confidence(trades int, cfg *domain.BacktestConfig) float64 {
	score := 50.0
	switch {
	case trades > 1000:
		score += 20
	case trades > 500:
		score += 10
	}
	spanDays := cfg.EndDate.Sub(cfg.StartDate).Hours() / 24
	switch {
	case spanDays > 90:
		score += 20
	case spanDays > 30:
		score += 10
	}
	if len(cfg.Strategies) >= 3 {
		score += 10
	}
	if len(cfg.Networks) >= 5 {
		score += 10
	}
	return math.Min(score, 95)
}
