package reporting

import (
	"encoding/json"
	"math"

	"arb-backtest-lab/internal/domain"
)

// ratio is a float64 that encodes infinities as JSON strings.
// encoding/json rejects Inf outright, and unbounded Sortino or profit
// factor values are legitimate outputs here.
type ratio float64

func (r ratio) MarshalJSON() ([]byte, error) {
	v := float64(r)
	if math.IsInf(v, 1) {
		return []byte(`"inf"`), nil
	}
	if math.IsInf(v, -1) {
		return []byte(`"-inf"`), nil
	}
	return json.Marshal(v)
}

func (r *ratio) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"inf"`:
		*r = ratio(math.Inf(1))
		return nil
	case `"-inf"`:
		*r = ratio(math.Inf(-1))
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = ratio(v)
	return nil
}

type groupJSON struct {
	Trades       int     `json:"trades"`
	Wins         int     `json:"wins"`
	WinRate      float64 `json:"win_rate"`
	TotalProfit  float64 `json:"total_profit"`
	AvgProfit    float64 `json:"avg_profit"`
	ProfitFactor ratio   `json:"profit_factor"`
	BestTrade    float64 `json:"best_trade"`
	WorstTrade   float64 `json:"worst_trade"`
}

type benchmarkJSON struct {
	Benchmark        string  `json:"benchmark"`
	OurReturn        float64 `json:"our_return"`
	BenchmarkReturn  float64 `json:"benchmark_return"`
	Alpha            float64 `json:"alpha"`
	Beta             float64 `json:"beta"`
	Correlation      float64 `json:"correlation"`
	InformationRatio ratio   `json:"information_ratio"`
	TrackingError    float64 `json:"tracking_error"`
}

type resultsJSON struct {
	RunID               string                 `json:"run_id"`
	Config              domain.BacktestConfig  `json:"config"`
	TotalTrades         int                    `json:"total_trades"`
	SuccessfulTrades    int                    `json:"successful_trades"`
	TotalProfit         float64                `json:"total_profit"`
	TotalCosts          float64                `json:"total_costs"`
	NetProfit           float64                `json:"net_profit"`
	ROI                 float64                `json:"roi"`
	SharpeRatio         float64                `json:"sharpe_ratio"`
	SortinoRatio        ratio                  `json:"sortino_ratio"`
	WinRate             float64                `json:"win_rate"`
	ProfitFactor        ratio                  `json:"profit_factor"`
	AverageWin          float64                `json:"average_win"`
	AverageLoss         float64                `json:"average_loss"`
	LargestWin          float64                `json:"largest_win"`
	LargestLoss         float64                `json:"largest_loss"`
	MaxDrawdown         float64                `json:"max_drawdown"`
	MaxDrawdownDuration int                    `json:"max_drawdown_duration"`
	StrategyPerformance map[string]*groupJSON  `json:"strategy_performance"`
	NetworkPerformance  map[string]*groupJSON  `json:"network_performance"`
	MonthlyReturns      []domain.MonthlyReturn `json:"monthly_returns"`
	DailyReturns        []domain.DailyReturn   `json:"daily_returns"`
	EquityCurve         []domain.EquityPoint   `json:"equity_curve"`
	DrawdownAnalysis    []domain.DrawdownPeriod `json:"drawdown_analysis"`
	BenchmarkComparison *benchmarkJSON         `json:"benchmark_comparison,omitempty"`
	ExecutionTimeMs     int64                  `json:"execution_time_ms"`
	DataQuality         float64                `json:"data_quality"`
	Confidence          float64                `json:"confidence"`
	GeneratedAt         string                 `json:"generated_at"`
}

// MarshalResults encodes results as indented JSON suitable for export.
func MarshalResults(r *domain.BacktestResults) ([]byte, error) {
	out := &resultsJSON{
		RunID:               r.RunID,
		Config:              r.Config,
		TotalTrades:         r.TotalTrades,
		SuccessfulTrades:    r.SuccessfulTrades,
		TotalProfit:         r.TotalProfit,
		TotalCosts:          r.TotalCosts,
		NetProfit:           r.NetProfit,
		ROI:                 r.ROI,
		SharpeRatio:         r.SharpeRatio,
		SortinoRatio:        ratio(r.SortinoRatio),
		WinRate:             r.WinRate,
		ProfitFactor:        ratio(r.ProfitFactor),
		AverageWin:          r.AverageWin,
		AverageLoss:         r.AverageLoss,
		LargestWin:          r.LargestWin,
		LargestLoss:         r.LargestLoss,
		MaxDrawdown:         r.MaxDrawdown,
		MaxDrawdownDuration: r.MaxDrawdownDuration,
		StrategyPerformance: toGroupJSON(r.StrategyPerformance),
		NetworkPerformance:  toGroupJSON(r.NetworkPerformance),
		MonthlyReturns:      r.MonthlyReturns,
		DailyReturns:        r.DailyReturns,
		EquityCurve:         r.EquityCurve,
		DrawdownAnalysis:    r.DrawdownAnalysis,
		ExecutionTimeMs:     r.ExecutionTimeMs,
		DataQuality:         r.DataQuality,
		Confidence:          r.Confidence,
		GeneratedAt:         r.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if b := r.BenchmarkComparison; b != nil {
		out.BenchmarkComparison = &benchmarkJSON{
			Benchmark:        b.Benchmark,
			OurReturn:        b.OurReturn,
			BenchmarkReturn:  b.BenchmarkReturn,
			Alpha:            b.Alpha,
			Beta:             b.Beta,
			Correlation:      b.Correlation,
			InformationRatio: ratio(b.InformationRatio),
			TrackingError:    b.TrackingError,
		}
	}
	return json.MarshalIndent(out, "", "  ")
}

func toGroupJSON(groups map[string]*domain.GroupPerformance) map[string]*groupJSON {
	out := make(map[string]*groupJSON, len(groups))
	for k, g := range groups {
		out[k] = &groupJSON{
			Trades:       g.Trades,
			Wins:         g.Wins,
			WinRate:      g.WinRate,
			TotalProfit:  g.TotalProfit,
			AvgProfit:    g.AvgProfit,
			ProfitFactor: ratio(g.ProfitFactor),
			BestTrade:    g.BestTrade,
			WorstTrade:   g.WorstTrade,
		}
	}
	return out
}
