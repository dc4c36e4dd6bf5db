package domain

import "time"

// EquityPoint is one sample of the capital trajectory: the pre-trade initial
// point plus one point per simulated trade.
type EquityPoint struct {
	Timestamp  time.Time `json:"timestamp"`
	Equity     float64   `json:"equity"`
	Drawdown   float64   `json:"drawdown"` // percent below peak equity
	TradeCount int       `json:"trade_count"`
}

// DrawdownPeriod is a maximal contiguous run of equity points with
// drawdown > 0.
type DrawdownPeriod struct {
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Duration    int       `json:"duration"` // points in the run
	MaxDrawdown float64   `json:"max_drawdown"`
	Recovery    int       `json:"recovery"` // points until equity regained its peak
}

// GroupPerformance is the per-strategy / per-network rollup.
type GroupPerformance struct {
	Trades       int     `json:"trades"`
	Wins         int     `json:"wins"`
	WinRate      float64 `json:"win_rate"`
	TotalProfit  float64 `json:"total_profit"`
	AvgProfit    float64 `json:"avg_profit"`
	ProfitFactor float64 `json:"profit_factor"`
	BestTrade    float64 `json:"best_trade"`
	WorstTrade   float64 `json:"worst_trade"`
}

// DailyReturn is the profit of one calendar day relative to the capital at the
// start of that day.
type DailyReturn struct {
	Date      string  `json:"date"` // YYYY-MM-DD
	Profit    float64 `json:"profit"`
	ReturnPct float64 `json:"return_pct"`
	Trades    int     `json:"trades"`
}

// MonthlyReturn groups daily profit by calendar month.
type MonthlyReturn struct {
	Month     string  `json:"month"` // YYYY-MM
	Profit    float64 `json:"profit"`
	ReturnPct float64 `json:"return_pct"` // month profit / initial capital × 100
	BestDay   float64 `json:"best_day"`
	WorstDay  float64 `json:"worst_day"`
}

// BenchmarkComparison relates the run's return to a named benchmark return.
type BenchmarkComparison struct {
	Benchmark        string  `json:"benchmark"`
	OurReturn        float64 `json:"our_return"`
	BenchmarkReturn  float64 `json:"benchmark_return"`
	Alpha            float64 `json:"alpha"`
	Beta             float64 `json:"beta"`
	Correlation      float64 `json:"correlation"`
	InformationRatio float64 `json:"information_ratio"`
	TrackingError    float64 `json:"tracking_error"`
}

// BacktestResults is the full report of one run. It is a plain serializable
// structure; SortinoRatio and ProfitFactor may carry +Inf, which the
// reporting layer encodes as the string "inf".
type BacktestResults struct {
	RunID  string         `json:"run_id"`
	Config BacktestConfig `json:"config"`

	// Totals
	TotalTrades      int     `json:"total_trades"`
	SuccessfulTrades int     `json:"successful_trades"`
	TotalProfit      float64 `json:"total_profit"` // gross, before costs
	TotalCosts       float64 `json:"total_costs"`  // slippage + fees + gas
	NetProfit        float64 `json:"net_profit"`   // total_profit − total_costs

	// Ratios
	ROI          float64 `json:"roi"`
	SharpeRatio  float64 `json:"sharpe_ratio"`
	SortinoRatio float64 `json:"sortino_ratio"`
	WinRate      float64 `json:"win_rate"`
	ProfitFactor float64 `json:"profit_factor"`

	// Extremes
	AverageWin  float64 `json:"average_win"`
	AverageLoss float64 `json:"average_loss"`
	LargestWin  float64 `json:"largest_win"`
	LargestLoss float64 `json:"largest_loss"`

	// Drawdown
	MaxDrawdown         float64 `json:"max_drawdown"`
	MaxDrawdownDuration int     `json:"max_drawdown_duration"`

	// Breakdowns
	StrategyPerformance map[string]*GroupPerformance `json:"strategy_performance"`
	NetworkPerformance  map[string]*GroupPerformance `json:"network_performance"`
	MonthlyReturns      []MonthlyReturn              `json:"monthly_returns"`
	DailyReturns        []DailyReturn                `json:"daily_returns"`
	EquityCurve         []EquityPoint                `json:"equity_curve"`
	DrawdownAnalysis    []DrawdownPeriod             `json:"drawdown_analysis"`

	// Optional benchmark section
	BenchmarkComparison *BenchmarkComparison `json:"benchmark_comparison,omitempty"`

	// Metadata
	ExecutionTimeMs int64     `json:"execution_time_ms"`
	DataQuality     float64   `json:"data_quality"`
	Confidence      float64   `json:"confidence"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// ProgressUpdate is the advisory progress notification emitted by the
// simulator every 100 trades. It must never feed back into the simulation.
type ProgressUpdate struct {
	ProgressPct     float64 `json:"progress_pct"`
	TradesProcessed int     `json:"trades_processed"`
	Capital         float64 `json:"capital"`
}
