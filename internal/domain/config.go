package domain

import (
	"fmt"
	"time"
)

// SlippageModel selects how slippage is charged against a trade.
type SlippageModel string

// Slippage model constants.
const (
	SlippageFixed     SlippageModel = "fixed"     // 0.1% of expected profit
	SlippageDynamic   SlippageModel = "dynamic"   // uniform 0.05%-0.25% of expected profit
	SlippageRealistic SlippageModel = "realistic" // scaled by recorded volatility
)

// FeeModel selects how exchange/protocol fees are charged.
type FeeModel string

// Fee model constants.
const (
	FeeActual    FeeModel = "actual"    // 0.3% of expected profit
	FeeEstimated FeeModel = "estimated" // 0.25% of expected profit
	FeeZero      FeeModel = "zero"
)

// LatencyModel selects the simulated execution delay distribution.
type LatencyModel string

// Latency model constants.
const (
	LatencyInstant     LatencyModel = "instant"
	LatencyRealistic   LatencyModel = "realistic"   // uniform 500-2500 ms
	LatencyPessimistic LatencyModel = "pessimistic" // uniform 1000-6000 ms
)

// RiskParameters gates the admission of individual trades. All values are
// percentages or counts and must be non-negative. MaxDrawdown here is
// per-trade admission; BacktestConfig.MaxDrawdown stops the whole run.
type RiskParameters struct {
	MaxPositionSize     float64 `json:"max_position_size" yaml:"max_position_size"`
	MaxDailyLoss        float64 `json:"max_daily_loss" yaml:"max_daily_loss"`
	MaxDrawdown         float64 `json:"max_drawdown" yaml:"max_drawdown"`
	StopLossPct         float64 `json:"stop_loss_pct" yaml:"stop_loss_pct"`
	EmergencyStopLoss   float64 `json:"emergency_stop_loss" yaml:"emergency_stop_loss"`
	MaxNetworkExposure  float64 `json:"max_network_exposure" yaml:"max_network_exposure"`
	MaxStrategyExposure float64 `json:"max_strategy_exposure" yaml:"max_strategy_exposure"`
	MaxTxPerHour        float64 `json:"max_tx_per_hour" yaml:"max_tx_per_hour"`
	CooldownAfterLoss   float64 `json:"cooldown_after_loss" yaml:"cooldown_after_loss"`
	MaxVolatility       float64 `json:"max_volatility" yaml:"max_volatility"`
	VolatilityWindow    float64 `json:"volatility_window" yaml:"volatility_window"`
}

// Validate checks that all risk parameters are non-negative.
func (p *RiskParameters) Validate() error {
	fields := map[string]float64{
		"max_position_size":     p.MaxPositionSize,
		"max_daily_loss":        p.MaxDailyLoss,
		"max_drawdown":          p.MaxDrawdown,
		"stop_loss_pct":         p.StopLossPct,
		"emergency_stop_loss":   p.EmergencyStopLoss,
		"max_network_exposure":  p.MaxNetworkExposure,
		"max_strategy_exposure": p.MaxStrategyExposure,
		"max_tx_per_hour":       p.MaxTxPerHour,
		"cooldown_after_loss":   p.CooldownAfterLoss,
		"max_volatility":        p.MaxVolatility,
		"volatility_window":     p.VolatilityWindow,
	}
	for name, v := range fields {
		if v < 0 {
			return fmt.Errorf("risk parameter %s must be non-negative, got %v", name, v)
		}
	}
	return nil
}

// BacktestConfig is the immutable input of one backtest run.
type BacktestConfig struct {
	StartDate      time.Time      `json:"start_date"`
	EndDate        time.Time      `json:"end_date"` // exclusive
	InitialCapital float64        `json:"initial_capital"`
	MaxDrawdown    float64        `json:"max_drawdown"` // run-level emergency stop, percent
	Strategies     []string       `json:"strategies"`
	Networks       []string       `json:"networks"`
	RiskParams     RiskParameters `json:"risk_params"`
	SlippageModel  SlippageModel  `json:"slippage_model"`
	FeeModel       FeeModel       `json:"fee_model"`
	LatencyModel   LatencyModel   `json:"latency_model"`
	Benchmark      string         `json:"benchmark,omitempty"` // optional benchmark strategy name
}

// DefaultRiskParameters mirrors the limits used by the live risk manager.
var DefaultRiskParameters = RiskParameters{
	MaxPositionSize:     1000,
	MaxDailyLoss:        500,
	MaxDrawdown:         10,
	StopLossPct:         2,
	EmergencyStopLoss:   5,
	MaxNetworkExposure:  5000,
	MaxStrategyExposure: 3000,
	MaxTxPerHour:        120,
	CooldownAfterLoss:   300,
	MaxVolatility:       50,
	VolatilityWindow:    24,
}
