package domain

import "time"

// HistoricalTrade is one recorded trade from the corpus, read-only input to a
// backtest run. Timestamps are not required to arrive pre-sorted; the
// simulator orders them before replay.
type HistoricalTrade struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Network        string    `json:"network"`
	Strategy       string    `json:"strategy"`
	EntryPrice     float64   `json:"entry_price"`
	ExitPrice      float64   `json:"exit_price"`
	ExpectedProfit float64   `json:"expected_profit"`
	GasCost        float64   `json:"gas_cost"`
	ExecutionTime  int64     `json:"execution_time_ms"`
	Success        bool      `json:"success"` // recorded outcome, pre-simulation
	Volatility     float64   `json:"volatility"`
	Liquidity      float64   `json:"liquidity"`
	GasPrice       float64   `json:"gas_price"`
}

// SimulatedTrade is one admitted trade after cost models, the execution draw
// and the risk gate. It carries the full historical record plus the derived
// figures, so the source trade is recoverable from the simulated stream.
// Created once during a simulation pass, never mutated. Success is the
// simulated outcome, replacing the recorded one.
type SimulatedTrade struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Network        string    `json:"network"`
	Strategy       string    `json:"strategy"`
	EntryPrice     float64   `json:"entry_price"`
	ExitPrice      float64   `json:"exit_price"`
	ExpectedProfit float64   `json:"expected_profit"`
	GasCost        float64   `json:"gas_cost"`
	ExecutionTime  int64     `json:"execution_time_ms"`
	Volatility     float64   `json:"volatility"`
	Liquidity      float64   `json:"liquidity"`
	GasPrice       float64   `json:"gas_price"`
	Slippage       float64   `json:"slippage"`
	Fees           float64   `json:"fees"`
	ActualProfit   float64   `json:"actual_profit"` // expected − slippage − fees − gas
	Success        bool      `json:"success"`       // actual_profit > 0
	ProfitPct      float64   `json:"profit_pct"`    // actual_profit / capital at trade × 100
}
