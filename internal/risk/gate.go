// Package risk implements the per-trade admission gate.
package risk

import "arb-backtest-lab/internal/domain"

// singleTradeRiskCapPct is a fixed cap on the fraction of current capital a
// single trade may put at risk. It is deliberately not part of
// RiskParameters.
const singleTradeRiskCapPct = 5.0

// Denial reason codes.
const (
	ReasonPositionTooLarge = "position exceeds max size"
	ReasonDrawdownExceeded = "drawdown exceeds limit"
	ReasonPositionRiskHigh = "position risk too high"
)

// Decision is the outcome of one gate check.
type Decision struct {
	Allowed bool
	Reason  string // set when denied
}

// Check evaluates a proposed position against the risk limits. Rules are
// evaluated in order and the first failing rule wins. Pure function: no
// shared state between calls.
func Check(positionSize, currentCapital, currentDrawdownPct float64, params domain.RiskParameters) Decision {
	if positionSize > params.MaxPositionSize {
		return Decision{Reason: ReasonPositionTooLarge}
	}
	if currentDrawdownPct > params.MaxDrawdown {
		return Decision{Reason: ReasonDrawdownExceeded}
	}
	if currentCapital > 0 && positionSize/currentCapital*100 > singleTradeRiskCapPct {
		return Decision{Reason: ReasonPositionRiskHigh}
	}
	return Decision{Allowed: true}
}
