// Package costs implements the selectable slippage, fee and latency models
// applied to each historical trade during simulation.
package costs

import (
	"fmt"
	"math/rand"

	"arb-backtest-lab/internal/domain"
)

// Models evaluates the configured cost model variants. All stochastic draws
// come from the injected rand source, so one (config, seed) pair replays the
// exact same trade stream.
type Models struct {
	slippage domain.SlippageModel
	fee      domain.FeeModel
	latency  domain.LatencyModel
	rng      *rand.Rand
}

// New creates cost models from the configured variants. Returns an error on
// an unknown variant name.
func New(slippage domain.SlippageModel, fee domain.FeeModel, latency domain.LatencyModel, rng *rand.Rand) (*Models, error) {
	switch slippage {
	case domain.SlippageFixed, domain.SlippageDynamic, domain.SlippageRealistic:
	default:
		return nil, fmt.Errorf("unknown slippage model %q", slippage)
	}
	switch fee {
	case domain.FeeActual, domain.FeeEstimated, domain.FeeZero:
	default:
		return nil, fmt.Errorf("unknown fee model %q", fee)
	}
	switch latency {
	case domain.LatencyInstant, domain.LatencyRealistic, domain.LatencyPessimistic:
	default:
		return nil, fmt.Errorf("unknown latency model %q", latency)
	}
	return &Models{slippage: slippage, fee: fee, latency: latency, rng: rng}, nil
}

// Slippage returns the slippage charged against the trade's expected profit.
func (m *Models) Slippage(t *domain.HistoricalTrade) float64 {
	switch m.slippage {
	case domain.SlippageFixed:
		return t.ExpectedProfit * 0.001
	case domain.SlippageDynamic:
		// uniform 0.05% - 0.25%
		return t.ExpectedProfit * (0.0005 + m.rng.Float64()*0.002)
	case domain.SlippageRealistic:
		return t.ExpectedProfit * (t.Volatility / 1000)
	}
	return 0
}

// Fee returns the exchange/protocol fee charged against the trade.
func (m *Models) Fee(t *domain.HistoricalTrade) float64 {
	switch m.fee {
	case domain.FeeActual:
		return t.ExpectedProfit * 0.003
	case domain.FeeEstimated:
		return t.ExpectedProfit * 0.0025
	}
	return 0
}

// Latency returns a simulated execution delay in milliseconds.
func (m *Models) Latency() float64 {
	switch m.latency {
	case domain.LatencyRealistic:
		return 500 + m.rng.Float64()*2000
	case domain.LatencyPessimistic:
		return 1000 + m.rng.Float64()*5000
	}
	return 0
}

// ExecutionSucceeds simulates whether the trade lands given its latency:
// base 90% success probability degraded linearly by latency. A failed draw
// drops the trade from the simulated stream entirely.
func (m *Models) ExecutionSucceeds(latencyMs float64) bool {
	return m.rng.Float64() > 0.1+latencyMs/10000
}
