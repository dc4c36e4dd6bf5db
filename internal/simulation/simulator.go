// Package simulation replays a historical trade stream chronologically under
// the configured cost models and risk gate, tracking capital and drawdown.
package simulation

import (
	"sort"

	"arb-backtest-lab/internal/costs"
	"arb-backtest-lab/internal/domain"
	"arb-backtest-lab/internal/risk"
)

// State is the simulator lifecycle state.
type State string

// State constants.
const (
	StateIdle             State = "idle"
	StateRunning          State = "running"
	StateCompleted        State = "completed"
	StateEmergencyStopped State = "emergency_stopped"
)

// progressInterval is how many input trades are processed between progress
// notifications.
const progressInterval = 100

// ProgressFunc receives advisory progress updates. It is called inline and
// must be fast; its return is ignored and it can never alter the simulation.
type ProgressFunc func(domain.ProgressUpdate)

// Options configures a Simulator.
type Options struct {
	Costs      *costs.Models
	OnProgress ProgressFunc // optional
}

// Simulator is a single-use, strictly sequential replay engine. Replay order
// is load-bearing: capital, drawdown and every stochastic draw depend on the
// exact trade sequence, so the loop must never be parallelized.
type Simulator struct {
	costs      *costs.Models
	onProgress ProgressFunc
	state      State
}

// Outcome is the result of one simulation pass.
type Outcome struct {
	Trades         []*domain.SimulatedTrade
	FinalCapital   float64
	PeakCapital    float64
	MaxDrawdown    float64 // worst drawdown percentage observed
	State          State
	InputTrades    int
	EligibleTrades int // input trades matching the configured strategy/network sets

	FailedExecutions int            // trades lost to the execution draw
	RejectedTrades   map[string]int // risk gate denials by reason
}

// New creates an idle simulator.
func New(opts Options) *Simulator {
	return &Simulator{
		costs:      opts.Costs,
		onProgress: opts.OnProgress,
		state:      StateIdle,
	}
}

// State returns the current lifecycle state.
func (s *Simulator) State() State {
	return s.state
}

// Run replays the trades in timestamp order. Trades outside the configured
// strategy/network sets are skipped; the rest pass through the cost models,
// the execution draw and the risk gate. A drawdown above cfg.MaxDrawdown
// stops the run early with partial results.
func (s *Simulator) Run(trades []*domain.HistoricalTrade, cfg *domain.BacktestConfig) *Outcome {
	s.state = StateRunning

	// Sort a copy; the input corpus is read-only. ID breaks timestamp ties so
	// replay order is deterministic.
	sorted := make([]*domain.HistoricalTrade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		}
		return sorted[i].ID < sorted[j].ID
	})

	strategies := toSet(cfg.Strategies)
	networks := toSet(cfg.Networks)

	out := &Outcome{
		InputTrades:  len(sorted),
		FinalCapital: cfg.InitialCapital,
		PeakCapital:  cfg.InitialCapital,
	}

	capital := cfg.InitialCapital
	maxCapital := cfg.InitialCapital
	drawdown := 0.0

	for i, t := range sorted {
		s.notifyProgress(i, len(sorted), capital)

		if _, ok := strategies[t.Strategy]; !ok {
			continue
		}
		if _, ok := networks[t.Network]; !ok {
			continue
		}
		out.EligibleTrades++

		slippage := s.costs.Slippage(t)
		fees := s.costs.Fee(t)

		latency := s.costs.Latency()
		if !s.costs.ExecutionSucceeds(latency) {
			out.FailedExecutions++
			continue
		}

		netProfit := t.ExpectedProfit - slippage - fees - t.GasCost

		position := netProfit
		if position < 0 {
			position = -position
		}
		if d := risk.Check(position, capital, drawdown, cfg.RiskParams); !d.Allowed {
			if out.RejectedTrades == nil {
				out.RejectedTrades = make(map[string]int)
			}
			out.RejectedTrades[d.Reason]++
			continue
		}

		capital += netProfit
		out.Trades = append(out.Trades, &domain.SimulatedTrade{
			ID:             t.ID,
			Timestamp:      t.Timestamp,
			Network:        t.Network,
			Strategy:       t.Strategy,
			EntryPrice:     t.EntryPrice,
			ExitPrice:      t.ExitPrice,
			ExpectedProfit: t.ExpectedProfit,
			GasCost:        t.GasCost,
			ExecutionTime:  t.ExecutionTime,
			Volatility:     t.Volatility,
			Liquidity:      t.Liquidity,
			GasPrice:       t.GasPrice,
			Slippage:       slippage,
			Fees:           fees,
			ActualProfit:   netProfit,
			Success:        netProfit > 0,
			ProfitPct:      netProfit / (capital - netProfit) * 100,
		})

		if capital > maxCapital {
			maxCapital = capital
			drawdown = 0
		} else {
			drawdown = (maxCapital - capital) / maxCapital * 100
		}
		if drawdown > out.MaxDrawdown {
			out.MaxDrawdown = drawdown
		}

		if drawdown > cfg.MaxDrawdown {
			out.FinalCapital = capital
			out.PeakCapital = maxCapital
			out.State = StateEmergencyStopped
			s.state = StateEmergencyStopped
			return out
		}
	}

	out.FinalCapital = capital
	out.PeakCapital = maxCapital
	out.State = StateCompleted
	s.state = StateCompleted
	return out
}

// notifyProgress fires the progress callback every progressInterval trades.
func (s *Simulator) notifyProgress(processed, total int, capital float64) {
	if s.onProgress == nil || total == 0 {
		return
	}
	if processed == 0 || processed%progressInterval != 0 {
		return
	}
	s.onProgress(domain.ProgressUpdate{
		ProgressPct:     float64(processed) / float64(total) * 100,
		TradesProcessed: processed,
		Capital:         capital,
	})
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
