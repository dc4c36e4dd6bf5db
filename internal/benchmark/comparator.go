// Package benchmark relates a backtest's return to a named benchmark return
// supplied by an external source.
package benchmark

import "arb-backtest-lab/internal/domain"

// Compare produces the benchmark section of a report from the run's return,
// the benchmark's return over the same window, and the run's Sharpe ratio.
// Only scalar returns are available at this boundary, so beta is the ratio of
// the two returns and tracking error their absolute spread; callers holding a
// full benchmark series can refine both externally.
func Compare(name string, ourReturn, benchmarkReturn, sharpe float64) *domain.BenchmarkComparison {
	alpha := ourReturn - benchmarkReturn

	informationRatio := alpha
	if sharpe != 0 {
		informationRatio = alpha / sharpe
	}

	beta := 0.0
	if benchmarkReturn != 0 {
		beta = ourReturn / benchmarkReturn
	}

	trackingError := alpha
	if trackingError < 0 {
		trackingError = -trackingError
	}

	return &domain.BenchmarkComparison{
		Benchmark:        name,
		OurReturn:        ourReturn,
		BenchmarkReturn:  benchmarkReturn,
		Alpha:            alpha,
		Beta:             beta,
		Correlation:      0, // unknown without a return series
		InformationRatio: informationRatio,
		TrackingError:    trackingError,
	}
}
