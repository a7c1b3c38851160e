package metrics

import (
	"math"

	"github.com/rocky-invest/strategy-sim/internal/domain"
	"github.com/rocky-invest/strategy-sim/pkg/formulas"
)

const (
	// trackingErrorFactor approximates tracking error as a fraction of
	// total volatility for the information ratio.
	trackingErrorFactor = 0.1

	// downsideDeviationFloor keeps the Sortino denominator positive for
	// histories with no losing days.
	downsideDeviationFloor = 0.001
)

// Calculator derives PerformanceMetrics from a portfolio history. It is
// a pure function of its inputs: the same history always yields the same
// metrics.
type Calculator struct {
	riskFreeRate        float64
	assumedMarketReturn float64
}

// NewCalculator creates a metrics calculator with the given annual
// risk-free rate and assumed market return (used for alpha; beta is a
// fixed 1.0 placeholder, no regression is performed).
func NewCalculator(riskFreeRate, assumedMarketReturn float64) *Calculator {
	return &Calculator{
		riskFreeRate:        riskFreeRate,
		assumedMarketReturn: assumedMarketReturn,
	}
}

// RiskFreeRate returns the annual risk-free rate the calculator uses.
func (c *Calculator) RiskFreeRate() float64 {
	return c.riskFreeRate
}

// Neutral returns the documented default metrics used for degenerate
// histories: all zero except a 0.5 win rate and unit beta.
func (c *Calculator) Neutral() domain.PerformanceMetrics {
	return domain.PerformanceMetrics{
		WinRate: 0.5,
		Beta:    1.0,
	}
}

// Calculate computes the full metric set for a history. Histories with
// fewer than two values yield Neutral() rather than an error.
func (c *Calculator) Calculate(history *domain.PortfolioHistory) domain.PerformanceMetrics {
	values := history.Values
	dailyReturns := history.DailyReturns

	if len(values) < 2 || len(dailyReturns) < 2 {
		return c.Neutral()
	}

	initial := values[0]
	final := values[len(values)-1]
	if initial == 0 {
		return c.Neutral()
	}

	totalReturn := (final - initial) / initial

	days := float64(len(values))
	annualReturn := math.Pow(final/initial, formulas.TradingDaysPerYear/days) - 1

	volatility := formulas.AnnualizedVolatility(dailyReturns)
	excessReturn := annualReturn - c.riskFreeRate

	sharpe := 0.0
	if volatility > 0 {
		sharpe = excessReturn / volatility
	}

	maxDrawdown := formulas.MaxDrawdown(values)

	winDays := 0
	for _, ret := range dailyReturns {
		if ret > 0 {
			winDays++
		}
	}
	winRate := float64(winDays) / float64(len(dailyReturns))

	var negative []float64
	for _, ret := range dailyReturns {
		if ret < 0 {
			negative = append(negative, ret)
		}
	}
	downsideDeviation := formulas.AnnualizedVolatility(negative)
	if downsideDeviation < downsideDeviationFloor {
		downsideDeviation = downsideDeviationFloor
	}
	sortino := excessReturn / downsideDeviation

	calmar := 0.0
	if maxDrawdown != 0 {
		calmar = annualReturn / math.Abs(maxDrawdown)
	}

	var95 := formulas.Percentile(dailyReturns, 0.05)

	// Fixed placeholder: no covariance regression against a benchmark
	beta := 1.0
	alpha := annualReturn - (c.riskFreeRate + beta*c.assumedMarketReturn)

	informationRatio := 0.0
	if trackingError := volatility * trackingErrorFactor; trackingError > 0 {
		informationRatio = alpha / trackingError
	}

	return domain.PerformanceMetrics{
		TotalReturn:      totalReturn,
		AnnualReturn:     annualReturn,
		Volatility:       volatility,
		SharpeRatio:      sharpe,
		SortinoRatio:     sortino,
		CalmarRatio:      calmar,
		MaxDrawdown:      maxDrawdown,
		VaR95:            var95,
		WinRate:          winRate,
		Beta:             beta,
		Alpha:            alpha,
		InformationRatio: informationRatio,
	}
}
