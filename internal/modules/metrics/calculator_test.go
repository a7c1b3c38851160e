package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocky-invest/strategy-sim/internal/domain"
	"github.com/rocky-invest/strategy-sim/pkg/formulas"
)

func newTestCalculator() *Calculator {
	return NewCalculator(0.03, 0.08)
}

func testHistory() *domain.PortfolioHistory {
	h := &domain.PortfolioHistory{}
	values := []float64{100, 102, 101, 104, 103, 106}
	dates := []string{"2025-01-02", "2025-01-03", "2025-01-06", "2025-01-07", "2025-01-08", "2025-01-09"}
	for i, v := range values {
		h.Append(dates[i], v, nil)
	}
	return h
}

func TestCalculateNeutralForShortHistories(t *testing.T) {
	calc := newTestCalculator()

	tests := []struct {
		name    string
		history *domain.PortfolioHistory
	}{
		{"empty", &domain.PortfolioHistory{}},
		{"single point", &domain.PortfolioHistory{
			Values: []float64{100}, DailyReturns: []float64{0},
		}},
		{"zero initial value", &domain.PortfolioHistory{
			Values: []float64{0, 100}, DailyReturns: []float64{0, 0},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := calc.Calculate(tt.history)
			assert.Equal(t, calc.Neutral(), m)
			assert.Equal(t, 0.5, m.WinRate)
			assert.Equal(t, 1.0, m.Beta)
		})
	}
}

func TestCalculateCoreMetrics(t *testing.T) {
	calc := newTestCalculator()
	history := testHistory()

	m := calc.Calculate(history)

	assert.InDelta(t, 0.06, m.TotalReturn, 1e-12)

	expectedAnnual := math.Pow(106.0/100.0, 252.0/6.0) - 1
	assert.InDelta(t, expectedAnnual, m.AnnualReturn, 1e-9)

	expectedVol := formulas.AnnualizedVolatility(history.DailyReturns)
	assert.InDelta(t, expectedVol, m.Volatility, 1e-9)
	assert.InDelta(t, (m.AnnualReturn-0.03)/m.Volatility, m.SharpeRatio, 1e-9)

	// Drops: 102 -> 101 and 104 -> 103; the former is the deeper one
	assert.InDelta(t, -1.0/102.0, m.MaxDrawdown, 1e-12)
	assert.Less(t, m.MaxDrawdown, 0.0)

	// 3 winning days out of 5 non-first returns, 6 recorded returns total
	assert.InDelta(t, 3.0/6.0, m.WinRate, 1e-12)

	assert.Equal(t, 1.0, m.Beta)
	assert.InDelta(t, m.AnnualReturn-(0.03+0.08), m.Alpha, 1e-9)
	assert.InDelta(t, m.Alpha/(m.Volatility*0.1), m.InformationRatio, 1e-9)
	assert.InDelta(t, m.AnnualReturn/math.Abs(m.MaxDrawdown), m.CalmarRatio, 1e-9)
}

func TestCalculateIsDeterministic(t *testing.T) {
	calc := newTestCalculator()
	history := testHistory()

	first := calc.Calculate(history)
	second := calc.Calculate(history)

	assert.Equal(t, first, second)
}

func TestCalculateSortinoUsesFloorWithoutLosses(t *testing.T) {
	calc := newTestCalculator()

	h := &domain.PortfolioHistory{}
	for i, v := range []float64{100, 101, 102, 103} {
		h.Append([]string{"2025-01-02", "2025-01-03", "2025-01-06", "2025-01-07"}[i], v, nil)
	}

	m := calc.Calculate(h)
	require.NotZero(t, m.SortinoRatio)
	assert.InDelta(t, (m.AnnualReturn-0.03)/0.001, m.SortinoRatio, 1e-9)
	assert.Equal(t, 0.0, m.MaxDrawdown)
	assert.Equal(t, 0.0, m.CalmarRatio)
}

func TestCalculateVaRIsLowPercentileOfReturns(t *testing.T) {
	calc := newTestCalculator()
	history := testHistory()

	m := calc.Calculate(history)
	assert.InDelta(t, formulas.Percentile(history.DailyReturns, 0.05), m.VaR95, 1e-12)
}
