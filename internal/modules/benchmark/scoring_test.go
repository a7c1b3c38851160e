package benchmark

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocky-invest/strategy-sim/internal/domain"
	"github.com/rocky-invest/strategy-sim/internal/events"
	"github.com/rocky-invest/strategy-sim/internal/modules/metrics"
)

func newTestComparator() *Comparator {
	return NewComparator(nil, metrics.NewCalculator(0.03, 0.08), 0, events.NewManager(zerolog.Nop()), zerolog.Nop())
}

func result(id, name string, m domain.PerformanceMetrics) domain.PortfolioResult {
	return domain.PortfolioResult{ID: id, Name: name, Metrics: m}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		metrics  domain.PerformanceMetrics
		expected float64
	}{
		{
			name:     "zero metrics only earn the drawdown headroom",
			metrics:  domain.PerformanceMetrics{},
			expected: 0*0.4 + 0*0.3 + 20*0.3,
		},
		{
			name: "moderate strategy",
			metrics: domain.PerformanceMetrics{
				SharpeRatio: 1.5, AnnualReturn: 0.12, MaxDrawdown: -0.10,
			},
			expected: 30*0.4 + 12*0.3 + 10*0.3,
		},
		{
			name: "clamped at the extremes",
			metrics: domain.PerformanceMetrics{
				SharpeRatio: 10, AnnualReturn: 2.0, MaxDrawdown: -0.90,
			},
			expected: 100*0.4 + 50*0.3 + 0*0.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Score(tt.metrics), 1e-9)
		})
	}
}

func TestRankStrategies(t *testing.T) {
	strategies := []domain.PortfolioResult{
		result("low", "Low", domain.PerformanceMetrics{SharpeRatio: 0.5, AnnualReturn: 0.04}),
		result("high", "High", domain.PerformanceMetrics{SharpeRatio: 2.0, AnnualReturn: 0.20}),
		result("mid", "Mid", domain.PerformanceMetrics{SharpeRatio: 1.0, AnnualReturn: 0.10}),
	}

	rankings := RankStrategies(strategies)
	require.Len(t, rankings, 3)

	assert.Equal(t, "high", rankings[0].StrategyID)
	assert.Equal(t, 1, rankings[0].Rank)
	assert.Equal(t, "mid", rankings[1].StrategyID)
	assert.Equal(t, 2, rankings[1].Rank)
	assert.Equal(t, "low", rankings[2].StrategyID)
	assert.Equal(t, 3, rankings[2].Rank)
}

func TestUserRank(t *testing.T) {
	user := result("user_actual", "User", domain.PerformanceMetrics{SharpeRatio: 1.0, AnnualReturn: 0.10})
	strategies := []domain.PortfolioResult{
		result("better", "Better", domain.PerformanceMetrics{SharpeRatio: 2.0, AnnualReturn: 0.20}),
		result("worse", "Worse", domain.PerformanceMetrics{SharpeRatio: 0.2, AnnualReturn: 0.01}),
	}

	assert.Equal(t, 2, UserRank(user, strategies))
	assert.Equal(t, 1, UserRank(user, nil))
}

func TestCompareWithoutStrategies(t *testing.T) {
	c := newTestComparator()
	user := result("user_actual", "User", domain.PerformanceMetrics{SharpeRatio: 1.0})

	comparison := c.Compare(user, nil, nil)

	assert.Equal(t, "no candidate strategies to compare", comparison.Warning)
	assert.Nil(t, comparison.BestStrategy)
	assert.Empty(t, comparison.StrategyRankings)
	assert.Equal(t, 1, comparison.UserPortfolioRank)
	assert.NotEmpty(t, comparison.OverallAssessment)
}

func TestComparePicksBestBySharpe(t *testing.T) {
	c := newTestComparator()
	user := result("user_actual", "User", domain.PerformanceMetrics{
		SharpeRatio: 0.8, AnnualReturn: 0.06, Volatility: 0.18, MaxDrawdown: -0.12,
	})
	strategies := []domain.PortfolioResult{
		result("s1", "Balanced", domain.PerformanceMetrics{
			SharpeRatio: 1.4, AnnualReturn: 0.11, Volatility: 0.14, MaxDrawdown: -0.08,
		}),
		result("s2", "HighReturnLowSharpe", domain.PerformanceMetrics{
			SharpeRatio: 1.1, AnnualReturn: 0.18, Volatility: 0.30, MaxDrawdown: -0.25,
		}),
	}
	benchmarks := map[string]Performance{
		"KOSPI": {Symbol: "^KS11", AnnualReturn: 0.05, Volatility: 0.16, SharpeRatio: 0.6},
	}

	comparison := c.Compare(user, strategies, benchmarks)

	require.NotNil(t, comparison.BestStrategy)
	assert.Equal(t, "s1", comparison.BestStrategy.ID)

	assert.InDelta(t, 0.05, comparison.UserVsBestStrategy.ReturnImprovement, 1e-12)
	assert.InDelta(t, 0.04, comparison.UserVsBestStrategy.VolatilityImprovement, 1e-12)
	assert.InDelta(t, 0.6, comparison.UserVsBestStrategy.SharpeImprovement, 1e-12)
	assert.InDelta(t, -0.04, comparison.UserVsBestStrategy.MDDImprovement, 1e-12)

	assert.InDelta(t, 0.06, comparison.BestStrategyVsBenchmark.ReturnVsIndex, 1e-12)
	assert.InDelta(t, 0.02, comparison.BestStrategyVsBenchmark.VolatilityVsIndex, 1e-12)
	assert.InDelta(t, 0.8, comparison.BestStrategyVsBenchmark.SharpeVsIndex, 1e-12)

	assert.NotEmpty(t, comparison.OverallAssessment)
	assert.Empty(t, comparison.Warning)
}
