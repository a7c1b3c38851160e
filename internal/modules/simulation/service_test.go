package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocky-invest/strategy-sim/internal/domain"
	"github.com/rocky-invest/strategy-sim/internal/marketdata"
	"github.com/rocky-invest/strategy-sim/internal/modules/benchmark"
	"github.com/rocky-invest/strategy-sim/internal/modules/risk"
)

func TestSymbolUniverse(t *testing.T) {
	req := Request{
		Transactions: []domain.Transaction{
			{Symbol: "CCC.KR"},
			{Symbol: "AAA.KR"},
			{Symbol: "AAA.KR"},
		},
		Strategies: []domain.Strategy{
			{PortfolioAllocation: domain.Allocation{"BBB.KR": 0.5, "AAA.KR": 0.5}},
		},
	}

	assert.Equal(t, []string{"AAA.KR", "BBB.KR", "CCC.KR"}, SymbolUniverse(req))
	assert.Empty(t, SymbolUniverse(Request{}))
}

func TestPeriodLabel(t *testing.T) {
	tests := []struct {
		days     int
		expected string
	}{
		{20, "1mo"},
		{60, "3mo"},
		{120, "6mo"},
		{252, "1y"},
		{500, "2y"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, periodLabel(tt.days), "days %d", tt.days)
	}
}

func TestCurrentAllocation(t *testing.T) {
	prices := marketdata.NewPriceTable()
	prices.AddSeries("AAA.KR", map[string]float64{"2025-01-02": 100, "2025-01-03": 200})
	prices.AddSeries("BBB.KR", map[string]float64{"2025-01-03": 100})

	allocation := currentAllocation(map[string]float64{
		"AAA.KR": 1, // 200 at the last close
		"BBB.KR": 2, // 200 at the last close
	}, prices)

	require.NotNil(t, allocation)
	assert.InDelta(t, 0.5, allocation["AAA.KR"], 1e-12)
	assert.InDelta(t, 0.5, allocation["BBB.KR"], 1e-12)
}

func TestCurrentAllocationWithoutPrices(t *testing.T) {
	assert.Nil(t, currentAllocation(map[string]float64{"AAA.KR": 1}, marketdata.NewPriceTable()))
}

func TestFindStrategy(t *testing.T) {
	strategies := []StrategyResult{
		{StrategyID: "a"},
		{StrategyID: "b"},
	}

	found := findStrategy(strategies, "b")
	require.NotNil(t, found)
	assert.Equal(t, "b", found.StrategyID)

	assert.Nil(t, findStrategy(strategies, "missing"))
}

func TestFallbackReportIsWellFormed(t *testing.T) {
	s := &Service{}
	cfg := domain.SimulationConfig{}
	cfg.ApplyDefaults()

	report := s.fallbackReport("sim-1", cfg, "simulation failed: boom")

	assert.Equal(t, "sim-1", report.SimulationID)
	assert.Equal(t, "simulation failed: boom", report.Error)
	assert.NotNil(t, report.SimulatedReturns)
	assert.Empty(t, report.SimulatedReturns)
	assert.NotNil(t, report.Recommendations)
	assert.False(t, report.GeneratedAt.IsZero())
}

func TestRecommendationsIncludeBestStrategyAndImprovement(t *testing.T) {
	s := &Service{}

	user := &UserPortfolioResult{
		StrategyName: "User Portfolio",
		Metrics:      domain.PerformanceMetrics{AnnualReturn: 0.05},
	}
	strategies := []StrategyResult{{
		StrategyID:   "s1",
		StrategyName: "Balanced",
		Metrics:      domain.PerformanceMetrics{AnnualReturn: 0.12},
	}}
	comparison := benchmark.Comparison{
		BestStrategy: &benchmark.BestStrategy{ID: "s1", Name: "Balanced"},
	}
	analysis := risk.Analysis{
		RiskRecommendations: []string{"first", "second", "third"},
	}

	recs := s.recommendations(user, strategies, comparison, analysis)

	require.GreaterOrEqual(t, len(recs), 4)
	assert.Contains(t, recs[0], "Balanced")
	assert.Contains(t, recs[1], "percentage points")
	// Only the top two risk recommendations are carried over
	assert.Contains(t, recs, "first")
	assert.Contains(t, recs, "second")
	assert.NotContains(t, recs, "third")
}

func TestRecommendationsSkipImprovementBelowThreshold(t *testing.T) {
	s := &Service{}

	user := &UserPortfolioResult{
		StrategyName: "User Portfolio",
		Metrics:      domain.PerformanceMetrics{AnnualReturn: 0.10},
	}
	strategies := []StrategyResult{{
		StrategyID:   "s1",
		StrategyName: "Balanced",
		Metrics:      domain.PerformanceMetrics{AnnualReturn: 0.11},
	}}
	comparison := benchmark.Comparison{
		BestStrategy: &benchmark.BestStrategy{ID: "s1", Name: "Balanced"},
	}

	recs := s.recommendations(user, strategies, comparison, risk.Analysis{})

	for _, rec := range recs {
		assert.NotContains(t, rec, "percentage points")
	}
}
