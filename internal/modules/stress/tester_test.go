package stress

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocky-invest/strategy-sim/internal/domain"
)

func baseMetrics() domain.PerformanceMetrics {
	return domain.PerformanceMetrics{
		AnnualReturn: 0.10,
		Volatility:   0.15,
		MaxDrawdown:  -0.12,
		SharpeRatio:  0.47,
	}
}

func TestCatalogIsStable(t *testing.T) {
	scenarios := Catalog()
	require.Len(t, scenarios, 5)

	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	assert.Equal(t, []string{
		"market_crash_2008",
		"covid_crash_2020",
		"tech_bubble_burst",
		"inflation_shock",
		"geopolitical_crisis",
	}, names)
}

func TestApplyMarketCrash(t *testing.T) {
	tester := NewTester(0.03, zerolog.Nop())

	crash := Catalog()[0] // -35% drop, correlation 0.9
	impact := tester.Apply(baseMetrics(), crash)

	assert.InDelta(t, -0.25, impact.StressedAnnualReturn, 1e-12)
	assert.InDelta(t, -0.35, impact.ReturnImpact, 1e-12)

	// Drawdown becomes the deeper of current mdd and drop*1.2, then the
	// correlation side effect scales it by 1.1
	assert.InDelta(t, -0.35*1.2*1.1, impact.StressedMaxDrawdown, 1e-12)

	// Correlation increase scales volatility by 1.2
	assert.InDelta(t, 0.15*1.2, impact.StressedVolatility, 1e-12)
	assert.InDelta(t, (-0.25-0.03)/(0.15*1.2), impact.StressedSharpeRatio, 1e-12)
}

func TestApplyVolatilitySpike(t *testing.T) {
	tester := NewTester(0.03, zerolog.Nop())

	covid := Catalog()[1] // -30% drop, 3x volatility
	impact := tester.Apply(baseMetrics(), covid)

	assert.InDelta(t, 0.45, impact.StressedVolatility, 1e-12)
	assert.InDelta(t, 0.30, impact.VolatilityImpact, 1e-12)
	assert.InDelta(t, -0.36, impact.StressedMaxDrawdown, 1e-12)
}

func TestApplyIdentityScenario(t *testing.T) {
	tester := NewTester(0.03, zerolog.Nop())

	identity := Catalog()[3] // inflation_shock carries no parameters
	impact := tester.Apply(baseMetrics(), identity)

	assert.Equal(t, 0.0, impact.ReturnImpact)
	assert.Equal(t, 0.0, impact.VolatilityImpact)
	assert.Equal(t, 0.0, impact.DrawdownImpact)
	assert.InDelta(t, 0.10, impact.StressedAnnualReturn, 1e-12)
}

func TestApplyIsPure(t *testing.T) {
	tester := NewTester(0.03, zerolog.Nop())
	m := baseMetrics()
	scenario := Catalog()[0]

	first := tester.Apply(m, scenario)
	second := tester.Apply(m, scenario)

	assert.Equal(t, first, second)
	// The input metrics are untouched
	assert.Equal(t, baseMetrics(), m)
}

func TestRunRanksByResilience(t *testing.T) {
	tester := NewTester(0.03, zerolog.Nop())

	user := domain.PortfolioResult{ID: domain.UserPortfolioID, Name: "User Portfolio", Metrics: baseMetrics()}
	calm := domain.PortfolioResult{ID: "calm", Name: "Calm", Metrics: domain.PerformanceMetrics{
		AnnualReturn: 0.06, Volatility: 0.08, MaxDrawdown: -0.05,
	}}

	results := tester.Run(user, []domain.PortfolioResult{calm})

	require.Len(t, results.Scenarios, 5)
	require.Len(t, results.ResilienceRanking, 2)

	// Both portfolios see identical scenario shocks, so scores tie on
	// return impact and separate on the volatility term
	for i, entry := range results.ResilienceRanking {
		assert.Equal(t, i+1, entry.Rank)
	}
	assert.Equal(t, "calm", results.ResilienceRanking[0].PortfolioID)
	assert.Equal(t, domain.UserPortfolioID, results.ResilienceRanking[1].PortfolioID)

	assert.Equal(t, "market_crash_2008", results.Summary.WorstCaseScenario)
	assert.InDelta(t, -0.35, results.Summary.WorstCaseImpact, 1e-12)
	assert.InDelta(t, (-0.35-0.30)/5.0, results.Summary.AverageImpact, 1e-12)
	assert.NotEmpty(t, results.Summary.Text)
}
