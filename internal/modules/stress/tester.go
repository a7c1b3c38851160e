package stress

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/rocky-invest/strategy-sim/internal/domain"
)

// Scenario is a named set of shock parameters applied as a transform
// over already-computed metrics, not over raw prices. Nil fields mean
// the shock does not apply.
type Scenario struct {
	Name                string
	MarketDrop          *float64 // additive hit to annual return
	VolatilitySpike     *float64 // multiplier on volatility
	CorrelationIncrease *float64 // diversification loss, fixed side effects
}

// Catalog returns the fixed scenario set, in evaluation order.
// Scenarios whose historical shocks fall outside the metric-level model
// (sector rotations, bond and commodity moves) carry no effective
// parameters and act as identity transforms.
func Catalog() []Scenario {
	return []Scenario{
		{Name: "market_crash_2008", MarketDrop: f(-0.35), CorrelationIncrease: f(0.9)},
		{Name: "covid_crash_2020", MarketDrop: f(-0.30), VolatilitySpike: f(3.0)},
		{Name: "tech_bubble_burst"},
		{Name: "inflation_shock"},
		{Name: "geopolitical_crisis"},
	}
}

func f(v float64) *float64 { return &v }

// Impact holds the stressed metrics and their deltas for one portfolio
// under one scenario.
type Impact struct {
	StressedAnnualReturn float64 `json:"stressed_annual_return"`
	StressedVolatility   float64 `json:"stressed_volatility"`
	StressedMaxDrawdown  float64 `json:"stressed_max_drawdown"`
	StressedSharpeRatio  float64 `json:"stressed_sharpe_ratio"`
	ReturnImpact         float64 `json:"return_impact"`
	VolatilityImpact     float64 `json:"volatility_impact"`
	DrawdownImpact       float64 `json:"drawdown_impact"`
}

// ScenarioResult is one scenario applied to every portfolio.
type ScenarioResult struct {
	UserPortfolio Impact            `json:"user_portfolio"`
	Strategies    map[string]Impact `json:"strategies"`
}

// Summary condenses the whole stress run from the user's perspective.
type Summary struct {
	WorstCaseScenario string  `json:"worst_case_scenario"`
	WorstCaseImpact   float64 `json:"worst_case_impact"`
	AverageImpact     float64 `json:"average_impact"`
	Text              string  `json:"stress_test_summary"`
}

// ResilienceEntry ranks one portfolio by stress resilience.
type ResilienceEntry struct {
	PortfolioID     string  `json:"portfolio_id"`
	PortfolioName   string  `json:"portfolio_name"`
	ResilienceScore float64 `json:"resilience_score"`
	Rank            int     `json:"rank"`
}

// Results is the stress-test section of a report.
type Results struct {
	Scenarios         map[string]ScenarioResult `json:"stress_scenarios"`
	Summary           Summary                   `json:"summary"`
	ResilienceRanking []ResilienceEntry         `json:"resilience_ranking"`
}

// Tester applies the scenario catalog to portfolio metrics.
type Tester struct {
	riskFreeRate float64
	log          zerolog.Logger
}

// NewTester creates a stress tester
func NewTester(riskFreeRate float64, log zerolog.Logger) *Tester {
	return &Tester{
		riskFreeRate: riskFreeRate,
		log:          log.With().Str("component", "stress").Logger(),
	}
}

// Apply transforms one portfolio's metrics under one scenario. The
// transform is pure: the same metrics and scenario always produce the
// same impact.
func (t *Tester) Apply(m domain.PerformanceMetrics, scenario Scenario) Impact {
	stressedReturn := m.AnnualReturn
	stressedVolatility := m.Volatility
	stressedMDD := m.MaxDrawdown

	if scenario.MarketDrop != nil {
		stressedReturn += *scenario.MarketDrop
		stressedMDD = math.Min(stressedMDD, *scenario.MarketDrop*1.2)
	}

	if scenario.VolatilitySpike != nil {
		stressedVolatility *= *scenario.VolatilitySpike
	}

	if scenario.CorrelationIncrease != nil {
		// Higher correlation erodes the diversification benefit
		stressedVolatility *= 1.2
		stressedMDD *= 1.1
	}

	stressedSharpe := 0.0
	if stressedVolatility > 0 {
		stressedSharpe = (stressedReturn - t.riskFreeRate) / stressedVolatility
	}

	return Impact{
		StressedAnnualReturn: stressedReturn,
		StressedVolatility:   stressedVolatility,
		StressedMaxDrawdown:  stressedMDD,
		StressedSharpeRatio:  stressedSharpe,
		ReturnImpact:         stressedReturn - m.AnnualReturn,
		VolatilityImpact:     stressedVolatility - m.Volatility,
		DrawdownImpact:       stressedMDD - m.MaxDrawdown,
	}
}

// Run applies the full catalog to the user and every strategy, then
// summarizes and ranks by resilience.
func (t *Tester) Run(user domain.PortfolioResult, strategies []domain.PortfolioResult) Results {
	scenarios := make(map[string]ScenarioResult)

	for _, scenario := range Catalog() {
		result := ScenarioResult{
			UserPortfolio: t.Apply(user.Metrics, scenario),
			Strategies:    make(map[string]Impact, len(strategies)),
		}
		for _, s := range strategies {
			result.Strategies[s.ID] = t.Apply(s.Metrics, scenario)
		}
		scenarios[scenario.Name] = result
	}

	return Results{
		Scenarios:         scenarios,
		Summary:           t.summarize(scenarios),
		ResilienceRanking: t.rankByResilience(user, strategies, scenarios),
	}
}

func (t *Tester) summarize(scenarios map[string]ScenarioResult) Summary {
	worstScenario := ""
	worstImpact := 0.0
	var totalImpact float64

	for _, scenario := range Catalog() {
		impact := scenarios[scenario.Name].UserPortfolio.ReturnImpact
		totalImpact += impact
		if impact < worstImpact {
			worstImpact = impact
			worstScenario = scenario.Name
		}
	}

	average := 0.0
	if n := len(Catalog()); n > 0 {
		average = totalImpact / float64(n)
	}

	return Summary{
		WorstCaseScenario: worstScenario,
		WorstCaseImpact:   worstImpact,
		AverageImpact:     average,
		Text: fmt.Sprintf("Worst case (%s) implies a %.1f%% hit to annual return",
			worstScenario, worstImpact*100),
	}
}

// resilienceScore averages per-scenario scores: smaller shocks mean a
// more resilient portfolio.
func resilienceScore(impacts []Impact) float64 {
	if len(impacts) == 0 {
		return 50.0
	}

	var total float64
	for _, impact := range impacts {
		total += 100 + impact.ReturnImpact*100 - impact.VolatilityImpact*50
	}
	return total / float64(len(impacts))
}

func (t *Tester) rankByResilience(
	user domain.PortfolioResult,
	strategies []domain.PortfolioResult,
	scenarios map[string]ScenarioResult,
) []ResilienceEntry {
	var userImpacts []Impact
	for _, result := range scenarios {
		userImpacts = append(userImpacts, result.UserPortfolio)
	}

	entries := []ResilienceEntry{{
		PortfolioID:     domain.UserPortfolioID,
		PortfolioName:   user.Name,
		ResilienceScore: resilienceScore(userImpacts),
	}}

	for _, s := range strategies {
		var impacts []Impact
		for _, result := range scenarios {
			if impact, ok := result.Strategies[s.ID]; ok {
				impacts = append(impacts, impact)
			}
		}
		entries = append(entries, ResilienceEntry{
			PortfolioID:     s.ID,
			PortfolioName:   s.Name,
			ResilienceScore: resilienceScore(impacts),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ResilienceScore > entries[j].ResilienceScore
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	return entries
}
