package risk

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/rocky-invest/strategy-sim/internal/domain"
	"github.com/rocky-invest/strategy-sim/internal/marketdata"
	"github.com/rocky-invest/strategy-sim/internal/modules/stress"
)

// Level is a qualitative risk band.
type Level string

const (
	LevelLow      Level = "low"
	LevelModerate Level = "moderate"
	LevelHigh     Level = "high"
	LevelVeryHigh Level = "very_high"
)

// Category is the overall risk classification of a portfolio.
type Category string

const (
	CategorySafe         Category = "safe"
	CategoryConservative Category = "conservative"
	CategoryAggressive   Category = "aggressive"
	CategorySpeculative  Category = "speculative"
)

// Profile is the per-portfolio risk section of a report.
type Profile struct {
	VolatilityLevel  Level    `json:"volatility_level"`
	DrawdownRisk     Level    `json:"drawdown_risk"`
	VaRRisk          Level    `json:"var_risk"`
	OverallRiskScore float64  `json:"overall_risk_score"`
	RiskCategory     Category `json:"risk_category"`
}

// StrategyProfile pairs a strategy with its risk profile.
type StrategyProfile struct {
	StrategyID   string  `json:"strategy_id"`
	StrategyName string  `json:"strategy_name"`
	RiskMetrics  Profile `json:"risk_metrics"`
}

// Analysis is the full risk-analysis section of a report.
type Analysis struct {
	UserPortfolioRisk      Profile             `json:"user_portfolio_risk"`
	StrategyRiskComparison []StrategyProfile   `json:"strategy_risk_comparison"`
	MarketRiskFactors      *MarketRiskFactors  `json:"market_risk_factors,omitempty"`
	CorrelationAnalysis    CorrelationAnalysis `json:"correlation_analysis"`
	StressTestResults      *stress.Results     `json:"stress_test_results,omitempty"`
	RiskRecommendations    []string            `json:"risk_recommendations"`
}

// Analyzer classifies portfolios into risk bands and generates
// risk-based recommendations.
type Analyzer struct {
	log zerolog.Logger
}

// NewAnalyzer creates a risk analyzer
func NewAnalyzer(log zerolog.Logger) *Analyzer {
	return &Analyzer{
		log: log.With().Str("component", "risk").Logger(),
	}
}

// CategorizeVolatility maps annualized volatility to a band.
func CategorizeVolatility(volatility float64) Level {
	switch {
	case volatility < 0.10:
		return LevelLow
	case volatility < 0.20:
		return LevelModerate
	case volatility < 0.30:
		return LevelHigh
	default:
		return LevelVeryHigh
	}
}

// CategorizeDrawdown maps |max drawdown| to a band.
func CategorizeDrawdown(maxDrawdown float64) Level {
	mdd := math.Abs(maxDrawdown)
	switch {
	case mdd < 0.05:
		return LevelLow
	case mdd < 0.15:
		return LevelModerate
	case mdd < 0.25:
		return LevelHigh
	default:
		return LevelVeryHigh
	}
}

// CategorizeVaR maps |VaR95| to a band.
func CategorizeVaR(var95 float64) Level {
	v := math.Abs(var95)
	switch {
	case v < 0.02:
		return LevelLow
	case v < 0.05:
		return LevelModerate
	case v < 0.08:
		return LevelHigh
	default:
		return LevelVeryHigh
	}
}

// RiskScore computes the weighted composite risk score on a 1-5 scale:
// 40% volatility, 40% drawdown, 20% VaR, each element clamped to [1, 5].
func RiskScore(m domain.PerformanceMetrics) float64 {
	volScore := clamp(m.Volatility*20, 1, 5)
	mddScore := clamp(math.Abs(m.MaxDrawdown)*20, 1, 5)
	varScore := clamp(math.Abs(m.VaR95)*50, 1, 5)

	score := volScore*0.4 + mddScore*0.4 + varScore*0.2
	return math.Round(score*100) / 100
}

// Categorize maps a composite risk score to a category.
func Categorize(score float64) Category {
	switch {
	case score < 2:
		return CategorySafe
	case score < 3:
		return CategoryConservative
	case score < 4:
		return CategoryAggressive
	default:
		return CategorySpeculative
	}
}

// ProfileOf builds the risk profile for one set of metrics.
func (a *Analyzer) ProfileOf(m domain.PerformanceMetrics) Profile {
	score := RiskScore(m)
	return Profile{
		VolatilityLevel:  CategorizeVolatility(m.Volatility),
		DrawdownRisk:     CategorizeDrawdown(m.MaxDrawdown),
		VaRRisk:          CategorizeVaR(m.VaR95),
		OverallRiskScore: score,
		RiskCategory:     Categorize(score),
	}
}

// Analyze produces the full risk section: per-portfolio profiles,
// cross-strategy correlation, market factors from the price table and
// the recommendation cascade. stressResults may be nil when the stress
// test was not requested.
func (a *Analyzer) Analyze(
	user domain.PortfolioResult,
	strategies []domain.PortfolioResult,
	prices *marketdata.PriceTable,
	stressResults *stress.Results,
) Analysis {
	analysis := Analysis{
		UserPortfolioRisk:   a.ProfileOf(user.Metrics),
		CorrelationAnalysis: a.AnalyzeCorrelations(strategies),
		StressTestResults:   stressResults,
	}

	for _, s := range strategies {
		analysis.StrategyRiskComparison = append(analysis.StrategyRiskComparison, StrategyProfile{
			StrategyID:   s.ID,
			StrategyName: s.Name,
			RiskMetrics:  a.ProfileOf(s.Metrics),
		})
	}

	if factors := a.AnalyzeMarketFactors(prices); factors != nil {
		analysis.MarketRiskFactors = factors
	}

	analysis.RiskRecommendations = a.Recommendations(analysis, stressResults)

	return analysis
}

// Recommendations runs the deterministic rule cascade over the user's
// risk profile, correlation findings and stress resilience.
func (a *Analyzer) Recommendations(analysis Analysis, stressResults *stress.Results) []string {
	var recs []string

	score := analysis.UserPortfolioRisk.OverallRiskScore
	switch {
	case score > 4:
		recs = append(recs,
			"Portfolio risk is very high; consider increasing the share of defensive assets.",
			"Broaden diversification to reduce concentration risk.")
	case score > 3:
		recs = append(recs,
			"Portfolio risk is somewhat elevated; consider adding a risk-management overlay.")
	}

	if level := analysis.UserPortfolioRisk.VolatilityLevel; level == LevelHigh || level == LevelVeryHigh {
		recs = append(recs, "Consider stop-loss levels to guard against the high volatility.")
	}

	if level := analysis.UserPortfolioRisk.DrawdownRisk; level == LevelHigh || level == LevelVeryHigh {
		recs = append(recs, "Maximum drawdown is large; a shorter rebalancing interval may help.")
	}

	if analysis.CorrelationAnalysis.DiversificationBenefit == LevelLow {
		recs = append(recs, "Strategies are highly correlated; consider spreading across different asset classes.")
	}

	if stressResults != nil && len(stressResults.ResilienceRanking) > 1 {
		for _, entry := range stressResults.ResilienceRanking {
			if entry.PortfolioID == domain.UserPortfolioID &&
				entry.Rank > len(stressResults.ResilienceRanking)/2 {
				recs = append(recs, "Stress-test resilience is below average; a more defensive allocation would help.")
			}
		}
	}

	if len(recs) == 0 {
		recs = append(recs,
			"The overall risk profile looks healthy.",
			"Keep up regular portfolio reviews and rebalancing.")
	}

	return recs
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
