package benchmark

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rocky-invest/strategy-sim/internal/domain"
)

// Ranking is one row of the strategy leaderboard.
type Ranking struct {
	Rank         int     `json:"rank"`
	StrategyID   string  `json:"strategy_id"`
	StrategyName string  `json:"strategy_name"`
	SharpeRatio  float64 `json:"sharpe_ratio"`
	AnnualReturn float64 `json:"annual_return"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	OverallScore float64 `json:"overall_score"`
}

// Deltas holds pairwise metric improvements between two portfolios.
type Deltas struct {
	ReturnImprovement     float64 `json:"return_improvement"`
	VolatilityImprovement float64 `json:"volatility_improvement"`
	SharpeImprovement     float64 `json:"sharpe_improvement"`
	MDDImprovement        float64 `json:"mdd_improvement"`
}

// BenchmarkDeltas compares the best strategy against the primary index.
type BenchmarkDeltas struct {
	ReturnVsIndex     float64 `json:"return_vs_index"`
	VolatilityVsIndex float64 `json:"volatility_vs_index"`
	SharpeVsIndex     float64 `json:"sharpe_vs_index"`
}

// BestStrategy summarizes the top-ranked candidate.
type BestStrategy struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	AnnualReturn float64 `json:"annual_return"`
	SharpeRatio  float64 `json:"sharpe_ratio"`
	MaxDrawdown  float64 `json:"max_drawdown"`
}

// Comparison is the full cross-portfolio comparison section of a report.
type Comparison struct {
	UserVsBestStrategy      Deltas          `json:"user_vs_best_strategy"`
	BestStrategyVsBenchmark BenchmarkDeltas `json:"best_strategy_vs_benchmark"`
	StrategyRankings        []Ranking       `json:"strategy_rankings"`
	BestStrategy            *BestStrategy   `json:"best_strategy,omitempty"`
	UserPortfolioRank       int             `json:"user_portfolio_rank"`
	OverallAssessment       string          `json:"overall_assessment"`
	Warning                 string          `json:"warning,omitempty"`
}

// Score computes the composite strategy score:
// 40% scaled Sharpe, 30% scaled annual return, 30% drawdown headroom.
func Score(m domain.PerformanceMetrics) float64 {
	sharpeScore := clamp(m.SharpeRatio*20, 0, 100)
	returnScore := clamp(m.AnnualReturn*100, 0, 50)
	drawdownScore := clamp(20+m.MaxDrawdown*100, 0, 20)

	return sharpeScore*0.4 + returnScore*0.3 + drawdownScore*0.3
}

// RankStrategies sorts candidates by composite score descending and
// assigns ranks starting at 1.
func RankStrategies(strategies []domain.PortfolioResult) []Ranking {
	rankings := make([]Ranking, 0, len(strategies))
	for _, s := range strategies {
		rankings = append(rankings, Ranking{
			StrategyID:   s.ID,
			StrategyName: s.Name,
			SharpeRatio:  s.Metrics.SharpeRatio,
			AnnualReturn: s.Metrics.AnnualReturn,
			MaxDrawdown:  s.Metrics.MaxDrawdown,
			OverallScore: Score(s.Metrics),
		})
	}

	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].OverallScore > rankings[j].OverallScore
	})

	for i := range rankings {
		rankings[i].Rank = i + 1
	}

	return rankings
}

// UserRank places the user among the candidates: one plus the number of
// strategies scoring strictly higher.
func UserRank(user domain.PortfolioResult, strategies []domain.PortfolioResult) int {
	userScore := Score(user.Metrics)

	better := 0
	for _, s := range strategies {
		if Score(s.Metrics) > userScore {
			better++
		}
	}
	return better + 1
}

// Compare builds the comparison section from the user's result, all
// strategy results and whatever benchmarks were fetched.
func (c *Comparator) Compare(
	user domain.PortfolioResult,
	strategies []domain.PortfolioResult,
	benchmarks map[string]Performance,
) Comparison {
	comparison := Comparison{
		StrategyRankings:  RankStrategies(strategies),
		UserPortfolioRank: UserRank(user, strategies),
	}

	if len(strategies) == 0 {
		comparison.Warning = "no candidate strategies to compare"
		comparison.OverallAssessment = "No candidate strategies were supplied; only the user portfolio and benchmarks were analyzed."
		return comparison
	}

	best := strategies[0]
	bestSharpe := best.Metrics.SharpeRatio
	for _, s := range strategies[1:] {
		if s.Metrics.SharpeRatio > bestSharpe {
			bestSharpe = s.Metrics.SharpeRatio
			best = s
		}
	}

	comparison.BestStrategy = &BestStrategy{
		ID:           best.ID,
		Name:         best.Name,
		AnnualReturn: best.Metrics.AnnualReturn,
		SharpeRatio:  best.Metrics.SharpeRatio,
		MaxDrawdown:  best.Metrics.MaxDrawdown,
	}

	comparison.UserVsBestStrategy = Deltas{
		ReturnImprovement:     best.Metrics.AnnualReturn - user.Metrics.AnnualReturn,
		VolatilityImprovement: user.Metrics.Volatility - best.Metrics.Volatility,
		SharpeImprovement:     best.Metrics.SharpeRatio - user.Metrics.SharpeRatio,
		MDDImprovement:        user.Metrics.MaxDrawdown - best.Metrics.MaxDrawdown,
	}

	if index, ok := benchmarks[primaryIndex]; ok {
		comparison.BestStrategyVsBenchmark = BenchmarkDeltas{
			ReturnVsIndex:     best.Metrics.AnnualReturn - index.AnnualReturn,
			VolatilityVsIndex: index.Volatility - best.Metrics.Volatility,
			SharpeVsIndex:     best.Metrics.SharpeRatio - index.SharpeRatio,
		}
	}

	comparison.OverallAssessment = assess(user, best, benchmarks)

	return comparison
}

// assess produces the plain-language summary of the comparison.
func assess(user, best domain.PortfolioResult, benchmarks map[string]Performance) string {
	userReturn := user.Metrics.AnnualReturn * 100
	bestReturn := best.Metrics.AnnualReturn * 100

	var parts []string

	if userReturn > bestReturn {
		parts = append(parts, fmt.Sprintf(
			"The user's annual return (%.1f%%) beats the best candidate strategy (%.1f%%).",
			userReturn, bestReturn))
	} else {
		parts = append(parts, fmt.Sprintf(
			"Adopting the best strategy could add %.1f percentage points of annual return.",
			bestReturn-userReturn))
	}

	if user.Metrics.SharpeRatio > best.Metrics.SharpeRatio {
		parts = append(parts, "Risk-adjusted return (Sharpe ratio) is strong.")
	} else {
		parts = append(parts, "There is room to improve on the risk-management side.")
	}

	if index, ok := benchmarks[primaryIndex]; ok {
		indexReturn := index.AnnualReturn * 100
		if userReturn > indexReturn {
			parts = append(parts, fmt.Sprintf(
				"The portfolio is outperforming the %s return of %.1f%%.", primaryIndex, indexReturn))
		} else {
			parts = append(parts, fmt.Sprintf(
				"Performance trails %s by %.1f percentage points.", primaryIndex, indexReturn-userReturn))
		}
	}

	return strings.Join(parts, " ")
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
