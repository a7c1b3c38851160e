package risk

import (
	"github.com/rocky-invest/strategy-sim/internal/domain"
	"github.com/rocky-invest/strategy-sim/pkg/formulas"
)

// CorrelationAnalysis reports how similarly the candidate strategies
// behave day to day.
type CorrelationAnalysis struct {
	CorrelationMatrix      map[string]map[string]float64 `json:"correlation_matrix,omitempty"`
	AverageCorrelation     float64                       `json:"average_correlation"`
	CorrelationLevel       Level                         `json:"correlation_level"`
	DiversificationBenefit Level                         `json:"diversification_benefit"`
	Message                string                        `json:"message,omitempty"`
}

// AnalyzeCorrelations computes the pairwise Pearson correlation matrix
// of strategy daily-return series. Series of mismatched lengths are
// truncated to the shortest common length.
func (a *Analyzer) AnalyzeCorrelations(strategies []domain.PortfolioResult) CorrelationAnalysis {
	var usable []domain.PortfolioResult
	for _, s := range strategies {
		if len(s.DailyReturns) >= 2 {
			usable = append(usable, s)
		}
	}

	if len(usable) < 2 {
		return CorrelationAnalysis{
			CorrelationLevel:       LevelModerate,
			DiversificationBenefit: LevelModerate,
			Message:                "not enough strategies for correlation analysis",
		}
	}

	minLen := len(usable[0].DailyReturns)
	for _, s := range usable[1:] {
		if len(s.DailyReturns) < minLen {
			minLen = len(s.DailyReturns)
		}
	}

	matrix := make(map[string]map[string]float64, len(usable))
	var sum float64
	var pairs int

	for i, x := range usable {
		row := make(map[string]float64, len(usable))
		for j, y := range usable {
			if i == j {
				row[y.ID] = 1
				continue
			}
			corr := formulas.Correlation(x.DailyReturns[:minLen], y.DailyReturns[:minLen])
			row[y.ID] = corr
			if j > i {
				sum += corr
				pairs++
			}
		}
		matrix[x.ID] = row
	}

	average := 0.0
	if pairs > 0 {
		average = sum / float64(pairs)
	}

	return CorrelationAnalysis{
		CorrelationMatrix:      matrix,
		AverageCorrelation:     average,
		CorrelationLevel:       correlationLevel(average),
		DiversificationBenefit: diversificationBenefit(average),
	}
}

func correlationLevel(avg float64) Level {
	switch {
	case avg > 0.7:
		return LevelHigh
	case avg > 0.4:
		return LevelModerate
	default:
		return LevelLow
	}
}

// diversificationBenefit is the inverse reading of correlation: highly
// correlated strategies diversify poorly.
func diversificationBenefit(avg float64) Level {
	switch {
	case avg > 0.7:
		return LevelLow
	case avg > 0.4:
		return LevelModerate
	default:
		return LevelHigh
	}
}
