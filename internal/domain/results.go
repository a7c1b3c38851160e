package domain

// PortfolioResult is the minimal view of an analyzed portfolio shared by
// the comparison, stress and risk stages: identity, computed metrics and
// the daily-return series they were computed from.
type PortfolioResult struct {
	ID           string
	Name         string
	Metrics      PerformanceMetrics
	DailyReturns []float64
}

// UserPortfolioID identifies the user's reconstructed portfolio in
// rankings and stress results.
const UserPortfolioID = "user_actual"
