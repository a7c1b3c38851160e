package simulation

import (
	"time"

	"github.com/rocky-invest/strategy-sim/internal/domain"
	"github.com/rocky-invest/strategy-sim/internal/modules/backtest"
	"github.com/rocky-invest/strategy-sim/internal/modules/benchmark"
	"github.com/rocky-invest/strategy-sim/internal/modules/charts"
	"github.com/rocky-invest/strategy-sim/internal/modules/risk"
)

// Request is the full input to a comprehensive simulation run.
type Request struct {
	Transactions []domain.Transaction    `json:"transactions"`
	Strategies   []domain.Strategy       `json:"strategies"`
	Config       domain.SimulationConfig `json:"config"`
}

// UserPortfolioResult is the reconstructed actual portfolio section of a
// report.
type UserPortfolioResult struct {
	StrategyID        string                    `json:"strategy_id"`
	StrategyName      string                    `json:"strategy_name"`
	Metrics           domain.PerformanceMetrics `json:"metrics"`
	History           *domain.PortfolioHistory  `json:"history"`
	FinalValue        float64                   `json:"final_value"`
	TotalTransactions int                       `json:"total_transactions"`
	HoldingPeriodDays int                       `json:"holding_period_days"`
	CurrentAllocation map[string]float64        `json:"current_allocation,omitempty"`
}

// StrategyResult is one simulated candidate strategy.
type StrategyResult struct {
	StrategyID           string                    `json:"strategy_id"`
	StrategyName         string                    `json:"strategy_name"`
	StrategyType         string                    `json:"strategy_type"`
	PortfolioAllocation  domain.Allocation         `json:"portfolio_allocation"`
	Backtest             *backtest.Result          `json:"backtest"`
	Metrics              domain.PerformanceMetrics `json:"metrics"`
	RebalanceFrequency   domain.RebalanceFrequency `json:"rebalance_frequency"`
	TransactionCost      float64                   `json:"transaction_cost"`
	SimulationPeriodDays int                       `json:"simulation_period_days"`
}

// ComparisonReport is the complete output of one simulation run.
type ComparisonReport struct {
	SimulationID             string                           `json:"simulation_id"`
	SimulationConfig         domain.SimulationConfig          `json:"simulation_config"`
	UserPortfolioReturn      *UserPortfolioResult             `json:"user_portfolio_return"`
	SimulatedReturns         []StrategyResult                 `json:"simulated_returns"`
	BenchmarkPerformance     map[string]benchmark.Performance `json:"benchmark_performance"`
	ComparisonMetrics        *benchmark.Comparison            `json:"comparison_metrics,omitempty"`
	RiskAnalysis             *risk.Analysis                   `json:"risk_analysis,omitempty"`
	PerformanceVisualization *charts.Payload                  `json:"performance_visualization,omitempty"`
	Recommendations          []string                         `json:"recommendations"`
	GeneratedAt              time.Time                        `json:"generated_at"`
	Error                    string                           `json:"error,omitempty"`
	Warning                  string                           `json:"warning,omitempty"`
}
