package domain

import (
	"fmt"
	"math"
	"sort"
)

// Action represents a transaction side
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Transaction represents a single recorded trade in a user's history.
// Transactions are immutable once recorded and are processed in
// ascending date order.
type Transaction struct {
	Date     string  `json:"date"` // ISO-8601, YYYY-MM-DD
	Symbol   string  `json:"symbol"`
	Action   Action  `json:"action"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

// RebalanceFrequency determines how often a simulated strategy pays the
// rebalancing cost haircut.
type RebalanceFrequency string

const (
	RebalanceDaily     RebalanceFrequency = "daily"
	RebalanceWeekly    RebalanceFrequency = "weekly"
	RebalanceMonthly   RebalanceFrequency = "monthly"
	RebalanceQuarterly RebalanceFrequency = "quarterly"
)

// Days returns the rebalancing period in calendar days.
// Unknown values fall back to monthly.
func (f RebalanceFrequency) Days() int {
	switch f {
	case RebalanceDaily:
		return 1
	case RebalanceWeekly:
		return 7
	case RebalanceMonthly:
		return 30
	case RebalanceQuarterly:
		return 90
	default:
		return 30
	}
}

// SimulationConfig holds the knobs for one comprehensive analysis run.
type SimulationConfig struct {
	SimulationPeriodDays int                `json:"simulation_period_days"`
	InitialCapital       float64            `json:"initial_capital"`
	RebalanceFrequency   RebalanceFrequency `json:"rebalance_frequency"`
	TransactionCost      float64            `json:"transaction_cost"`
	IncludeStressTest    bool               `json:"include_stress_test"`
}

// ApplyDefaults fills zero-valued fields with the standard configuration:
// one trading year, 100M initial capital, monthly rebalancing, 0.3% cost.
func (c *SimulationConfig) ApplyDefaults() {
	if c.SimulationPeriodDays <= 0 {
		c.SimulationPeriodDays = 252
	}
	if c.InitialCapital <= 0 {
		c.InitialCapital = 100_000_000
	}
	if c.RebalanceFrequency == "" {
		c.RebalanceFrequency = RebalanceMonthly
	}
	if c.TransactionCost <= 0 {
		c.TransactionCost = 0.003
	}
}

// Strategy is a candidate rebalancing strategy supplied by a collaborator.
type Strategy struct {
	StrategyID          string     `json:"strategy_id"`
	StrategyName        string     `json:"strategy_name"`
	StrategyType        string     `json:"strategy_type"`
	PortfolioAllocation Allocation `json:"portfolio_allocation"`
}

// Allocation maps symbol to target weight.
type Allocation map[string]float64

// Sum returns the total weight of the allocation.
func (a Allocation) Sum() float64 {
	var total float64
	for _, w := range a {
		total += w
	}
	return total
}

// Symbols returns the allocation's symbols in deterministic order.
func (a Allocation) Symbols() []string {
	symbols := make([]string, 0, len(a))
	for s := range a {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Normalized returns a copy with negative weights dropped and the
// remainder rescaled to sum to exactly 1. Returns an error for an empty
// or zero-weight allocation.
func (a Allocation) Normalized() (Allocation, error) {
	cleaned := make(Allocation, len(a))
	for symbol, w := range a {
		if w > 0 {
			cleaned[symbol] = w
		}
	}

	total := cleaned.Sum()
	if total == 0 {
		return nil, fmt.Errorf("allocation has no positive weights")
	}

	result := make(Allocation, len(cleaned))
	for symbol, w := range cleaned {
		result[symbol] = w / total
	}
	return result, nil
}

// Clipped clamps every weight into [minWeight, maxWeight] and
// renormalizes so the weights sum to 1 again.
func (a Allocation) Clipped(minWeight, maxWeight float64) (Allocation, error) {
	normalized, err := a.Normalized()
	if err != nil {
		return nil, err
	}

	clipped := make(Allocation, len(normalized))
	for symbol, w := range normalized {
		clipped[symbol] = math.Min(math.Max(w, minWeight), maxWeight)
	}
	return clipped.Normalized()
}

// PortfolioState tracks cash and holdings during a single reconstruction
// run. One instance is owned exclusively by one run.
type PortfolioState struct {
	Cash     float64            `json:"cash"`
	Holdings map[string]float64 `json:"holdings"`
}

// NewPortfolioState creates a state holding only cash.
func NewPortfolioState(initialCapital float64) *PortfolioState {
	return &PortfolioState{
		Cash:     initialCapital,
		Holdings: make(map[string]float64),
	}
}

// SnapshotHoldings returns a copy of current holdings.
func (s *PortfolioState) SnapshotHoldings() map[string]float64 {
	snapshot := make(map[string]float64, len(s.Holdings))
	for symbol, qty := range s.Holdings {
		snapshot[symbol] = qty
	}
	return snapshot
}

// PortfolioHistory is the append-only daily record of a simulated or
// reconstructed portfolio. DailyReturns[0] is always 0.
type PortfolioHistory struct {
	Dates        []string             `json:"dates"`
	Values       []float64            `json:"values"`
	DailyReturns []float64            `json:"daily_returns"`
	Holdings     []map[string]float64 `json:"holdings,omitempty"`
}

// Append records one simulated day. The daily return is derived from the
// previous recorded value; the first day is recorded as 0.
func (h *PortfolioHistory) Append(date string, value float64, holdings map[string]float64) {
	dailyReturn := 0.0
	if n := len(h.Values); n > 0 && h.Values[n-1] != 0 {
		dailyReturn = (value - h.Values[n-1]) / h.Values[n-1]
	}

	h.Dates = append(h.Dates, date)
	h.Values = append(h.Values, value)
	h.DailyReturns = append(h.DailyReturns, dailyReturn)
	h.Holdings = append(h.Holdings, holdings)
}

// Len returns the number of recorded days.
func (h *PortfolioHistory) Len() int {
	return len(h.Values)
}

// FinalValue returns the last recorded value, or fallback when empty.
func (h *PortfolioHistory) FinalValue(fallback float64) float64 {
	if len(h.Values) == 0 {
		return fallback
	}
	return h.Values[len(h.Values)-1]
}

// PerformanceMetrics is the immutable set of risk/return measures derived
// from one PortfolioHistory.
type PerformanceMetrics struct {
	TotalReturn      float64 `json:"total_return"`
	AnnualReturn     float64 `json:"annual_return"`
	Volatility       float64 `json:"volatility"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	SortinoRatio     float64 `json:"sortino_ratio"`
	CalmarRatio      float64 `json:"calmar_ratio"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	VaR95            float64 `json:"var_95"`
	WinRate          float64 `json:"win_rate"`
	Beta             float64 `json:"beta"`
	Alpha            float64 `json:"alpha"`
	InformationRatio float64 `json:"information_ratio"`
}
