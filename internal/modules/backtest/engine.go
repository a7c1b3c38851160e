package backtest

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/rocky-invest/strategy-sim/internal/domain"
	"github.com/rocky-invest/strategy-sim/internal/marketdata"
)

// RunConfig holds the parameters for one strategy simulation.
type RunConfig struct {
	InitialCapital  float64
	RebalanceEvery  int     // calendar days between cost events
	TransactionCost float64 // multiplicative haircut per rebalance
}

// Result is the outcome of one simulation run.
type Result struct {
	History           domain.PortfolioHistory `json:"history"`
	CumulativeReturns []float64               `json:"cumulative_returns"`
	RebalanceDates    []string                `json:"rebalance_dates"`
}

// Engine simulates a fixed target allocation under periodic rebalancing
// cost. Weights are held constant between rebalance events; the cost of
// trading back to target is modeled as a flat haircut on portfolio value
// rather than share-level buys and sells.
type Engine struct {
	log zerolog.Logger
}

// NewEngine creates a new backtest engine
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{
		log: log.With().Str("component", "backtest").Logger(),
	}
}

// Run simulates the allocation over every date of the price table.
// Allocation symbols absent from the table are ignored; when none are
// present the result is a flat single-point history at initial capital.
// ctx is checked once per simulated day.
func (e *Engine) Run(
	ctx context.Context,
	allocation domain.Allocation,
	prices *marketdata.PriceTable,
	cfg RunConfig,
) (*Result, error) {
	if cfg.RebalanceEvery <= 0 {
		cfg.RebalanceEvery = domain.RebalanceMonthly.Days()
	}

	available := make([]string, 0, len(allocation))
	for _, symbol := range allocation.Symbols() {
		if prices.HasSymbol(symbol) {
			available = append(available, symbol)
		}
	}

	if len(available) == 0 || prices.IsEmpty() {
		e.log.Warn().
			Int("allocation_symbols", len(allocation)).
			Msg("No allocation symbols with price data, returning flat history")
		return degenerateResult(cfg.InitialCapital), nil
	}

	value := cfg.InitialCapital
	daysSinceRebalance := 0
	result := &Result{}

	for _, date := range prices.Dates() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if daysSinceRebalance >= cfg.RebalanceEvery {
			value *= 1 - cfg.TransactionCost
			result.RebalanceDates = append(result.RebalanceDates, date)
			daysSinceRebalance = 0
		}

		dayReturn := 0.0
		for _, symbol := range available {
			change, ok := prices.PctChange(symbol, date)
			if !ok {
				continue
			}
			dayReturn += allocation[symbol] * change
		}

		value *= 1 + dayReturn

		result.History.Dates = append(result.History.Dates, date)
		result.History.Values = append(result.History.Values, value)
		result.History.DailyReturns = append(result.History.DailyReturns, dayReturn)
		result.CumulativeReturns = append(result.CumulativeReturns,
			(value-cfg.InitialCapital)/cfg.InitialCapital)

		daysSinceRebalance++
	}

	return result, nil
}

func degenerateResult(initialCapital float64) *Result {
	result := &Result{}
	result.History.Dates = []string{time.Now().Format("2006-01-02")}
	result.History.Values = []float64{initialCapital}
	result.History.DailyReturns = []float64{0}
	result.CumulativeReturns = []float64{0}
	return result
}
