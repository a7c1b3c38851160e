package benchmark

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/rocky-invest/strategy-sim/internal/clients/yahoo"
	"github.com/rocky-invest/strategy-sim/internal/domain"
	"github.com/rocky-invest/strategy-sim/internal/events"
	"github.com/rocky-invest/strategy-sim/internal/modules/metrics"
	"github.com/rocky-invest/strategy-sim/pkg/formulas"
)

// Index is a named benchmark index ticker.
type Index struct {
	Name   string
	Symbol string
}

// DefaultIndices are the reference indices every comparison runs against.
var DefaultIndices = []Index{
	{Name: "KOSPI", Symbol: "^KS11"},
	{Name: "NASDAQ", Symbol: "^IXIC"},
	{Name: "S&P500", Symbol: "^GSPC"},
	{Name: "DOW", Symbol: "^DJI"},
}

// primaryIndex is the index used for head-to-head comparison text.
const primaryIndex = "KOSPI"

// Performance holds a benchmark index's computed performance.
type Performance struct {
	Symbol       string  `json:"symbol"`
	TotalReturn  float64 `json:"total_return"`
	AnnualReturn float64 `json:"annual_return"`
	Volatility   float64 `json:"volatility"`
	SharpeRatio  float64 `json:"sharpe_ratio"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	FinalValue   float64 `json:"final_value"`
}

// PriceSource provides daily close series for index tickers.
// *yahoo.Client is the production implementation.
type PriceSource interface {
	GetHistoricalPrices(symbol, period string) ([]yahoo.HistoricalPrice, error)
}

// Comparator fetches benchmark series, computes their metrics and ranks
// candidate portfolios against them.
type Comparator struct {
	client     PriceSource
	calc       *metrics.Calculator
	fetchDelay time.Duration
	events     *events.Manager
	log        zerolog.Logger
}

// NewComparator creates a benchmark comparator. fetchDelay paces the
// sequential index fetches to respect upstream rate limits.
func NewComparator(
	client PriceSource,
	calc *metrics.Calculator,
	fetchDelay time.Duration,
	eventManager *events.Manager,
	log zerolog.Logger,
) *Comparator {
	return &Comparator{
		client:     client,
		calc:       calc,
		fetchDelay: fetchDelay,
		events:     eventManager,
		log:        log.With().Str("component", "benchmark").Logger(),
	}
}

// CalculatePerformance fetches each index sequentially and runs it
// through the metrics calculator. A failed fetch drops that index from
// the result and the loop continues; the map may therefore be smaller
// than DefaultIndices, or empty.
func (c *Comparator) CalculatePerformance(period string, initialCapital float64) map[string]Performance {
	results := make(map[string]Performance)

	for i, index := range DefaultIndices {
		if i > 0 && c.fetchDelay > 0 {
			time.Sleep(c.fetchDelay)
		}

		prices, err := c.client.GetHistoricalPrices(index.Symbol, period)
		if err != nil || len(prices) < 2 {
			c.log.Warn().Err(err).
				Str("benchmark", index.Name).
				Str("symbol", index.Symbol).
				Msg("Failed to fetch benchmark data, omitting")
			c.events.Emit(events.BenchmarkFetchFailed, "benchmark", map[string]interface{}{
				"benchmark": index.Name,
			})
			continue
		}

		closes := make([]float64, len(prices))
		for j, p := range prices {
			closes[j] = p.Close
		}

		history := &domain.PortfolioHistory{
			Values:       closes,
			DailyReturns: append([]float64{0}, formulas.DailyReturns(closes)...),
		}
		m := c.calc.Calculate(history)

		results[index.Name] = Performance{
			Symbol:       index.Symbol,
			TotalReturn:  m.TotalReturn,
			AnnualReturn: m.AnnualReturn,
			Volatility:   m.Volatility,
			SharpeRatio:  m.SharpeRatio,
			MaxDrawdown:  m.MaxDrawdown,
			FinalValue:   initialCapital * (1 + m.TotalReturn),
		}
	}

	return results
}
