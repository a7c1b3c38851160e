// Package charts builds the visualization payload attached to a
// simulation report. Every series is derived from the actual simulated
// histories so repeated runs over the same inputs produce identical
// charts.
package charts

import (
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/rocky-invest/strategy-sim/internal/domain"
	"github.com/rocky-invest/strategy-sim/internal/modules/benchmark"
	"github.com/rocky-invest/strategy-sim/pkg/formulas"
)

// drawdownSampleStep thins the drawdown series to roughly weekly points.
const drawdownSampleStep = 5

// Series is one named line on the cumulative performance chart,
// normalized so every portfolio starts at 100.
type Series struct {
	Name   string    `json:"name"`
	Dates  []string  `json:"dates"`
	Values []float64 `json:"values"`
}

// MonthlyReturn is one bar per calendar month per portfolio.
type MonthlyReturn struct {
	Month   string             `json:"month"`
	Returns map[string]float64 `json:"returns"`
}

// ScatterPoint places a portfolio on the risk/return plane. Return and
// risk are expressed in percent.
type ScatterPoint struct {
	Name        string  `json:"name"`
	Return      float64 `json:"return"`
	Risk        float64 `json:"risk"`
	SharpeRatio float64 `json:"sharpe_ratio"`
	Type        string  `json:"type"`
	Size        int     `json:"size"`
}

// DrawdownPoint is one sampled point of the user portfolio's drawdown.
type DrawdownPoint struct {
	Date     string  `json:"date"`
	Drawdown float64 `json:"drawdown"`
}

// Payload is the full visualization section of a simulation report.
type Payload struct {
	CumulativePerformance []Series        `json:"cumulative_performance"`
	MonthlyReturns        []MonthlyReturn `json:"monthly_returns"`
	RiskReturnScatter     []ScatterPoint  `json:"risk_return_scatter"`
	DrawdownChart         []DrawdownPoint `json:"drawdown_chart"`
}

// StrategySeries carries one simulated strategy into chart building.
type StrategySeries struct {
	ID      string
	Name    string
	History *domain.PortfolioHistory
	Metrics domain.PerformanceMetrics
}

// Input bundles everything the chart builder draws from.
type Input struct {
	UserName    string
	UserHistory *domain.PortfolioHistory
	UserMetrics domain.PerformanceMetrics
	Strategies  []StrategySeries
	Benchmarks  map[string]benchmark.Performance
}

// Service renders chart payloads from simulation outputs.
type Service struct {
	log zerolog.Logger
}

func NewService(log zerolog.Logger) *Service {
	return &Service{
		log: log.With().Str("component", "charts").Logger(),
	}
}

// Build assembles the full visualization payload.
func (s *Service) Build(in Input) *Payload {
	payload := &Payload{
		CumulativePerformance: s.cumulativePerformance(in),
		MonthlyReturns:        s.monthlyReturns(in),
		RiskReturnScatter:     s.riskReturnScatter(in),
		DrawdownChart:         s.drawdownChart(in.UserHistory),
	}

	s.log.Debug().
		Int("series", len(payload.CumulativePerformance)).
		Int("months", len(payload.MonthlyReturns)).
		Int("scatter_points", len(payload.RiskReturnScatter)).
		Msg("visualization payload built")

	return payload
}

func (s *Service) cumulativePerformance(in Input) []Series {
	series := make([]Series, 0, len(in.Strategies)+1)

	if line, ok := normalizedSeries(in.UserName, in.UserHistory); ok {
		series = append(series, line)
	}
	for _, strat := range in.Strategies {
		if line, ok := normalizedSeries(strat.Name, strat.History); ok {
			series = append(series, line)
		}
	}
	return series
}

// normalizedSeries rescales a value history so it starts at 100.
func normalizedSeries(name string, history *domain.PortfolioHistory) (Series, bool) {
	if history == nil || history.Len() == 0 || history.Values[0] == 0 {
		return Series{}, false
	}

	base := history.Values[0]
	values := make([]float64, len(history.Values))
	for i, v := range history.Values {
		values[i] = v / base * 100
	}

	return Series{Name: name, Dates: history.Dates, Values: values}, true
}

func (s *Service) monthlyReturns(in Input) []MonthlyReturn {
	byMonth := make(map[string]map[string]float64)

	accumulate := func(name string, history *domain.PortfolioHistory) {
		if history == nil {
			return
		}
		for i, date := range history.Dates {
			if len(date) < 7 || i >= len(history.DailyReturns) {
				continue
			}
			month := date[:7]
			if byMonth[month] == nil {
				byMonth[month] = make(map[string]float64)
			}
			// Compound daily returns within the month.
			prev, ok := byMonth[month][name]
			if !ok {
				prev = 0
			}
			byMonth[month][name] = (1+prev)*(1+history.DailyReturns[i]) - 1
		}
	}

	accumulate(in.UserName, in.UserHistory)
	for _, strat := range in.Strategies {
		accumulate(strat.Name, strat.History)
	}

	months := make([]string, 0, len(byMonth))
	for month := range byMonth {
		months = append(months, month)
	}
	sort.Strings(months)

	out := make([]MonthlyReturn, 0, len(months))
	for _, month := range months {
		out = append(out, MonthlyReturn{Month: month, Returns: byMonth[month]})
	}
	return out
}

func (s *Service) riskReturnScatter(in Input) []ScatterPoint {
	points := make([]ScatterPoint, 0, len(in.Strategies)+len(in.Benchmarks)+1)

	points = append(points, ScatterPoint{
		Name:        in.UserName,
		Return:      round2(in.UserMetrics.AnnualReturn * 100),
		Risk:        round2(in.UserMetrics.Volatility * 100),
		SharpeRatio: round2(in.UserMetrics.SharpeRatio),
		Type:        "user",
		Size:        12,
	})

	for _, strat := range in.Strategies {
		points = append(points, ScatterPoint{
			Name:        strat.Name,
			Return:      round2(strat.Metrics.AnnualReturn * 100),
			Risk:        round2(strat.Metrics.Volatility * 100),
			SharpeRatio: round2(strat.Metrics.SharpeRatio),
			Type:        "strategy",
			Size:        10,
		})
	}

	names := make([]string, 0, len(in.Benchmarks))
	for name := range in.Benchmarks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		perf := in.Benchmarks[name]
		points = append(points, ScatterPoint{
			Name:        name,
			Return:      round2(perf.AnnualReturn * 100),
			Risk:        round2(perf.Volatility * 100),
			SharpeRatio: round2(perf.SharpeRatio),
			Type:        "benchmark",
			Size:        8,
		})
	}

	return points
}

// drawdownChart samples the user portfolio's drawdown series at weekly
// intervals, always keeping the final point.
func (s *Service) drawdownChart(history *domain.PortfolioHistory) []DrawdownPoint {
	if history == nil || history.Len() == 0 {
		return []DrawdownPoint{}
	}

	drawdowns := formulas.DrawdownSeries(history.Values)
	points := make([]DrawdownPoint, 0, len(drawdowns)/drawdownSampleStep+1)

	for i := 0; i < len(drawdowns); i += drawdownSampleStep {
		points = append(points, DrawdownPoint{
			Date:     history.Dates[i],
			Drawdown: round2(drawdowns[i] * 100),
		})
	}
	if last := len(drawdowns) - 1; last >= 0 && last%drawdownSampleStep != 0 {
		points = append(points, DrawdownPoint{
			Date:     history.Dates[last],
			Drawdown: round2(drawdowns[last] * 100),
		})
	}

	return points
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
