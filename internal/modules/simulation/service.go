// Package simulation orchestrates the full comparison pipeline:
// portfolio reconstruction, strategy backtests, benchmark comparison,
// stress testing, risk analysis and report assembly.
package simulation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rocky-invest/strategy-sim/internal/domain"
	"github.com/rocky-invest/strategy-sim/internal/events"
	"github.com/rocky-invest/strategy-sim/internal/marketdata"
	"github.com/rocky-invest/strategy-sim/internal/modules/backtest"
	"github.com/rocky-invest/strategy-sim/internal/modules/benchmark"
	"github.com/rocky-invest/strategy-sim/internal/modules/charts"
	"github.com/rocky-invest/strategy-sim/internal/modules/metrics"
	"github.com/rocky-invest/strategy-sim/internal/modules/reconstruction"
	"github.com/rocky-invest/strategy-sim/internal/modules/risk"
	"github.com/rocky-invest/strategy-sim/internal/modules/stress"
)

const userPortfolioName = "User Portfolio"

// Service runs comprehensive simulations. All collaborators are
// injected so each stage can be exercised in isolation.
type Service struct {
	reconstructor *reconstruction.Reconstructor
	engine        *backtest.Engine
	calculator    *metrics.Calculator
	comparator    *benchmark.Comparator
	tester        *stress.Tester
	analyzer      *risk.Analyzer
	charts        *charts.Service
	repo          *Repository
	events        *events.Manager
	log           zerolog.Logger
}

func NewService(
	reconstructor *reconstruction.Reconstructor,
	engine *backtest.Engine,
	calculator *metrics.Calculator,
	comparator *benchmark.Comparator,
	tester *stress.Tester,
	analyzer *risk.Analyzer,
	chartService *charts.Service,
	repo *Repository,
	eventManager *events.Manager,
	log zerolog.Logger,
) *Service {
	return &Service{
		reconstructor: reconstructor,
		engine:        engine,
		calculator:    calculator,
		comparator:    comparator,
		tester:        tester,
		analyzer:      analyzer,
		charts:        chartService,
		repo:          repo,
		events:        eventManager,
		log:           log.With().Str("component", "simulation").Logger(),
	}
}

// Run executes the full pipeline. It never panics outward: a
// catastrophic failure in any stage yields a minimal report carrying an
// error marker instead.
func (s *Service) Run(ctx context.Context, req Request, prices *marketdata.PriceTable) (report *ComparisonReport) {
	req.Config.ApplyDefaults()

	simulationID := uuid.New().String()
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			s.log.Error().
				Str("simulation_id", simulationID).
				Interface("panic", r).
				Msg("simulation panicked, returning fallback report")
			s.events.Emit(events.SimulationFallback, "simulation", map[string]interface{}{
				"simulation_id": simulationID,
				"panic":         fmt.Sprint(r),
			})
			report = s.fallbackReport(simulationID, req.Config, fmt.Sprintf("simulation failed: %v", r))
		}
	}()

	s.events.Emit(events.SimulationStarted, "simulation", map[string]interface{}{
		"simulation_id": simulationID,
		"transactions":  len(req.Transactions),
		"strategies":    len(req.Strategies),
	})

	report = &ComparisonReport{
		SimulationID:     simulationID,
		SimulationConfig: req.Config,
		SimulatedReturns: []StrategyResult{},
		GeneratedAt:      started,
	}

	userResult, err := s.reconstructUser(ctx, req, prices)
	if err != nil {
		report.Error = fmt.Sprintf("portfolio reconstruction failed: %v", err)
		report.Recommendations = []string{}
		return report
	}
	report.UserPortfolioReturn = userResult

	strategyResults, err := s.runStrategies(ctx, req, prices)
	if err != nil {
		report.Error = fmt.Sprintf("strategy simulation failed: %v", err)
		report.Recommendations = []string{}
		return report
	}
	report.SimulatedReturns = strategyResults

	report.BenchmarkPerformance = s.comparator.CalculatePerformance(
		periodLabel(req.Config.SimulationPeriodDays), req.Config.InitialCapital)

	user := domain.PortfolioResult{
		ID:           domain.UserPortfolioID,
		Name:         userPortfolioName,
		Metrics:      userResult.Metrics,
		DailyReturns: userResult.History.DailyReturns,
	}
	candidates := make([]domain.PortfolioResult, 0, len(strategyResults))
	for _, sr := range strategyResults {
		candidates = append(candidates, domain.PortfolioResult{
			ID:           sr.StrategyID,
			Name:         sr.StrategyName,
			Metrics:      sr.Metrics,
			DailyReturns: sr.Backtest.History.DailyReturns,
		})
	}

	comparison := s.comparator.Compare(user, candidates, report.BenchmarkPerformance)
	report.ComparisonMetrics = &comparison
	report.Warning = comparison.Warning

	var stressResults *stress.Results
	if req.Config.IncludeStressTest {
		results := s.tester.Run(user, candidates)
		stressResults = &results
	}

	analysis := s.analyzer.Analyze(user, candidates, prices, stressResults)
	report.RiskAnalysis = &analysis

	report.PerformanceVisualization = s.charts.Build(chartInput(userResult, strategyResults, report.BenchmarkPerformance))
	report.Recommendations = s.recommendations(userResult, strategyResults, comparison, analysis)

	if s.repo != nil {
		if err := s.repo.Save(report); err != nil {
			s.log.Warn().Err(err).
				Str("simulation_id", simulationID).
				Msg("failed to persist simulation results")
			s.events.Emit(events.PersistenceFailed, "simulation", map[string]interface{}{
				"simulation_id": simulationID,
				"error":         err.Error(),
			})
		}
	}

	s.events.Emit(events.SimulationCompleted, "simulation", map[string]interface{}{
		"simulation_id": simulationID,
		"duration_ms":   time.Since(started).Milliseconds(),
	})
	s.log.Info().
		Str("simulation_id", simulationID).
		Int("strategies", len(strategyResults)).
		Dur("elapsed", time.Since(started)).
		Msg("simulation complete")

	return report
}

func (s *Service) reconstructUser(ctx context.Context, req Request, prices *marketdata.PriceTable) (*UserPortfolioResult, error) {
	history, err := s.reconstructor.Reconstruct(ctx, req.Transactions, prices, req.Config.InitialCapital)
	if err != nil {
		return nil, err
	}

	result := &UserPortfolioResult{
		StrategyID:        domain.UserPortfolioID,
		StrategyName:      userPortfolioName,
		Metrics:           s.calculator.Calculate(history),
		History:           history,
		FinalValue:        history.FinalValue(req.Config.InitialCapital),
		TotalTransactions: len(req.Transactions),
		HoldingPeriodDays: history.Len(),
	}

	if n := len(history.Holdings); n > 0 {
		result.CurrentAllocation = currentAllocation(history.Holdings[n-1], prices)
	}

	return result, nil
}

// currentAllocation converts final share holdings into value weights at
// the latest known price.
func currentAllocation(holdings map[string]float64, prices *marketdata.PriceTable) map[string]float64 {
	dates := prices.Dates()
	if len(dates) == 0 {
		return nil
	}
	last := dates[len(dates)-1]

	values := make(map[string]float64)
	var total float64
	for symbol, qty := range holdings {
		price, ok := prices.Price(symbol, last)
		if !ok || qty <= 0 {
			continue
		}
		values[symbol] = qty * price
		total += qty * price
	}
	if total == 0 {
		return nil
	}

	allocation := make(map[string]float64, len(values))
	for symbol, v := range values {
		allocation[symbol] = v / total
	}
	return allocation
}

func (s *Service) runStrategies(ctx context.Context, req Request, prices *marketdata.PriceTable) ([]StrategyResult, error) {
	results := make([]StrategyResult, 0, len(req.Strategies))

	for _, strategy := range req.Strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		allocation, err := strategy.PortfolioAllocation.Normalized()
		if err != nil {
			s.log.Warn().Err(err).
				Str("strategy_id", strategy.StrategyID).
				Msg("skipping strategy with unusable allocation")
			continue
		}

		run, err := s.engine.Run(ctx, allocation, prices, backtest.RunConfig{
			InitialCapital:  req.Config.InitialCapital,
			RebalanceEvery:  req.Config.RebalanceFrequency.Days(),
			TransactionCost: req.Config.TransactionCost,
		})
		if err != nil {
			return nil, fmt.Errorf("backtest for %s: %w", strategy.StrategyID, err)
		}

		results = append(results, StrategyResult{
			StrategyID:           strategy.StrategyID,
			StrategyName:         strategy.StrategyName,
			StrategyType:         strategy.StrategyType,
			PortfolioAllocation:  allocation,
			Backtest:             run,
			Metrics:              s.calculator.Calculate(&run.History),
			RebalanceFrequency:   req.Config.RebalanceFrequency,
			TransactionCost:      req.Config.TransactionCost,
			SimulationPeriodDays: req.Config.SimulationPeriodDays,
		})
	}

	return results, nil
}

// recommendations assembles the user-facing recommendation list from
// the comparison outcome and the risk analysis.
func (s *Service) recommendations(
	user *UserPortfolioResult,
	strategies []StrategyResult,
	comparison benchmark.Comparison,
	analysis risk.Analysis,
) []string {
	var recs []string

	if comparison.BestStrategy != nil {
		recs = append(recs, fmt.Sprintf(
			"The highest scoring candidate strategy is %q.", comparison.BestStrategy.Name))

		if best := findStrategy(strategies, comparison.BestStrategy.ID); best != nil {
			improvement := best.Metrics.AnnualReturn - user.Metrics.AnnualReturn
			if improvement > 0.02 {
				recs = append(recs, fmt.Sprintf(
					"Switching to it could improve annual return by about %.1f percentage points.",
					improvement*100))
			}
		}
	}

	riskRecs := analysis.RiskRecommendations
	if len(riskRecs) > 2 {
		riskRecs = riskRecs[:2]
	}
	recs = append(recs, riskRecs...)

	recs = append(recs,
		"Past performance does not guarantee future results; review simulations regularly.")

	return recs
}

func findStrategy(strategies []StrategyResult, id string) *StrategyResult {
	for i := range strategies {
		if strategies[i].StrategyID == id {
			return &strategies[i]
		}
	}
	return nil
}

func chartInput(
	user *UserPortfolioResult,
	strategies []StrategyResult,
	benchmarks map[string]benchmark.Performance,
) charts.Input {
	in := charts.Input{
		UserName:    user.StrategyName,
		UserHistory: user.History,
		UserMetrics: user.Metrics,
		Benchmarks:  benchmarks,
	}
	for _, sr := range strategies {
		in.Strategies = append(in.Strategies, charts.StrategySeries{
			ID:      sr.StrategyID,
			Name:    sr.StrategyName,
			History: &sr.Backtest.History,
			Metrics: sr.Metrics,
		})
	}
	return in
}

// fallbackReport is the minimal well-formed report returned when the
// pipeline cannot complete.
func (s *Service) fallbackReport(simulationID string, cfg domain.SimulationConfig, errMsg string) *ComparisonReport {
	return &ComparisonReport{
		SimulationID:     simulationID,
		SimulationConfig: cfg,
		SimulatedReturns: []StrategyResult{},
		Recommendations:  []string{},
		GeneratedAt:      time.Now(),
		Error:            errMsg,
	}
}

// periodLabel maps a simulation horizon in trading days onto the
// closest benchmark fetch range.
func periodLabel(days int) string {
	switch {
	case days <= 30:
		return "1mo"
	case days <= 90:
		return "3mo"
	case days <= 180:
		return "6mo"
	case days <= 365:
		return "1y"
	default:
		return "2y"
	}
}

// SymbolUniverse collects every symbol a request touches, sorted and
// de-duplicated, for price loading.
func SymbolUniverse(req Request) []string {
	seen := make(map[string]struct{})
	for _, tx := range req.Transactions {
		seen[tx.Symbol] = struct{}{}
	}
	for _, strategy := range req.Strategies {
		for symbol := range strategy.PortfolioAllocation {
			seen[symbol] = struct{}{}
		}
	}

	symbols := make([]string, 0, len(seen))
	for symbol := range seen {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}
