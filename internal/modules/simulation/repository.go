package simulation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rocky-invest/strategy-sim/internal/database"
	"github.com/rocky-invest/strategy-sim/internal/domain"
)

// Repository persists simulation outcomes to SQLite.
type Repository struct {
	db  *database.DB
	log zerolog.Logger
}

func NewRepository(db *database.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("component", "simulation_repository").Logger(),
	}
}

// Save writes the report's result rows, daily detail rows and the
// comparison row in a single transaction.
func (r *Repository) Save(report *ComparisonReport) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if user := report.UserPortfolioReturn; user != nil {
		allocation, _ := json.Marshal(user.CurrentAllocation)
		if err := r.insertResult(tx, report.SimulationID, resultRow{
			strategyID:   user.StrategyID,
			strategyName: user.StrategyName,
			strategyType: "actual",
			allocation:   string(allocation),
			history:      user.History,
			initialValue: report.SimulationConfig.InitialCapital,
			finalValue:   user.FinalValue,
			metrics:      user.Metrics,
			tradesCount:  user.TotalTransactions,
		}); err != nil {
			return err
		}
		if err := r.insertDetails(tx, report.SimulationID, user.StrategyID, user.History, nil); err != nil {
			return err
		}
	}

	for _, sr := range report.SimulatedReturns {
		allocation, _ := json.Marshal(sr.PortfolioAllocation)
		history := &sr.Backtest.History
		if err := r.insertResult(tx, report.SimulationID, resultRow{
			strategyID:   sr.StrategyID,
			strategyName: sr.StrategyName,
			strategyType: sr.StrategyType,
			allocation:   string(allocation),
			history:      history,
			initialValue: report.SimulationConfig.InitialCapital,
			finalValue:   history.FinalValue(report.SimulationConfig.InitialCapital),
			metrics:      sr.Metrics,
			tradesCount:  len(sr.Backtest.RebalanceDates),
		}); err != nil {
			return err
		}
		if err := r.insertDetails(tx, report.SimulationID, sr.StrategyID, history, sr.Backtest.RebalanceDates); err != nil {
			return err
		}
	}

	if report.ComparisonMetrics != nil {
		if err := r.insertComparison(tx, report); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit simulation results: %w", err)
	}

	r.log.Debug().
		Str("simulation_id", report.SimulationID).
		Int("strategies", len(report.SimulatedReturns)).
		Msg("simulation results saved")
	return nil
}

type resultRow struct {
	strategyID   string
	strategyName string
	strategyType string
	allocation   string
	history      *domain.PortfolioHistory
	initialValue float64
	finalValue   float64
	metrics      domain.PerformanceMetrics
	tradesCount  int
}

func (r *Repository) insertResult(tx *sql.Tx, simulationID string, row resultRow) error {
	var startDate, endDate string
	if row.history != nil && row.history.Len() > 0 {
		startDate = row.history.Dates[0]
		endDate = row.history.Dates[row.history.Len()-1]
	}

	riskMetrics, _ := json.Marshal(row.metrics)

	_, err := tx.Exec(`
		INSERT INTO simulation_results (
			simulation_id, strategy_id, strategy_name, strategy_type,
			portfolio_allocation, simulation_start_date, simulation_end_date,
			initial_value, final_value, total_return, annual_return,
			volatility, max_drawdown, sharpe_ratio, sortino_ratio,
			win_rate, trades_count, risk_metrics
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		simulationID, row.strategyID, row.strategyName, row.strategyType,
		row.allocation, startDate, endDate,
		row.initialValue, row.finalValue,
		row.metrics.TotalReturn, row.metrics.AnnualReturn,
		row.metrics.Volatility, row.metrics.MaxDrawdown,
		row.metrics.SharpeRatio, row.metrics.SortinoRatio,
		row.metrics.WinRate, row.tradesCount, string(riskMetrics),
	)
	if err != nil {
		return fmt.Errorf("insert result for %s: %w", row.strategyID, err)
	}
	return nil
}

func (r *Repository) insertDetails(
	tx *sql.Tx,
	simulationID, strategyID string,
	history *domain.PortfolioHistory,
	rebalanceDates []string,
) error {
	if history == nil || history.Len() == 0 {
		return nil
	}

	rebalance := make(map[string]bool, len(rebalanceDates))
	for _, date := range rebalanceDates {
		rebalance[date] = true
	}

	stmt, err := tx.Prepare(`
		INSERT INTO backtest_details (
			simulation_id, strategy_id, date, portfolio_value,
			daily_return, cumulative_return, drawdown, rebalance_flag
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare detail insert: %w", err)
	}
	defer stmt.Close()

	initial := history.Values[0]
	peak := initial
	for i, date := range history.Dates {
		value := history.Values[i]
		if value > peak {
			peak = value
		}

		var dailyReturn, cumulative, drawdown float64
		if i < len(history.DailyReturns) {
			dailyReturn = history.DailyReturns[i]
		}
		if initial != 0 {
			cumulative = value/initial - 1
		}
		if peak > 0 {
			drawdown = (value - peak) / peak
		}

		if _, err := stmt.Exec(simulationID, strategyID, date, value,
			dailyReturn, cumulative, drawdown, rebalance[date]); err != nil {
			return fmt.Errorf("insert detail for %s on %s: %w", strategyID, date, err)
		}
	}
	return nil
}

func (r *Repository) insertComparison(tx *sql.Tx, report *ComparisonReport) error {
	ids := make([]string, 0, len(report.SimulatedReturns))
	for _, sr := range report.SimulatedReturns {
		ids = append(ids, sr.StrategyID)
	}
	strategies, _ := json.Marshal(ids)
	comparisonMetrics, _ := json.Marshal(report.ComparisonMetrics)

	var bestStrategy string
	if report.ComparisonMetrics.BestStrategy != nil {
		bestStrategy = report.ComparisonMetrics.BestStrategy.Name
	}

	_, err := tx.Exec(`
		INSERT INTO strategy_comparisons (
			simulation_id, comparison_name, strategies,
			comparison_metrics, best_strategy
		) VALUES (?, ?, ?, ?, ?)`,
		report.SimulationID, "comprehensive", string(strategies),
		string(comparisonMetrics), bestStrategy,
	)
	if err != nil {
		return fmt.Errorf("insert comparison: %w", err)
	}
	return nil
}

// Summary is one stored result row, as listed by the history endpoint.
type Summary struct {
	SimulationID string  `json:"simulation_id"`
	StrategyID   string  `json:"strategy_id"`
	StrategyName string  `json:"strategy_name"`
	StrategyType string  `json:"strategy_type"`
	TotalReturn  float64 `json:"total_return"`
	AnnualReturn float64 `json:"annual_return"`
	SharpeRatio  float64 `json:"sharpe_ratio"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	FinalValue   float64 `json:"final_value"`
	CreatedAt    string  `json:"created_at"`
}

// GetSummaries lists the most recent stored results, newest first.
func (r *Repository) GetSummaries(limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(`
		SELECT simulation_id, strategy_id, strategy_name, strategy_type,
			total_return, annual_return, sharpe_ratio, max_drawdown,
			final_value, created_at
		FROM simulation_results
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.SimulationID, &s.StrategyID, &s.StrategyName,
			&s.StrategyType, &s.TotalReturn, &s.AnnualReturn, &s.SharpeRatio,
			&s.MaxDrawdown, &s.FinalValue, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// GetBySimulationID returns all stored result rows for one run.
func (r *Repository) GetBySimulationID(simulationID string) ([]Summary, error) {
	rows, err := r.db.Query(`
		SELECT simulation_id, strategy_id, strategy_name, strategy_type,
			total_return, annual_return, sharpe_ratio, max_drawdown,
			final_value, created_at
		FROM simulation_results
		WHERE simulation_id = ?
		ORDER BY id`, simulationID)
	if err != nil {
		return nil, fmt.Errorf("query simulation %s: %w", simulationID, err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.SimulationID, &s.StrategyID, &s.StrategyName,
			&s.StrategyType, &s.TotalReturn, &s.AnnualReturn, &s.SharpeRatio,
			&s.MaxDrawdown, &s.FinalValue, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// DeleteOlderThan removes every run whose result rows are older than
// the given number of days, including its detail and comparison rows.
// Returns the number of runs removed.
func (r *Repository) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days).Format("2006-01-02 15:04:05")

	tx, err := r.db.Conn().BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin retention transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT DISTINCT simulation_id FROM simulation_results
		WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("query expired runs: %w", err)
	}

	var expired []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan expired run: %w", err)
		}
		expired = append(expired, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, id := range expired {
		for _, table := range []string{"backtest_details", "strategy_comparisons", "simulation_results"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE simulation_id = ?", id); err != nil {
				return 0, fmt.Errorf("delete from %s: %w", table, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit retention: %w", err)
	}

	return int64(len(expired)), nil
}
