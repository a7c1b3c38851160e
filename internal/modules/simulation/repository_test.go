package simulation

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocky-invest/strategy-sim/internal/database"
	"github.com/rocky-invest/strategy-sim/internal/domain"
	"github.com/rocky-invest/strategy-sim/internal/modules/backtest"
	"github.com/rocky-invest/strategy-sim/internal/modules/benchmark"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate())

	t.Cleanup(func() { db.Close() })
	return db
}

func sampleReport() *ComparisonReport {
	userHistory := &domain.PortfolioHistory{}
	userHistory.Append("2025-01-02", 100_000_000, nil)
	userHistory.Append("2025-01-03", 101_000_000, nil)

	stratResult := &backtest.Result{RebalanceDates: []string{"2025-01-03"}}
	stratResult.History.Dates = []string{"2025-01-02", "2025-01-03"}
	stratResult.History.Values = []float64{100_000_000, 102_000_000}
	stratResult.History.DailyReturns = []float64{0, 0.02}

	cfg := domain.SimulationConfig{}
	cfg.ApplyDefaults()

	return &ComparisonReport{
		SimulationID:     "sim-test-1",
		SimulationConfig: cfg,
		UserPortfolioReturn: &UserPortfolioResult{
			StrategyID:        domain.UserPortfolioID,
			StrategyName:      "User Portfolio",
			Metrics:           domain.PerformanceMetrics{TotalReturn: 0.01},
			History:           userHistory,
			FinalValue:        101_000_000,
			TotalTransactions: 3,
		},
		SimulatedReturns: []StrategyResult{{
			StrategyID:          "s1",
			StrategyName:        "Balanced",
			StrategyType:        "static",
			PortfolioAllocation: domain.Allocation{"AAA.KR": 1},
			Backtest:            stratResult,
			Metrics:             domain.PerformanceMetrics{TotalReturn: 0.02},
		}},
		ComparisonMetrics: &benchmark.Comparison{
			BestStrategy: &benchmark.BestStrategy{ID: "s1", Name: "Balanced"},
		},
		GeneratedAt: time.Now(),
	}
}

func TestSaveAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())

	require.NoError(t, repo.Save(sampleReport()))

	summaries, err := repo.GetSummaries(10)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	ids := []string{summaries[0].StrategyID, summaries[1].StrategyID}
	assert.Contains(t, ids, domain.UserPortfolioID)
	assert.Contains(t, ids, "s1")
}

func TestGetBySimulationID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())

	require.NoError(t, repo.Save(sampleReport()))

	summaries, err := repo.GetBySimulationID("sim-test-1")
	require.NoError(t, err)
	assert.Len(t, summaries, 2)

	missing, err := repo.GetBySimulationID("nope")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestSaveWritesDailyDetails(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())

	require.NoError(t, repo.Save(sampleReport()))

	var detailRows int
	err := db.QueryRow(`SELECT COUNT(*) FROM backtest_details`).Scan(&detailRows)
	require.NoError(t, err)
	// Two days for the user and two for the strategy
	assert.Equal(t, 4, detailRows)

	var rebalanceFlagged int
	err = db.QueryRow(`SELECT COUNT(*) FROM backtest_details WHERE rebalance_flag = 1`).Scan(&rebalanceFlagged)
	require.NoError(t, err)
	assert.Equal(t, 1, rebalanceFlagged)
}

func TestSaveWritesComparisonRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())

	require.NoError(t, repo.Save(sampleReport()))

	var best string
	err := db.QueryRow(`SELECT best_strategy FROM strategy_comparisons WHERE simulation_id = ?`, "sim-test-1").Scan(&best)
	require.NoError(t, err)
	assert.Equal(t, "Balanced", best)
}

func TestDeleteOlderThanKeepsRecentRuns(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())

	require.NoError(t, repo.Save(sampleReport()))

	deleted, err := repo.DeleteOlderThan(context.Background(), 365)
	require.NoError(t, err)
	assert.Zero(t, deleted)

	summaries, err := repo.GetSummaries(10)
	require.NoError(t, err)
	assert.Len(t, summaries, 2)
}

func TestDeleteOlderThanRemovesExpiredRuns(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db, zerolog.Nop())

	require.NoError(t, repo.Save(sampleReport()))

	// Backdate the stored rows past any retention window
	_, err := db.Exec(`UPDATE simulation_results SET created_at = '2020-01-01 00:00:00'`)
	require.NoError(t, err)

	deleted, err := repo.DeleteOlderThan(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	summaries, err := repo.GetSummaries(10)
	require.NoError(t, err)
	assert.Empty(t, summaries)

	var detailRows int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM backtest_details`).Scan(&detailRows))
	assert.Zero(t, detailRows)
}
