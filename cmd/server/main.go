package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rocky-invest/strategy-sim/internal/clients/yahoo"
	"github.com/rocky-invest/strategy-sim/internal/config"
	"github.com/rocky-invest/strategy-sim/internal/database"
	"github.com/rocky-invest/strategy-sim/internal/events"
	"github.com/rocky-invest/strategy-sim/internal/marketdata"
	"github.com/rocky-invest/strategy-sim/internal/modules/backtest"
	"github.com/rocky-invest/strategy-sim/internal/modules/benchmark"
	"github.com/rocky-invest/strategy-sim/internal/modules/charts"
	"github.com/rocky-invest/strategy-sim/internal/modules/metrics"
	"github.com/rocky-invest/strategy-sim/internal/modules/reconstruction"
	"github.com/rocky-invest/strategy-sim/internal/modules/risk"
	"github.com/rocky-invest/strategy-sim/internal/modules/simulation"
	"github.com/rocky-invest/strategy-sim/internal/modules/stress"
	"github.com/rocky-invest/strategy-sim/internal/scheduler"
	"github.com/rocky-invest/strategy-sim/internal/server"
	"github.com/rocky-invest/strategy-sim/pkg/logger"
)

func main() {
	// Load configuration first so the log level is honored
	cfg, err := config.Load()
	if err != nil {
		bootstrap := logger.New(logger.Config{Level: "info", Pretty: true})
		bootstrap.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting strategy simulation service")

	// Initialize results database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Shared infrastructure
	eventManager := events.NewManager(log)
	historyDB := marketdata.NewHistoryDB(cfg.HistoryDir, log)
	yahooClient := yahoo.NewClient(log)

	// Analysis modules
	calculator := metrics.NewCalculator(cfg.RiskFreeRate, cfg.AssumedMarketReturn)
	reconstructor := reconstruction.New(log)
	engine := backtest.NewEngine(log)
	comparator := benchmark.NewComparator(yahooClient, calculator, cfg.BenchmarkFetchDelay, eventManager, log)
	tester := stress.NewTester(cfg.RiskFreeRate, log)
	analyzer := risk.NewAnalyzer(log)
	chartService := charts.NewService(log)

	// Simulation pipeline
	repo := simulation.NewRepository(db, log)
	simService := simulation.NewService(
		reconstructor, engine, calculator, comparator,
		tester, analyzer, chartService, repo, eventManager, log,
	)
	simHandlers := simulation.NewHandlers(simService, repo, historyDB, log)

	// Scheduler and background jobs
	sched := scheduler.New(log)
	sysHandlers := server.NewSystemHandlers(log, db, cfg.HistoryDir, sched)

	retentionJob := scheduler.NewRetentionJob(repo, cfg.RetentionDays, eventManager, log)
	if err := sched.AddJob("0 0 3 * * *", retentionJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register retention job")
	}
	sysHandlers.SetRetentionJob(retentionJob)

	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Port:               cfg.Port,
		Log:                log,
		Config:             cfg,
		SimulationHandlers: simHandlers,
		SystemHandlers:     sysHandlers,
		DevMode:            cfg.DevMode,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
