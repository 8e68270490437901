package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/psegatto/algotrade/internal/config"
	"github.com/psegatto/algotrade/internal/engine"
	"github.com/psegatto/algotrade/internal/feed"
	"github.com/psegatto/algotrade/internal/handler"
	"github.com/psegatto/algotrade/internal/metrics"
	"github.com/psegatto/algotrade/internal/pipeline"
	"github.com/psegatto/algotrade/internal/risk"
	"github.com/psegatto/algotrade/internal/service"
	"github.com/psegatto/algotrade/internal/store"
	"github.com/psegatto/algotrade/internal/strategy"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Exchange and per-symbol book.
	exchange := engine.NewExchange()
	exchange.RegisterSymbol(cfg.Symbol)

	// Metrics, positions, and the trade log.
	tradeMetrics := metrics.NewTradeMetrics()
	latencyMetrics := metrics.NewLatencyMetrics()
	positions := risk.NewPositionManager()
	tradeLog := store.NewTradeStore()

	// Risk policy and execution chain: exchange executor wrapped by the
	// rate-limiting throttler.
	riskMgr := risk.NewMaxPositionLimit(positions, cfg.Symbol, cfg.MaxPosition)
	exchangeExec := pipeline.NewExchangeExecutor(exchange, positions, tradeMetrics, latencyMetrics, tradeLog, logger)
	throttler := pipeline.NewThrottler(exchangeExec, cfg.ThrottlePermits, cfg.ThrottleInterval, logger)

	// Strategy and the staged pipeline.
	strat := strategy.NewMeanReversion(cfg.Symbol, cfg.Lookback, cfg.ThresholdBps, cfg.OrderQty)
	pipe := pipeline.New(strat, riskMgr, throttler, latencyMetrics, cfg.StageBuffer, logger)

	// Synthetic market data feed.
	generator := feed.NewGenerator(cfg.Symbol, cfg.InitialPrice, cfg.TickInterval, pipe, logger)

	// Monitoring surface.
	monitorSvc := service.NewMonitorService(exchange, positions, tradeMetrics, latencyMetrics, tradeLog, cfg.VWAPWindow)
	router := handler.NewRouter(monitorSvc, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	throttler.Start(ctx)
	pipe.Start(ctx)
	go generator.Run(ctx)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logger.Info("monitoring server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	logger.Info("trading simulation running",
		slog.String("symbol", cfg.Symbol),
		slog.Int64("max_position", cfg.MaxPosition),
		slog.Int("throttle_permits", cfg.ThrottlePermits),
		slog.Duration("throttle_interval", cfg.ThrottleInterval),
	)

	// Wait for SIGINT/SIGTERM, or for the configured run duration.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runTimeout <-chan time.Time
	if cfg.RunDuration > 0 {
		runTimeout = time.After(cfg.RunDuration)
	}

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case <-runTimeout:
		logger.Info("run duration elapsed", slog.Duration("duration", cfg.RunDuration))
	}

	// Graceful shutdown: stop the feed and throttler refill, drain the
	// pipeline, then stop the HTTP server.
	cancel()
	pipe.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}

	// Final per-symbol report.
	logger.Info("simulation finished",
		slog.String("symbol", cfg.Symbol),
		slog.Int64("cash_flow_cents", tradeMetrics.CashFlow(cfg.Symbol)),
		slog.Float64("fill_ratio", tradeMetrics.FillRatio(cfg.Symbol)),
		slog.Int64("position", positions.Position(cfg.Symbol)),
	)
}
