package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"options-edge-lab/internal/config"
	"options-edge-lab/internal/domain"
	"options-edge-lab/internal/logging"
	"options-edge-lab/internal/marketdata"
	"options-edge-lab/internal/observability"
	"options-edge-lab/internal/orchestrator"
	"options-edge-lab/internal/reporting"
	"options-edge-lab/internal/storage"
	chstore "options-edge-lab/internal/storage/clickhouse"
	"options-edge-lab/internal/storage/memory"
	"options-edge-lab/internal/storage/migrations"
	pgstore "options-edge-lab/internal/storage/postgres"
	"options-edge-lab/internal/strategy"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	strategyID := flag.String("strategy", "", "Strategy ID (required), one of: "+strings.Join(strategy.IDs(), ", "))
	segment := flag.String("segment", "NIFTY", "Market segment")
	fromMs := flag.Int64("from-ms", 0, "Window start (ms since epoch, inclusive)")
	toMs := flag.Int64("to-ms", 0, "Window end (ms since epoch, inclusive)")
	seed := flag.Int64("seed", 0, "Monte Carlo seed (0 keeps the config value)")
	trials := flag.Int("trials", 0, "Bootstrap trial count (0 keeps the config value)")

	// Storage
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string for run/report/audit stores")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for candles/snapshots")
	useMemory := flag.Bool("use-memory", false, "In-memory stores with a deterministic synthetic series")
	syntheticSeed := flag.Int64("synthetic-seed", 1, "Seed for the synthetic series (with --use-memory)")
	migrate := flag.Bool("migrate", false, "Apply database migrations before running")

	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logging: %v\n", err)
		os.Exit(1)
	}

	if *strategyID == "" {
		logger.Fatal().Msg("--strategy is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Addr, cfg.Metrics.Path, logger)
	}

	// Assemble stores
	var (
		runStore    storage.RunStore
		reportStore storage.ReportStore
		auditStore  storage.AuditStore
		candleSrc   storage.CandleSource
		snapshotSrc storage.SnapshotSource
	)

	if *useMemory {
		gen := marketdata.DefaultSyntheticConfig
		gen.Seed = *syntheticSeed
		candles := marketdata.Candles(gen)
		snapshots := marketdata.Snapshots(gen, candles)

		memCandles := memory.NewCandleSource()
		memCandles.Load(*segment, candles)
		memSnapshots := memory.NewSnapshotSource()
		memSnapshots.Load(*segment, snapshots)

		runStore = memory.NewRunStore()
		reportStore = memory.NewReportStore()
		auditStore = memory.NewAuditStore()
		candleSrc = memCandles
		snapshotSrc = memSnapshots

		if *fromMs == 0 {
			*fromMs = candles[0].TimestampMs
		}
		if *toMs == 0 {
			*toMs = candles[len(candles)-1].TimestampMs
		}
	} else {
		if *postgresDSN == "" || *clickhouseDSN == "" {
			logger.Fatal().Msg("--postgres-dsn and --clickhouse-dsn are required when not using --use-memory")
		}
		if *fromMs == 0 || *toMs == 0 {
			logger.Fatal().Msg("--from-ms and --to-ms are required when not using --use-memory")
		}

		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to postgres")
		}
		defer pool.Close()

		var conn *chstore.Conn
		if *migrate {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				logger.Fatal().Err(err).Msg("postgres migrations")
			}
			conn, err = migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
			if err != nil {
				logger.Fatal().Err(err).Msg("clickhouse migrations")
			}
		} else {
			conn, err = chstore.NewConn(ctx, *clickhouseDSN)
			if err != nil {
				logger.Fatal().Err(err).Msg("connect to clickhouse")
			}
		}
		defer conn.Close()

		runStore = pgstore.NewRunStore(pool)
		reportStore = pgstore.NewReportStore(pool)
		auditStore = pgstore.NewAuditStore(pool)
		candleSrc = chstore.NewCandleSource(conn)
		snapshotSrc = chstore.NewSnapshotSource(conn)
	}

	params := domain.RunParams{
		StrategyID: strings.ToUpper(*strategyID),
		Segment:    *segment,
		FromMs:     *fromMs,
		ToMs:       *toMs,
		Engine:     cfg.EngineConfig(),
		Robustness: cfg.RobustnessConfig(),
	}
	if *seed != 0 {
		params.Robustness.Seed = *seed
	}
	if *trials != 0 {
		params.Robustness.Trials = *trials
	}

	orch := orchestrator.New(orchestrator.Options{
		RunStore:       runStore,
		ReportStore:    reportStore,
		AuditStore:     auditStore,
		CandleSource:   candleSrc,
		SnapshotSource: snapshotSrc,
		Logger:         logger,
	})

	logger.Info().
		Str("run_id", orchestrator.RunID(params)).
		Str("strategy", params.StrategyID).
		Str("segment", params.Segment).
		Msg("submitting run")

	report, err := orch.Execute(ctx, params)
	if err != nil {
		logger.Fatal().Err(err).Msg("run failed")
	}

	view, err := reporting.NewGenerator(reportStore).Generate(ctx, report.RunID)
	if err != nil {
		logger.Fatal().Err(err).Msg("generate report")
	}
	fmt.Print(reporting.RenderMarkdown(view))

	if report.Status == domain.RunStatusFailed {
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// serveMetrics exposes the Prometheus registry. Errors are logged, not
// fatal: a busy port must not kill a running evaluation.
func serveMetrics(addr, path string, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle(path, observability.Handler())
	logger.Info().Str("addr", addr).Str("path", path).Msg("metrics listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("metrics server stopped")
	}
}
