package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"options-edge-lab/internal/config"
	"options-edge-lab/internal/domain"
	"options-edge-lab/internal/engine"
	"options-edge-lab/internal/logging"
	"options-edge-lab/internal/marketdata"
	chstore "options-edge-lab/internal/storage/clickhouse"
	"options-edge-lab/internal/strategy"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	strategyID := flag.String("strategy", "", "Strategy ID (required), one of: "+strings.Join(strategy.IDs(), ", "))
	segment := flag.String("segment", "NIFTY", "Market segment")
	fromMs := flag.Int64("from-ms", 0, "Window start (ms since epoch, inclusive)")
	toMs := flag.Int64("to-ms", 0, "Window end (ms since epoch, inclusive)")

	// Data source
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string for candles/snapshots")
	useMemory := flag.Bool("use-memory", false, "Evaluate against a deterministic synthetic series")
	syntheticSeed := flag.Int64("synthetic-seed", 1, "Seed for the synthetic series (with --use-memory)")

	// Output
	outputJSON := flag.Bool("json", false, "Output as JSON")

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
	rule, err := strategy.FromID(strings.ToUpper(*strategyID))
	if err != nil {
		logger.Fatal().Err(err).Str("strategy", *strategyID).Msg("resolve strategy")
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

	candles, snapshots, err := loadMarketData(ctx, *useMemory, *syntheticSeed, *clickhouseDSN, *segment, fromMs, toMs)
	if err != nil {
		logger.Fatal().Err(err).Msg("load market data")
	}

	logger.Info().
		Str("strategy", *strategyID).
		Str("segment", *segment).
		Int("candles", len(candles)).
		Msg("running evaluation")

	eng := engine.New(*segment, rule, cfg.EngineConfig())
	result, err := eng.Run(ctx, candles, snapshots, engine.RunOptions{FromMs: *fromMs, ToMs: *toMs})
	if err != nil {
		logger.Fatal().Err(err).Msg("evaluation failed")
	}

	if *outputJSON {
		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))
		return
	}
	printResult(result)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// loadMarketData resolves the candle and snapshot series, either from a
// seeded synthetic generator or from ClickHouse. In memory mode an
// unset window defaults to the full synthetic series.
func loadMarketData(
	ctx context.Context,
	useMemory bool, syntheticSeed int64,
	clickhouseDSN, segment string,
	fromMs, toMs *int64,
) ([]domain.Candle, []domain.MarketSnapshot, error) {
	if useMemory {
		gen := marketdata.DefaultSyntheticConfig
		gen.Seed = syntheticSeed
		candles := marketdata.Candles(gen)
		snapshots := marketdata.Snapshots(gen, candles)
		if *fromMs == 0 {
			*fromMs = candles[0].TimestampMs
		}
		if *toMs == 0 {
			*toMs = candles[len(candles)-1].TimestampMs
		}
		return candles, snapshots, nil
	}

	if clickhouseDSN == "" {
		return nil, nil, fmt.Errorf("--clickhouse-dsn is required when not using --use-memory")
	}
	if *fromMs == 0 || *toMs == 0 {
		return nil, nil, fmt.Errorf("--from-ms and --to-ms are required when not using --use-memory")
	}

	conn, err := chstore.NewConn(ctx, clickhouseDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	defer conn.Close()

	candles, err := chstore.NewCandleSource(conn).GetByTimeRange(ctx, segment, *fromMs, *toMs)
	if err != nil {
		return nil, nil, fmt.Errorf("load candles: %w", err)
	}
	snapshots, err := chstore.NewSnapshotSource(conn).GetByTimeRange(ctx, segment, *fromMs, *toMs)
	if err != nil {
		return nil, nil, fmt.Errorf("load snapshots: %w", err)
	}
	return candles, snapshots, nil
}

// printResult outputs a human-readable evaluation summary.
func printResult(r *engine.Result) {
	fmt.Println()
	fmt.Println("=== Evaluation Result ===")
	fmt.Printf("Strategy:        %s\n", r.StrategyID)
	fmt.Printf("Segment:         %s\n", r.Segment)
	fmt.Printf("Bars:            %d\n", r.Bars)
	fmt.Printf("Signals:         %d\n", len(r.Signals))
	fmt.Printf("Trades:          %d\n", r.KPIs.Trades)
	fmt.Printf("W / L / S:       %d / %d / %d\n", r.KPIs.Wins, r.KPIs.Losses, r.KPIs.Scratches)
	fmt.Printf("Win Rate:        %.2f%%\n", r.KPIs.WinRate*100)
	fmt.Printf("Net R:           %.4f\n", r.KPIs.NetR)
	fmt.Printf("Expectancy R:    %.4f\n", r.KPIs.ExpectancyR)
	fmt.Printf("Max Drawdown R:  %.4f\n", r.KPIs.MaxDrawdownR)
	fmt.Printf("Sharpe-like:     %.4f\n", r.KPIs.SharpeLike)

	if len(r.Trades) == 0 {
		return
	}
	fmt.Println()
	fmt.Println("=== Trades ===")
	for _, t := range r.Trades {
		fmt.Printf("%s  %-5s  entry=%.2f exit=%.2f bars=%-3d pnlR=%+.2f  %s (%s)\n",
			t.TradeID[:12], t.Direction, t.EntryPrice, t.ExitPrice, t.BarsHeld, t.PnLR, t.Outcome, t.ExitReason)
	}
}
