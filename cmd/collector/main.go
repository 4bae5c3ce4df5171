package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"poolScope/internal/collector"
	"poolScope/internal/config"
	"poolScope/internal/scheduler"
	"poolScope/internal/source"
	"poolScope/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "collector",
		Short:        "Solana liquidity pool snapshot collector",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the collector daemon",
		RunE:  runCollector,
	}

	runCmd.Flags().String("rpc", "", "Solana RPC URL")
	runCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	runCmd.Flags().Duration("fetch-interval", time.Minute, "target period between cycle starts")
	runCmd.Flags().Duration("min-collection-interval", 30*time.Second, "minimum gap between cycles (mingap mode)")
	runCmd.Flags().Int("batch-size", 4, "pools fetched concurrently per batch")
	runCmd.Flags().Duration("base-backoff", 500*time.Millisecond, "initial rate-limit backoff")
	runCmd.Flags().Duration("max-backoff", time.Minute, "rate-limit backoff cap")
	runCmd.Flags().String("schedule-mode", config.ModeFixed, "scheduling policy (fixed, mingap)")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	pricesCmd := &cobra.Command{
		Use:   "prices",
		Short: "Print the latest stored price per pool",
		RunE:  runPrices,
	}
	pricesCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	root.AddCommand(pricesCmd)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Print stored snapshots for a pool over a time range",
		RunE:  runHistory,
	}
	historyCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	historyCmd.Flags().String("pool", "", "pool address")
	historyCmd.Flags().String("from", "", "range start (RFC3339), default 24h ago")
	historyCmd.Flags().String("to", "", "range end (RFC3339), default now")
	root.AddCommand(historyCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// runner is satisfied by both scheduling policies.
type runner interface {
	Run(ctx context.Context) error
	Stop()
}

func runCollector(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src := source.NewClient(cfg.RPCURL)
	defer src.Close()

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}

	backoff := collector.NewBackoff(cfg.BaseBackoff, cfg.MaxBackoff)
	coll := collector.New(collector.Config{BatchSize: cfg.BatchSize}, cfg.Pools, src, backoff, logger)

	var sched runner
	switch cfg.ScheduleMode {
	case config.ModeMinGap:
		sched = scheduler.NewMinGap(scheduler.MinGapConfig{
			TickInterval: cfg.FetchInterval,
			MinGap:       cfg.MinCollectionInterval,
		}, coll, store, logger)
	default:
		sched = scheduler.New(scheduler.Config{
			FetchInterval: cfg.FetchInterval,
		}, coll, store, logger)
	}

	// The termination signal only requests a stop; the run loop keeps a
	// live context so the final batch's fetches and writes can finish.
	go func() {
		<-ctx.Done()
		sched.Stop()
	}()

	logger.Info("collector start",
		zap.String("rpc", cfg.RPCURL),
		zap.Int("pools", len(cfg.Pools)),
		zap.Int("batch_size", cfg.BatchSize),
		zap.String("schedule_mode", cfg.ScheduleMode),
		zap.Duration("fetch_interval", cfg.FetchInterval),
	)

	return sched.Run(context.Background())
}

func runPrices(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}

	ctx := context.Background()
	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	points, err := store.LatestPrices(ctx)
	if err != nil {
		return err
	}
	for _, p := range points {
		fmt.Printf("%s\t%s\t%s\t%s\n", p.PoolAddress, p.Pair, p.Price, p.TakenAt.Format(time.RFC3339))
	}
	return nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}

	pool, _ := cmd.Flags().GetString("pool")
	if pool == "" {
		return fmt.Errorf("pool address is required")
	}

	to := time.Now().UTC()
	from := to.Add(-24 * time.Hour)
	if raw, _ := cmd.Flags().GetString("from"); raw != "" {
		if from, err = time.Parse(time.RFC3339, raw); err != nil {
			return fmt.Errorf("parse from: %w", err)
		}
	}
	if raw, _ := cmd.Flags().GetString("to"); raw != "" {
		if to, err = time.Parse(time.RFC3339, raw); err != nil {
			return fmt.Errorf("parse to: %w", err)
		}
	}

	ctx := context.Background()
	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	snapshots, err := store.History(ctx, pool, from, to)
	if err != nil {
		return err
	}
	for _, s := range snapshots {
		fmt.Printf("%s\t%s\tprice=%s\tliquidity=%s\ttick=%d\n",
			s.TakenAt.Format(time.RFC3339), s.Pair, s.Price, s.Liquidity, s.CurrentTick)
	}
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
