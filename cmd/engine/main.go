package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "engine",
		Short:        "Constant-product exchange engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the exchange engine HTTP service",
		RunE:  runServe,
	}

	serveCmd.Flags().String("listen-addr", ":8080", "HTTP listen address")
	serveCmd.Flags().String("metrics-addr", ":9090", "Prometheus metrics listen address")
	serveCmd.Flags().String("pg-dsn", "", "Postgres DSN (optional, enables persistence)")
	serveCmd.Flags().String("swap-log", "./data/swaps.jsonl", "swap history JSONL path")
	serveCmd.Flags().String("owner", "", "treasury owner account")
	serveCmd.Flags().String("module-account", "amm-engine", "engine module account")
	serveCmd.Flags().String("fee-asset", "", "asset collected as platform fees")
	serveCmd.Flags().String("reward-asset", "", "asset paid out as rewards")
	serveCmd.Flags().Uint64("reward-rate", 1, "reward units per share per second")
	serveCmd.Flags().String("reward-policy", "auto-claim", "pending rewards on add/remove (auto-claim, forfeit)")
	serveCmd.Flags().Duration("min-lock-period", time.Hour, "minimum liquidity lock period")
	serveCmd.Flags().StringSlice("approved-hash", nil, "approved contract code hashes (comma-separated hex)")
	serveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(serveCmd)

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres schema",
		RunE:  runMigrate,
	}

	migrateCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	migrateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(migrateCmd)

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Aggregate swap history into pool window metrics",
		RunE:  runStats,
	}

	statsCmd.Flags().String("in", "./data/swaps.jsonl", "input swap history JSONL")
	statsCmd.Flags().Duration("window", 5*time.Minute, "aggregation window (e.g. 1m, 5m, 1h)")
	statsCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	statsCmd.Flags().Int("batch-size", 1000, "batch size for DB writes")
	statsCmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	statsCmd.Flags().String("recompute-from", "", "recompute from timestamp (unix seconds or RFC3339)")
	statsCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(statsCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
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
