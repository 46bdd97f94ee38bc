package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapLedger/internal/api"
	"swapLedger/internal/capability"
	"swapLedger/internal/config"
	"swapLedger/internal/engine"
	"swapLedger/internal/metrics"
	"swapLedger/internal/storage"
	"swapLedger/internal/storage/postgres"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	engineCfg, err := buildEngineConfig(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithMetrics(metrics.NewEngineMetrics()),
		engine.WithAttestor(capability.NewKeccakAttestor()),
		engine.WithVerifier(capability.Secp256k1Verifier{}),
	}

	var store *postgres.Store
	if cfg.PGDSN != "" {
		store, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		opts = append(opts, engine.WithSwapSink(store))
	} else if cfg.SwapLog != "" {
		opts = append(opts, engine.WithSwapSink(storage.NewJsonlStorage(cfg.SwapLog)))
	}

	eng := engine.New(engineCfg, opts...)

	if store != nil {
		snap, err := store.LoadSnapshot(ctx)
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		if err := eng.Restore(snap); err != nil {
			return fmt.Errorf("restore state: %w", err)
		}
		logger.Info("state restored",
			zap.Int("pools", len(snap.Pools)),
			zap.Int("positions", len(snap.Positions)),
			zap.Uint64("last_swap_id", snap.LastSwapID),
		)
	}

	app := fiber.New()
	api.NewServer(eng, logger).Register(app)

	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: promhttp.Handler()}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server", zap.Error(err))
		}
	}()

	logger.Info("engine start",
		zap.String("listen_addr", cfg.ListenAddr),
		zap.String("metrics_addr", cfg.MetricsAddr),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("swap_log", cfg.SwapLog),
		zap.Uint64("reward_rate", cfg.RewardRate),
		zap.String("reward_policy", cfg.RewardPolicy),
		zap.Duration("min_lock_period", cfg.MinLockPeriod),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(cfg.ListenAddr)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics shutdown", zap.Error(err))
	}

	if store != nil {
		saveCtx, cancelSave := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelSave()
		if err := store.SaveSnapshot(saveCtx, eng.Snapshot()); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		logger.Info("state saved")
	}

	return nil
}

func buildEngineConfig(cfg config.Config) (engine.Config, error) {
	policy := engine.RewardAutoClaim
	switch strings.ToLower(strings.TrimSpace(cfg.RewardPolicy)) {
	case "", "auto-claim":
	case "forfeit":
		policy = engine.RewardForfeit
	default:
		return engine.Config{}, fmt.Errorf("unknown reward policy: %s", cfg.RewardPolicy)
	}

	for _, h := range cfg.ApprovedHashes {
		if _, err := hex.DecodeString(h); err != nil {
			return engine.Config{}, fmt.Errorf("invalid approved hash %q: %w", h, err)
		}
	}

	return engine.Config{
		Owner:          cfg.Owner,
		ModuleAccount:  cfg.ModuleAccount,
		FeeAsset:       cfg.FeeAsset,
		RewardAsset:    cfg.RewardAsset,
		RewardRate:     cfg.RewardRate,
		RewardPolicy:   policy,
		MinLockPeriod:  cfg.MinLockPeriod,
		ApprovedHashes: cfg.ApprovedHashes,
	}, nil
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
