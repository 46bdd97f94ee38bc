// Package stats rolls the append-only swap history into per-pool window
// metrics suitable for dashboards and offline analysis.
package stats

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"swapLedger/internal/model"
	"swapLedger/internal/storage"
)

// MetricsStore receives aggregated window metrics.
type MetricsStore interface {
	UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error
}

// Config controls aggregation behavior.
type Config struct {
	WindowSeconds int64
	BatchSize     int
	RecomputeFrom int64
	StateStore    StateStore
}

// Aggregator folds swap records into pool window metrics.
type Aggregator struct {
	cfg          Config
	store        MetricsStore
	logger       *zap.Logger
	accumulators map[uint64]*Accumulator
}

func NewAggregator(cfg Config, store MetricsStore, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Aggregator{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		accumulators: make(map[uint64]*Accumulator),
	}
}

// RunFile aggregates a swap-history JSONL file.
func (a *Aggregator) RunFile(ctx context.Context, inputPath string) error {
	records, err := storage.ReadSwapLog(inputPath)
	if err != nil {
		return fmt.Errorf("read swap log: %w", err)
	}
	return a.Run(ctx, records)
}

// Run aggregates the given swap records. Records must be in history order;
// a record at or before the saved watermark is skipped so reruns over the
// same file are idempotent.
func (a *Aggregator) Run(ctx context.Context, records []model.SwapRecord) error {
	if a.store == nil {
		return fmt.Errorf("store is nil")
	}
	if a.cfg.WindowSeconds <= 0 {
		return fmt.Errorf("window seconds must be > 0")
	}
	if a.cfg.BatchSize <= 0 {
		a.cfg.BatchSize = 1000
	}

	startTs, err := a.loadStartTimestamp(ctx)
	if err != nil {
		return err
	}

	batch := make([]model.PoolWindowMetrics, 0, a.cfg.BatchSize)
	maxTs := startTs
	var total, flushed, skipped int

	for _, rec := range records {
		total++
		if rec.Timestamp <= startTs {
			skipped++
			continue
		}

		winStart := windowStart(rec.Timestamp, a.cfg.WindowSeconds)
		winEnd := winStart + a.cfg.WindowSeconds

		acc := a.accumulators[rec.PoolID]
		if acc == nil {
			acc = NewAccumulator(rec, winStart, winEnd)
			a.accumulators[rec.PoolID] = acc
		} else if acc.WindowStart != winStart {
			batch = append(batch, acc.Metrics(a.cfg.WindowSeconds))
			flushed++
			acc = NewAccumulator(rec, winStart, winEnd)
			a.accumulators[rec.PoolID] = acc
		}

		acc.Add(rec)
		if rec.Timestamp > maxTs {
			maxTs = rec.Timestamp
		}

		if len(batch) >= a.cfg.BatchSize {
			if err := a.store.UpsertWindowMetrics(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]

			if err := a.saveState(ctx); err != nil {
				return err
			}
		}
	}

	for _, acc := range a.accumulators {
		batch = append(batch, acc.Metrics(a.cfg.WindowSeconds))
		flushed++
	}
	a.accumulators = make(map[uint64]*Accumulator)

	if len(batch) > 0 {
		if err := a.store.UpsertWindowMetrics(ctx, batch); err != nil {
			return err
		}
	}

	a.cfg.RecomputeFrom = maxTs
	if err := a.saveState(ctx); err != nil {
		return err
	}

	a.logger.Info("stats aggregate complete",
		zap.Int("total", total),
		zap.Int("windows", flushed),
		zap.Int("skipped", skipped),
	)

	return nil
}

func (a *Aggregator) loadStartTimestamp(ctx context.Context) (int64, error) {
	if a.cfg.RecomputeFrom > 0 {
		return a.cfg.RecomputeFrom - 1, nil
	}
	if a.cfg.StateStore == nil {
		return 0, nil
	}
	last, ok, err := a.cfg.StateStore.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return last, nil
}

func (a *Aggregator) saveState(ctx context.Context) error {
	if a.cfg.StateStore == nil {
		return nil
	}

	if len(a.accumulators) == 0 {
		return a.cfg.StateStore.Save(ctx, a.cfg.RecomputeFrom)
	}

	safeTs := minOpenWindowStart(a.accumulators)
	if safeTs > 0 {
		safeTs = safeTs - 1
	}
	if safeTs == 0 {
		safeTs = a.cfg.RecomputeFrom
	}
	return a.cfg.StateStore.Save(ctx, safeTs)
}

func windowStart(ts int64, windowSec int64) int64 {
	return ts - (ts % windowSec)
}

func minOpenWindowStart(acc map[uint64]*Accumulator) int64 {
	var min int64
	for _, entry := range acc {
		if entry == nil {
			continue
		}
		if min == 0 || entry.WindowStart < min {
			min = entry.WindowStart
		}
	}
	return min
}
