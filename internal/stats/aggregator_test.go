package stats

import (
	"context"
	"path/filepath"
	"testing"

	"swapLedger/internal/model"
)

type memoryMetricsStore struct {
	metrics []model.PoolWindowMetrics
}

func (m *memoryMetricsStore) UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error {
	m.metrics = append(m.metrics, metrics...)
	return nil
}

func swapAt(id, poolID uint64, ts int64, amountIn, amountOut, fee uint64) model.SwapRecord {
	return model.SwapRecord{
		ID:        id,
		PoolID:    poolID,
		Trader:    "alice",
		AssetIn:   "hive",
		AssetOut:  "hbd",
		AmountIn:  amountIn,
		AmountOut: amountOut,
		Fee:       fee,
		Timestamp: ts,
	}
}

func TestAggregatorWindows(t *testing.T) {
	store := &memoryMetricsStore{}
	agg := NewAggregator(Config{WindowSeconds: 3600}, store, nil)

	records := []model.SwapRecord{
		swapAt(1, 1, 1000, 100, 90, 1),
		swapAt(2, 1, 2000, 200, 150, 2),
		swapAt(3, 1, 4000, 50, 40, 1),
		swapAt(4, 2, 1500, 500, 400, 5),
	}

	if err := agg.Run(context.Background(), records); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(store.metrics) != 3 {
		t.Fatalf("windows = %d, want 3", len(store.metrics))
	}

	byKey := make(map[[2]int64]model.PoolWindowMetrics)
	for _, m := range store.metrics {
		byKey[[2]int64{int64(m.PoolID), m.WindowStart}] = m
	}

	first, ok := byKey[[2]int64{1, 0}]
	if !ok {
		t.Fatalf("missing pool 1 window at 0")
	}
	if first.SwapCount != 2 || first.VolumeIn != 300 || first.VolumeOut != 240 || first.FeeTotal != 3 {
		t.Fatalf("pool 1 window 0 = %+v", first)
	}
	if first.WindowEnd != 3600 {
		t.Fatalf("window end = %d, want 3600", first.WindowEnd)
	}

	second, ok := byKey[[2]int64{1, 3600}]
	if !ok {
		t.Fatalf("missing pool 1 window at 3600")
	}
	if second.SwapCount != 1 || second.VolumeIn != 50 {
		t.Fatalf("pool 1 window 3600 = %+v", second)
	}

	other, ok := byKey[[2]int64{2, 0}]
	if !ok {
		t.Fatalf("missing pool 2 window at 0")
	}
	if other.SwapCount != 1 || other.FeeTotal != 5 {
		t.Fatalf("pool 2 window 0 = %+v", other)
	}
}

func TestAggregatorSkipsProcessedRecords(t *testing.T) {
	dir := t.TempDir()
	state := &FileStateStore{Path: filepath.Join(dir, "state.json")}

	store := &memoryMetricsStore{}
	agg := NewAggregator(Config{WindowSeconds: 3600, StateStore: state}, store, nil)

	records := []model.SwapRecord{
		swapAt(1, 1, 1000, 100, 90, 1),
		swapAt(2, 1, 2000, 200, 150, 2),
	}
	if err := agg.Run(context.Background(), records); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(store.metrics) != 1 {
		t.Fatalf("windows = %d, want 1", len(store.metrics))
	}

	rerun := NewAggregator(Config{WindowSeconds: 3600, StateStore: state}, store, nil)
	if err := rerun.Run(context.Background(), records); err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if len(store.metrics) != 1 {
		t.Fatalf("rerun produced new windows: %d", len(store.metrics))
	}
}

func TestAccumulatorSaturates(t *testing.T) {
	max := ^uint64(0)
	acc := NewAccumulator(swapAt(1, 1, 0, max, 0, 0), 0, 3600)
	acc.Add(swapAt(1, 1, 0, max, 0, 0))
	acc.Add(swapAt(2, 1, 1, 10, 0, 0))
	if acc.VolumeIn != max {
		t.Fatalf("volume = %d, want saturation at %d", acc.VolumeIn, max)
	}
}
