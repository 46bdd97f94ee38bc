package stats

import (
	"swapLedger/internal/model"
)

// Accumulator holds aggregate values for a pool window.
type Accumulator struct {
	PoolID      uint64
	WindowStart int64
	WindowEnd   int64
	SwapCount   uint64
	VolumeIn    uint64
	VolumeOut   uint64
	FeeTotal    uint64
	LastTS      int64
}

func NewAccumulator(rec model.SwapRecord, windowStart, windowEnd int64) *Accumulator {
	return &Accumulator{
		PoolID:      rec.PoolID,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		LastTS:      rec.Timestamp,
	}
}

// Add folds one swap into the window totals. Sums saturate at the uint64
// ceiling rather than wrapping.
func (a *Accumulator) Add(rec model.SwapRecord) {
	if rec.Timestamp >= a.LastTS {
		a.LastTS = rec.Timestamp
	}
	a.VolumeIn = satAdd(a.VolumeIn, rec.AmountIn)
	a.VolumeOut = satAdd(a.VolumeOut, rec.AmountOut)
	a.FeeTotal = satAdd(a.FeeTotal, rec.Fee)
	a.SwapCount++
}

func (a *Accumulator) Metrics(windowSize int64) model.PoolWindowMetrics {
	return model.PoolWindowMetrics{
		PoolID:         a.PoolID,
		WindowSizeSecs: windowSize,
		WindowStart:    a.WindowStart,
		WindowEnd:      a.WindowEnd,
		SwapCount:      a.SwapCount,
		VolumeIn:       a.VolumeIn,
		VolumeOut:      a.VolumeOut,
		FeeTotal:       a.FeeTotal,
	}
}

func satAdd(a, b uint64) uint64 {
	sum := a + b
	if sum < a {
		return ^uint64(0)
	}
	return sum
}
