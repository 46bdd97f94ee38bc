package engine

import (
	"fmt"

	"go.uber.org/zap"

	"swapLedger/internal/model"
)

// recordSwap assigns the next swap id, appends the record to the in-memory
// history, and forwards it to the configured sink. Ids increase by exactly
// one per executed swap and are never reused.
func (e *Engine) recordSwap(record model.SwapRecord) uint64 {
	e.histMu.Lock()
	e.lastSwapID++
	record.ID = e.lastSwapID
	e.swaps[record.ID] = record
	e.histMu.Unlock()

	if e.sink != nil {
		// History is authoritative in memory; sink persistence is reported
		// but does not fail the swap.
		if err := e.sink.PutSwapBatch([]model.SwapRecord{record}); err != nil {
			e.log.Error("swap sink write failed", zap.Uint64("swap_id", record.ID), zap.Error(err))
		}
	}
	return record.ID
}

// GetSwap returns the swap record with the given id.
func (e *Engine) GetSwap(id uint64) (model.SwapRecord, error) {
	e.histMu.RLock()
	defer e.histMu.RUnlock()
	rec, ok := e.swaps[id]
	if !ok {
		return model.SwapRecord{}, fmt.Errorf("swap %d: %w", id, ErrSwapNotFound)
	}
	return rec, nil
}

// NextSwapID returns the id the next executed swap will receive.
func (e *Engine) NextSwapID() uint64 {
	e.histMu.RLock()
	defer e.histMu.RUnlock()
	return e.lastSwapID + 1
}
