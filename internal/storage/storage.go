package storage

import "swapLedger/internal/model"

// SwapSink defines a sink for executed swap records.
type SwapSink interface {
	PutSwapBatch(swaps []model.SwapRecord) error
}
