package model

// PoolWindowMetrics aggregates the swap history of one pool over a time
// window.
type PoolWindowMetrics struct {
	PoolID         uint64 `json:"pool_id"`
	WindowSizeSecs int64  `json:"window_size_seconds"`
	WindowStart    int64  `json:"window_start_ts"`
	WindowEnd      int64  `json:"window_end_ts"`
	SwapCount      uint64 `json:"swap_count"`
	VolumeIn       uint64 `json:"volume_in"`
	VolumeOut      uint64 `json:"volume_out"`
	FeeTotal       uint64 `json:"fee_total"`
}
