package model

// SwapRecord is one executed swap in the append-only history. Records are
// never mutated or deleted once written.
type SwapRecord struct {
	ID             uint64 `json:"id"`
	PoolID         uint64 `json:"pool_id"`
	Trader         string `json:"trader"`
	AssetIn        string `json:"asset_in"`
	AssetOut       string `json:"asset_out"`
	AmountIn       uint64 `json:"amount_in"`
	AmountOut      uint64 `json:"amount_out"`
	Fee            uint64 `json:"fee"`
	PriceImpactBps uint64 `json:"price_impact_bps"`
	Timestamp      int64  `json:"timestamp"`
}
