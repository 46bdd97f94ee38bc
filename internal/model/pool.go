package model

// Pool is a paired-asset liquidity pool. Reserves and the share total are
// integer amounts in the assets' smallest units.
type Pool struct {
	ID             uint64 `json:"id"`
	AssetA         string `json:"asset_a"`
	AssetB         string `json:"asset_b"`
	ReserveA       uint64 `json:"reserve_a"`
	ReserveB       uint64 `json:"reserve_b"`
	LiquidityTotal uint64 `json:"liquidity_total"`
	CreatedAt      int64  `json:"created_at"`
}
