package model

// LiquidityPosition is a provider's share balance in one pool.
type LiquidityPosition struct {
	PoolID   uint64 `json:"pool_id"`
	Provider string `json:"provider"`
	Balance  uint64 `json:"balance"`
}

// TimeLock blocks withdrawal of a provider's position until LockedUntil.
// Absence of a record means the position is unlocked.
type TimeLock struct {
	PoolID      uint64 `json:"pool_id"`
	Provider    string `json:"provider"`
	LockedUntil int64  `json:"locked_until"`
	LockedAt    int64  `json:"locked_at"`
}

// RewardState tracks farming-reward accrual for a (pool, provider) pair.
// Rewards accrue for time elapsed since LastClaim, scaled by the position
// balance; every mutating liquidity operation resets LastClaim.
type RewardState struct {
	PoolID    uint64 `json:"pool_id"`
	Provider  string `json:"provider"`
	LastClaim int64  `json:"last_claim"`
	Accrued   uint64 `json:"accrued"`
}
