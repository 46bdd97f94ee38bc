package model

// Snapshot is a full copy of the engine's persisted state, used to save and
// restore across restarts. The field names mirror the persisted tables.
type Snapshot struct {
	Pools        []Pool              `json:"pools"`
	Positions    []LiquidityPosition `json:"positions"`
	TimeLocks    []TimeLock          `json:"time_locks"`
	RewardStates []RewardState       `json:"reward_states"`
	Swaps        []SwapRecord        `json:"swaps"`
	LastPoolID   uint64              `json:"last_pool_id"`
	LastSwapID   uint64              `json:"last_swap_id"`
	PlatformFees uint64              `json:"platform_fees"`
}
