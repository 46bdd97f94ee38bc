package engine

import "errors"

// Sentinel errors returned by engine operations. All failures are synchronous
// and non-retryable; retry, if any, is caller policy.
var (
	// Validation errors.
	ErrInvalidAmount = errors.New("invalid amount")
	ErrZeroAmount    = errors.New("amount cannot be zero")
	ErrSameAsset     = errors.New("pool assets must differ")
	ErrInvalidAsset  = errors.New("asset does not belong to pool")

	// Not-found errors.
	ErrPoolNotFound = errors.New("pool not found")
	ErrSwapNotFound = errors.New("swap not found")

	// Economic-guard errors.
	ErrRatioMismatch         = errors.New("deposit ratio deviates from pool ratio")
	ErrSlippageTooHigh       = errors.New("minted liquidity below minimum")
	ErrMinOutputNotMet       = errors.New("output amount below minimum")
	ErrPriceImpactTooHigh    = errors.New("price impact exceeds ceiling")
	ErrKInvariantViolated    = errors.New("constant product invariant violated")
	ErrInsufficientLiquidity = errors.New("insufficient pool liquidity")
	ErrInsufficientShares    = errors.New("insufficient liquidity shares")

	// Authorization errors.
	ErrNotAuthorized       = errors.New("not authorized")
	ErrInsufficientBalance = errors.New("insufficient accumulated fees")
	ErrInvalidContractHash = errors.New("asset contract not approved")
	ErrInvalidSignature    = errors.New("invalid signature")

	// Temporal errors.
	ErrSwapExpired        = errors.New("swap deadline passed")
	ErrTimeLockActive     = errors.New("liquidity is time-locked")
	ErrLockPeriodTooShort = errors.New("lock period below minimum")
)
