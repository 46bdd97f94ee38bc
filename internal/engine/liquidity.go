package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"swapLedger/internal/fixedpoint"
	"swapLedger/internal/model"
)

// AddLiquidityResult reports a completed deposit.
type AddLiquidityResult struct {
	Minted      uint64 `json:"minted"`
	AmountA     uint64 `json:"amount_a"`
	AmountB     uint64 `json:"amount_b"`
	LockedUntil int64  `json:"locked_until,omitempty"`
}

// RemoveLiquidityResult reports a completed withdrawal. PendingRewards is the
// reward total accrued up to the withdrawal; whether it was paid out depends
// on the engine's reward policy.
type RemoveLiquidityResult struct {
	AmountA        uint64 `json:"amount_a"`
	AmountB        uint64 `json:"amount_b"`
	SharesBurned   uint64 `json:"shares_burned"`
	PendingRewards uint64 `json:"pending_rewards"`
}

// AddLiquidity deposits both assets at the pool's current ratio and mints
// liquidity shares. minLiquidity is the caller's slippage floor on the
// minted amount.
func (e *Engine) AddLiquidity(ctx context.Context, poolID uint64, provider string, amountA, amountB, minLiquidity uint64) (AddLiquidityResult, error) {
	return e.addLiquidity(ctx, poolID, provider, amountA, amountB, minLiquidity, 0)
}

// AddLiquidityWithLock is AddLiquidity plus a time-lock on the position. The
// lock period must be at least the engine's configured minimum.
func (e *Engine) AddLiquidityWithLock(ctx context.Context, poolID uint64, provider string, amountA, amountB, minLiquidity uint64, lockPeriod time.Duration) (AddLiquidityResult, error) {
	if lockPeriod < e.cfg.MinLockPeriod {
		return AddLiquidityResult{}, fmt.Errorf("add liquidity: lock period %s below minimum %s: %w",
			lockPeriod, e.cfg.MinLockPeriod, ErrLockPeriodTooShort)
	}
	return e.addLiquidity(ctx, poolID, provider, amountA, amountB, minLiquidity, lockPeriod)
}

func (e *Engine) addLiquidity(ctx context.Context, poolID uint64, provider string, amountA, amountB, minLiquidity uint64, lockPeriod time.Duration) (AddLiquidityResult, error) {
	if amountA == 0 || amountB == 0 {
		return AddLiquidityResult{}, fmt.Errorf("add liquidity: %w", ErrZeroAmount)
	}

	ps, err := e.getPoolState(poolID)
	if err != nil {
		return AddLiquidityResult{}, err
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	pool := ps.pool

	var minted uint64
	if pool.LiquidityTotal == 0 {
		// First deposit into a drained pool bootstraps like pool creation;
		// no ratio to compare against.
		minted = fixedpoint.Sqrt(amountA, amountB)
	} else {
		if err := checkRatio(pool, amountA, amountB); err != nil {
			return AddLiquidityResult{}, err
		}
		mintA, err := fixedpoint.MulDiv(amountA, pool.LiquidityTotal, pool.ReserveA)
		if err != nil {
			return AddLiquidityResult{}, fmt.Errorf("add liquidity: %w", err)
		}
		mintB, err := fixedpoint.MulDiv(amountB, pool.LiquidityTotal, pool.ReserveB)
		if err != nil {
			return AddLiquidityResult{}, fmt.Errorf("add liquidity: %w", err)
		}
		// The smaller of the two proportional estimates: a skewed deposit
		// cannot mint more shares than its lesser side justifies.
		minted = fixedpoint.Min(mintA, mintB)
	}

	if minted == 0 {
		return AddLiquidityResult{}, fmt.Errorf("add liquidity: deposit too small: %w", ErrInvalidAmount)
	}
	if minted < minLiquidity {
		return AddLiquidityResult{}, fmt.Errorf("add liquidity: minted %d < floor %d: %w", minted, minLiquidity, ErrSlippageTooHigh)
	}

	if amountA > math.MaxUint64-pool.ReserveA || amountB > math.MaxUint64-pool.ReserveB ||
		minted > math.MaxUint64-pool.LiquidityTotal {
		return AddLiquidityResult{}, fmt.Errorf("add liquidity: reserve overflow: %w", ErrInvalidAmount)
	}

	now := e.now()
	pending, err := e.pendingRewards(ps, provider, now)
	if err != nil {
		return AddLiquidityResult{}, err
	}

	if e.transfer != nil {
		if err := e.transfer.Transfer(ctx, provider, e.cfg.ModuleAccount, pool.AssetA, amountA); err != nil {
			return AddLiquidityResult{}, fmt.Errorf("add liquidity: draw %s: %w", pool.AssetA, err)
		}
		if err := e.transfer.Transfer(ctx, provider, e.cfg.ModuleAccount, pool.AssetB, amountB); err != nil {
			e.revertLeg(ctx, poolID, provider, e.cfg.ModuleAccount, provider, pool.AssetA, amountA)
			return AddLiquidityResult{}, fmt.Errorf("add liquidity: draw %s: %w", pool.AssetB, err)
		}
	}
	// The reward leg settles before any state commit; on failure every
	// completed draw is sent back so the provider is made whole.
	if err := e.payRewards(ctx, provider, pending); err != nil {
		if e.transfer != nil {
			e.revertLeg(ctx, poolID, provider, e.cfg.ModuleAccount, provider, pool.AssetB, amountB)
			e.revertLeg(ctx, poolID, provider, e.cfg.ModuleAccount, provider, pool.AssetA, amountA)
		}
		return AddLiquidityResult{}, err
	}

	ps.pool.ReserveA += amountA
	ps.pool.ReserveB += amountB
	ps.pool.LiquidityTotal += minted
	ps.positions[provider] += minted
	e.resetRewards(ps, poolID, provider, now)

	res := AddLiquidityResult{Minted: minted, AmountA: amountA, AmountB: amountB}
	if lockPeriod > 0 {
		lockedUntil := now + int64(lockPeriod/time.Second)
		ps.locks[provider] = model.TimeLock{
			PoolID:      poolID,
			Provider:    provider,
			LockedUntil: lockedUntil,
			LockedAt:    now,
		}
		res.LockedUntil = lockedUntil
	}

	if e.met != nil {
		e.met.LiquidityAdded.WithLabelValues(fmt.Sprintf("%d", poolID)).Add(float64(minted))
	}
	e.log.Info("liquidity added",
		zap.Uint64("pool_id", poolID),
		zap.String("provider", provider),
		zap.Uint64("minted", minted),
		zap.Uint64("amount_a", amountA),
		zap.Uint64("amount_b", amountB),
		zap.Int64("locked_until", res.LockedUntil),
	)
	return res, nil
}

// revertLeg sends a previously executed transfer leg back. A failed revert
// is logged and swallowed; the caller still aborts the operation.
func (e *Engine) revertLeg(ctx context.Context, poolID uint64, provider, from, to, asset string, amount uint64) {
	if err := e.transfer.Transfer(ctx, from, to, asset, amount); err != nil {
		e.log.Error("revert of completed transfer leg failed",
			zap.Uint64("pool_id", poolID),
			zap.String("provider", provider),
			zap.String("asset", asset),
			zap.Uint64("amount", amount),
			zap.Error(err))
	}
}

// checkRatio rejects deposits whose asset ratio deviates from the pool's
// current ratio by more than the tolerance. Both ratios are scaled by 10,000
// with truncating division; boundary-exact deposits pass.
func checkRatio(pool model.Pool, amountA, amountB uint64) error {
	poolRatio, err := fixedpoint.MulDiv(pool.ReserveB, fixedpoint.BpsDenominator, pool.ReserveA)
	if err != nil {
		return fmt.Errorf("ratio check: %w", err)
	}
	depositRatio, err := fixedpoint.MulDiv(amountB, fixedpoint.BpsDenominator, amountA)
	if err != nil {
		return fmt.Errorf("ratio check: %w", err)
	}

	var diff uint64
	if depositRatio > poolRatio {
		diff = depositRatio - poolRatio
	} else {
		diff = poolRatio - depositRatio
	}
	tolerance, err := fixedpoint.MulDiv(poolRatio, RatioToleranceBps, fixedpoint.BpsDenominator)
	if err != nil {
		return fmt.Errorf("ratio check: %w", err)
	}
	if diff > tolerance {
		return fmt.Errorf("deposit ratio %d vs pool ratio %d (tolerance %d): %w",
			depositRatio, poolRatio, tolerance, ErrRatioMismatch)
	}
	return nil
}

// RemoveLiquidity burns shares and pays out the proportional slice of both
// reserves. minAmountA/minAmountB are the caller's per-asset payout floors.
func (e *Engine) RemoveLiquidity(ctx context.Context, poolID uint64, provider string, shares, minAmountA, minAmountB uint64) (RemoveLiquidityResult, error) {
	ps, err := e.getPoolState(poolID)
	if err != nil {
		return RemoveLiquidityResult{}, err
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	now := e.now()
	if lock, ok := ps.locks[provider]; ok && now < lock.LockedUntil {
		return RemoveLiquidityResult{}, fmt.Errorf("remove liquidity: locked until %d: %w", lock.LockedUntil, ErrTimeLockActive)
	}

	if shares == 0 {
		return RemoveLiquidityResult{}, fmt.Errorf("remove liquidity: %w", ErrZeroAmount)
	}
	balance := ps.positions[provider]
	if shares > balance {
		return RemoveLiquidityResult{}, fmt.Errorf("remove liquidity: %d shares held, %d requested: %w", balance, shares, ErrInsufficientShares)
	}
	pool := ps.pool
	if shares > pool.LiquidityTotal {
		return RemoveLiquidityResult{}, fmt.Errorf("remove liquidity: %w", ErrInsufficientLiquidity)
	}

	amountA, err := fixedpoint.MulDiv(shares, pool.ReserveA, pool.LiquidityTotal)
	if err != nil {
		return RemoveLiquidityResult{}, fmt.Errorf("remove liquidity: %w", err)
	}
	amountB, err := fixedpoint.MulDiv(shares, pool.ReserveB, pool.LiquidityTotal)
	if err != nil {
		return RemoveLiquidityResult{}, fmt.Errorf("remove liquidity: %w", err)
	}
	if amountA == 0 || amountB == 0 {
		return RemoveLiquidityResult{}, fmt.Errorf("remove liquidity: payout truncates to zero: %w", ErrInvalidAmount)
	}
	if amountA < minAmountA || amountB < minAmountB {
		return RemoveLiquidityResult{}, fmt.Errorf("remove liquidity: payout (%d, %d) below minimums (%d, %d): %w",
			amountA, amountB, minAmountA, minAmountB, ErrMinOutputNotMet)
	}

	pending, err := e.pendingRewards(ps, provider, now)
	if err != nil {
		return RemoveLiquidityResult{}, err
	}

	if e.transfer != nil {
		if err := e.transfer.Transfer(ctx, e.cfg.ModuleAccount, provider, pool.AssetA, amountA); err != nil {
			return RemoveLiquidityResult{}, fmt.Errorf("remove liquidity: pay out %s: %w", pool.AssetA, err)
		}
		if err := e.transfer.Transfer(ctx, e.cfg.ModuleAccount, provider, pool.AssetB, amountB); err != nil {
			e.revertLeg(ctx, poolID, provider, provider, e.cfg.ModuleAccount, pool.AssetA, amountA)
			return RemoveLiquidityResult{}, fmt.Errorf("remove liquidity: pay out %s: %w", pool.AssetB, err)
		}
	}
	// The reward leg settles before any state commit; on failure every
	// completed payout is clawed back so no shares stay paired with paid
	// reserves.
	if err := e.payRewards(ctx, provider, pending); err != nil {
		if e.transfer != nil {
			e.revertLeg(ctx, poolID, provider, provider, e.cfg.ModuleAccount, pool.AssetB, amountB)
			e.revertLeg(ctx, poolID, provider, provider, e.cfg.ModuleAccount, pool.AssetA, amountA)
		}
		return RemoveLiquidityResult{}, err
	}

	ps.pool.ReserveA -= amountA
	ps.pool.ReserveB -= amountB
	ps.pool.LiquidityTotal -= shares

	remaining := balance - shares
	if remaining == 0 {
		delete(ps.positions, provider)
		delete(ps.locks, provider)
		delete(ps.rewards, provider)
	} else {
		ps.positions[provider] = remaining
		e.resetRewards(ps, poolID, provider, now)
	}

	if e.met != nil {
		e.met.LiquidityRemoved.WithLabelValues(fmt.Sprintf("%d", poolID)).Add(float64(shares))
	}
	e.log.Info("liquidity removed",
		zap.Uint64("pool_id", poolID),
		zap.String("provider", provider),
		zap.Uint64("shares_burned", shares),
		zap.Uint64("amount_a", amountA),
		zap.Uint64("amount_b", amountB),
		zap.Uint64("pending_rewards", pending),
	)

	return RemoveLiquidityResult{
		AmountA:        amountA,
		AmountB:        amountB,
		SharesBurned:   shares,
		PendingRewards: pending,
	}, nil
}

// GetLiquidity returns the provider's position in a pool. A provider with no
// position gets a zero balance, not an error.
func (e *Engine) GetLiquidity(poolID uint64, provider string) (model.LiquidityPosition, error) {
	ps, err := e.getPoolState(poolID)
	if err != nil {
		return model.LiquidityPosition{}, err
	}
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return model.LiquidityPosition{
		PoolID:   poolID,
		Provider: provider,
		Balance:  ps.positions[provider],
	}, nil
}

// GetTimeLock returns the provider's lock record, if any.
func (e *Engine) GetTimeLock(poolID uint64, provider string) (model.TimeLock, bool, error) {
	ps, err := e.getPoolState(poolID)
	if err != nil {
		return model.TimeLock{}, false, err
	}
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	lock, ok := ps.locks[provider]
	return lock, ok, nil
}
