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

// legacyDeadline is the horizon applied by the deadline-unaware Swap entry
// point, kept for callers that predate deadlines.
const legacyDeadline = 100 * 365 * 24 * time.Hour

// QuoteResult is a read-only swap estimate.
type QuoteResult struct {
	AmountOut      uint64 `json:"amount_out"`
	Fee            uint64 `json:"fee"`
	PriceImpactBps uint64 `json:"price_impact_bps"`
}

// SwapResult reports an executed swap.
type SwapResult struct {
	AmountOut      uint64 `json:"amount_out"`
	FeePaid        uint64 `json:"fee_paid"`
	PriceImpactBps uint64 `json:"price_impact_bps"`
	SwapID         uint64 `json:"swap_id"`
}

// swapPlan is the outcome of the shared quote computation. Both the legacy
// and the deadline-aware paths execute exactly this plan, so their invariant
// checks cannot drift apart.
type swapPlan struct {
	side      Side
	assetOut  string
	fee       uint64
	afterFee  uint64
	amountOut uint64
	impactBps uint64
}

// planSwap computes output, fee, and price impact for a swap against the
// given pool snapshot. It performs the validations that need no clock.
func planSwap(pool model.Pool, assetIn string, amountIn uint64) (swapPlan, error) {
	if amountIn == 0 {
		return swapPlan{}, fmt.Errorf("swap: %w", ErrZeroAmount)
	}
	side, err := resolveSide(pool, assetIn)
	if err != nil {
		return swapPlan{}, fmt.Errorf("swap: asset %q not in pool %d: %w", assetIn, pool.ID, err)
	}
	reserveIn, reserveOut := side.reserves(pool)
	if reserveIn == 0 || reserveOut == 0 {
		return swapPlan{}, fmt.Errorf("swap: empty reserves: %w", ErrInsufficientLiquidity)
	}
	if amountIn > math.MaxUint64-reserveIn {
		return swapPlan{}, fmt.Errorf("swap: reserve overflow: %w", ErrInvalidAmount)
	}

	afterFee, fee := fixedpoint.ApplyFeeBps(amountIn, FeeBps)

	amountOut, err := fixedpoint.MulDiv(reserveOut, afterFee, reserveIn+afterFee)
	if err != nil {
		return swapPlan{}, fmt.Errorf("swap: %w", err)
	}

	// Price impact: basis-point shortfall of the realized output against the
	// pre-trade spot price reserveOut/reserveIn, truncated toward zero.
	var impactBps uint64
	nominal, err := fixedpoint.MulDiv(afterFee, reserveOut, reserveIn)
	if err != nil {
		return swapPlan{}, fmt.Errorf("swap: %w", err)
	}
	if nominal > amountOut {
		impactBps, err = fixedpoint.MulDiv(nominal-amountOut, fixedpoint.BpsDenominator, nominal)
		if err != nil {
			return swapPlan{}, fmt.Errorf("swap: %w", err)
		}
	}

	return swapPlan{
		side:      side,
		assetOut:  side.assetOut(pool),
		fee:       fee,
		afterFee:  afterFee,
		amountOut: amountOut,
		impactBps: impactBps,
	}, nil
}

// Quote estimates a swap without mutating state. Two quotes with identical
// inputs and no intervening mutation return identical results.
func (e *Engine) Quote(poolID uint64, assetIn string, amountIn uint64) (QuoteResult, error) {
	ps, err := e.getPoolState(poolID)
	if err != nil {
		return QuoteResult{}, err
	}
	ps.mu.RLock()
	pool := ps.pool
	ps.mu.RUnlock()

	plan, err := planSwap(pool, assetIn, amountIn)
	if err != nil {
		return QuoteResult{}, err
	}
	return QuoteResult{
		AmountOut:      plan.amountOut,
		Fee:            plan.fee,
		PriceImpactBps: plan.impactBps,
	}, nil
}

// ExecuteSwap trades amountIn of assetIn against the pool. All guards are
// evaluated against the pre-trade reserves before anything is written:
// deadline, drain, zero output, the caller's minimum, the price-impact
// ceiling, and the constant-product invariant with the fee-inclusive input.
func (e *Engine) ExecuteSwap(ctx context.Context, poolID uint64, trader, assetIn string, amountIn, minAmountOut uint64, deadline int64) (SwapResult, error) {
	start := time.Now()
	res, err := e.executeSwap(ctx, poolID, trader, assetIn, amountIn, minAmountOut, deadline)
	if e.met != nil {
		e.met.SwapLatency.Observe(time.Since(start).Seconds())
		status := "success"
		if err != nil {
			status = "failed"
		}
		e.met.SwapsTotal.WithLabelValues(fmt.Sprintf("%d", poolID), assetIn, status).Inc()
	}
	return res, err
}

func (e *Engine) executeSwap(ctx context.Context, poolID uint64, trader, assetIn string, amountIn, minAmountOut uint64, deadline int64) (SwapResult, error) {
	ps, err := e.getPoolState(poolID)
	if err != nil {
		return SwapResult{}, err
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	now := e.now()
	pool := ps.pool

	plan, err := planSwap(pool, assetIn, amountIn)
	if err != nil {
		return SwapResult{}, err
	}
	if now > deadline {
		return SwapResult{}, fmt.Errorf("swap: deadline %d passed at %d: %w", deadline, now, ErrSwapExpired)
	}

	reserveIn, reserveOut := plan.side.reserves(pool)
	if reserveOut <= plan.amountOut {
		return SwapResult{}, fmt.Errorf("swap: output %d would drain reserve %d: %w", plan.amountOut, reserveOut, ErrInsufficientLiquidity)
	}
	if plan.amountOut == 0 {
		return SwapResult{}, fmt.Errorf("swap: output truncates to zero: %w", ErrInvalidAmount)
	}
	if plan.amountOut < minAmountOut {
		return SwapResult{}, fmt.Errorf("swap: output %d below minimum %d: %w", plan.amountOut, minAmountOut, ErrMinOutputNotMet)
	}
	if plan.impactBps > MaxPriceImpactBps {
		return SwapResult{}, fmt.Errorf("swap: price impact %d bps above ceiling %d: %w", plan.impactBps, MaxPriceImpactBps, ErrPriceImpactTooHigh)
	}

	// Constant-product guard with the fee-inclusive input on the input side:
	// fees must never let the product of reserves decrease.
	if fixedpoint.CmpProduct(reserveIn+amountIn, reserveOut-plan.amountOut, reserveIn, reserveOut) < 0 {
		return SwapResult{}, fmt.Errorf("swap: %w", ErrKInvariantViolated)
	}

	if e.transfer != nil {
		if err := e.transfer.Transfer(ctx, trader, e.cfg.ModuleAccount, assetIn, amountIn); err != nil {
			return SwapResult{}, fmt.Errorf("swap: draw input: %w", err)
		}
		if err := e.transfer.Transfer(ctx, e.cfg.ModuleAccount, trader, plan.assetOut, plan.amountOut); err != nil {
			if revertErr := e.transfer.Transfer(ctx, e.cfg.ModuleAccount, trader, assetIn, amountIn); revertErr != nil {
				e.log.Error("revert of input draw failed after output transfer failure",
					zap.Uint64("pool_id", poolID), zap.String("trader", trader), zap.Error(revertErr))
			}
			return SwapResult{}, fmt.Errorf("swap: pay output: %w", err)
		}
	}

	plan.side.apply(&ps.pool, amountIn, plan.amountOut)

	e.feeMu.Lock()
	e.platformFees += plan.fee
	e.feeMu.Unlock()

	record := model.SwapRecord{
		PoolID:         poolID,
		Trader:         trader,
		AssetIn:        assetIn,
		AssetOut:       plan.assetOut,
		AmountIn:       amountIn,
		AmountOut:      plan.amountOut,
		Fee:            plan.fee,
		PriceImpactBps: plan.impactBps,
		Timestamp:      now,
	}
	swapID := e.recordSwap(record)

	if e.met != nil {
		poolIDStr := fmt.Sprintf("%d", poolID)
		e.met.SwapVolume.WithLabelValues(poolIDStr, assetIn).Add(float64(amountIn))
		e.met.SwapFeesCollected.WithLabelValues(poolIDStr).Add(float64(plan.fee))
	}
	e.log.Info("swap executed",
		zap.Uint64("swap_id", swapID),
		zap.Uint64("pool_id", poolID),
		zap.String("trader", trader),
		zap.String("asset_in", assetIn),
		zap.Uint64("amount_in", amountIn),
		zap.Uint64("amount_out", plan.amountOut),
		zap.Uint64("fee", plan.fee),
		zap.Uint64("price_impact_bps", plan.impactBps),
	)

	return SwapResult{
		AmountOut:      plan.amountOut,
		FeePaid:        plan.fee,
		PriceImpactBps: plan.impactBps,
		SwapID:         swapID,
	}, nil
}

// Swap forwards to ExecuteSwap with a far-future deadline. Kept for callers
// unaware of deadlines.
func (e *Engine) Swap(ctx context.Context, poolID uint64, trader, assetIn string, amountIn, minAmountOut uint64) (SwapResult, error) {
	deadline := e.clock.Now().Add(legacyDeadline).Unix()
	return e.ExecuteSwap(ctx, poolID, trader, assetIn, amountIn, minAmountOut, deadline)
}

// ExecuteSwapApproved executes a swap only when assetIn's originating
// contract is on the pre-approved allow-list, as attested by the
// code-attestation collaborator.
func (e *Engine) ExecuteSwapApproved(ctx context.Context, poolID uint64, trader, assetIn string, amountIn, minAmountOut uint64, deadline int64) (SwapResult, error) {
	if e.attestor == nil {
		return SwapResult{}, fmt.Errorf("swap: no attestor configured: %w", ErrInvalidContractHash)
	}
	hash, ok := e.attestor.CodeHash(assetIn)
	if !ok {
		return SwapResult{}, fmt.Errorf("swap: unknown contract for asset %q: %w", assetIn, ErrInvalidContractHash)
	}
	if !e.isApproved(hash) {
		return SwapResult{}, fmt.Errorf("swap: contract for asset %q not on allow-list: %w", assetIn, ErrInvalidContractHash)
	}
	return e.ExecuteSwap(ctx, poolID, trader, assetIn, amountIn, minAmountOut, deadline)
}
