package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"swapLedger/internal/fixedpoint"
	"swapLedger/internal/model"
)

// CreatePool registers a new pool seeded with the creator's deposit. Initial
// liquidity shares are the geometric mean of the two amounts, the standard
// AMM bootstrap that makes the initial share count independent of the
// deposit ratio.
func (e *Engine) CreatePool(ctx context.Context, creator, assetA, assetB string, amountA, amountB uint64) (uint64, error) {
	if assetA == "" || assetB == "" {
		return 0, fmt.Errorf("create pool: empty asset id: %w", ErrInvalidAsset)
	}
	if assetA == assetB {
		return 0, fmt.Errorf("create pool: %w", ErrSameAsset)
	}
	if amountA == 0 || amountB == 0 {
		return 0, fmt.Errorf("create pool: %w", ErrInvalidAmount)
	}

	shares := fixedpoint.Sqrt(amountA, amountB)
	if shares == 0 {
		return 0, fmt.Errorf("create pool: initial deposit too small: %w", ErrInvalidAmount)
	}

	if e.transfer != nil {
		if err := e.transfer.Transfer(ctx, creator, e.cfg.ModuleAccount, assetA, amountA); err != nil {
			return 0, fmt.Errorf("create pool: draw %s: %w", assetA, err)
		}
		if err := e.transfer.Transfer(ctx, creator, e.cfg.ModuleAccount, assetB, amountB); err != nil {
			if revertErr := e.transfer.Transfer(ctx, e.cfg.ModuleAccount, creator, assetA, amountA); revertErr != nil {
				e.log.Error("revert of first leg failed after second-leg draw failure",
					zap.String("creator", creator), zap.Error(revertErr))
			}
			return 0, fmt.Errorf("create pool: draw %s: %w", assetB, err)
		}
	}

	now := e.now()

	e.mu.Lock()
	e.lastPoolID++
	id := e.lastPoolID
	ps := &poolState{
		pool: model.Pool{
			ID:             id,
			AssetA:         assetA,
			AssetB:         assetB,
			ReserveA:       amountA,
			ReserveB:       amountB,
			LiquidityTotal: shares,
			CreatedAt:      now,
		},
		positions: map[string]uint64{creator: shares},
		locks:     make(map[string]model.TimeLock),
		rewards: map[string]model.RewardState{
			creator: {PoolID: id, Provider: creator, LastClaim: now},
		},
	}
	e.pools[id] = ps
	poolCount := len(e.pools)
	e.mu.Unlock()

	if e.met != nil {
		e.met.PoolsTotal.Set(float64(poolCount))
		e.met.LiquidityAdded.WithLabelValues(fmt.Sprintf("%d", id)).Add(float64(shares))
	}
	e.log.Info("pool created",
		zap.Uint64("pool_id", id),
		zap.String("creator", creator),
		zap.String("asset_a", assetA),
		zap.String("asset_b", assetB),
		zap.Uint64("reserve_a", amountA),
		zap.Uint64("reserve_b", amountB),
		zap.Uint64("liquidity_total", shares),
	)

	return id, nil
}

// GetPool returns a copy of the pool record.
func (e *Engine) GetPool(id uint64) (model.Pool, error) {
	ps, err := e.getPoolState(id)
	if err != nil {
		return model.Pool{}, err
	}
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return ps.pool, nil
}

// PoolCount returns the number of registered pools.
func (e *Engine) PoolCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.pools)
}
