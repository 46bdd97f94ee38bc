package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"swapLedger/internal/fixedpoint"
	"swapLedger/internal/model"
)

// pendingRewards computes the reward total accrued for provider up to now:
// the stored carry-over plus balance * rate * seconds elapsed since the last
// claim. Caller must hold ps.mu.
func (e *Engine) pendingRewards(ps *poolState, provider string, now int64) (uint64, error) {
	rs, ok := ps.rewards[provider]
	if !ok {
		return 0, nil
	}
	balance := ps.positions[provider]
	elapsed := now - rs.LastClaim
	if elapsed <= 0 || balance == 0 {
		return rs.Accrued, nil
	}

	perSecond, err := fixedpoint.Mul(balance, e.cfg.RewardRate)
	if err != nil {
		return 0, fmt.Errorf("reward accrual: %w", err)
	}
	earned, err := fixedpoint.Mul(perSecond, uint64(elapsed))
	if err != nil {
		return 0, fmt.Errorf("reward accrual: %w", err)
	}
	return rs.Accrued + earned, nil
}

// resetRewards restarts accrual from now with nothing carried over. Caller
// must hold ps.mu.
func (e *Engine) resetRewards(ps *poolState, poolID uint64, provider string, now int64) {
	ps.rewards[provider] = model.RewardState{
		PoolID:    poolID,
		Provider:  provider,
		LastClaim: now,
	}
}

// payRewards settles an accrued reward total according to the configured
// policy. Under RewardForfeit the amount is dropped; under RewardAutoClaim it
// is transferred to the provider in the reward asset.
func (e *Engine) payRewards(ctx context.Context, provider string, amount uint64) error {
	if amount == 0 || e.cfg.RewardPolicy == RewardForfeit {
		return nil
	}
	if e.transfer == nil || e.cfg.RewardAsset == "" {
		return nil
	}
	if err := e.transfer.Transfer(ctx, e.cfg.ModuleAccount, provider, e.cfg.RewardAsset, amount); err != nil {
		return fmt.Errorf("pay rewards: %w", err)
	}
	return nil
}

// ClaimRewards pays out the caller's accrued rewards for a pool and restarts
// accrual from now. The caller must hold a position in the pool.
func (e *Engine) ClaimRewards(ctx context.Context, poolID uint64, caller string) (uint64, error) {
	ps, err := e.getPoolState(poolID)
	if err != nil {
		return 0, err
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.positions[caller] == 0 {
		return 0, fmt.Errorf("claim rewards: no position in pool %d: %w", poolID, ErrNotAuthorized)
	}

	now := e.now()
	total, err := e.pendingRewards(ps, caller, now)
	if err != nil {
		return 0, err
	}

	if total > 0 && e.transfer != nil && e.cfg.RewardAsset != "" {
		if err := e.transfer.Transfer(ctx, e.cfg.ModuleAccount, caller, e.cfg.RewardAsset, total); err != nil {
			return 0, fmt.Errorf("claim rewards: %w", err)
		}
	}

	e.resetRewards(ps, poolID, caller, now)

	if e.met != nil {
		e.met.RewardsClaimed.Add(float64(total))
	}
	e.log.Info("rewards claimed",
		zap.Uint64("pool_id", poolID),
		zap.String("provider", caller),
		zap.Uint64("amount", total),
	)
	return total, nil
}

// GetRewards returns the stored reward state plus the amount that would be
// paid by a claim right now.
func (e *Engine) GetRewards(poolID uint64, provider string) (model.RewardState, uint64, error) {
	ps, err := e.getPoolState(poolID)
	if err != nil {
		return model.RewardState{}, 0, err
	}
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	rs, ok := ps.rewards[provider]
	if !ok {
		return model.RewardState{PoolID: poolID, Provider: provider}, 0, nil
	}
	pending, err := e.pendingRewards(ps, provider, e.now())
	if err != nil {
		return model.RewardState{}, 0, err
	}
	return rs, pending, nil
}
