package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// PlatformFees returns the accumulated protocol fee balance.
func (e *Engine) PlatformFees() uint64 {
	e.feeMu.Lock()
	defer e.feeMu.Unlock()
	return e.platformFees
}

// WithdrawFees transfers part of the accumulated protocol fees to the owner.
// Only the configured owner may call it.
func (e *Engine) WithdrawFees(ctx context.Context, caller string, amount uint64) error {
	if caller != e.cfg.Owner || e.cfg.Owner == "" {
		return fmt.Errorf("withdraw fees: caller %q is not the owner: %w", caller, ErrNotAuthorized)
	}
	if amount == 0 {
		return fmt.Errorf("withdraw fees: %w", ErrZeroAmount)
	}

	e.feeMu.Lock()
	defer e.feeMu.Unlock()

	if amount > e.platformFees {
		return fmt.Errorf("withdraw fees: %d requested, %d accumulated: %w", amount, e.platformFees, ErrInsufficientBalance)
	}

	if e.transfer != nil && e.cfg.FeeAsset != "" {
		if err := e.transfer.Transfer(ctx, e.cfg.ModuleAccount, e.cfg.Owner, e.cfg.FeeAsset, amount); err != nil {
			return fmt.Errorf("withdraw fees: %w", err)
		}
	}
	e.platformFees -= amount

	if e.met != nil {
		e.met.FeesWithdrawn.Add(float64(amount))
	}
	e.log.Info("fees withdrawn", zap.String("owner", caller), zap.Uint64("amount", amount))
	return nil
}
