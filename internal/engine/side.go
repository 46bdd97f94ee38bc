package engine

import "swapLedger/internal/model"

// Side tags which of a pool's two assets an operation refers to. It is
// resolved once per call and threaded through the reserve lookups so the
// A/B branches cannot drift apart.
type Side int

const (
	// SideA means the referenced asset is the pool's asset A.
	SideA Side = iota
	// SideB means the referenced asset is the pool's asset B.
	SideB
)

// resolveSide maps assetIn to its side of the pool.
func resolveSide(p model.Pool, assetIn string) (Side, error) {
	switch assetIn {
	case p.AssetA:
		return SideA, nil
	case p.AssetB:
		return SideB, nil
	default:
		return 0, ErrInvalidAsset
	}
}

// reserves returns (reserveIn, reserveOut) for a swap entering on s.
func (s Side) reserves(p model.Pool) (uint64, uint64) {
	if s == SideA {
		return p.ReserveA, p.ReserveB
	}
	return p.ReserveB, p.ReserveA
}

// assetOut returns the opposite asset of s.
func (s Side) assetOut(p model.Pool) string {
	if s == SideA {
		return p.AssetB
	}
	return p.AssetA
}

// apply commits a swap on s: the full input amount enters the in-side
// reserve, the output leaves the out-side reserve.
func (s Side) apply(p *model.Pool, amountIn, amountOut uint64) {
	if s == SideA {
		p.ReserveA += amountIn
		p.ReserveB -= amountOut
	} else {
		p.ReserveB += amountIn
		p.ReserveA -= amountOut
	}
}
