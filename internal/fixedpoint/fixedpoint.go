// Package fixedpoint provides the integer arithmetic primitives for pool
// accounting: 128-bit products, truncating ratio division, and basis-point
// scaling. All divisions truncate toward zero.
package fixedpoint

import (
	"fmt"
	"math/bits"
)

// BpsDenominator is the basis-point scale used across fee and tolerance math.
const BpsDenominator = 10_000

// Sqrt128 returns floor(sqrt(hi:lo)) where hi:lo is a 128-bit unsigned integer.
func Sqrt128(hi, lo uint64) uint64 {
	var low, high uint64 = 0, ^uint64(0)
	var ans uint64
	for low <= high {
		// midpoint without overflowing low+high
		mid := low + (high-low)>>1
		mh, ml := bits.Mul64(mid, mid)
		if mh < hi || (mh == hi && ml <= lo) {
			ans = mid
			if mid == ^uint64(0) {
				break
			}
			low = mid + 1
		} else {
			high = mid - 1
		}
	}
	return ans
}

// Sqrt returns floor(sqrt(a*b)), computing the product at 128-bit width so
// large reserve pairs do not overflow.
func Sqrt(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return Sqrt128(hi, lo)
}

// MulDiv returns floor((a*b)/den) using a 128-bit intermediate product.
// It fails when den is zero or when the quotient does not fit in 64 bits.
func MulDiv(a, b, den uint64) (uint64, error) {
	if den == 0 {
		return 0, fmt.Errorf("muldiv: division by zero")
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= den {
		return 0, fmt.Errorf("muldiv: quotient overflows 64 bits (%d*%d/%d)", a, b, den)
	}
	quo, _ := bits.Div64(hi, lo, den)
	return quo, nil
}

// Mul returns a*b, failing when the product does not fit in 64 bits.
func Mul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, fmt.Errorf("mul: %d*%d overflows 64 bits", a, b)
	}
	return lo, nil
}

// BpsOf returns floor(amount*bps/10000).
func BpsOf(amount, bps uint64) uint64 {
	v, err := MulDiv(amount, bps, BpsDenominator)
	if err != nil {
		// amount*bps/10000 <= amount for bps <= 10000, so overflow here means
		// the caller passed a bps value above the denominator.
		panic(err)
	}
	return v
}

// ApplyFeeBps returns amount reduced by the given basis-point fee, truncated,
// together with the fee that was deducted.
func ApplyFeeBps(amount, feeBps uint64) (after, fee uint64) {
	after = BpsOf(amount, BpsDenominator-feeBps)
	return after, amount - after
}

// CmpProduct compares a1*a2 against b1*b2 at 128-bit width, returning
// -1, 0, or +1. Used for the constant-product invariant check, which must
// not truncate.
func CmpProduct(a1, a2, b1, b2 uint64) int {
	ahi, alo := bits.Mul64(a1, a2)
	bhi, blo := bits.Mul64(b1, b2)
	switch {
	case ahi != bhi:
		if ahi < bhi {
			return -1
		}
		return 1
	case alo != blo:
		if alo < blo {
			return -1
		}
		return 1
	default:
		return 0
	}
}

// Min returns the smaller of a and b.
func Min(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
