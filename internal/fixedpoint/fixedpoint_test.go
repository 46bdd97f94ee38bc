package fixedpoint

import (
	"math"
	"math/bits"
	"testing"
)

func TestSqrt(t *testing.T) {
	cases := []struct {
		a, b, want uint64
	}{
		{0, 0, 0},
		{1, 1, 1},
		{1000, 1000, 1000},
		{2, 2, 2},
		{3, 3, 3},
		{10, 10, 10},
		{999, 1001, 999},       // floor(sqrt(999999)) = 999
		{1 << 32, 1 << 32, 1 << 32},
		{math.MaxUint64, 1, 4294967295}, // floor(sqrt(2^64-1)) = 2^32-1
	}
	for _, tc := range cases {
		if got := Sqrt(tc.a, tc.b); got != tc.want {
			t.Fatalf("Sqrt(%d, %d) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestSqrt128Large(t *testing.T) {
	cases := []struct {
		a, b, want uint64
	}{
		// Roots at and above 2^63 must be reachable.
		{1 << 63, 1 << 63, 1 << 63},
		{math.MaxUint64, math.MaxUint64, math.MaxUint64},
		{(1 << 63) + 1, 1 << 63, 1 << 63}, // non-square just past 2^126
	}
	for _, tc := range cases {
		hi, lo := bits.Mul64(tc.a, tc.b)
		if got := Sqrt128(hi, lo); got != tc.want {
			t.Fatalf("Sqrt128(%d*%d) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestMulDiv(t *testing.T) {
	got, err := MulDiv(100, 9970, 10000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 99 {
		t.Fatalf("MulDiv(100, 9970, 10000) = %d, want 99 (truncated)", got)
	}

	// Product above 64 bits but quotient within range.
	got, err = MulDiv(math.MaxUint64, 2, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != math.MaxUint64/2 {
		t.Fatalf("MulDiv large = %d, want %d", got, uint64(math.MaxUint64/2))
	}
}

func TestMulDivErrors(t *testing.T) {
	if _, err := MulDiv(1, 1, 0); err == nil {
		t.Fatalf("expected error for zero denominator")
	}
	if _, err := MulDiv(math.MaxUint64, math.MaxUint64, 1); err == nil {
		t.Fatalf("expected overflow error")
	}
}

func TestApplyFeeBps(t *testing.T) {
	after, fee := ApplyFeeBps(100, 30)
	if after != 99 || fee != 1 {
		t.Fatalf("ApplyFeeBps(100, 30) = (%d, %d), want (99, 1)", after, fee)
	}

	after, fee = ApplyFeeBps(10000, 30)
	if after != 9970 || fee != 30 {
		t.Fatalf("ApplyFeeBps(10000, 30) = (%d, %d), want (9970, 30)", after, fee)
	}
}

func TestCmpProduct(t *testing.T) {
	if got := CmpProduct(1000, 1000, 1100, 910); got != -1 {
		t.Fatalf("CmpProduct before/after swap = %d, want -1", got)
	}
	if got := CmpProduct(5, 6, 6, 5); got != 0 {
		t.Fatalf("CmpProduct equal = %d, want 0", got)
	}
	// Products that only differ in the high 64 bits.
	if got := CmpProduct(math.MaxUint64, 3, math.MaxUint64, 2); got != 1 {
		t.Fatalf("CmpProduct high word = %d, want 1", got)
	}
}
