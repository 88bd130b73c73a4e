package expmath

import (
	"math"
	"math/big"
	"testing"
)

func mustHalfLife(t *testing.T, t0 uint64, c0 *big.Int, t12, at uint64) *big.Int {
	t.Helper()
	v, err := HalfLife(t0, c0, t12, at)
	if err != nil {
		t.Fatalf("half life: %v", err)
	}
	return v
}

func tokens(n int64) *big.Int {
	one := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	return new(big.Int).Mul(big.NewInt(n), one)
}

func TestHalfLifeExactAtAnchor(t *testing.T) {
	c0 := tokens(1997)
	got := mustHalfLife(t, 100, c0, 20, 100)
	if got.Cmp(c0) != 0 {
		t.Fatalf("value at anchor: got %s want %s", got, c0)
	}
}

func TestHalfLifeExactHalving(t *testing.T) {
	cases := []struct {
		c0       *big.Int
		t12, at  uint64
		expected *big.Int
	}{
		{tokens(1000), 20, 120, tokens(500)},
		{tokens(1000), 20, 140, tokens(250)},
		{tokens(9999), 100, 200, new(big.Int).Rsh(tokens(9999), 1)}, // 4999.5 tokens
	}
	for i, tc := range cases {
		got := mustHalfLife(t, 100, tc.c0, tc.t12, tc.at)
		if got.Cmp(tc.expected) != 0 {
			t.Fatalf("case %d: got %s want %s", i, got, tc.expected)
		}
	}
}

func TestHalfLifeZeroValueShortCircuits(t *testing.T) {
	got := mustHalfLife(t, 0, big.NewInt(0), 75*75*75*75*75, 12345)
	if got.Sign() != 0 {
		t.Fatalf("expected zero, got %s", got)
	}
}

func TestHalfLifeDomainErrors(t *testing.T) {
	if _, err := HalfLife(100, big.NewInt(1), 0, 200); err != ErrDomain {
		t.Fatalf("zero half-life: got %v", err)
	}
	if _, err := HalfLife(100, big.NewInt(1), 20, 99); err != ErrDomain {
		t.Fatalf("time before anchor: got %v", err)
	}
	if _, err := HalfLife(0, big.NewInt(-1), 20, 0); err != ErrDomain {
		t.Fatalf("negative value: got %v", err)
	}
	wide := new(big.Int).Lsh(big.NewInt(1), 200)
	if _, err := HalfLife(0, wide, 20, 0); err != ErrOverflow {
		t.Fatalf("wide value: got %v", err)
	}
}

// The reference cases below follow the float oracle the original calculator
// was validated against; the fixed-point result must agree to well below
// one part in 1e9.
func TestHalfLifeAgainstFloatReference(t *testing.T) {
	t12 := uint64(75 * 75 * 75 * 75 * 75) // 75^5
	cases := []struct {
		t0, at uint64
		c0     *big.Int
	}{
		{100, 110, tokens(1000)},
		{100, 110, tokens(1997)},
		{0, t12 - 1, tokens(1997)},
		{0, t12 - 1, big.NewInt(4503599627370449)},
		{0, t12 - 1, new(big.Int).Mul(big.NewInt(4503599627370449), big.NewInt(1_000_000_000))},
	}
	for i, tc := range cases {
		got := mustHalfLife(t, tc.t0, tc.c0, t12, tc.at)

		c0f, _ := new(big.Float).SetInt(tc.c0).Float64()
		want := c0f * math.Pow(0.5, float64(tc.at-tc.t0)/float64(t12))
		gotf, _ := new(big.Float).SetInt(got).Float64()

		if diff := math.Abs(gotf - want); diff > want*1e-9 {
			t.Fatalf("case %d: got %v want %v (diff %v)", i, gotf, want, diff)
		}
	}
}

func TestHalfLifeMonotone(t *testing.T) {
	c0 := tokens(12345)
	prev := new(big.Int).Set(c0)
	for at := uint64(0); at <= 700; at += 7 {
		got := mustHalfLife(t, 0, c0, 97, at)
		if got.Cmp(prev) > 0 {
			t.Fatalf("value increased at t=%d: %s > %s", at, got, prev)
		}
		prev = got
	}
}

func TestHalfLifeDeepDecayReachesZero(t *testing.T) {
	got := mustHalfLife(t, 0, big.NewInt(1000), 1, 20)
	if got.Sign() != 0 {
		t.Fatalf("expected full decay, got %s", got)
	}
}
