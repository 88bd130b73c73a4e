// Package expmath implements the half-life decay calculator the reserve and
// energy ledgers are built on. All arithmetic is integer fixed point: the
// fractional exponent carries 64 bits and intermediates live in 256 bit
// words, so results are bit-reproducible across platforms.
package expmath

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	// ErrDomain signals a query before the anchor time or a non-positive
	// half-life.
	ErrDomain = errors.New("expmath: argument outside function domain")
	// ErrOverflow signals a reference value too wide for the 256 bit
	// intermediate representation.
	ErrOverflow = errors.New("expmath: value exceeds fixed-point range")
)

// MaxValueBits bounds the reference value so value<<64 times a Q64 table
// constant cannot exceed 256 bits. Callers keeping long-lived decaying
// quantities must reject mutations that would push them past this width.
const MaxValueBits = 192 - 64

// HalfLife evaluates c0 * 2^-((t-t0)/t12) without floating point.
//
// The elapsed ratio is split into an integer number of halvings k, applied
// as an exact right shift, and a Q64 fractional remainder r. 2^-r is then
// accumulated by binary exponentiation against the fracPow2 table: one
// multiply per set bit of r, truncating back to the working width after
// each step. The result is floored to an integer.
func HalfLife(t0 uint64, c0 *big.Int, t12 uint64, t uint64) (*big.Int, error) {
	if t12 == 0 || t < t0 {
		return nil, ErrDomain
	}
	if c0 == nil || c0.Sign() < 0 {
		return nil, ErrDomain
	}
	if c0.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if c0.BitLen() > MaxValueBits {
		return nil, ErrOverflow
	}

	dt := t - t0
	k := dt / t12
	rem := dt % t12

	value, overflow := uint256.FromBig(c0)
	if overflow {
		return nil, ErrOverflow
	}
	if k >= uint64(value.BitLen()) {
		return big.NewInt(0), nil
	}
	value.Rsh(value, uint(k))

	if rem == 0 {
		return value.ToBig(), nil
	}

	// r = rem/t12 as a Q64 fixed-point fraction in [0, 1).
	r := new(uint256.Int).Lsh(uint256.NewInt(rem), 64)
	r.Div(r, uint256.NewInt(t12))
	frac := r.Uint64()

	// Accumulator is the value scaled by 2^64; every table multiply
	// consumes the extra 64 bits of the product.
	acc := new(uint256.Int).Lsh(value, 64)
	mul := new(uint256.Int)
	for i := uint(1); i <= 64; i++ {
		if frac&(1<<(64-i)) == 0 {
			continue
		}
		mul.SetUint64(fracPow2[i])
		acc.Mul(acc, mul)
		acc.Rsh(acc, 64)
		if acc.IsZero() {
			return big.NewInt(0), nil
		}
	}
	acc.Rsh(acc, 64)
	return acc.ToBig(), nil
}

// HalfLifeValue is the variant used when the caller already validated the
// anchor; it panics on domain errors instead of returning them. Reserved
// for internal call sites that construct their own anchors.
func HalfLifeValue(t0 uint64, c0 *big.Int, t12 uint64, t uint64) *big.Int {
	v, err := HalfLife(t0, c0, t12, t)
	if err != nil {
		panic(err)
	}
	return v
}
