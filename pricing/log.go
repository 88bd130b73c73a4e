package pricing

import "math/big"

// log2FracBits is the fractional precision carried by fixedLog2.
const log2FracBits = 64

// log2WorkBits is the fixed-point width the squaring loop operates in.
const log2WorkBits = 96

// LogCurve is the logarithmic marginal price curve used by an earlier
// protocol revision:
//
//	f(u) = 1 - lambda*log2(u)
//
// log2(u) <= 0 for u in (0,1], so the multiplier is bounded below by 1 and
// grows without bound as the reserve empties.
type LogCurve struct {
	Lambda *big.Rat
}

// NewLogCurve constructs the curve; lambda defaults to 1 when nil.
func NewLogCurve(lambda *big.Rat) *LogCurve {
	c := &LogCurve{Lambda: big.NewRat(1, 1)}
	if lambda != nil {
		c.Lambda.Set(lambda)
	}
	return c
}

// Name identifies the curve variant in configuration.
func (c *LogCurve) Name() string { return "log" }

// Quote implements the Curve interface.
func (c *LogCurve) Quote(reserve, used, amount *big.Int, duration uint64, rate *big.Rat) (*big.Int, error) {
	if err := checkOrder(reserve, used, amount); err != nil {
		return nil, err
	}
	if used == nil {
		used = big.NewInt(0)
	}
	after := new(big.Int).Add(used, amount)
	if after.Cmp(reserve) >= 0 {
		// log2(0) is undefined; the last wei of reserve cannot be rented.
		return nil, ErrInsufficientCapacity
	}

	delta := new(big.Rat).Sub(c.h(reserve, after), c.h(reserve, used))
	return feeFromDelta(delta, rate, duration), nil
}

func (c *LogCurve) h(reserve, x *big.Int) *big.Rat {
	if x.Sign() == 0 {
		return new(big.Rat)
	}
	u := utilisation(reserve, x)

	f := new(big.Rat).Mul(c.Lambda, fixedLog2(u))
	f.Sub(big.NewRat(1, 1), f)

	return f.Mul(f, new(big.Rat).SetInt(x))
}

// fixedLog2 computes log2 of a positive rational with log2FracBits
// fractional bits, using the classic square-and-compare recurrence on a
// 96 bit fixed-point mantissa. The result is returned as a rational so the
// callers can keep composing exactly.
func fixedLog2(u *big.Rat) *big.Rat {
	num := new(big.Int).Set(u.Num())
	den := new(big.Int).Set(u.Denom())

	// Normalise num/den into [1, 2), tracking the integer exponent.
	exp := int64(num.BitLen() - den.BitLen())
	if exp > 0 {
		den = new(big.Int).Lsh(den, uint(exp))
	} else if exp < 0 {
		num = new(big.Int).Lsh(num, uint(-exp))
	}
	if num.Cmp(den) < 0 {
		num.Lsh(num, 1)
		exp--
	}

	// m in [1, 2) as a Q96 fixed-point integer.
	m := new(big.Int).Lsh(num, log2WorkBits)
	m.Quo(m, den)

	two := new(big.Int).Lsh(big.NewInt(1), log2WorkBits+1)
	frac := new(big.Int)
	for i := 0; i < log2FracBits; i++ {
		m.Mul(m, m)
		m.Rsh(m, log2WorkBits)
		frac.Lsh(frac, 1)
		if m.Cmp(two) >= 0 {
			m.Rsh(m, 1)
			frac.Or(frac, big.NewInt(1))
		}
	}

	scale := new(big.Int).Lsh(big.NewInt(1), log2FracBits)
	result := new(big.Rat).SetFrac(frac, scale)
	return result.Add(result, new(big.Rat).SetInt64(exp))
}
