package pricing

import "math/big"

// RationalCurve is the pole/slope marginal price curve
//
//	f(u) = (1-pole)*slope/(u-pole) + (1-slope)
//
// which diverges as utilisation approaches the pole (nearly fully rented)
// and floors near 1-slope when the reserve is idle. Orders that would push
// u to the pole or beyond are rejected, so the pole acts as a hard cap at
// (1-pole) of the reserve.
type RationalCurve struct {
	// Pole is the utilisation asymptote, as a fraction of 1.
	Pole *big.Rat
	// Slope shapes how quickly the multiplier rises off its floor.
	Slope *big.Rat
}

// NewRationalCurve constructs the curve from the two shape parameters.
func NewRationalCurve(pole, slope *big.Rat) *RationalCurve {
	c := &RationalCurve{Pole: new(big.Rat), Slope: new(big.Rat)}
	if pole != nil {
		c.Pole.Set(pole)
	}
	if slope != nil {
		c.Slope.Set(slope)
	}
	return c
}

// DefaultRationalCurve returns the production parameterisation, pole 1/20
// and slope 3/10.
func DefaultRationalCurve() *RationalCurve {
	return NewRationalCurve(big.NewRat(1, 20), big.NewRat(3, 10))
}

// Name identifies the curve variant in configuration.
func (c *RationalCurve) Name() string { return "rational" }

// Quote implements the Curve interface.
func (c *RationalCurve) Quote(reserve, used, amount *big.Int, duration uint64, rate *big.Rat) (*big.Int, error) {
	if err := checkOrder(reserve, used, amount); err != nil {
		return nil, err
	}
	if used == nil {
		used = big.NewInt(0)
	}
	after := new(big.Int).Add(used, amount)

	// The utilisation after the order must stay strictly above the pole.
	if utilisation(reserve, after).Cmp(c.Pole) <= 0 {
		return nil, ErrInsufficientCapacity
	}

	delta := new(big.Rat).Sub(c.h(reserve, after), c.h(reserve, used))
	return feeFromDelta(delta, rate, duration), nil
}

// h is the antiderivative term x*f((reserve-x)/reserve).
func (c *RationalCurve) h(reserve, x *big.Int) *big.Rat {
	if x.Sign() == 0 {
		return new(big.Rat)
	}
	u := utilisation(reserve, x)

	one := big.NewRat(1, 1)
	num := new(big.Rat).Sub(one, c.Pole)
	num.Mul(num, c.Slope)
	den := new(big.Rat).Sub(u, c.Pole)

	f := new(big.Rat).Quo(num, den)
	f.Add(f, new(big.Rat).Sub(one, c.Slope))

	return f.Mul(f, new(big.Rat).SetInt(x))
}
