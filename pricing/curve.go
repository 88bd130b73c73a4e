// Package pricing quotes rental fees as a function of reserve utilisation.
// Each curve defines a marginal price multiplier f(u) of the instantaneous
// utilisation and prices an order as the finite difference of the
// antiderivative h(x) = x*f((R-x)/R). Splitting one order into two
// sequential ones therefore costs the same as a single order for the total,
// because h is evaluated at the true intermediate utilisation each time.
package pricing

import (
	"errors"
	"math/big"
)

var (
	// ErrInvalidAmount signals a non-positive rental amount.
	ErrInvalidAmount = errors.New("pricing: amount must be positive")
	// ErrInsufficientCapacity signals a rental that exceeds the unused
	// reserve or drives utilisation past the curve's admissible range.
	ErrInsufficientCapacity = errors.New("pricing: insufficient reserve capacity")
)

// Curve prices renting amount for duration seconds against the current
// reserve state. The rate is the base price in wei of the quote asset per
// rented wei-second; the fee is returned floored to wei.
//
// Implementations must be referentially transparent: identical inputs give
// identical quotes no matter how often they are evaluated.
type Curve interface {
	Quote(reserve, used, amount *big.Int, duration uint64, rate *big.Rat) (*big.Int, error)
	Name() string
}

// BaseRate derives the per wei-second rate from a human price point: price
// (in quote-asset wei) for renting tokens (in wei) over period seconds.
func BaseRate(price, tokens *big.Int, period uint64) *big.Rat {
	if price == nil || tokens == nil || tokens.Sign() == 0 || period == 0 {
		return new(big.Rat)
	}
	den := new(big.Int).Mul(tokens, new(big.Int).SetUint64(period))
	return new(big.Rat).SetFrac(new(big.Int).Set(price), den)
}

func checkOrder(reserve, used, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if reserve == nil || reserve.Sign() == 0 {
		return ErrInsufficientCapacity
	}
	if used == nil {
		used = big.NewInt(0)
	}
	free := new(big.Int).Sub(reserve, used)
	if free.Cmp(amount) < 0 {
		return ErrInsufficientCapacity
	}
	return nil
}

// utilisation returns (reserve-x)/reserve as an exact rational.
func utilisation(reserve, x *big.Int) *big.Rat {
	num := new(big.Int).Sub(reserve, x)
	return new(big.Rat).SetFrac(num, new(big.Int).Set(reserve))
}

// feeFromDelta scales the antiderivative difference by rate and duration and
// floors the result to integer wei.
func feeFromDelta(delta *big.Rat, rate *big.Rat, duration uint64) *big.Int {
	fee := new(big.Rat).Mul(delta, rate)
	fee.Mul(fee, new(big.Rat).SetUint64(duration))
	return new(big.Int).Quo(fee.Num(), fee.Denom())
}
