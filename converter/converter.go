// Package converter quotes and executes asset-to-asset conversion so rental
// fees can be paid in alternate assets. The engine treats it as an external
// collaborator: quotes are pure, and Convert assumes the source amount has
// already been delivered to the converter.
package converter

import (
	"errors"
	"math/big"

	"github.com/iqlabsorg/iq-protocol-go/types"
)

// ErrUnsupportedPair signals a conversion between assets with no registered
// rate. Same-asset conversion is always supported as the identity.
var ErrUnsupportedPair = errors.New("converter: unsupported asset pair")

var errInvalidAmount = errors.New("converter: amount must not be negative")

// Converter is the conversion interface the enterprise engine consumes.
type Converter interface {
	// EstimateConvert quotes how much of target the given source amount
	// is worth. Pure; repeated calls between state changes agree.
	EstimateConvert(source types.Asset, amount *big.Int, target types.Asset) (*big.Int, error)
	// Convert executes the conversion and returns the delivered target
	// amount. Identity conversion carries no fee.
	Convert(source types.Asset, amount *big.Int, target types.Asset) (*big.Int, error)
}

// Default performs only the identity conversion and rejects every real
// pair. It is the converter an enterprise starts with before an exchange
// venue is wired in.
type Default struct{}

// EstimateConvert implements the Converter interface.
func (Default) EstimateConvert(source types.Asset, amount *big.Int, target types.Asset) (*big.Int, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, errInvalidAmount
	}
	if source.Key() != target.Key() {
		return nil, ErrUnsupportedPair
	}
	return new(big.Int).Set(amount), nil
}

// Convert implements the Converter interface.
func (d Default) Convert(source types.Asset, amount *big.Int, target types.Asset) (*big.Int, error) {
	return d.EstimateConvert(source, amount, target)
}

// rateScale is the denominator of registered rates: a rate of 350_000
// means one whole source unit is worth 0.35 whole target units.
var rateScale = big.NewInt(1_000_000)

type pairKey struct {
	source string
	target string
}

// RateTable converts along explicitly registered pairs at fixed rates,
// re-scaling between asset decimals. Rates are directional; register both
// directions for a round-trippable pair.
type RateTable struct {
	rates map[pairKey]*big.Int
}

// NewRateTable constructs an empty rate table.
func NewRateTable() *RateTable {
	return &RateTable{rates: make(map[pairKey]*big.Int)}
}

// SetRate registers the directional rate from source to target, scaled by
// 1e6 per whole source unit.
func (r *RateTable) SetRate(source, target types.Asset, rate *big.Int) {
	if rate == nil || rate.Sign() <= 0 {
		return
	}
	r.rates[pairKey{source.Key(), target.Key()}] = new(big.Int).Set(rate)
}

// EstimateConvert implements the Converter interface.
func (r *RateTable) EstimateConvert(source types.Asset, amount *big.Int, target types.Asset) (*big.Int, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, errInvalidAmount
	}
	if source.Key() == target.Key() {
		return new(big.Int).Set(amount), nil
	}
	rate, ok := r.rates[pairKey{source.Key(), target.Key()}]
	if !ok {
		return nil, ErrUnsupportedPair
	}

	out := new(big.Int).Mul(amount, rate)
	out.Quo(out, rateScale)

	// Re-scale between token decimal conventions.
	if source.Decimals < target.Decimals {
		shift := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(target.Decimals-source.Decimals)), nil)
		out.Mul(out, shift)
	} else if source.Decimals > target.Decimals {
		shift := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(source.Decimals-target.Decimals)), nil)
		out.Quo(out, shift)
	}
	return out, nil
}

// Convert implements the Converter interface.
func (r *RateTable) Convert(source types.Asset, amount *big.Int, target types.Asset) (*big.Int, error) {
	return r.EstimateConvert(source, amount, target)
}
