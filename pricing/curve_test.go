package pricing

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

var oneToken = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

func tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), oneToken)
}

// refRentalFee is the float oracle the fixed-point curves are validated
// against. It is test-only; production quoting never touches float64.
func refRentalFee(basePrice float64, reserves, used, amount float64, duration float64, pole, slope float64) float64 {
	f := func(x float64) float64 {
		return ((1.0-pole)*slope)/(x-pole) + (1.0 - slope)
	}
	h := func(x float64) float64 {
		return x * f((reserves-x)/reserves)
	}
	return (h(used+amount) - h(used)) * basePrice * duration
}

const day = 86400

// 100 tokens per day cost 3 tokens.
func testRate() *big.Rat {
	return BaseRate(tokens(3), tokens(100), day)
}

func toFloatTokens(wei *big.Int) float64 {
	f, _ := new(big.Rat).SetFrac(wei, oneToken).Float64()
	return f
}

func TestRationalQuoteMatchesReference(t *testing.T) {
	curve := DefaultRationalCurve()

	fee, err := curve.Quote(tokens(1_000_000), big.NewInt(0), tokens(500_000), day, testRate())
	require.NoError(t, err)

	want := refRentalFee(3.0/(100.0*day), 1_000_000, 0, 500_000, day, 0.05, 0.3)
	require.InDelta(t, want, toFloatTokens(fee), want*1e-9)
}

func TestRationalAdditivity(t *testing.T) {
	curve := DefaultRationalCurve()
	reserve := tokens(1_000_000)
	rate := testRate()

	single, err := curve.Quote(reserve, big.NewInt(0), tokens(500_000), day, rate)
	require.NoError(t, err)

	first, err := curve.Quote(reserve, big.NewInt(0), tokens(300_000), day, rate)
	require.NoError(t, err)
	second, err := curve.Quote(reserve, tokens(300_000), tokens(200_000), day, rate)
	require.NoError(t, err)

	sum := new(big.Int).Add(first, second)
	require.InDelta(t, toFloatTokens(single), toFloatTokens(sum), 0.1)
}

func TestLogAdditivity(t *testing.T) {
	curve := NewLogCurve(nil)
	reserve := tokens(1_000_000)
	rate := testRate()

	single, err := curve.Quote(reserve, big.NewInt(0), tokens(500_000), day, rate)
	require.NoError(t, err)

	first, err := curve.Quote(reserve, big.NewInt(0), tokens(300_000), day, rate)
	require.NoError(t, err)
	second, err := curve.Quote(reserve, tokens(300_000), tokens(200_000), day, rate)
	require.NoError(t, err)

	sum := new(big.Int).Add(first, second)
	require.InDelta(t, toFloatTokens(single), toFloatTokens(sum), 0.1)
}

func TestLogQuoteMatchesReference(t *testing.T) {
	curve := NewLogCurve(nil)

	fee, err := curve.Quote(tokens(1_000_000), tokens(100_000), tokens(400_000), day, testRate())
	require.NoError(t, err)

	lambda := 1.0
	f := func(u float64) float64 { return 1.0 - lambda*math.Log2(u) }
	h := func(x float64) float64 { return x * f((1_000_000.0-x)/1_000_000.0) }
	want := (h(500_000) - h(100_000)) * (3.0 / (100.0 * day)) * day

	require.InDelta(t, want, toFloatTokens(fee), want*1e-9)
}

func TestQuoteCapacityGuards(t *testing.T) {
	for _, curve := range []Curve{DefaultRationalCurve(), NewLogCurve(nil)} {
		_, err := curve.Quote(tokens(1000), big.NewInt(0), tokens(1001), day, testRate())
		require.ErrorIs(t, err, ErrInsufficientCapacity, curve.Name())

		_, err = curve.Quote(big.NewInt(0), big.NewInt(0), tokens(1), day, testRate())
		require.ErrorIs(t, err, ErrInsufficientCapacity, curve.Name())

		_, err = curve.Quote(tokens(1000), big.NewInt(0), big.NewInt(0), day, testRate())
		require.ErrorIs(t, err, ErrInvalidAmount, curve.Name())
	}
}

func TestRationalPoleIsHardCap(t *testing.T) {
	curve := DefaultRationalCurve()
	// 96% of the reserve crosses the 5% pole.
	_, err := curve.Quote(tokens(1000), big.NewInt(0), tokens(960), day, testRate())
	require.ErrorIs(t, err, ErrInsufficientCapacity)

	// 94% stays above it.
	fee, err := curve.Quote(tokens(1000), big.NewInt(0), tokens(940), day, testRate())
	require.NoError(t, err)
	require.Positive(t, fee.Sign())
}

func TestQuoteMonotoneInUtilisation(t *testing.T) {
	curve := DefaultRationalCurve()
	reserve := tokens(1_000_000)
	rate := testRate()

	low, err := curve.Quote(reserve, big.NewInt(0), tokens(100_000), day, rate)
	require.NoError(t, err)
	high, err := curve.Quote(reserve, tokens(700_000), tokens(100_000), day, rate)
	require.NoError(t, err)

	require.Positive(t, high.Cmp(low), "scarcity must raise the marginal fee")
}

func TestBaseRate(t *testing.T) {
	rate := BaseRate(tokens(3), tokens(100), day)
	require.Equal(t, 0, rate.Cmp(big.NewRat(3, 100*day)))

	require.Zero(t, BaseRate(nil, tokens(1), day).Sign())
	require.Zero(t, BaseRate(tokens(1), tokens(1), 0).Sign())
}
