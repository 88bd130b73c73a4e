package converter

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iqlabsorg/iq-protocol-go/types"
)

var (
	tst  = types.Asset{Symbol: "TST", Decimals: 18}
	usdc = types.Asset{Symbol: "USDC", Decimals: 6}
)

func tokens(n int64, decimals uint8) *big.Int {
	one := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Int).Mul(big.NewInt(n), one)
}

func TestDefaultIdentity(t *testing.T) {
	var conv Default

	out, err := conv.Convert(tst, tokens(5, 18), tst)
	require.NoError(t, err)
	require.Equal(t, 0, out.Cmp(tokens(5, 18)))

	_, err = conv.EstimateConvert(usdc, tokens(1, 6), tst)
	require.ErrorIs(t, err, ErrUnsupportedPair)
}

func TestRateTableConversion(t *testing.T) {
	table := NewRateTable()
	// 1 USDC buys 0.35 TST.
	table.SetRate(usdc, tst, big.NewInt(350_000))

	out, err := table.EstimateConvert(usdc, tokens(100, 6), tst)
	require.NoError(t, err)

	want, _ := new(big.Int).SetString("35000000000000000000", 10) // 35 TST
	require.Equal(t, 0, out.Cmp(want))
}

func TestRateTableDownscalesDecimals(t *testing.T) {
	table := NewRateTable()
	// 1 TST sells for 2 USDC.
	table.SetRate(tst, usdc, big.NewInt(2_000_000))

	out, err := table.EstimateConvert(tst, tokens(3, 18), usdc)
	require.NoError(t, err)
	require.Equal(t, 0, out.Cmp(tokens(6, 6)))
}

func TestRateTableUnknownPair(t *testing.T) {
	table := NewRateTable()
	_, err := table.Convert(usdc, tokens(1, 6), tst)
	require.ErrorIs(t, err, ErrUnsupportedPair)

	// Identity never needs a registered rate.
	out, err := table.Convert(usdc, tokens(7, 6), usdc)
	require.NoError(t, err)
	require.Equal(t, 0, out.Cmp(tokens(7, 6)))
}
