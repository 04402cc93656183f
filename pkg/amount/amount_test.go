package amount

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jup-swap/pkg/types"
)

func TestToSmallestUnits_ExactInUsesInputDecimals(t *testing.T) {
	amt := decimal.RequireFromString("0.001")

	// SOL has 9 decimals, USDC has 6. ExactIn must scale by the input side.
	raw, err := ToSmallestUnits(amt, types.ExactIn, 9, 6)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), raw)
}

func TestToSmallestUnits_ExactOutUsesOutputDecimals(t *testing.T) {
	amt := decimal.RequireFromString("0.001")

	raw, err := ToSmallestUnits(amt, types.ExactOut, 9, 6)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), raw)
}

func TestToSmallestUnits_SwappingDecimalsChangesRawAmount(t *testing.T) {
	amt := decimal.RequireFromString("1.5")

	in, err := ToSmallestUnits(amt, types.ExactIn, 9, 6)
	require.NoError(t, err)
	out, err := ToSmallestUnits(amt, types.ExactOut, 9, 6)
	require.NoError(t, err)

	assert.Equal(t, uint64(1_500_000_000), in)
	assert.Equal(t, uint64(1_500_000), out)
	assert.NotEqual(t, in, out)
}

func TestToSmallestUnits_FloorsFractionalUnits(t *testing.T) {
	// 0.1234567 at 6 decimals leaves a sub-unit remainder that must truncate.
	amt := decimal.RequireFromString("0.1234567")

	raw, err := ToSmallestUnits(amt, types.ExactIn, 6, 9)
	require.NoError(t, err)
	assert.Equal(t, uint64(123_456), raw)
}

func TestToSmallestUnits_RejectsNonPositiveAmounts(t *testing.T) {
	for _, s := range []string{"0", "-1", "-0.000001"} {
		_, err := ToSmallestUnits(decimal.RequireFromString(s), types.ExactIn, 6, 6)
		require.Error(t, err, "amount %s", s)

		var swapErr *types.SwapError
		require.ErrorAs(t, err, &swapErr)
		assert.Equal(t, types.ErrInvalidAmount, swapErr.Kind)
	}
}

func TestToSmallestUnits_RejectsAmountBelowSmallestUnit(t *testing.T) {
	// Positive, but truncates to zero base units.
	_, err := ToSmallestUnits(decimal.RequireFromString("0.0000001"), types.ExactIn, 6, 6)
	require.Error(t, err)

	var swapErr *types.SwapError
	require.ErrorAs(t, err, &swapErr)
	assert.Equal(t, types.ErrInvalidAmount, swapErr.Kind)
}

func TestFromSmallestUnits_RoundTripsWithinTruncation(t *testing.T) {
	cases := []string{"0.001", "1", "1.5", "123.456789", "0.000001"}
	for _, s := range cases {
		amt := decimal.RequireFromString(s)

		raw, err := ToSmallestUnits(amt, types.ExactIn, 6, 9)
		require.NoError(t, err, "amount %s", s)

		back := FromSmallestUnits(raw, 6)
		diff := amt.Sub(back).Abs()
		oneUnit := decimal.New(1, -6)
		assert.True(t, diff.LessThanOrEqual(oneUnit),
			"round trip of %s drifted by %s, more than one base unit", s, diff)
	}
}

func TestRate(t *testing.T) {
	in := decimal.RequireFromString("0.001")
	out := decimal.RequireFromString("0.128476")

	rate := Rate(in, out)
	assert.True(t, rate.Equal(decimal.RequireFromString("128.476")), "got %s", rate)

	assert.True(t, Rate(decimal.Zero, out).IsZero())
}
