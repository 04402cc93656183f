// Package amount converts between human-readable decimal token amounts and
// the integer smallest-unit amounts the chain understands.
package amount

import (
	"fmt"

	"github.com/shopspring/decimal"

	"jup-swap/pkg/types"
)

// ToSmallestUnits scales a human amount into the token's integer base unit.
// With ExactIn the amount denominates the input token and is scaled by
// fromDecimals; with ExactOut it denominates the output token and is scaled
// by toDecimals. Scaling truncates toward zero; an amount that truncates to
// zero cannot survive conversion to an integer transfer and is rejected.
func ToSmallestUnits(amt decimal.Decimal, mode types.SwapMode, fromDecimals, toDecimals uint8) (uint64, error) {
	if amt.Sign() <= 0 {
		return 0, types.NewSwapError(types.ErrInvalidAmount, fmt.Sprintf("amount must be positive, got %s", amt), nil)
	}

	dec := fromDecimals
	if mode == types.ExactOut {
		dec = toDecimals
	}

	scaled := amt.Shift(int32(dec)).Floor()
	if scaled.Sign() <= 0 {
		return 0, types.NewSwapError(types.ErrInvalidAmount,
			fmt.Sprintf("amount %s is below the smallest unit of a %d-decimal token", amt, dec), nil)
	}

	raw := scaled.BigInt()
	if !raw.IsUint64() {
		return 0, types.NewSwapError(types.ErrInvalidAmount,
			fmt.Sprintf("amount %s overflows u64 at %d decimals", amt, dec), nil)
	}
	return raw.Uint64(), nil
}

// FromSmallestUnits converts an integer base-unit amount back into a human
// decimal amount.
func FromSmallestUnits(raw uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromUint64(raw).Shift(-int32(decimals))
}

// Rate returns how many output tokens one input token bought.
func Rate(amountIn, amountOut decimal.Decimal) decimal.Decimal {
	if amountIn.Sign() == 0 {
		return decimal.Zero
	}
	return amountOut.Div(amountIn)
}
