package swap

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	// SOLMint is the wrapped SOL mint the aggregator uses for native SOL.
	SOLMint     = "So11111111111111111111111111111111111111112"
	SOLDecimals = 9
	// DefaultSlippageBps is the fixed slippage tolerance applied to every quote.
	DefaultSlippageBps = 50
)

// ToSmallestUnit converts a human amount into base units, rounding down.
func ToSmallestUnit(amount decimal.Decimal, decimals int32) (uint64, error) {
	if !amount.IsPositive() {
		return 0, fmt.Errorf("amount %s is not positive", amount)
	}
	units := amount.Shift(decimals).Floor().BigInt()
	if !units.IsUint64() {
		return 0, fmt.Errorf("amount %s out of range", amount)
	}
	if units.Uint64() == 0 {
		return 0, fmt.Errorf("amount %s is below one base unit", amount)
	}
	return units.Uint64(), nil
}

// FromSmallestUnit is the inverse of ToSmallestUnit, used for log output.
func FromSmallestUnit(units uint64, decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), -decimals)
}
