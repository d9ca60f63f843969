package chain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// DefaultTokenDecimals matches the token contract's decimals().
const DefaultTokenDecimals = 18

// ToSmallestUnit converts a whole-unit amount into the token's smallest
// unit. All display and bet arithmetic stays in whole units; conversion
// happens only here, at the contract boundary.
func ToSmallestUnit(amount int64, decimals int) *big.Int {
	return decimal.NewFromInt(amount).Shift(int32(decimals)).BigInt()
}

// FromSmallestUnit converts a smallest-unit value back to whole units,
// truncating any fractional remainder toward zero.
func FromSmallestUnit(value *big.Int, decimals int) int64 {
	if value == nil {
		return 0
	}
	return decimal.NewFromBigInt(value, -int32(decimals)).IntPart()
}

// ParseSmallestUnit parses a decimal string already expressed in smallest
// units, as returned by the backend's allowance endpoint.
func ParseSmallestUnit(s string) (*big.Int, bool) {
	if s == "" {
		return big.NewInt(0), true
	}
	return new(big.Int).SetString(s, 10)
}
