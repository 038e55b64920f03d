package remit

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Amounts span the signed 128-bit integer range.
var (
	maxAmount = decimal.NewFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1)), 0)
	minAmount = decimal.NewFromBigInt(new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127)), 0)
)

// ParseAmount parses an integer amount in minor units.
//
// Fractions are rejected rather than rounded, as are values outside the
// signed 128-bit range. Sign is not checked here: rejecting non-positive
// amounts is a ledger rule, not a parsing rule.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if err := CheckAmount(d); err != nil {
		return decimal.Decimal{}, err
	}
	return d.Truncate(0), nil
}

// CheckAmount verifies that d is an integer inside the signed 128-bit range.
func CheckAmount(d decimal.Decimal) error {
	if !d.IsInteger() {
		return fmt.Errorf("amount %s is not an integer", d.String())
	}
	if d.GreaterThan(maxAmount) || d.LessThan(minAmount) {
		return fmt.Errorf("amount %s is outside the 128-bit range", d.String())
	}
	return nil
}
