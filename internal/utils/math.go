package utils

import (
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// SecureRandomInt returns a random integer between min and max (inclusive) using crypto/rand
func SecureRandomInt(min, max int64) (int64, error) {
	if min > max {
		return 0, fmt.Errorf("min cannot be greater than max")
	}
	diff := new(big.Int).Add(new(big.Int).Sub(big.NewInt(max), big.NewInt(min)), big.NewInt(1))
	n, err := crand.Int(crand.Reader, diff)
	if err != nil {
		return 0, err
	}
	return n.Int64() + min, nil
}

// SecureRandomHex returns n random bytes from crypto/rand, hex encoded
func SecureRandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := crand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// TicketsForAmount returns floor(amount * rate / unit). Non-positive inputs yield zero.
func TicketsForAmount(amount decimal.Decimal, rate, unit int64) int64 {
	if unit <= 0 || rate <= 0 || !amount.IsPositive() {
		return 0
	}
	return amount.Mul(decimal.NewFromInt(rate)).
		Div(decimal.NewFromInt(unit)).
		Floor().
		IntPart()
}

// WholeUnits splits value into complete steps of size step and the remainder
func WholeUnits(value, step int64) (int64, int64) {
	if value <= 0 || step <= 0 {
		return 0, 0
	}
	return value / step, value % step
}
