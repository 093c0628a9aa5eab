package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTicketsForAmount verifies the floor conversion used for wager tickets
func TestTicketsForAmount(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		rate     int64
		unit     int64
		expected int64
	}{
		{"cents are floored", "832.31", 20, 1000, 16},
		{"exact multiple", "1000", 20, 1000, 20},
		{"just below one ticket", "49.99", 20, 1000, 0},
		{"exactly one ticket", "50", 20, 1000, 1},
		{"zero amount", "0", 20, 1000, 0},
		{"negative amount", "-100", 20, 1000, 0},
		{"zero unit guards division", "100", 20, 0, 0},
		{"zero rate", "100000", 0, 1000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TicketsForAmount(decimal.RequireFromString(tt.amount), tt.rate, tt.unit)
			assert.Equal(t, tt.expected, got)
		})
	}
}

// TestWholeUnits verifies the floor-and-carry split used for watch minutes
func TestWholeUnits(t *testing.T) {
	tests := []struct {
		value, step      int64
		whole, remainder int64
	}{
		{185, 60, 3, 5},
		{59, 60, 0, 59},
		{60, 60, 1, 0},
		{0, 60, 0, 0},
		{-10, 60, 0, 0},
		{100, 0, 0, 0},
	}

	for _, tt := range tests {
		whole, rem := WholeUnits(tt.value, tt.step)
		assert.Equal(t, tt.whole, whole, "value %d", tt.value)
		assert.Equal(t, tt.remainder, rem, "value %d", tt.value)
	}
}

// TestSecureRandomInt tests the crypto-backed range generator
func TestSecureRandomInt(t *testing.T) {
	t.Run("returns value within range", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			result, err := SecureRandomInt(1, 10)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, result, int64(1))
			assert.LessOrEqual(t, result, int64(10))
		}
	})

	t.Run("handles min equals max", func(t *testing.T) {
		result, err := SecureRandomInt(42, 42)
		require.NoError(t, err)
		assert.Equal(t, int64(42), result)
	})

	t.Run("rejects inverted range", func(t *testing.T) {
		_, err := SecureRandomInt(10, 5)
		assert.Error(t, err)
	})

	t.Run("produces varied results", func(t *testing.T) {
		results := make(map[int64]bool)
		for i := 0; i < 100; i++ {
			result, err := SecureRandomInt(1, 100)
			require.NoError(t, err)
			results[result] = true
		}
		assert.GreaterOrEqual(t, len(results), 10)
	})
}

func TestSecureRandomHex(t *testing.T) {
	a, err := SecureRandomHex(32)
	require.NoError(t, err)
	b, err := SecureRandomHex(32)
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
