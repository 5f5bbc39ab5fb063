// Package testutil provides common utility functions for testing.
package testutil

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// Dec parses a decimal literal and panics on malformed input.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// AssertDecimal asserts that actual is numerically equal to expected, so
// "1500" matches "1500.00".
func AssertDecimal(t testing.TB, expected string, actual decimal.Decimal, msgAndArgs ...any) bool {
	t.Helper()
	return assert.True(t, actual.Equal(Dec(expected)),
		append([]any{"expected %s, got %s", expected, actual.String()}, msgAndArgs...)...)
}
