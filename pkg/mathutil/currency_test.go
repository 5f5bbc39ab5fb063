package mathutil

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRound(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Round up at midpoint", "1.235", "1.24"},
		{"Round down below midpoint", "1.234", "1.23"},
		{"No rounding needed", "1.23", "1.23"},
		{"Large number", "12345.678", "12345.68"},
		{"Negative number round up", "-1.235", "-1.24"},
		{"Negative number round down", "-1.234", "-1.23"},
		{"Zero", "0", "0"},
		{"Very small positive", "0.001", "0"},
		{"Nearly two cents", "0.019", "0.02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Round(d(tt.input))
			assert.True(t, result.Equal(d(tt.expected)), "Round(%s) = %s, expected %s", tt.input, result, tt.expected)
		})
	}
}

func TestRoundRate(t *testing.T) {
	assert.Equal(t, "5.3333", RoundRate(d("5.333333")).String())
	assert.Equal(t, "0.0001", RoundRate(d("0.00005")).String())
}

func TestSafeDiv(t *testing.T) {
	tests := []struct {
		name        string
		numerator   string
		denominator string
		expected    string
	}{
		{"Regular division", "10", "4", "2.5"},
		{"Zero denominator", "10", "0", "0"},
		{"Zero numerator", "0", "3", "0"},
		{"Negative denominator", "9", "-3", "-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SafeDiv(d(tt.numerator), d(tt.denominator))
			assert.True(t, result.Equal(d(tt.expected)), "SafeDiv = %s, expected %s", result, tt.expected)
		})
	}
}

func TestToleranceHelpers(t *testing.T) {
	assert.True(t, IsZero(d("0.01")))
	assert.True(t, IsZero(d("-0.005")))
	assert.False(t, IsZero(d("0.02")))

	assert.True(t, IsPositive(d("0.011")))
	assert.False(t, IsPositive(d("0.01")))
	assert.False(t, IsPositive(d("-4")))

	assert.True(t, WithinTolerance(d("100.00"), d("100.50"), d("1")))
	assert.False(t, WithinTolerance(d("100.00"), d("101.50"), d("1")))

	assert.True(t, ClampZero(d("-3")).IsZero())
	assert.True(t, ClampZero(d("3")).Equal(d("3")))
}

func TestPercentages(t *testing.T) {
	assert.True(t, CalculatePercentage(d("25"), d("200")).Equal(d("12.5")))
	assert.True(t, CalculatePercentage(d("25"), decimal.Zero).IsZero())
	assert.True(t, ApplyPercentage(d("1000"), d("6.2")).Equal(d("62")))
	assert.True(t, PercentToFraction(d("4")).Equal(d("0.04")))
}

func TestFromAny(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
		ok       bool
	}{
		{"Decimal", d("1.5"), "1.5", true},
		{"Float", 2.25, "2.25", true},
		{"Int", 7, "7", true},
		{"Int64", int64(8), "8", true},
		{"Numeric string", "150.11", "150.11", true},
		{"Non-numeric string", "abc", "0", false},
		{"Bool", true, "0", false},
		{"Nil", nil, "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := FromAny(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, result.Equal(d(tt.expected)), "FromAny(%v) = %s", tt.input, result)
		})
	}
}
