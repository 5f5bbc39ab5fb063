// Package mathutil provides common mathematical utility functions over
// decimal currency values.
package mathutil

import (
	"math"
	"strings"

	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/shopspring/decimal"
)

var (
	hundred   = decimal.NewFromFloat(constants.PercentageMultiplier)
	tolerance = decimal.NewFromFloat(constants.CurrencyTolerance)
)

// Round rounds a value to two decimals, i.e. to represent real currency.
func Round(val decimal.Decimal) decimal.Decimal {
	return val.Round(constants.CurrencyPlaces)
}

// RoundRate rounds a percentage to the precision used for effective rates.
func RoundRate(val decimal.Decimal) decimal.Decimal {
	return val.Round(constants.RatePlaces)
}

// SafeDiv divides numerator by denominator and returns zero instead of
// panicking when the denominator is zero.
func SafeDiv(numerator, denominator decimal.Decimal) decimal.Decimal {
	if denominator.IsZero() {
		return decimal.Zero
	}
	return numerator.Div(denominator)
}

// IsZero checks if a value is effectively zero (within one cent)
func IsZero(val decimal.Decimal) bool {
	return val.Abs().LessThanOrEqual(tolerance)
}

// IsPositive checks if a value is positive (greater than tolerance)
func IsPositive(val decimal.Decimal) bool {
	return val.GreaterThan(tolerance)
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tol decimal.Decimal) bool {
	return val1.Sub(val2).Abs().LessThanOrEqual(tol)
}

// ClampZero returns val, or zero when val is negative.
func ClampZero(val decimal.Decimal) decimal.Decimal {
	if val.IsNegative() {
		return decimal.Zero
	}
	return val
}

// CalculatePercentage calculates what percentage value is of total
func CalculatePercentage(value, total decimal.Decimal) decimal.Decimal {
	return SafeDiv(value, total).Mul(hundred)
}

// ApplyPercentage applies a percentage to a value
func ApplyPercentage(value, percentage decimal.Decimal) decimal.Decimal {
	return value.Mul(PercentToFraction(percentage))
}

// PercentToFraction converts 6.2 into 0.062.
func PercentToFraction(percentage decimal.Decimal) decimal.Decimal {
	return percentage.Div(hundred)
}

// FromAny converts the loosely typed numeric values that arrive at the
// serialization boundary into a decimal. Strings must parse as numbers.
func FromAny(value any) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, true
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero, false
		}
		return *v, true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(v), true
	case float32:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat32(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int32:
		return decimal.NewFromInt32(v), true
	case int64:
		return decimal.NewFromInt(v), true
	case uint:
		return decimal.NewFromInt(int64(v)), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}
