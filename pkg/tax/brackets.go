// Package tax implements the progressive bracket walk and the simplified
// payroll (FICA) model used by tax brackets and jobs.
package tax

import (
	"sort"

	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// TAX CALCULATION ASSUMPTIONS:
//
// 1. Brackets are marginal: each range only taxes the slice of income between
//    the previous upper bound and its own.
// 2. Rates are stored as fractions (0.05 for 5%).
// 3. The top range may be unbounded; it then taxes everything above the
//    previous bound.
// 4. FICA is simplified: a flat Social Security rate up to a wage cap and a
//    two-tier Medicare rate split at a single threshold.

// Range is one bracket band.
type Range struct {
	UpperBound decimal.Decimal
	Unbounded  bool
	Rate       decimal.Decimal
}

// Covers reports whether the range has the given upper bound.
func (r Range) Covers(upperBound decimal.Decimal, unbounded bool) bool {
	if r.Unbounded || unbounded {
		return r.Unbounded == unbounded
	}
	return r.UpperBound.Equal(upperBound)
}

// Less orders ranges ascending by upper bound with the unbounded range last.
func (r Range) Less(other Range) bool {
	if r.Unbounded {
		return false
	}
	if other.Unbounded {
		return true
	}
	return r.UpperBound.LessThan(other.UpperBound)
}

// SortRanges sorts ranges ascending by upper bound in place.
func SortRanges(ranges []Range) {
	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].Less(ranges[j])
	})
}

// MarginalTax walks the sorted ranges and taxes each slice of income at its
// range's rate. The result is not rounded.
func MarginalTax(ranges []Range, income decimal.Decimal) decimal.Decimal {
	income = mathutil.ClampZero(income)
	total := decimal.Zero
	lower := decimal.Zero
	for i, r := range ranges {
		upper := r.UpperBound
		if r.Unbounded {
			upper = decimal.Max(income, lower)
		}
		var slice decimal.Decimal
		if i == 0 {
			slice = decimal.Min(income, upper)
		} else {
			slice = mathutil.ClampZero(decimal.Min(income, upper).Sub(lower))
		}
		total = total.Add(slice.Mul(r.Rate))
		if income.LessThanOrEqual(upper) {
			break
		}
		lower = upper
	}
	return total
}

// EffectiveRate returns 100*taxed/income rounded to four places, or zero for
// non-positive income.
func EffectiveRate(taxed, income decimal.Decimal) decimal.Decimal {
	if !income.IsPositive() {
		return decimal.Zero
	}
	return mathutil.RoundRate(mathutil.CalculatePercentage(taxed, income))
}

// TaxableAfterDeduction subtracts a deduction from income without going below zero.
func TaxableAfterDeduction(income, deduction decimal.Decimal) decimal.Decimal {
	return mathutil.ClampZero(income.Sub(deduction))
}

// FICACalculator handles the simplified Social Security and Medicare model.
// Rates are percentages.
type FICACalculator struct {
	SocialSecurityRate decimal.Decimal
	SocialSecurityCap  decimal.Decimal
	MedicareRate       decimal.Decimal
	MedicareSurtaxRate decimal.Decimal
	MedicareThreshold  decimal.Decimal
}

// NewFICACalculator creates a FICA calculator with the default rates.
func NewFICACalculator() *FICACalculator {
	return &FICACalculator{
		SocialSecurityRate: decimal.NewFromFloat(constants.DefaultSocialSecurityRate),
		SocialSecurityCap:  decimal.NewFromFloat(constants.DefaultSocialSecurityCap),
		MedicareRate:       decimal.NewFromFloat(constants.DefaultMedicareRate),
		MedicareSurtaxRate: decimal.NewFromFloat(constants.DefaultMedicareSurtax),
		MedicareThreshold:  decimal.NewFromFloat(constants.DefaultMedicareThreshold),
	}
}

// CalculateSocialSecurity taxes wages at the Social Security rate, capped at
// the rate applied to the wage cap.
func (fc *FICACalculator) CalculateSocialSecurity(wages decimal.Decimal) decimal.Decimal {
	wages = mathutil.ClampZero(wages)
	uncapped := mathutil.ApplyPercentage(wages, fc.SocialSecurityRate)
	capped := mathutil.ApplyPercentage(fc.SocialSecurityCap, fc.SocialSecurityRate)
	return decimal.Min(uncapped, capped)
}

// CalculateMedicare taxes wages up to the threshold at the base rate and the
// remainder at the surtax rate.
func (fc *FICACalculator) CalculateMedicare(wages decimal.Decimal) decimal.Decimal {
	wages = mathutil.ClampZero(wages)
	base := decimal.Min(wages, fc.MedicareThreshold)
	above := mathutil.ClampZero(wages.Sub(fc.MedicareThreshold))
	return mathutil.ApplyPercentage(base, fc.MedicareRate).Add(mathutil.ApplyPercentage(above, fc.MedicareSurtaxRate))
}

// CalculateFICA returns Social Security plus Medicare for the wages.
func (fc *FICACalculator) CalculateFICA(wages decimal.Decimal) decimal.Decimal {
	return fc.CalculateSocialSecurity(wages).Add(fc.CalculateMedicare(wages))
}
