package planner

import (
	"fmt"
	"slices"

	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/iwvelando/finance-planner/pkg/tax"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TaxBracket field keys.
const (
	FieldTaxType      = "tax_type"
	FieldFilingStatus = "filing_status"
	FieldRanges       = "ranges"
)

// TaxResult is the outcome of applying a bracket to an annual income.
type TaxResult struct {
	IncomeTax      decimal.Decimal
	SocialSecurity decimal.Decimal
	Medicare       decimal.Decimal
	Taxed          decimal.Decimal
	EffectiveRate  decimal.Decimal
	Ok             bool
}

// TaxBracket is a progressive rate schedule for one tax type and filing
// status. Ranges are kept sorted ascending by upper bound, with at most one
// unbounded top range.
type TaxBracket struct {
	Record

	taxType      TaxType
	filingStatus FilingStatus
	ranges       []tax.Range
}

// NewTaxBracket creates a bracket with no ranges. Federal brackets carry the
// standard deduction and payroll tax assumptions.
func NewTaxBracket(name, description string, taxType TaxType, status FilingStatus, opts ...Option) *TaxBracket {
	o := buildOptions(opts)
	b := &TaxBracket{Record: newRecord(name, description, o), taxType: Federal, filingStatus: Single}
	if t, ok := ParseTaxType(string(taxType)); ok {
		b.taxType = t
	}
	if s, ok := ParseFilingStatus(string(status)); ok {
		b.filingStatus = s
	}
	if b.taxType == Federal {
		for key, value := range o.assumptions.fica() {
			b.assumptions[key] = value
		}
		b.assumptions[AssumptionStandardDeduction] = decimal.NewFromFloat(b.filingStatus.StandardDeduction())
	}
	return b
}

// Kind implements Entity.
func (b *TaxBracket) Kind() Kind {
	return KindTaxBracket
}

// TaxType returns the jurisdiction level.
func (b *TaxBracket) TaxType() TaxType {
	return b.taxType
}

// FilingStatus returns the filing status.
func (b *TaxBracket) FilingStatus() FilingStatus {
	return b.filingStatus
}

// SetTaxType changes the jurisdiction level.
func (b *TaxBracket) SetTaxType(value any) bool {
	t, ok := parseEnumAny(value, TaxTypes())
	if !ok {
		b.reject("TaxBracket.SetTaxType", FieldTaxType, value)
		return false
	}
	b.taxType = t
	return true
}

// SetFilingStatus changes the filing status. A standard deduction still at
// the old status default follows the new status.
func (b *TaxBracket) SetFilingStatus(value any) bool {
	s, ok := parseEnumAny(value, FilingStatuses())
	if !ok {
		b.reject("TaxBracket.SetFilingStatus", FieldFilingStatus, value)
		return false
	}
	current, set := b.assumptions[AssumptionStandardDeduction]
	if set && current.Equal(decimal.NewFromFloat(b.filingStatus.StandardDeduction())) {
		b.assumptions[AssumptionStandardDeduction] = decimal.NewFromFloat(s.StandardDeduction())
	}
	b.filingStatus = s
	return true
}

// AddRange inserts a range, or replaces the rate of an existing range with
// the same upper bound. A nil upper bound makes the unbounded top range. The
// rate is a percentage in [0, 100] and is stored as a fraction.
func (b *TaxBracket) AddRange(upperBound, rate any) bool {
	r, ok := b.parseRange(upperBound, rate)
	if !ok {
		b.reject("TaxBracket.AddRange", FieldRanges, fmt.Sprintf("%v@%v", upperBound, rate))
		return false
	}
	if i := b.rangeIndex(r.UpperBound, r.Unbounded); i >= 0 {
		b.ranges[i].Rate = r.Rate
	} else {
		b.ranges = append(b.ranges, r)
		tax.SortRanges(b.ranges)
	}
	return true
}

// RemoveRange removes the range with the given upper bound; nil removes the
// unbounded range.
func (b *TaxBracket) RemoveRange(upperBound any) bool {
	unbounded := upperBound == nil
	bound := decimal.Zero
	if !unbounded {
		v, ok := mathutil.FromAny(upperBound)
		if !ok {
			return false
		}
		bound = v
	}
	i := b.rangeIndex(bound, unbounded)
	if i < 0 {
		return false
	}
	b.ranges = slices.Delete(b.ranges, i, i+1)
	return true
}

// Ranges returns a copy of the sorted ranges.
func (b *TaxBracket) Ranges() []tax.Range {
	return slices.Clone(b.ranges)
}

// StandardDeduction returns the deduction applied before a federal bracket walk.
func (b *TaxBracket) StandardDeduction() decimal.Decimal {
	if b.taxType != Federal {
		return decimal.Zero
	}
	return b.assumption(AssumptionStandardDeduction, decimal.Zero)
}

// FICA returns the payroll tax calculator built from the bracket assumptions.
func (b *TaxBracket) FICA() *tax.FICACalculator {
	return ficaFrom(&b.Record)
}

// Calculate applies the bracket to an annual income. Federal brackets also
// report Social Security and Medicare on the undeducted income. A bracket
// without ranges reports Ok false and zero amounts.
func (b *TaxBracket) Calculate(income decimal.Decimal) TaxResult {
	if len(b.ranges) == 0 {
		b.log().Debug(fmt.Sprintf("%s: no ranges to apply", b.Name),
			zap.String("op", "planner.TaxBracket.Calculate"),
		)
		return TaxResult{}
	}

	result := TaxResult{Ok: true}
	taxable := mathutil.ClampZero(income)
	if b.taxType == Federal {
		taxable = tax.TaxableAfterDeduction(taxable, b.StandardDeduction())
		fica := b.FICA()
		result.SocialSecurity = mathutil.Round(fica.CalculateSocialSecurity(income))
		result.Medicare = mathutil.Round(fica.CalculateMedicare(income))
	}
	result.IncomeTax = mathutil.Round(tax.MarginalTax(b.ranges, taxable))
	result.Taxed = result.IncomeTax.Add(result.SocialSecurity).Add(result.Medicare)
	result.EffectiveRate = tax.EffectiveRate(result.Taxed, income)

	b.log().Debug(fmt.Sprintf("%s: income %s taxed %s (%s%%)", b.Name,
		income.StringFixed(2), result.Taxed.StringFixed(2), result.EffectiveRate.String()),
		zap.String("op", "planner.TaxBracket.Calculate"),
	)
	return result
}

// Data implements Entity.
func (b *TaxBracket) Data() map[string]any {
	data := b.data()
	data[FieldTaxType] = string(b.taxType)
	data[FieldFilingStatus] = string(b.filingStatus)
	ranges := make([]map[string]any, 0, len(b.ranges))
	for _, r := range b.ranges {
		entry := map[string]any{"rate": r.Rate}
		if r.Unbounded {
			entry["upper_bound"] = nil
		} else {
			entry["upper_bound"] = r.UpperBound
		}
		ranges = append(ranges, entry)
	}
	data[FieldRanges] = ranges
	return data
}

// Update implements Entity.
func (b *TaxBracket) Update(key string, value any) bool {
	if handled, ok := b.update(key, value); handled {
		return ok
	}
	switch key {
	case FieldTaxType:
		return b.SetTaxType(value)
	case FieldFilingStatus:
		return b.SetFilingStatus(value)
	}
	b.reject("TaxBracket.Update", key, value)
	return false
}

func (b *TaxBracket) parseRange(upperBound, rate any) (tax.Range, bool) {
	r := tax.Range{Unbounded: upperBound == nil}
	if !r.Unbounded {
		bound, ok := mathutil.FromAny(upperBound)
		if !ok || !bound.IsPositive() {
			return tax.Range{}, false
		}
		r.UpperBound = bound
	}
	v, ok := nonNegative(rate)
	if !ok || v.GreaterThan(decimal.NewFromInt(100)) {
		return tax.Range{}, false
	}
	r.Rate = mathutil.PercentToFraction(v)
	return r, true
}

func (b *TaxBracket) rangeIndex(bound decimal.Decimal, unbounded bool) int {
	return slices.IndexFunc(b.ranges, func(r tax.Range) bool {
		return r.Covers(bound, unbounded)
	})
}

func ficaFrom(r *Record) *tax.FICACalculator {
	defaults := tax.NewFICACalculator()
	return &tax.FICACalculator{
		SocialSecurityRate: r.assumption(AssumptionSocialSecurityRate, defaults.SocialSecurityRate),
		SocialSecurityCap:  r.assumption(AssumptionSocialSecurityCap, defaults.SocialSecurityCap),
		MedicareRate:       r.assumption(AssumptionMedicareRate, defaults.MedicareRate),
		MedicareSurtaxRate: r.assumption(AssumptionMedicareSurtaxRate, defaults.MedicareSurtaxRate),
		MedicareThreshold:  r.assumption(AssumptionMedicareThreshold, defaults.MedicareThreshold),
	}
}
