package planner

import (
	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Income field keys.
const (
	FieldAmount        = "amount"
	FieldPayFrequency  = "pay_frequency"
	FieldMonthlyAmount = "monthly_amount"
)

// Income is a recurring non-payroll inflow such as rent or a pension.
type Income struct {
	Record

	amount       decimal.Decimal
	payFrequency PayFrequency
}

// NewIncome creates an income paying nothing monthly.
func NewIncome(name, description string, opts ...Option) *Income {
	o := buildOptions(opts)
	return &Income{Record: newRecord(name, description, o), payFrequency: Monthly}
}

// Kind implements Entity.
func (i *Income) Kind() Kind {
	return KindIncome
}

// Amount returns the amount paid each period.
func (i *Income) Amount() decimal.Decimal {
	return i.amount
}

// PayFrequency returns how often the income pays.
func (i *Income) PayFrequency() PayFrequency {
	return i.payFrequency
}

// SetAmount sets the amount paid each period.
func (i *Income) SetAmount(value any) bool {
	v, ok := nonNegative(value)
	if !ok {
		i.reject("Income.SetAmount", FieldAmount, value)
		return false
	}
	i.amount = mathutil.Round(v)
	return true
}

// SetPayFrequency sets how often the income pays.
func (i *Income) SetPayFrequency(value any) bool {
	p, ok := parseEnumAny(value, PayFrequencies())
	if !ok {
		i.reject("Income.SetPayFrequency", FieldPayFrequency, value)
		return false
	}
	i.payFrequency = p
	return true
}

// MonthlyIncome converts the per-period amount to a monthly figure.
func (i *Income) MonthlyIncome() decimal.Decimal {
	periods := decimal.NewFromInt(int64(i.payFrequency.PeriodsPerYear()))
	return mathutil.Round(mathutil.SafeDiv(i.amount.Mul(periods), decimal.NewFromInt(constants.MonthsPerYear)))
}

// Data implements Entity.
func (i *Income) Data() map[string]any {
	data := i.data()
	data[FieldAmount] = i.amount
	data[FieldPayFrequency] = string(i.payFrequency)
	data[FieldMonthlyAmount] = i.MonthlyIncome()
	return data
}

// Update implements Entity.
func (i *Income) Update(key string, value any) bool {
	if handled, ok := i.update(key, value); handled {
		return ok
	}
	switch key {
	case FieldAmount:
		return i.SetAmount(value)
	case FieldPayFrequency:
		return i.SetPayFrequency(value)
	}
	i.reject("Income.Update", key, value)
	return false
}
