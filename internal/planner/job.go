package planner

import (
	"fmt"
	"slices"

	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/iwvelando/finance-planner/pkg/tax"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Job field keys.
const (
	FieldIncome            = "income"
	FieldRetirementRate    = "retirement_rate"
	FieldRothRate          = "roth_rate"
	FieldAnnualIncome      = "annual_income"
	FieldRetirementAmount  = "retirement_amount"
	FieldRothAmount        = "roth_amount"
	FieldPretaxIncome      = "pretax_income"
	FieldIncomeTax         = "income_tax"
	FieldSocialSecurity    = "social_security"
	FieldMedicare          = "medicare"
	FieldPosttaxIncome     = "posttax_income"
	FieldMonthlyIncome     = "monthly_income"
	FieldPreTaxDeductions  = "pre_tax_deductions"
	FieldPostTaxDeductions = "post_tax_deductions"
	FieldTaxBrackets       = "tax_brackets"
)

// Job is the payroll model of a single paycheck. Amounts are per pay period
// unless the name says otherwise.
type Job struct {
	Record

	income         decimal.Decimal
	payFrequency   PayFrequency
	retirementRate decimal.Decimal
	rothRate       decimal.Decimal

	preTax   *Expenses
	postTax  *Expenses
	brackets []*TaxBracket
}

// NewJob creates a job with empty deduction lists and no tax brackets.
func NewJob(name, description string, opts ...Option) *Job {
	o := buildOptions(opts)
	j := &Job{
		Record:       newRecord(name, description, o),
		payFrequency: Monthly,
		preTax:       NewExpenses(name+" pre-tax deductions", "", opts...),
		postTax:      NewExpenses(name+" post-tax deductions", "", opts...),
	}
	for key, value := range o.assumptions.fica() {
		j.assumptions[key] = value
	}
	return j
}

// Kind implements Entity.
func (j *Job) Kind() Kind {
	return KindJob
}

// Income returns the gross income per pay period.
func (j *Job) Income() decimal.Decimal {
	return j.income
}

// PayFrequency returns how often the job pays.
func (j *Job) PayFrequency() PayFrequency {
	return j.payFrequency
}

// RetirementRate returns the pre-tax 401k contribution percentage.
func (j *Job) RetirementRate() decimal.Decimal {
	return j.retirementRate
}

// RothRate returns the post-tax Roth contribution percentage.
func (j *Job) RothRate() decimal.Decimal {
	return j.rothRate
}

// PreTaxDeductions returns the owned list of deductions taken before tax.
func (j *Job) PreTaxDeductions() *Expenses {
	return j.preTax
}

// PostTaxDeductions returns the owned list of deductions taken after tax.
func (j *Job) PostTaxDeductions() *Expenses {
	return j.postTax
}

// SetIncome sets the gross income per pay period.
func (j *Job) SetIncome(value any) bool {
	v, ok := nonNegative(value)
	if !ok {
		j.reject("Job.SetIncome", FieldIncome, value)
		return false
	}
	j.income = mathutil.Round(v)
	return true
}

// SetPayFrequency sets how often the job pays.
func (j *Job) SetPayFrequency(value any) bool {
	p, ok := parseEnumAny(value, PayFrequencies())
	if !ok {
		j.reject("Job.SetPayFrequency", FieldPayFrequency, value)
		return false
	}
	j.payFrequency = p
	return true
}

// SetRetirementRate sets the 401k contribution percentage.
func (j *Job) SetRetirementRate(value any) bool {
	v, ok := percentage(value)
	if !ok {
		j.reject("Job.SetRetirementRate", FieldRetirementRate, value)
		return false
	}
	j.retirementRate = v
	return true
}

// SetRothRate sets the Roth contribution percentage.
func (j *Job) SetRothRate(value any) bool {
	v, ok := percentage(value)
	if !ok {
		j.reject("Job.SetRothRate", FieldRothRate, value)
		return false
	}
	j.rothRate = v
	return true
}

// AttachBracket adds a tax bracket to the job. A bracket already attached is
// not added twice.
func (j *Job) AttachBracket(b *TaxBracket) bool {
	if b == nil || slices.Contains(j.brackets, b) {
		return false
	}
	j.brackets = append(j.brackets, b)
	return true
}

// DetachBracket removes a tax bracket from the job.
func (j *Job) DetachBracket(b *TaxBracket) bool {
	i := slices.Index(j.brackets, b)
	if i < 0 {
		return false
	}
	j.brackets = slices.Delete(j.brackets, i, i+1)
	return true
}

// TaxBrackets returns the attached brackets.
func (j *Job) TaxBrackets() []*TaxBracket {
	return slices.Clone(j.brackets)
}

// GetAnnualIncome returns the gross income over a year.
func (j *Job) GetAnnualIncome() decimal.Decimal {
	return mathutil.Round(j.income.Mul(j.periods()))
}

// Get401kAmount returns the pre-tax retirement contribution per period.
func (j *Job) Get401kAmount() decimal.Decimal {
	return mathutil.Round(mathutil.ApplyPercentage(j.income, j.retirementRate))
}

// GetRothAmount returns the post-tax Roth contribution per period.
func (j *Job) GetRothAmount() decimal.Decimal {
	return mathutil.Round(mathutil.ApplyPercentage(j.income, j.rothRate))
}

// GetPretaxIncome returns income less the 401k contribution and pre-tax deductions.
func (j *Job) GetPretaxIncome() decimal.Decimal {
	return j.income.Sub(j.Get401kAmount()).Sub(j.preTax.Total())
}

// GetIncomeTax returns the bracket income tax withheld per period. Brackets
// see the annualized pretax income.
func (j *Job) GetIncomeTax() decimal.Decimal {
	annual := j.GetPretaxIncome().Mul(j.periods())
	total := decimal.Zero
	for _, b := range j.brackets {
		result := b.Calculate(annual)
		if !result.Ok {
			continue
		}
		total = total.Add(result.IncomeTax)
	}
	return mathutil.Round(mathutil.SafeDiv(total, j.periods()))
}

// GetSocialSecurity returns the Social Security withheld per period.
func (j *Job) GetSocialSecurity() decimal.Decimal {
	annual := j.fica().CalculateSocialSecurity(j.GetAnnualIncome())
	return mathutil.Round(mathutil.SafeDiv(annual, j.periods()))
}

// GetMedicare returns the Medicare withheld per period.
func (j *Job) GetMedicare() decimal.Decimal {
	annual := j.fica().CalculateMedicare(j.GetAnnualIncome())
	return mathutil.Round(mathutil.SafeDiv(annual, j.periods()))
}

// GetPosttaxIncome returns the net pay per period. The Roth contribution is
// taken here, after tax, while the 401k contribution was taken pretax.
func (j *Job) GetPosttaxIncome() decimal.Decimal {
	net := j.GetPretaxIncome().
		Sub(j.GetIncomeTax()).
		Sub(j.postTax.Total()).
		Sub(j.GetSocialSecurity()).
		Sub(j.GetMedicare()).
		Sub(j.GetRothAmount())
	j.log().Debug(fmt.Sprintf("%s: net pay %s of gross %s", j.Name, net.StringFixed(2), j.income.StringFixed(2)),
		zap.String("op", "planner.Job.GetPosttaxIncome"),
	)
	return net
}

// GetMonthlyNetIncome converts the per-period net pay to a monthly figure.
func (j *Job) GetMonthlyNetIncome() decimal.Decimal {
	return mathutil.Round(mathutil.SafeDiv(j.GetPosttaxIncome().Mul(j.periods()), decimal.NewFromInt(constants.MonthsPerYear)))
}

// MonthlyIncome is the job's contribution to scenario income.
func (j *Job) MonthlyIncome() decimal.Decimal {
	return j.GetMonthlyNetIncome()
}

// Data implements Entity.
func (j *Job) Data() map[string]any {
	data := j.data()
	data[FieldIncome] = j.income
	data[FieldPayFrequency] = string(j.payFrequency)
	data[FieldRetirementRate] = j.retirementRate
	data[FieldRothRate] = j.rothRate
	data[FieldAnnualIncome] = j.GetAnnualIncome()
	data[FieldRetirementAmount] = j.Get401kAmount()
	data[FieldRothAmount] = j.GetRothAmount()
	data[FieldPretaxIncome] = j.GetPretaxIncome()
	data[FieldIncomeTax] = j.GetIncomeTax()
	data[FieldSocialSecurity] = j.GetSocialSecurity()
	data[FieldMedicare] = j.GetMedicare()
	data[FieldPosttaxIncome] = j.GetPosttaxIncome()
	data[FieldMonthlyIncome] = j.GetMonthlyNetIncome()
	data[FieldPreTaxDeductions] = j.preTax.Total()
	data[FieldPostTaxDeductions] = j.postTax.Total()
	names := make([]string, 0, len(j.brackets))
	for _, b := range j.brackets {
		names = append(names, b.Name)
	}
	data[FieldTaxBrackets] = names
	return data
}

// Update implements Entity.
func (j *Job) Update(key string, value any) bool {
	if handled, ok := j.update(key, value); handled {
		return ok
	}
	switch key {
	case FieldIncome:
		return j.SetIncome(value)
	case FieldPayFrequency:
		return j.SetPayFrequency(value)
	case FieldRetirementRate:
		return j.SetRetirementRate(value)
	case FieldRothRate:
		return j.SetRothRate(value)
	}
	j.reject("Job.Update", key, value)
	return false
}

func (j *Job) periods() decimal.Decimal {
	return decimal.NewFromInt(int64(j.payFrequency.PeriodsPerYear()))
}

func (j *Job) fica() *tax.FICACalculator {
	return ficaFrom(&j.Record)
}

// percentage converts a boundary value into a rate in [0, 100].
func percentage(value any) (decimal.Decimal, bool) {
	v, ok := nonNegative(value)
	if !ok || v.GreaterThan(decimal.NewFromInt(100)) {
		return decimal.Zero, false
	}
	return v, true
}
