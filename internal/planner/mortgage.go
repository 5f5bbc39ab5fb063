package planner

import (
	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Mortgage field keys.
const (
	FieldPMIRequired           = "pmi_required"
	FieldPMIRate               = "pmi_rate"
	FieldPropertyTax           = "property_tax"
	FieldAssessedValue         = "assessed_value"
	FieldAssessedValueOverride = "assessed_value_override"
	FieldInsurancePremium      = "insurance_premium"
	FieldHOA                   = "hoa"
	FieldPMI                   = "pmi"
	FieldEscrow                = "escrow"
	FieldTotalMonthly          = "total_monthly"
)

var monthsPerYear = decimal.NewFromInt(constants.MonthsPerYear)

// Mortgage is a Loan with PMI and escrow. Property tax and insurance premium
// are annual amounts; HOA dues are monthly.
type Mortgage struct {
	Loan

	pmiRequired      bool
	pmiRate          decimal.Decimal
	propertyTax      decimal.Decimal
	insurancePremium decimal.Decimal
	hoa              decimal.Decimal
	assessedValue    decimal.Decimal
	assessedOverride bool
}

// NewMortgage creates a mortgage that requires PMI at the default rate.
func NewMortgage(name, description string, opts ...Option) *Mortgage {
	o := buildOptions(opts)
	m := &Mortgage{
		Loan:        *newLoan(name, description, MortgageLoan, o),
		pmiRequired: true,
		pmiRate:     o.assumptions.PMIRate,
	}
	m.assumptions[AssumptionPMIEquityThreshold] = o.assumptions.PMIEquityThreshold
	m.assumptions[AssumptionAssessedValueRatio] = o.assumptions.AssessedValueRatio
	return m
}

// Kind implements Entity.
func (m *Mortgage) Kind() Kind {
	return KindMortgage
}

// PMIRequired reports whether the lender requires PMI below the equity threshold.
func (m *Mortgage) PMIRequired() bool {
	return m.pmiRequired
}

// PMIRate returns the annual PMI rate in percent of principal.
func (m *Mortgage) PMIRate() decimal.Decimal {
	return m.pmiRate
}

// PropertyTax returns the annual property tax.
func (m *Mortgage) PropertyTax() decimal.Decimal {
	return m.propertyTax
}

// InsurancePremium returns the annual homeowner's insurance premium.
func (m *Mortgage) InsurancePremium() decimal.Decimal {
	return m.insurancePremium
}

// HOA returns the monthly HOA dues.
func (m *Mortgage) HOA() decimal.Decimal {
	return m.hoa
}

// AssessedValueOverridden reports whether the assessed value was set explicitly.
func (m *Mortgage) AssessedValueOverridden() bool {
	return m.assessedOverride
}

// SetPMIRequired sets whether PMI applies below the equity threshold.
func (m *Mortgage) SetPMIRequired(value any) bool {
	v, ok := value.(bool)
	if !ok {
		m.reject("Mortgage.SetPMIRequired", FieldPMIRequired, value)
		return false
	}
	m.pmiRequired = v
	return true
}

// SetPMIRate sets the annual PMI rate in percent.
func (m *Mortgage) SetPMIRate(value any) bool {
	v, ok := percentage(value)
	if !ok {
		m.reject("Mortgage.SetPMIRate", FieldPMIRate, value)
		return false
	}
	m.pmiRate = v
	return true
}

// SetPropertyTax sets the annual property tax.
func (m *Mortgage) SetPropertyTax(value any) bool {
	return m.setAmount(&m.propertyTax, FieldPropertyTax, value)
}

// SetInsurancePremium sets the annual insurance premium.
func (m *Mortgage) SetInsurancePremium(value any) bool {
	return m.setAmount(&m.insurancePremium, FieldInsurancePremium, value)
}

// SetHOA sets the monthly HOA dues.
func (m *Mortgage) SetHOA(value any) bool {
	return m.setAmount(&m.hoa, FieldHOA, value)
}

// SetAssessedValue overrides the assessed value. The override sticks until
// ClearAssessedValueOverride is called.
func (m *Mortgage) SetAssessedValue(value any) bool {
	if !m.setAmount(&m.assessedValue, FieldAssessedValue, value) {
		return false
	}
	m.assessedOverride = true
	return true
}

// ClearAssessedValueOverride returns the assessed value to the derived one.
func (m *Mortgage) ClearAssessedValueOverride() {
	m.assessedOverride = false
	m.assessedValue = decimal.Zero
}

// CalculateAssessedValue returns the override when set, otherwise the total
// scaled by the assessed value ratio.
func (m *Mortgage) CalculateAssessedValue() decimal.Decimal {
	if m.assessedOverride {
		return m.assessedValue
	}
	ratio := m.assumption(AssumptionAssessedValueRatio, decimal.NewFromFloat(constants.AssessedValueRatio))
	return mathutil.Round(m.total.Mul(ratio))
}

// EquityPercent returns the down payment as a percentage of the total.
func (m *Mortgage) EquityPercent() decimal.Decimal {
	return mathutil.CalculatePercentage(m.downPayment, m.total)
}

// CalcPMI returns the monthly PMI charge. It is zero when PMI is not required
// or the down payment reaches the equity threshold.
func (m *Mortgage) CalcPMI() decimal.Decimal {
	threshold := m.assumption(AssumptionPMIEquityThreshold, decimal.NewFromFloat(constants.PMIEquityThreshold))
	if !m.pmiRequired || m.EquityPercent().GreaterThanOrEqual(threshold) {
		return decimal.Zero
	}
	annual := mathutil.ApplyPercentage(mathutil.ClampZero(m.CalcPrincipal()), m.pmiRate)
	return mathutil.Round(annual.Div(monthsPerYear))
}

// CalcEscrow returns the monthly reserve for property tax, insurance and PMI.
func (m *Mortgage) CalcEscrow() decimal.Decimal {
	annual := m.propertyTax.Add(m.insurancePremium)
	return mathutil.Round(annual.Div(monthsPerYear)).Add(m.CalcPMI())
}

// CalcTotalMonthly returns the monthly payment plus escrow.
func (m *Mortgage) CalcTotalMonthly() decimal.Decimal {
	return m.CalcMonthlyPayment().Add(m.CalcEscrow())
}

// MonthlyExpense is the mortgage's contribution to scenario expenses,
// including HOA dues.
func (m *Mortgage) MonthlyExpense() decimal.Decimal {
	return m.CalcTotalMonthly().Add(m.hoa)
}

// Data implements Entity.
func (m *Mortgage) Data() map[string]any {
	data := m.Loan.Data()
	data[FieldPMIRequired] = m.pmiRequired
	data[FieldPMIRate] = m.pmiRate
	data[FieldPropertyTax] = m.propertyTax
	data[FieldAssessedValue] = m.CalculateAssessedValue()
	data[FieldAssessedValueOverride] = m.assessedOverride
	data[FieldInsurancePremium] = m.insurancePremium
	data[FieldHOA] = m.hoa
	data[FieldPMI] = m.CalcPMI()
	data[FieldEscrow] = m.CalcEscrow()
	data[FieldTotalMonthly] = m.CalcTotalMonthly()
	return data
}

// Update implements Entity. Setting assessed_value_override to false clears
// the override; setting it to true pins the current assessed value.
func (m *Mortgage) Update(key string, value any) bool {
	switch key {
	case FieldPMIRequired:
		return m.SetPMIRequired(value)
	case FieldPMIRate:
		return m.SetPMIRate(value)
	case FieldPropertyTax:
		return m.SetPropertyTax(value)
	case FieldInsurancePremium:
		return m.SetInsurancePremium(value)
	case FieldHOA:
		return m.SetHOA(value)
	case FieldAssessedValue:
		return m.SetAssessedValue(value)
	case FieldAssessedValueOverride:
		pin, ok := value.(bool)
		if !ok {
			m.reject("Mortgage.Update", key, value)
			return false
		}
		if pin {
			return m.SetAssessedValue(m.CalculateAssessedValue())
		}
		m.ClearAssessedValueOverride()
		return true
	case FieldLoanKind:
		m.reject("Mortgage.Update", key, value)
		return false
	}
	return m.Loan.Update(key, value)
}

func (m *Mortgage) setAmount(field *decimal.Decimal, key string, value any) bool {
	v, ok := nonNegative(value)
	if !ok {
		m.reject("Mortgage.Update", key, value)
		return false
	}
	*field = mathutil.Round(v)
	return true
}
