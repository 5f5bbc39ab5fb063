package planner

import (
	"strings"

	"github.com/iwvelando/finance-planner/pkg/constants"
)

// Kind tags the concrete entity type at the serialization boundary.
type Kind string

// Entity kinds
const (
	KindExpenses   Kind = "expenses"
	KindTaxBracket Kind = "tax_bracket"
	KindJob        Kind = "job"
	KindIncome     Kind = "income"
	KindLoan       Kind = "loan"
	KindMortgage   Kind = "mortgage"
	KindAuto       Kind = "auto"
	KindStudent    Kind = "student"
	KindPersonal   Kind = "personal"
	KindScenario   Kind = "scenario"
)

// Kinds lists every entity kind.
func Kinds() []Kind {
	return []Kind{KindExpenses, KindTaxBracket, KindJob, KindIncome, KindLoan,
		KindMortgage, KindAuto, KindStudent, KindPersonal, KindScenario}
}

// ParseKind parses a kind tag.
func ParseKind(s string) (Kind, bool) {
	return parseEnum(s, Kinds())
}

// IsLoan reports whether the kind is one of the loan variants.
func (k Kind) IsLoan() bool {
	_, ok := loanKindFor(k)
	return ok
}

// Label is the display label of the kind.
func (k Kind) Label() string {
	switch k {
	case KindExpenses:
		return "Expenses"
	case KindTaxBracket:
		return "Tax Bracket"
	case KindJob:
		return "Job"
	case KindIncome:
		return "Income"
	case KindLoan:
		return "Loan"
	case KindMortgage:
		return "Mortgage"
	case KindAuto:
		return "Auto Loan"
	case KindStudent:
		return "Student Loan"
	case KindPersonal:
		return "Personal Loan"
	case KindScenario:
		return "Scenario"
	}
	return string(k)
}

// PayFrequency is how often a job or income pays out.
type PayFrequency string

// Pay frequencies
const (
	Weekly      PayFrequency = "Weekly"
	BiWeekly    PayFrequency = "Bi-Weekly"
	Semimonthly PayFrequency = "Semimonthly"
	Monthly     PayFrequency = "Monthly"
	Quarterly   PayFrequency = "Quarterly"
	Annually    PayFrequency = "Annually"
)

// PayFrequencies lists the closed set of pay frequencies.
func PayFrequencies() []PayFrequency {
	return []PayFrequency{Weekly, BiWeekly, Semimonthly, Monthly, Quarterly, Annually}
}

// ParsePayFrequency parses a pay frequency label, ignoring case.
func ParsePayFrequency(s string) (PayFrequency, bool) {
	return parseEnum(s, PayFrequencies())
}

// PeriodsPerYear returns the pay periods per year for the frequency.
func (p PayFrequency) PeriodsPerYear() int {
	switch p {
	case Weekly:
		return constants.WeeklyPeriods
	case BiWeekly:
		return constants.BiWeeklyPeriods
	case Semimonthly:
		return constants.SemimonthlyPeriods
	case Monthly:
		return constants.MonthlyPeriods
	case Quarterly:
		return constants.QuarterlyPeriods
	case Annually:
		return constants.AnnualPeriods
	}
	return constants.MonthlyPeriods
}

// LoanKind is the loan variant.
type LoanKind string

// Loan kinds
const (
	GeneralLoan  LoanKind = "Loan"
	MortgageLoan LoanKind = "Mortgage"
	AutoLoan     LoanKind = "Auto"
	StudentLoan  LoanKind = "Student"
	PersonalLoan LoanKind = "Personal"
)

// LoanKinds lists the closed set of loan kinds.
func LoanKinds() []LoanKind {
	return []LoanKind{GeneralLoan, MortgageLoan, AutoLoan, StudentLoan, PersonalLoan}
}

// ParseLoanKind parses a loan kind label, ignoring case.
func ParseLoanKind(s string) (LoanKind, bool) {
	return parseEnum(s, LoanKinds())
}

// Kind maps the loan kind onto its entity kind.
func (l LoanKind) Kind() Kind {
	switch l {
	case MortgageLoan:
		return KindMortgage
	case AutoLoan:
		return KindAuto
	case StudentLoan:
		return KindStudent
	case PersonalLoan:
		return KindPersonal
	}
	return KindLoan
}

func loanKindFor(k Kind) (LoanKind, bool) {
	for _, lk := range LoanKinds() {
		if lk.Kind() == k {
			return lk, true
		}
	}
	return "", false
}

// TaxType is the jurisdiction level of a tax bracket.
type TaxType string

// Tax types
const (
	Federal TaxType = "Federal"
	State   TaxType = "State"
	Local   TaxType = "Local"
)

// TaxTypes lists the closed set of tax types.
func TaxTypes() []TaxType {
	return []TaxType{Federal, State, Local}
}

// ParseTaxType parses a tax type label, ignoring case.
func ParseTaxType(s string) (TaxType, bool) {
	return parseEnum(s, TaxTypes())
}

// FilingStatus is the tax filing status a bracket applies to.
type FilingStatus string

// Filing statuses
const (
	Single          FilingStatus = "Single"
	MarriedJoint    FilingStatus = "Married-Joint"
	MarriedSeparate FilingStatus = "Married-Separate"
	HeadOfHousehold FilingStatus = "Head-of-Household"
)

// FilingStatuses lists the closed set of filing statuses.
func FilingStatuses() []FilingStatus {
	return []FilingStatus{Single, MarriedJoint, MarriedSeparate, HeadOfHousehold}
}

// ParseFilingStatus parses a filing status label, ignoring case.
func ParseFilingStatus(s string) (FilingStatus, bool) {
	return parseEnum(s, FilingStatuses())
}

// StandardDeduction is the default federal standard deduction for the status.
func (f FilingStatus) StandardDeduction() float64 {
	switch f {
	case MarriedJoint:
		return constants.StandardDeductionMarriedJoint
	case MarriedSeparate:
		return constants.StandardDeductionMarriedSeparate
	case HeadOfHousehold:
		return constants.StandardDeductionHeadOfHousehold
	}
	return constants.StandardDeductionSingle
}

// ExpenseCategory classifies an expense line item.
type ExpenseCategory string

// Expense categories
const (
	Housing        ExpenseCategory = "Housing"
	Transportation ExpenseCategory = "Transportation"
	Food           ExpenseCategory = "Food"
	Utilities      ExpenseCategory = "Utilities"
	Insurance      ExpenseCategory = "Insurance"
	Healthcare     ExpenseCategory = "Healthcare"
	Savings        ExpenseCategory = "Savings"
	Debt           ExpenseCategory = "Debt"
	Personal       ExpenseCategory = "Personal"
	Entertainment  ExpenseCategory = "Entertainment"
	Other          ExpenseCategory = "Other"
)

// ExpenseCategories lists the closed set of expense categories.
func ExpenseCategories() []ExpenseCategory {
	return []ExpenseCategory{Housing, Transportation, Food, Utilities, Insurance,
		Healthcare, Savings, Debt, Personal, Entertainment, Other}
}

// ParseExpenseCategory parses a category label, ignoring case.
func ParseExpenseCategory(s string) (ExpenseCategory, bool) {
	return parseEnum(s, ExpenseCategories())
}

func parseEnum[T ~string](s string, values []T) (T, bool) {
	s = strings.TrimSpace(s)
	for _, v := range values {
		if strings.EqualFold(s, string(v)) {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// parseEnumAny accepts either the enum type itself or its string label.
func parseEnumAny[T ~string](value any, values []T) (T, bool) {
	switch v := value.(type) {
	case T:
		return parseEnum(string(v), values)
	case string:
		return parseEnum(v, values)
	}
	var zero T
	return zero, false
}
