package planner

import (
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/iwvelando/finance-planner/pkg/datetime"
	"github.com/iwvelando/finance-planner/pkg/loans"
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Loan field keys.
const (
	FieldLoanKind         = "loan_kind"
	FieldTotalAmount      = "total"
	FieldDownPayment      = "down_payment"
	FieldPrincipal        = "principal"
	FieldRate             = "rate"
	FieldTerm             = "term"
	FieldOriginationDate  = "origination_date"
	FieldFirstPaymentDate = "first_payment_date"
	FieldMonthlyPayment   = "monthly_payment"
	FieldExtraPayments    = "extra_payments"
)

// Borrowing is the capability shared by every loan variant.
type Borrowing interface {
	Entity
	LoanKind() LoanKind
	Terms() loans.Terms
	CalcPrincipal() decimal.Decimal
	CalcMonthlyPayment() decimal.Decimal
	AmortizationSchedule(applyExtra bool) loans.Schedule
	CompareSchedules() loans.Comparison
	MonthlyExpense() decimal.Decimal
}

// Loan is an amortizing loan. Auto, student and personal loans are a Loan
// with a different kind tag.
type Loan struct {
	Record

	loanKind         LoanKind
	total            decimal.Decimal
	downPayment      decimal.Decimal
	rate             decimal.Decimal
	term             int
	originationDate  time.Time
	firstPaymentDate time.Time
	extraPayments    []loans.ExtraPayment

	generator *loans.AmortizationScheduleGenerator
}

// NewLoan creates a loan of the given kind. Mortgages are created with
// NewMortgage; asking for one here yields a general loan.
func NewLoan(name, description string, kind LoanKind, opts ...Option) *Loan {
	o := buildOptions(opts)
	k, ok := ParseLoanKind(string(kind))
	if !ok || k == MortgageLoan {
		k = GeneralLoan
	}
	return newLoan(name, description, k, o)
}

func newLoan(name, description string, kind LoanKind, o options) *Loan {
	return &Loan{
		Record:    newRecord(name, description, o),
		loanKind:  kind,
		generator: loans.NewAmortizationScheduleGenerator(o.logger),
	}
}

// Kind implements Entity.
func (l *Loan) Kind() Kind {
	return l.loanKind.Kind()
}

// LoanKind returns the loan variant.
func (l *Loan) LoanKind() LoanKind {
	return l.loanKind
}

// SetLoanKind switches between the non-mortgage loan variants.
func (l *Loan) SetLoanKind(value any) bool {
	k, ok := parseEnumAny(value, LoanKinds())
	if !ok || k == MortgageLoan || l.loanKind == MortgageLoan {
		l.reject("Loan.SetLoanKind", FieldLoanKind, value)
		return false
	}
	l.loanKind = k
	return true
}

// TotalAmount returns the purchase amount before the down payment.
func (l *Loan) TotalAmount() decimal.Decimal {
	return l.total
}

// DownPayment returns the down payment.
func (l *Loan) DownPayment() decimal.Decimal {
	return l.downPayment
}

// Rate returns the annual interest rate in percent.
func (l *Loan) Rate() decimal.Decimal {
	return l.rate
}

// Term returns the term in months.
func (l *Loan) Term() int {
	return l.term
}

// OriginationDate returns the origination date, zero when unset.
func (l *Loan) OriginationDate() time.Time {
	return l.originationDate
}

// FirstPaymentDate returns the first payment date, zero when unset.
func (l *Loan) FirstPaymentDate() time.Time {
	return l.firstPaymentDate
}

// SetTotal sets the purchase amount.
func (l *Loan) SetTotal(value any) bool {
	v, ok := nonNegative(value)
	if !ok {
		l.reject("Loan.SetTotal", FieldTotalAmount, value)
		return false
	}
	l.total = mathutil.Round(v)
	return true
}

// SetDownPayment sets the down payment.
func (l *Loan) SetDownPayment(value any) bool {
	v, ok := nonNegative(value)
	if !ok {
		l.reject("Loan.SetDownPayment", FieldDownPayment, value)
		return false
	}
	l.downPayment = mathutil.Round(v)
	return true
}

// SetRate sets the annual interest rate in percent.
func (l *Loan) SetRate(value any) bool {
	v, ok := percentage(value)
	if !ok {
		l.reject("Loan.SetRate", FieldRate, value)
		return false
	}
	l.rate = v
	return true
}

// SetTerm sets the term in whole months.
func (l *Loan) SetTerm(value any) bool {
	v, ok := termMonths(value)
	if !ok {
		l.reject("Loan.SetTerm", FieldTerm, value)
		return false
	}
	l.term = v
	return true
}

// SetOriginationDate sets the origination date from a time or a YYYY-MM-DD
// string. An empty string clears it.
func (l *Loan) SetOriginationDate(value any) bool {
	t, ok := dateValue(value)
	if !ok {
		l.reject("Loan.SetOriginationDate", FieldOriginationDate, value)
		return false
	}
	l.originationDate = t
	return true
}

// SetFirstPaymentDate sets the first payment date from a time or a
// YYYY-MM-DD string. An empty string clears it.
func (l *Loan) SetFirstPaymentDate(value any) bool {
	t, ok := dateValue(value)
	if !ok {
		l.reject("Loan.SetFirstPaymentDate", FieldFirstPaymentDate, value)
		return false
	}
	l.firstPaymentDate = t
	return true
}

// AddExtraPayment adds an extra principal payment over months [start, end).
func (l *Loan) AddExtraPayment(start, end int, amount any) bool {
	v, ok := mathutil.FromAny(amount)
	if !ok || start < 1 || end <= start || !v.IsPositive() {
		l.reject("Loan.AddExtraPayment", FieldExtraPayments, fmt.Sprintf("[%d,%d)@%v", start, end, amount))
		return false
	}
	l.extraPayments = append(l.extraPayments, loans.ExtraPayment{
		StartMonth: start,
		EndMonth:   end,
		Amount:     mathutil.Round(v),
	})
	return true
}

// RemoveExtraPayment removes the extra payment at the given index.
func (l *Loan) RemoveExtraPayment(index int) bool {
	if index < 0 || index >= len(l.extraPayments) {
		return false
	}
	l.extraPayments = slices.Delete(l.extraPayments, index, index+1)
	return true
}

// ExtraPayments returns a copy of the extra payments in insertion order.
func (l *Loan) ExtraPayments() []loans.ExtraPayment {
	return slices.Clone(l.extraPayments)
}

// CalcPrincipal returns total minus down payment.
func (l *Loan) CalcPrincipal() decimal.Decimal {
	return l.total.Sub(l.downPayment)
}

// CalcMonthlyPayment returns the regular monthly payment.
func (l *Loan) CalcMonthlyPayment() decimal.Decimal {
	return loans.CalculateMonthlyPayment(l.CalcPrincipal(), l.rate, l.term)
}

// Terms returns the amortization inputs of the loan.
func (l *Loan) Terms() loans.Terms {
	return loans.Terms{
		Name:             l.Name,
		Principal:        l.CalcPrincipal(),
		AnnualRate:       l.rate,
		TermMonths:       l.term,
		OriginationDate:  l.originationDate,
		FirstPaymentDate: l.firstPaymentDate,
		ExtraPayments:    l.ExtraPayments(),
	}
}

// AmortizationSchedule generates the full schedule, optionally applying the
// extra payments.
func (l *Loan) AmortizationSchedule(applyExtra bool) loans.Schedule {
	schedule := l.generator.GenerateSchedule(l.Terms(), applyExtra)
	l.logSchedule("Loan.AmortizationSchedule", schedule)
	return schedule
}

// Iterate lazily yields the schedule rows.
func (l *Loan) Iterate(applyExtra bool) iter.Seq[loans.Payment] {
	return l.generator.Iterate(l.Terms(), applyExtra)
}

// CompareSchedules compares the schedules with and without extra payments.
func (l *Loan) CompareSchedules() loans.Comparison {
	return l.generator.CompareSchedules(l.Terms())
}

// MonthlyExpense is the loan's contribution to scenario expenses.
func (l *Loan) MonthlyExpense() decimal.Decimal {
	return l.CalcMonthlyPayment()
}

// Data implements Entity.
func (l *Loan) Data() map[string]any {
	data := l.data()
	data[FieldLoanKind] = string(l.loanKind)
	data[FieldTotalAmount] = l.total
	data[FieldDownPayment] = l.downPayment
	data[FieldPrincipal] = l.CalcPrincipal()
	data[FieldRate] = l.rate
	data[FieldTerm] = l.term
	data[FieldOriginationDate] = datetime.Format(l.originationDate)
	data[FieldFirstPaymentDate] = datetime.Format(l.firstPaymentDate)
	data[FieldMonthlyPayment] = l.CalcMonthlyPayment()
	extras := make([]map[string]any, 0, len(l.extraPayments))
	for _, e := range l.extraPayments {
		extras = append(extras, map[string]any{
			"start_month": e.StartMonth,
			"end_month":   e.EndMonth,
			"amount":      e.Amount,
		})
	}
	data[FieldExtraPayments] = extras
	return data
}

// Update implements Entity.
func (l *Loan) Update(key string, value any) bool {
	if handled, ok := l.update(key, value); handled {
		return ok
	}
	if ok, handled := l.updateLoan(key, value); handled {
		return ok
	}
	l.reject("Loan.Update", key, value)
	return false
}

func (l *Loan) updateLoan(key string, value any) (ok, handled bool) {
	switch key {
	case FieldLoanKind:
		return l.SetLoanKind(value), true
	case FieldTotalAmount:
		return l.SetTotal(value), true
	case FieldDownPayment:
		return l.SetDownPayment(value), true
	case FieldRate:
		return l.SetRate(value), true
	case FieldTerm:
		return l.SetTerm(value), true
	case FieldOriginationDate:
		return l.SetOriginationDate(value), true
	case FieldFirstPaymentDate:
		return l.SetFirstPaymentDate(value), true
	}
	return false, false
}

func (l *Loan) logSchedule(op string, schedule loans.Schedule) {
	l.log().Debug(fmt.Sprintf("%s: payment %s, interest %s, payoff month %d",
		l.Name, schedule.MonthlyPayment.StringFixed(2), schedule.TotalInterest.StringFixed(2), schedule.PayoffMonth),
		zap.String("op", "planner."+op),
	)
}

func dateValue(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		if v == "" {
			return time.Time{}, true
		}
		t, err := datetime.Parse(v)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}
