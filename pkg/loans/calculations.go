// Package loans provides the amortization engine shared by every loan kind.
package loans

import (
	"fmt"
	"iter"
	"math"
	"time"

	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/iwvelando/finance-planner/pkg/datetime"
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var monthlyRateDivisor = decimal.NewFromFloat(constants.PercentageMultiplier * constants.MonthsPerYear)

// Payment holds the values for a given month of the schedule. Month 0 is the
// origination row and only carries the full principal.
type Payment struct {
	Month              int
	Date               time.Time
	Payment            decimal.Decimal
	Interest           decimal.Decimal
	Principal          decimal.Decimal
	Extra              decimal.Decimal
	RemainingPrincipal decimal.Decimal
}

// ExtraPayment is an additional principal payment applied to every month in
// the half-open interval [StartMonth, EndMonth).
type ExtraPayment struct {
	StartMonth int
	EndMonth   int
	Amount     decimal.Decimal
}

// Active reports whether the extra payment applies to the given month.
func (e ExtraPayment) Active(month int) bool {
	return month >= e.StartMonth && month < e.EndMonth
}

// Terms are the inputs of an amortization run.
type Terms struct {
	Name             string
	Principal        decimal.Decimal
	AnnualRate       decimal.Decimal // percent
	TermMonths       int
	OriginationDate  time.Time
	FirstPaymentDate time.Time
	ExtraPayments    []ExtraPayment
}

// Schedule is a fully generated amortization schedule with its totals.
type Schedule struct {
	Rows           []Payment
	MonthlyPayment decimal.Decimal
	TotalInterest  decimal.Decimal
	TotalPaid      decimal.Decimal
	PayoffMonth    int
	ExtraApplied   bool
}

// All iterates the rows in month order. Every call starts from month 0.
func (s Schedule) All() iter.Seq[Payment] {
	return func(yield func(Payment) bool) {
		for _, row := range s.Rows {
			if !yield(row) {
				return
			}
		}
	}
}

// Row returns the row for the given month.
func (s Schedule) Row(month int) (Payment, bool) {
	if month < 0 || month >= len(s.Rows) {
		return Payment{}, false
	}
	return s.Rows[month], true
}

// PaidOffEarly reports whether the payoff month came before the final term month.
func (s Schedule) PaidOffEarly() bool {
	return s.PayoffMonth < len(s.Rows)-1
}

// Comparison summarizes the effect of extra payments on a loan.
type Comparison struct {
	Base            Schedule
	Accelerated     Schedule
	MonthsSaved     int
	YearsSaved      int
	RemainderMonths int
	InterestSaved   decimal.Decimal
}

// MonthlyRate converts an annual percentage rate to a monthly fraction.
func MonthlyRate(annualRate decimal.Decimal) decimal.Decimal {
	return annualRate.Div(monthlyRateDivisor)
}

// CalculateMonthlyPayment calculates the monthly payment for a loan using the
// standard amortization formula, rounded to cents.
func CalculateMonthlyPayment(principal, annualRate decimal.Decimal, termMonths int) decimal.Decimal {
	if termMonths <= 0 || !principal.IsPositive() {
		return decimal.Zero
	}
	if annualRate.IsZero() {
		// For zero interest, simply divide the principal by term
		return mathutil.Round(principal.Div(decimal.NewFromInt(int64(termMonths))))
	}

	periodicInterestRate := MonthlyRate(annualRate).InexactFloat64()
	power := math.Pow(1.00+periodicInterestRate, float64(termMonths))
	if power-1.00 == 0 || math.IsInf(power, 0) || math.IsNaN(power) {
		return decimal.Zero
	}
	payment := principal.InexactFloat64() * periodicInterestRate * power / (power - 1.00)
	return mathutil.Round(decimal.NewFromFloat(payment))
}

// CalculateInterestPayment calculates the interest portion of a payment,
// rounded to cents.
func CalculateInterestPayment(remainingPrincipal, annualRate decimal.Decimal) decimal.Decimal {
	return mathutil.Round(remainingPrincipal.Mul(MonthlyRate(annualRate)))
}

// CalculateExtraPrincipal calculates the total extra principal payment for a given month
func CalculateExtraPrincipal(extraPayments []ExtraPayment, month int) decimal.Decimal {
	amount := decimal.Zero
	for _, extra := range extraPayments {
		if extra.Active(month) {
			amount = amount.Add(extra.Amount)
		}
	}
	return amount
}

// AmortizationScheduleGenerator provides utilities for generating loan amortization schedules
type AmortizationScheduleGenerator struct {
	logger *zap.Logger
}

// NewAmortizationScheduleGenerator creates a new generator instance
func NewAmortizationScheduleGenerator(logger *zap.Logger) *AmortizationScheduleGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AmortizationScheduleGenerator{logger: logger}
}

// Iterate lazily yields the schedule rows, month 0 through the term. The
// sequence is restartable: each range over it recomputes from origination.
func (g *AmortizationScheduleGenerator) Iterate(terms Terms, applyExtra bool) iter.Seq[Payment] {
	return func(yield func(Payment) bool) {
		a := g.newAmortizer(terms, applyExtra)
		for {
			row, ok := a.next()
			if !ok || !yield(row) {
				return
			}
		}
	}
}

// GenerateSchedule creates a complete amortization schedule for a loan.
func (g *AmortizationScheduleGenerator) GenerateSchedule(terms Terms, applyExtra bool) Schedule {
	a := g.newAmortizer(terms, applyExtra)
	rows := make([]Payment, 0, max(terms.TermMonths, 0)+1)
	for {
		row, ok := a.next()
		if !ok {
			break
		}
		rows = append(rows, row)
	}

	if terms.TermMonths <= 0 {
		g.logger.Warn(fmt.Sprintf("loan %s has no term, schedule holds only the origination row", terms.Name),
			zap.String("op", "loans.GenerateSchedule"),
		)
	}

	return Schedule{
		Rows:           rows,
		MonthlyPayment: a.monthlyPayment,
		TotalInterest:  a.totalInterest,
		TotalPaid:      a.totalPaid,
		PayoffMonth:    a.payoffMonth,
		ExtraApplied:   applyExtra,
	}
}

// CompareSchedules runs the schedule with and without extra payments and
// summarizes the difference. Months saved are derived from the single total
// so that YearsSaved*12 + RemainderMonths == MonthsSaved always holds.
func (g *AmortizationScheduleGenerator) CompareSchedules(terms Terms) Comparison {
	base := g.GenerateSchedule(terms, false)
	accelerated := g.GenerateSchedule(terms, true)

	saved := base.PayoffMonth - accelerated.PayoffMonth
	comparison := Comparison{
		Base:            base,
		Accelerated:     accelerated,
		MonthsSaved:     saved,
		YearsSaved:      saved / constants.MonthsPerYear,
		RemainderMonths: saved % constants.MonthsPerYear,
		InterestSaved:   base.TotalInterest.Sub(accelerated.TotalInterest),
	}

	g.logger.Debug(fmt.Sprintf("loan %s: extra payments save %d months and %s interest",
		terms.Name, saved, comparison.InterestSaved.StringFixed(2)),
		zap.String("op", "loans.CompareSchedules"),
	)
	return comparison
}

// amortizer is the month-by-month state machine behind both the lazy
// iterator and the collected schedule.
type amortizer struct {
	logger         *zap.Logger
	terms          Terms
	applyExtra     bool
	monthlyPayment decimal.Decimal
	remaining      decimal.Decimal
	totalInterest  decimal.Decimal
	totalPaid      decimal.Decimal
	payoffMonth    int
	month          int
	paidOff        bool
}

func (g *AmortizationScheduleGenerator) newAmortizer(terms Terms, applyExtra bool) *amortizer {
	remaining := mathutil.ClampZero(terms.Principal)
	payoff := max(terms.TermMonths, 0)
	if remaining.IsZero() {
		payoff = 0
	}
	return &amortizer{
		logger:         g.logger,
		terms:          terms,
		applyExtra:     applyExtra,
		monthlyPayment: CalculateMonthlyPayment(terms.Principal, terms.AnnualRate, terms.TermMonths),
		remaining:      remaining,
		payoffMonth:    payoff,
		month:          -1,
		paidOff:        remaining.IsZero(),
	}
}

func (a *amortizer) date(month int) time.Time {
	if month == 0 {
		return a.terms.OriginationDate
	}
	if !a.terms.FirstPaymentDate.IsZero() {
		return datetime.AddMonths(a.terms.FirstPaymentDate, month-1)
	}
	return datetime.AddMonths(a.terms.OriginationDate, month)
}

func (a *amortizer) next() (Payment, bool) {
	a.month++
	month := a.month
	if month > max(a.terms.TermMonths, 0) {
		return Payment{}, false
	}

	row := Payment{Month: month, Date: a.date(month)}
	if month == 0 {
		row.RemainingPrincipal = a.remaining
		return row, true
	}
	if a.paidOff {
		return row, true
	}

	interest := CalculateInterestPayment(a.remaining, a.terms.AnnualRate)
	payment := a.monthlyPayment
	extra := decimal.Zero
	if a.applyExtra {
		extra = CalculateExtraPrincipal(a.terms.ExtraPayments, month)
		if extra.IsPositive() {
			a.logger.Debug(fmt.Sprintf("month %d: applying extra principal payment %s for loan %s",
				month, extra.StringFixed(2), a.terms.Name),
				zap.String("op", "loans.GenerateSchedule"),
			)
		}
	}

	remaining := a.remaining.Add(interest).Sub(payment).Sub(extra)
	if month == a.terms.TermMonths && remaining.IsPositive() {
		// Cent rounding of the payment leaves a residue; settle it with the final payment.
		payment = payment.Add(remaining)
		remaining = decimal.Zero
	}
	if remaining.IsNegative() {
		overshoot := remaining.Neg()
		cut := decimal.Min(extra, overshoot)
		extra = extra.Sub(cut)
		payment = payment.Sub(overshoot.Sub(cut))
		remaining = decimal.Zero
	}

	row.Payment = payment
	row.Interest = interest
	row.Principal = payment.Sub(interest)
	row.Extra = extra
	row.RemainingPrincipal = remaining

	a.remaining = remaining
	a.totalInterest = a.totalInterest.Add(interest)
	a.totalPaid = a.totalPaid.Add(payment).Add(extra)

	if remaining.IsZero() {
		a.paidOff = true
		a.payoffMonth = month
		if month < a.terms.TermMonths {
			a.logger.Debug(fmt.Sprintf("loan %s paid off early in month %d of %d",
				a.terms.Name, month, a.terms.TermMonths),
				zap.String("op", "loans.GenerateSchedule"),
			)
		}
	}
	return row, true
}
