// Package forecast defines the data structures related to a given forecast and
// includes functions for computing the forecasts.
package forecast

import (
	"fmt"
	"time"

	"github.com/iwvelando/finance-planner/internal/planner"
	"github.com/iwvelando/finance-planner/pkg/datetime"
	"github.com/iwvelando/finance-planner/pkg/loans"
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/iwvelando/finance-planner/pkg/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Point is the projected balance at the end of one month.
type Point struct {
	Date    time.Time
	Balance decimal.Decimal
	Notes   []string
}

// Forecast holds all information related to a specific forecast.
type Forecast struct {
	Name     string
	Points   []Point
	Warnings []string
}

// Final returns the last projected balance.
func (f Forecast) Final() decimal.Decimal {
	if len(f.Points) == 0 {
		return decimal.Zero
	}
	return f.Points[len(f.Points)-1].Balance
}

// Lowest returns the point with the smallest balance, the earliest on ties.
func (f Forecast) Lowest() (Point, bool) {
	if len(f.Points) == 0 {
		return Point{}, false
	}
	lowest := f.Points[0]
	for _, p := range f.Points[1:] {
		if p.Balance.LessThan(lowest.Balance) {
			lowest = p
		}
	}
	return lowest, true
}

// loanTrack follows one loan's accelerated schedule through the projection.
type loanTrack struct {
	name     string
	first    time.Time
	schedule loans.Schedule
	carrying decimal.Decimal // monthly costs that outlive the loan (escrow, HOA)
	pmi      decimal.Decimal
}

// month maps a projection date to the loan's schedule month; 0 or less means
// no payment is due yet.
func (t loanTrack) month(date time.Time) int {
	return datetime.MonthsBetween(t.first, date) + 1
}

func (t loanTrack) outflow(date time.Time) (decimal.Decimal, bool) {
	month := t.month(date)
	if month < 1 {
		return decimal.Zero, false
	}
	outflow := t.carrying
	if month > t.schedule.PayoffMonth {
		return outflow, false
	}
	row, ok := t.schedule.Row(month)
	if !ok {
		return outflow, false
	}
	outflow = outflow.Add(row.Payment).Add(row.Extra).Add(t.pmi)
	return outflow, month == t.schedule.PayoffMonth
}

// GetForecast projects the scenario's balance month by month from start.
// Each month adds the monthly income, subtracts the expenses, and subtracts
// each loan's payment while its accelerated schedule is still running.
func GetForecast(logger *zap.Logger, scenario *planner.Scenario, start time.Time, months int, startingBalance decimal.Decimal) (Forecast, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if scenario == nil {
		return Forecast{}, fmt.Errorf("no scenario to forecast: %w", planner.ErrInvalidInput)
	}
	if months < 0 {
		return Forecast{}, fmt.Errorf("forecast length %d is negative: %w", months, planner.ErrInvalidInput)
	}

	scenario.Recalculate()
	result := Forecast{
		Name:   scenario.Name,
		Points: make([]Point, 0, months+1),
	}
	result.Points = append(result.Points, Point{Date: start, Balance: mathutil.Round(startingBalance)})

	// Income and non-loan expenses are the same every month.
	steady := scenario.MonthlyIncome()
	for _, e := range scenario.Expenses() {
		steady = steady.Sub(e.MonthlyExpense())
	}

	horizon := datetime.AddMonths(start, months)
	tracks := make([]loanTrack, 0, len(scenario.Loans()))
	for _, l := range scenario.Loans() {
		track, warnings, err := newTrack(l, start, horizon)
		if err != nil {
			return result, err
		}
		tracks = append(tracks, track)
		result.Warnings = append(result.Warnings, warnings...)
	}

	balance := result.Points[0].Balance
	for i := 1; i <= months; i++ {
		date := datetime.AddMonths(start, i)
		point := Point{Date: date}

		change := steady
		for _, track := range tracks {
			outflow, paidOff := track.outflow(date)
			change = change.Sub(outflow)
			if paidOff {
				note := fmt.Sprintf("Loan '%s' paid off", track.name)
				point.Notes = append(point.Notes, note)
				logger.Debug(fmt.Sprintf("%s on %s in scenario %s", note, datetime.Format(date), scenario.Name),
					zap.String("op", "forecast.GetForecast"),
				)
			}
		}

		balance = mathutil.Round(balance.Add(change))
		point.Balance = balance
		result.Points = append(result.Points, point)
	}

	logger.Info(fmt.Sprintf("forecast %s: %d months, final balance %s", scenario.Name, months, result.Final().StringFixed(2)),
		zap.String("op", "forecast.GetForecast"),
	)
	return result, nil
}

func newTrack(l planner.Borrowing, start, horizon time.Time) (loanTrack, []string, error) {
	name := l.Base().Name
	terms := l.Terms()
	track := loanTrack{
		name:     name,
		first:    terms.FirstPaymentDate,
		schedule: l.AmortizationSchedule(true),
	}
	if track.first.IsZero() {
		track.first = datetime.AddMonths(start, 1)
	}
	if m, ok := l.(*planner.Mortgage); ok {
		track.pmi = m.CalcPMI()
		track.carrying = m.MonthlyExpense().Sub(m.CalcMonthlyPayment()).Sub(track.pmi)
	}

	var warnings []string
	warning, err := validation.ValidateLoanDates(name, datetime.Format(terms.OriginationDate), datetime.Format(terms.FirstPaymentDate))
	if err != nil {
		return track, nil, err
	}
	if warning != "" {
		warnings = append(warnings, warning)
	}

	if track.schedule.PayoffMonth > 0 {
		warning, err = validation.ValidateMaturity(name, datetime.Format(track.first), datetime.Format(horizon), track.schedule.PayoffMonth)
		if err != nil {
			return track, nil, err
		}
		if warning != "" {
			warnings = append(warnings, warning)
		}
	}
	return track, warnings, nil
}
