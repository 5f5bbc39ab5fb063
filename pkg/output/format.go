// Package output provides utilities for formatting and displaying planner
// results: forecasts, amortization schedules, tax calculations and scenario
// summaries.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/iwvelando/finance-planner/internal/app"
	"github.com/iwvelando/finance-planner/internal/forecast"
	"github.com/iwvelando/finance-planner/internal/planner"
	"github.com/iwvelando/finance-planner/internal/store"
	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/iwvelando/finance-planner/pkg/datetime"
	"github.com/iwvelando/finance-planner/pkg/format"
	"github.com/iwvelando/finance-planner/pkg/loans"
	"github.com/iwvelando/finance-planner/pkg/validation"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Printer renders results to a writer in one output format.
type Printer struct {
	w      io.Writer
	format string
	p      *message.Printer
}

// NewPrinter returns a printer for a supported output format.
func NewPrinter(w io.Writer, outputFormat string) (*Printer, error) {
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		return nil, err
	}
	return &Printer{w: w, format: outputFormat, p: message.NewPrinter(language.English)}, nil
}

// Format returns the printer's output format.
func (pr *Printer) Format() string {
	return pr.format
}

func (pr *Printer) money(amount decimal.Decimal) string {
	return format.Currency(amount)
}

func (pr *Printer) printf(layout string, args ...any) {
	_, _ = pr.p.Fprintf(pr.w, layout, args...)
}

func (pr *Printer) json(v any) error {
	enc := json.NewEncoder(pr.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (pr *Printer) csv(rows [][]string) error {
	w := csv.NewWriter(pr.w)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// ForecastPoint is one rendered forecast month.
type ForecastPoint struct {
	Date    string          `json:"date"`
	Balance decimal.Decimal `json:"balance"`
	Notes   []string        `json:"notes,omitempty"`
}

// ForecastView is the rendered form of a forecast.
type ForecastView struct {
	Name     string          `json:"name"`
	Points   []ForecastPoint `json:"points"`
	Warnings []string        `json:"warnings,omitempty"`
}

// NewForecastView converts a forecast for rendering.
func NewForecastView(result forecast.Forecast) ForecastView {
	view := ForecastView{Name: result.Name, Warnings: result.Warnings, Points: make([]ForecastPoint, 0, len(result.Points))}
	for _, point := range result.Points {
		view.Points = append(view.Points, ForecastPoint{Date: datetime.Format(point.Date), Balance: point.Balance, Notes: point.Notes})
	}
	return view
}

// Forecasts renders one or more scenario forecasts.
func (pr *Printer) Forecasts(results []forecast.Forecast) error {
	switch pr.format {
	case constants.OutputFormatJSON:
		views := make([]ForecastView, 0, len(results))
		for _, result := range results {
			views = append(views, NewForecastView(result))
		}
		return pr.json(views)

	case constants.OutputFormatCSV:
		if len(results) == 0 {
			return nil
		}
		header := []string{"date"}
		for _, result := range results {
			header = append(header, fmt.Sprintf("amount (%s)", result.Name), fmt.Sprintf("notes (%s)", result.Name))
		}
		rows := [][]string{header}
		// All results share the first result's timeline.
		for i, point := range results[0].Points {
			row := []string{datetime.Format(point.Date)}
			for _, result := range results {
				if i >= len(result.Points) {
					row = append(row, "", "")
					continue
				}
				row = append(row, result.Points[i].Balance.StringFixed(2), strings.Join(result.Points[i].Notes, ","))
			}
			rows = append(rows, row)
		}
		return pr.csv(rows)
	}

	for _, result := range results {
		pr.printf("--- Results for scenario %s ---\n", result.Name)
		pr.printf("Date       | Balance       | Notes\n")
		pr.printf("____       | _____________ | _____\n")
		for _, point := range result.Points {
			pr.printf("%s | %s | %s\n", datetime.Format(point.Date), pr.money(point.Balance), strings.Join(point.Notes, ","))
		}
		for _, warning := range result.Warnings {
			pr.printf("Warning: %s\n", warning)
		}
		if len(results) > 1 {
			pr.printf("\n")
		}
	}
	return nil
}

// PaymentRow is one rendered schedule month.
type PaymentRow struct {
	Month              int             `json:"month"`
	Date               string          `json:"date,omitempty"`
	Payment            decimal.Decimal `json:"payment"`
	Interest           decimal.Decimal `json:"interest"`
	Principal          decimal.Decimal `json:"principal"`
	Extra              decimal.Decimal `json:"extra"`
	RemainingPrincipal decimal.Decimal `json:"remaining_principal"`
}

// ScheduleView is the rendered form of an amortization schedule.
type ScheduleView struct {
	Name           string          `json:"name"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	TotalInterest  decimal.Decimal `json:"total_interest"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	PayoffMonth    int             `json:"payoff_month"`
	ExtraApplied   bool            `json:"extra_applied"`
	Rows           []PaymentRow    `json:"rows"`
}

// NewScheduleView converts a schedule for rendering.
func NewScheduleView(name string, s loans.Schedule) ScheduleView {
	view := ScheduleView{
		Name:           name,
		MonthlyPayment: s.MonthlyPayment,
		TotalInterest:  s.TotalInterest,
		TotalPaid:      s.TotalPaid,
		PayoffMonth:    s.PayoffMonth,
		ExtraApplied:   s.ExtraApplied,
		Rows:           make([]PaymentRow, 0, len(s.Rows)),
	}
	for row := range s.All() {
		view.Rows = append(view.Rows, PaymentRow{
			Month:              row.Month,
			Date:               datetime.Format(row.Date),
			Payment:            row.Payment,
			Interest:           row.Interest,
			Principal:          row.Principal,
			Extra:              row.Extra,
			RemainingPrincipal: row.RemainingPrincipal,
		})
	}
	return view
}

// Schedule renders an amortization schedule. The pretty format stops at the
// payoff month; the other formats carry every row.
func (pr *Printer) Schedule(name string, s loans.Schedule) error {
	view := NewScheduleView(name, s)
	switch pr.format {
	case constants.OutputFormatJSON:
		return pr.json(view)
	case constants.OutputFormatCSV:
		rows := [][]string{{"month", "date", "payment", "interest", "principal", "extra", "remaining_principal"}}
		for _, row := range view.Rows {
			rows = append(rows, []string{
				strconv.Itoa(row.Month), row.Date,
				row.Payment.StringFixed(2), row.Interest.StringFixed(2), row.Principal.StringFixed(2),
				row.Extra.StringFixed(2), row.RemainingPrincipal.StringFixed(2),
			})
		}
		return pr.csv(rows)
	}

	pr.printf("--- Amortization schedule for %s ---\n", name)
	pr.printf("Month | Date       | Payment | Interest | Principal | Extra | Remaining\n")
	for _, row := range view.Rows {
		if row.Month > view.PayoffMonth {
			break
		}
		pr.printf("%d | %s | %s | %s | %s | %s | %s\n", row.Month, row.Date,
			pr.money(row.Payment), pr.money(row.Interest), pr.money(row.Principal),
			pr.money(row.Extra), pr.money(row.RemainingPrincipal))
	}
	pr.printf("Monthly payment: %s\n", pr.money(view.MonthlyPayment))
	pr.printf("Total interest: %s\n", pr.money(view.TotalInterest))
	pr.printf("Total paid: %s\n", pr.money(view.TotalPaid))
	pr.printf("Paid off in month %d\n", view.PayoffMonth)
	return nil
}

// ComparisonView is the rendered form of a schedule comparison.
type ComparisonView struct {
	Name            string          `json:"name"`
	BasePayoff      int             `json:"base_payoff_month"`
	AcceleratedPay  int             `json:"accelerated_payoff_month"`
	MonthsSaved     int             `json:"months_saved"`
	YearsSaved      int             `json:"years_saved"`
	RemainderMonths int             `json:"remainder_months"`
	BaseInterest    decimal.Decimal `json:"base_interest"`
	AccelInterest   decimal.Decimal `json:"accelerated_interest"`
	InterestSaved   decimal.Decimal `json:"interest_saved"`
}

// NewComparisonView converts a schedule comparison for rendering.
func NewComparisonView(name string, c loans.Comparison) ComparisonView {
	return ComparisonView{
		Name:            name,
		BasePayoff:      c.Base.PayoffMonth,
		AcceleratedPay:  c.Accelerated.PayoffMonth,
		MonthsSaved:     c.MonthsSaved,
		YearsSaved:      c.YearsSaved,
		RemainderMonths: c.RemainderMonths,
		BaseInterest:    c.Base.TotalInterest,
		AccelInterest:   c.Accelerated.TotalInterest,
		InterestSaved:   c.InterestSaved,
	}
}

// Comparison renders the effect of a loan's extra payments.
func (pr *Printer) Comparison(name string, c loans.Comparison) error {
	view := NewComparisonView(name, c)
	switch pr.format {
	case constants.OutputFormatJSON:
		return pr.json(view)
	case constants.OutputFormatCSV:
		return pr.csv([][]string{
			{"name", "base_payoff_month", "accelerated_payoff_month", "months_saved", "years_saved",
				"remainder_months", "base_interest", "accelerated_interest", "interest_saved"},
			{view.Name, strconv.Itoa(view.BasePayoff), strconv.Itoa(view.AcceleratedPay),
				strconv.Itoa(view.MonthsSaved), strconv.Itoa(view.YearsSaved), strconv.Itoa(view.RemainderMonths),
				view.BaseInterest.StringFixed(2), view.AccelInterest.StringFixed(2), view.InterestSaved.StringFixed(2)},
		})
	}

	pr.printf("--- Extra payment comparison for %s ---\n", name)
	pr.printf("Payoff month: %d without extra payments, %d with\n", view.BasePayoff, view.AcceleratedPay)
	pr.printf("Time saved: %d years %d months (%d months)\n", view.YearsSaved, view.RemainderMonths, view.MonthsSaved)
	pr.printf("Interest: %s without, %s with\n", pr.money(view.BaseInterest), pr.money(view.AccelInterest))
	pr.printf("Interest saved: %s\n", pr.money(view.InterestSaved))
	return nil
}

// TaxView is the rendered form of a tax calculation.
type TaxView struct {
	Name           string          `json:"name"`
	Income         decimal.Decimal `json:"income"`
	IncomeTax      decimal.Decimal `json:"income_tax"`
	SocialSecurity decimal.Decimal `json:"social_security"`
	Medicare       decimal.Decimal `json:"medicare"`
	Taxed          decimal.Decimal `json:"taxed"`
	EffectiveRate  decimal.Decimal `json:"effective_rate"`
}

// NewTaxView converts a tax calculation for rendering.
func NewTaxView(name string, income decimal.Decimal, r planner.TaxResult) TaxView {
	return TaxView{
		Name:           name,
		Income:         income,
		IncomeTax:      r.IncomeTax,
		SocialSecurity: r.SocialSecurity,
		Medicare:       r.Medicare,
		Taxed:          r.Taxed,
		EffectiveRate:  r.EffectiveRate,
	}
}

// Tax renders a tax bracket calculation for an income.
func (pr *Printer) Tax(name string, income decimal.Decimal, r planner.TaxResult) error {
	view := NewTaxView(name, income, r)
	switch pr.format {
	case constants.OutputFormatJSON:
		return pr.json(view)
	case constants.OutputFormatCSV:
		return pr.csv([][]string{
			{"name", "income", "income_tax", "social_security", "medicare", "taxed", "effective_rate"},
			{view.Name, view.Income.StringFixed(2), view.IncomeTax.StringFixed(2), view.SocialSecurity.StringFixed(2),
				view.Medicare.StringFixed(2), view.Taxed.StringFixed(2), view.EffectiveRate.StringFixed(constants.RatePlaces)},
		})
	}

	pr.printf("--- Taxes for %s on %s ---\n", name, pr.money(income))
	pr.printf("Income tax: %s\n", pr.money(view.IncomeTax))
	pr.printf("Social Security: %s\n", pr.money(view.SocialSecurity))
	pr.printf("Medicare: %s\n", pr.money(view.Medicare))
	pr.printf("Total taxed: %s\n", pr.money(view.Taxed))
	pr.printf("Effective rate: %s\n", format.Percent(view.EffectiveRate, constants.RatePlaces))
	return nil
}

// ScenarioView is the rendered form of a scenario.
type ScenarioView struct {
	Name            string              `json:"name"`
	Description     string              `json:"description,omitempty"`
	Members         map[string][]string `json:"members"`
	MonthlyIncome   decimal.Decimal     `json:"monthly_income"`
	MonthlyExpense  decimal.Decimal     `json:"monthly_expense"`
	MonthlyCashFlow decimal.Decimal     `json:"monthly_cash_flow"`
	AnnualCashFlow  decimal.Decimal     `json:"annual_cash_flow"`
	WeeklyCashFlow  decimal.Decimal     `json:"weekly_cash_flow"`
}

// NewScenarioView summarizes a scenario for rendering.
func NewScenarioView(s *planner.Scenario) ScenarioView {
	members := map[string][]string{}
	for _, m := range s.Members() {
		collection := store.CollectionFor(m.Kind())
		members[collection] = append(members[collection], m.Base().Name)
	}
	return ScenarioView{
		Name:            s.Name,
		Description:     s.Description,
		Members:         members,
		MonthlyIncome:   s.MonthlyIncome(),
		MonthlyExpense:  s.MonthlyExpense(),
		MonthlyCashFlow: s.GetMonthlyCashFlow(),
		AnnualCashFlow:  s.GetAnnualCashFlow(),
		WeeklyCashFlow:  s.GetWeeklyCashFlow(),
	}
}

// Scenario renders a scenario's members and cash flow.
func (pr *Printer) Scenario(s *planner.Scenario) error {
	view := NewScenarioView(s)
	switch pr.format {
	case constants.OutputFormatJSON:
		return pr.json(view)
	case constants.OutputFormatCSV:
		return pr.csv([][]string{
			{"name", "monthly_income", "monthly_expense", "monthly_cash_flow", "annual_cash_flow", "weekly_cash_flow"},
			{view.Name, view.MonthlyIncome.StringFixed(2), view.MonthlyExpense.StringFixed(2),
				view.MonthlyCashFlow.StringFixed(2), view.AnnualCashFlow.StringFixed(2), view.WeeklyCashFlow.StringFixed(2)},
		})
	}

	pr.printf("--- Scenario %s ---\n", view.Name)
	if view.Description != "" {
		pr.printf("%s\n", view.Description)
	}
	for _, collection := range store.CollectionNames() {
		if names := view.Members[collection]; len(names) > 0 {
			pr.printf("%s: %s\n", collection, strings.Join(names, ", "))
		}
	}
	pr.printf("Monthly income: %s\n", pr.money(view.MonthlyIncome))
	pr.printf("Monthly expense: %s\n", pr.money(view.MonthlyExpense))
	pr.printf("Cash flow: %s monthly, %s annually, %s weekly\n",
		pr.money(view.MonthlyCashFlow), pr.money(view.AnnualCashFlow), pr.money(view.WeeklyCashFlow))
	return nil
}

// Collections renders the registry listing.
func (pr *Printer) Collections(collections map[string][]app.Summary) error {
	switch pr.format {
	case constants.OutputFormatJSON:
		return pr.json(collections)
	case constants.OutputFormatCSV:
		rows := [][]string{{"collection", "id", "kind", "name", "description"}}
		for _, name := range store.CollectionNames() {
			for _, s := range collections[name] {
				rows = append(rows, []string{name, s.ID.String(), string(s.Kind), s.Name, s.Description})
			}
		}
		return pr.csv(rows)
	}

	for _, name := range store.CollectionNames() {
		summaries := collections[name]
		if len(summaries) == 0 {
			continue
		}
		pr.printf("--- %s ---\n", name)
		for _, s := range summaries {
			pr.printf("%s | %s | %s\n", s.ID, s.Kind.Label(), s.Name)
		}
	}
	return nil
}
