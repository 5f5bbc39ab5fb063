package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/iwvelando/finance-planner/internal/app"
	"github.com/iwvelando/finance-planner/internal/forecast"
	"github.com/iwvelando/finance-planner/internal/planner"
	"github.com/iwvelando/finance-planner/internal/store"
	"github.com/iwvelando/finance-planner/pkg/datetime"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPrinter(t *testing.T, format string) (*Printer, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	p, err := NewPrinter(&buf, format)
	require.NoError(t, err)
	return p, &buf
}

func sampleForecasts() []forecast.Forecast {
	return []forecast.Forecast{
		{
			Name: "Test Scenario",
			Points: []forecast.Point{
				{Date: datetime.MustParseTime(datetime.DateLayout, "2025-01-01"), Balance: decimal.NewFromInt(1000)},
				{Date: datetime.MustParseTime(datetime.DateLayout, "2025-02-01"), Balance: decimal.RequireFromString("1234567.5"), Notes: []string{"Loan 'Car' paid off"}},
			},
			Warnings: []string{"Loan 'Home' is paid off after the horizon"},
		},
		{
			Name: "Second",
			Points: []forecast.Point{
				{Date: datetime.MustParseTime(datetime.DateLayout, "2025-01-01"), Balance: decimal.NewFromInt(-50)},
			},
		},
	}
}

func sampleLoan(t *testing.T) *planner.Loan {
	t.Helper()
	loan := planner.NewLoan("Car", "", planner.AutoLoan)
	require.True(t, loan.SetTotal(10000))
	require.True(t, loan.SetRate(6))
	require.True(t, loan.SetTerm(12))
	require.True(t, loan.AddExtraPayment(1, 13, 1000))
	return loan
}

func TestNewPrinterRejectsUnknownFormat(t *testing.T) {
	_, err := NewPrinter(&bytes.Buffer{}, "xml")
	assert.Error(t, err)
}

func TestForecastsPretty(t *testing.T) {
	p, buf := newPrinter(t, "pretty")
	require.NoError(t, p.Forecasts(sampleForecasts()))

	out := buf.String()
	assert.Contains(t, out, "--- Results for scenario Test Scenario ---")
	assert.Contains(t, out, "Date       | Balance       | Notes")
	assert.Contains(t, out, "2025-01-01 | $1,000.00 | ")
	assert.Contains(t, out, "2025-02-01 | $1,234,567.50 | Loan 'Car' paid off")
	assert.Contains(t, out, "Warning: Loan 'Home'")
	assert.Contains(t, out, "--- Results for scenario Second ---")
}

func TestForecastsCSV(t *testing.T) {
	p, buf := newPrinter(t, "csv")
	require.NoError(t, p.Forecasts(sampleForecasts()))

	rows, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"date", "amount (Test Scenario)", "notes (Test Scenario)", "amount (Second)", "notes (Second)"}, rows[0])
	assert.Equal(t, []string{"2025-01-01", "1000.00", "", "-50.00", ""}, rows[1])
	assert.Equal(t, []string{"2025-02-01", "1234567.50", "Loan 'Car' paid off", "", ""}, rows[2])
}

func TestForecastsJSON(t *testing.T) {
	p, buf := newPrinter(t, "json")
	require.NoError(t, p.Forecasts(sampleForecasts()))

	var decoded []struct {
		Name   string `json:"name"`
		Points []struct {
			Date    string `json:"date"`
			Balance string `json:"balance"`
		} `json:"points"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "2025-02-01", decoded[0].Points[1].Date)
	assert.Equal(t, "1234567.5", decoded[0].Points[1].Balance)
}

func TestSchedule(t *testing.T) {
	loan := sampleLoan(t)
	schedule := loan.AmortizationSchedule(true)

	p, buf := newPrinter(t, "pretty")
	require.NoError(t, p.Schedule("Car", schedule))
	out := buf.String()
	assert.Contains(t, out, "--- Amortization schedule for Car ---")
	assert.Contains(t, out, "Monthly payment: $860.66")
	assert.Contains(t, out, "Total interest: $163.29")
	assert.Contains(t, out, "Paid off in month 6")
	assert.NotContains(t, out, "\n7 | ")

	p, buf = newPrinter(t, "csv")
	require.NoError(t, p.Schedule("Car", schedule))
	rows, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 14)
	assert.Equal(t, "10000.00", rows[1][6])

	view := NewScheduleView("Car", schedule)
	assert.Len(t, view.Rows, 13)
	assert.Equal(t, 6, view.PayoffMonth)
}

func TestComparison(t *testing.T) {
	comparison := sampleLoan(t).CompareSchedules()

	p, buf := newPrinter(t, "pretty")
	require.NoError(t, p.Comparison("Car", comparison))
	assert.Contains(t, buf.String(), "Time saved: 0 years 6 months (6 months)")
	assert.Contains(t, buf.String(), "Interest saved: $164.67")

	p, buf = newPrinter(t, "csv")
	require.NoError(t, p.Comparison("Car", comparison))
	rows, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "164.67", rows[1][8])
}

func TestTax(t *testing.T) {
	bracket := planner.NewTaxBracket("State", "", planner.State, planner.Single)
	require.True(t, bracket.AddRange(10000, 4))
	require.True(t, bracket.AddRange(nil, 6))
	income := decimal.NewFromInt(15000)
	result := bracket.Calculate(income)

	p, buf := newPrinter(t, "pretty")
	require.NoError(t, p.Tax("State", income, result))
	assert.Contains(t, buf.String(), "--- Taxes for State on $15,000.00 ---")
	assert.Contains(t, buf.String(), "Income tax: $700.00")
	assert.Contains(t, buf.String(), "Effective rate: 4.6667%")

	p, buf = newPrinter(t, "json")
	require.NoError(t, p.Tax("State", income, result))
	var view map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &view))
	assert.Equal(t, "700", view["income_tax"])
}

func TestScenario(t *testing.T) {
	salary := planner.NewIncome("Salary", "")
	require.True(t, salary.SetAmount(3000))
	bills := planner.NewExpenses("Bills", "")
	require.True(t, bills.Add("Rent", 1000))
	scenario := planner.NewScenario("Baseline", "first draft")
	require.NoError(t, scenario.AddIncome(salary))
	require.NoError(t, scenario.AddExpenses(bills))

	p, buf := newPrinter(t, "pretty")
	require.NoError(t, p.Scenario(scenario))
	out := buf.String()
	assert.Contains(t, out, "--- Scenario Baseline ---")
	assert.Contains(t, out, "incomes: Salary")
	assert.Contains(t, out, "Cash flow: $2,000.00 monthly, $24,000.00 annually, $461.54 weekly")

	view := NewScenarioView(scenario)
	assert.Equal(t, []string{"Bills"}, view.Members[store.CollectionExpenses])
}

func TestCollections(t *testing.T) {
	id := uuid.MustParse("0b6f5a62-8d64-4c4e-9a43-1f8e1e0d5a11")
	collections := map[string][]app.Summary{
		store.CollectionLoans: {{ID: id, Kind: planner.KindMortgage, Name: "Home"}},
	}

	p, buf := newPrinter(t, "pretty")
	require.NoError(t, p.Collections(collections))
	assert.Equal(t, "--- loans ---\n"+id.String()+" | Mortgage | Home\n", buf.String())

	p, buf = newPrinter(t, "csv")
	require.NoError(t, p.Collections(collections))
	assert.True(t, strings.HasPrefix(buf.String(), "collection,id,kind,name,description\n"))
	assert.Contains(t, buf.String(), "loans,"+id.String()+",mortgage,Home,")
}
