package planner

import (
	"fmt"
	"slices"

	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Scenario field keys.
const (
	FieldJobs            = "jobs"
	FieldIncomes         = "incomes"
	FieldExpenses        = "expenses"
	FieldLoans           = "loans"
	FieldMonthlyExpense  = "monthly_expense"
	FieldMonthlyCashFlow = "monthly_cash_flow"
	FieldAnnualCashFlow  = "annual_cash_flow"
	FieldWeeklyCashFlow  = "weekly_cash_flow"
)

// Scenario groups references to jobs, incomes, expenses and loans and keeps
// their combined monthly income and expense. Membership is by reference.
type Scenario struct {
	Record

	jobs     []*Job
	incomes  []*Income
	expenses []*Expenses
	loans    []Borrowing

	monthlyIncome  decimal.Decimal
	monthlyExpense decimal.Decimal
}

// NewScenario creates an empty scenario.
func NewScenario(name, description string, opts ...Option) *Scenario {
	o := buildOptions(opts)
	return &Scenario{Record: newRecord(name, description, o)}
}

// Kind implements Entity.
func (s *Scenario) Kind() Kind {
	return KindScenario
}

// AddJob adds a job. Adding a job already in the scenario fails with ErrAlreadyExists.
func (s *Scenario) AddJob(j *Job) error {
	if err := addMember(&s.jobs, j, "job"); err != nil {
		return err
	}
	s.Recalculate()
	return nil
}

// RemoveJob removes a job.
func (s *Scenario) RemoveJob(j *Job) bool {
	return s.removed(removeMember(&s.jobs, j))
}

// AddIncome adds an income. Adding an income already in the scenario fails
// with ErrAlreadyExists.
func (s *Scenario) AddIncome(i *Income) error {
	if err := addMember(&s.incomes, i, "income"); err != nil {
		return err
	}
	s.Recalculate()
	return nil
}

// RemoveIncome removes an income.
func (s *Scenario) RemoveIncome(i *Income) bool {
	return s.removed(removeMember(&s.incomes, i))
}

// AddExpenses adds an expense list. Adding a list already in the scenario
// fails with ErrAlreadyExists.
func (s *Scenario) AddExpenses(e *Expenses) error {
	if err := addMember(&s.expenses, e, "expenses"); err != nil {
		return err
	}
	s.Recalculate()
	return nil
}

// RemoveExpenses removes an expense list.
func (s *Scenario) RemoveExpenses(e *Expenses) bool {
	return s.removed(removeMember(&s.expenses, e))
}

// AddLoan adds a loan of any kind. Adding a loan already in the scenario
// fails with ErrAlreadyExists.
func (s *Scenario) AddLoan(l Borrowing) error {
	if err := addMember(&s.loans, l, "loan"); err != nil {
		return err
	}
	s.Recalculate()
	return nil
}

// RemoveLoan removes a loan.
func (s *Scenario) RemoveLoan(l Borrowing) bool {
	return s.removed(removeMember(&s.loans, l))
}

// Jobs returns the member jobs.
func (s *Scenario) Jobs() []*Job {
	return slices.Clone(s.jobs)
}

// Incomes returns the member incomes.
func (s *Scenario) Incomes() []*Income {
	return slices.Clone(s.incomes)
}

// Expenses returns the member expense lists.
func (s *Scenario) Expenses() []*Expenses {
	return slices.Clone(s.expenses)
}

// Loans returns the member loans.
func (s *Scenario) Loans() []Borrowing {
	return slices.Clone(s.loans)
}

// Members returns every member entity in jobs, incomes, expenses, loans order.
func (s *Scenario) Members() []Entity {
	members := make([]Entity, 0, len(s.jobs)+len(s.incomes)+len(s.expenses)+len(s.loans))
	for _, j := range s.jobs {
		members = append(members, j)
	}
	for _, i := range s.incomes {
		members = append(members, i)
	}
	for _, e := range s.expenses {
		members = append(members, e)
	}
	for _, l := range s.loans {
		members = append(members, l)
	}
	return members
}

// Recalculate refreshes the monthly totals from the current members. Members
// mutated after being added are picked up here.
func (s *Scenario) Recalculate() {
	income := decimal.Zero
	for _, j := range s.jobs {
		income = income.Add(j.MonthlyIncome())
	}
	for _, i := range s.incomes {
		income = income.Add(i.MonthlyIncome())
	}

	expense := decimal.Zero
	for _, e := range s.expenses {
		expense = expense.Add(e.MonthlyExpense())
	}
	for _, l := range s.loans {
		expense = expense.Add(l.MonthlyExpense())
	}

	s.monthlyIncome = mathutil.Round(income)
	s.monthlyExpense = mathutil.Round(expense)
	s.log().Debug(fmt.Sprintf("%s: monthly income %s, monthly expense %s",
		s.Name, s.monthlyIncome.StringFixed(2), s.monthlyExpense.StringFixed(2)),
		zap.String("op", "planner.Scenario.Recalculate"),
	)
}

// MonthlyIncome returns the combined monthly income of the members.
func (s *Scenario) MonthlyIncome() decimal.Decimal {
	return s.monthlyIncome
}

// MonthlyExpense returns the combined monthly expense of the members.
func (s *Scenario) MonthlyExpense() decimal.Decimal {
	return s.monthlyExpense
}

// GetMonthlyCashFlow returns monthly income minus monthly expense.
func (s *Scenario) GetMonthlyCashFlow() decimal.Decimal {
	return s.monthlyIncome.Sub(s.monthlyExpense)
}

// GetAnnualCashFlow returns twelve months of cash flow.
func (s *Scenario) GetAnnualCashFlow() decimal.Decimal {
	return s.GetMonthlyCashFlow().Mul(decimal.NewFromInt(constants.MonthsPerYear))
}

// GetWeeklyCashFlow spreads the annual cash flow over 52 weeks.
func (s *Scenario) GetWeeklyCashFlow() decimal.Decimal {
	return mathutil.Round(mathutil.SafeDiv(s.GetAnnualCashFlow(), decimal.NewFromInt(constants.WeeksPerYear)))
}

// Data implements Entity.
func (s *Scenario) Data() map[string]any {
	data := s.data()
	data[FieldJobs] = names(s.jobs)
	data[FieldIncomes] = names(s.incomes)
	data[FieldExpenses] = names(s.expenses)
	data[FieldLoans] = names(s.loans)
	data[FieldMonthlyIncome] = s.monthlyIncome
	data[FieldMonthlyExpense] = s.monthlyExpense
	data[FieldMonthlyCashFlow] = s.GetMonthlyCashFlow()
	data[FieldAnnualCashFlow] = s.GetAnnualCashFlow()
	data[FieldWeeklyCashFlow] = s.GetWeeklyCashFlow()
	return data
}

// Update implements Entity. Membership changes go through the Add and Remove
// methods.
func (s *Scenario) Update(key string, value any) bool {
	if handled, ok := s.update(key, value); handled {
		return ok
	}
	s.reject("Scenario.Update", key, value)
	return false
}

func (s *Scenario) removed(ok bool) bool {
	if ok {
		s.Recalculate()
	}
	return ok
}

func addMember[T comparable](members *[]T, member T, label string) error {
	var zero T
	if member == zero {
		return fmt.Errorf("add %s: %w", label, ErrInvalidInput)
	}
	if slices.Contains(*members, member) {
		return fmt.Errorf("add %s: %w", label, ErrAlreadyExists)
	}
	*members = append(*members, member)
	return nil
}

func removeMember[T comparable](members *[]T, member T) bool {
	i := slices.Index(*members, member)
	if i < 0 {
		return false
	}
	*members = slices.Delete(*members, i, i+1)
	return true
}

func names[T Entity](entities []T) []string {
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.Base().Name)
	}
	return out
}
