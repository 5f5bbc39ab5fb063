package app

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/iwvelando/finance-planner/internal/planner"
	"github.com/iwvelando/finance-planner/internal/store"
	"github.com/iwvelando/finance-planner/pkg/datetime"
	"github.com/iwvelando/finance-planner/pkg/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	state    *State
	bracket  *planner.TaxBracket
	job      *planner.Job
	bills    *planner.Expenses
	car      *planner.Loan
	scenario *planner.Scenario
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	state := New(store.New(filepath.Join(t.TempDir(), "plan.yaml"), nil), nil)
	opts := state.Options()

	bracket := planner.NewTaxBracket("State", "", planner.State, planner.Single, opts...)
	require.True(t, bracket.AddRange(nil, 5))

	job := planner.NewJob("Engineer", "", opts...)
	require.True(t, job.SetIncome(5000))
	require.True(t, job.AttachBracket(bracket))

	bills := planner.NewExpenses("Bills", "", opts...)
	require.True(t, bills.Add("Rent", 1500))

	car := planner.NewLoan("Car", "", planner.AutoLoan, opts...)
	require.True(t, car.SetTotal(10000))
	require.True(t, car.SetRate(6))
	require.True(t, car.SetTerm(12))

	scenario := planner.NewScenario("Baseline", "", opts...)
	require.NoError(t, scenario.AddJob(job))
	require.NoError(t, scenario.AddExpenses(bills))
	require.NoError(t, scenario.AddLoan(car))

	for _, entity := range []planner.Entity{bracket, job, bills, car, scenario} {
		require.NoError(t, state.Add(entity))
	}
	return fixture{state: state, bracket: bracket, job: job, bills: bills, car: car, scenario: scenario}
}

func TestStateAddAndFind(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.state.Add(f.car), planner.ErrAlreadyExists)
	assert.ErrorIs(t, f.state.Add(nil), planner.ErrInvalidInput)

	found, err := f.state.FindByID(f.car.ID)
	require.NoError(t, err)
	assert.Same(t, f.car, found)

	_, err = f.state.FindByID(uuid.New())
	assert.ErrorIs(t, err, planner.ErrNotFound)

	found, err = f.state.Find(" car ")
	require.NoError(t, err)
	assert.Same(t, f.car, found)

	found, err = f.state.Find(f.scenario.ID.String(), planner.KindScenario)
	require.NoError(t, err)
	assert.Same(t, f.scenario, found)

	_, err = f.state.Find("Car", planner.KindScenario)
	assert.ErrorIs(t, err, planner.ErrNotFound)
}

func TestStateListAndCollections(t *testing.T) {
	f := newFixture(t)

	assert.Len(t, f.state.List(""), 5)

	loans := f.state.List(store.CollectionLoans)
	require.Len(t, loans, 1)
	assert.Equal(t, planner.KindAuto, loans[0].Kind)
	assert.Equal(t, "Car", loans[0].Name)

	collections := f.state.Collections()
	assert.Len(t, collections, len(store.CollectionNames()))
	assert.Len(t, collections[store.CollectionTaxBrackets], 1)
	assert.Empty(t, collections[store.CollectionIncomes])
}

func TestStateRemoveDetachesReferences(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.state.Remove(f.bracket.ID))
	assert.Empty(t, f.job.TaxBrackets())

	require.NoError(t, f.state.Remove(f.car.ID))
	assert.Empty(t, f.scenario.Loans())
	testutil.AssertDecimal(t, "1500", f.scenario.MonthlyExpense())

	assert.ErrorIs(t, f.state.Remove(f.car.ID), planner.ErrNotFound)
	assert.Len(t, f.state.List(""), 3)
}

func TestStateUpdateRefreshesScenarios(t *testing.T) {
	f := newFixture(t)
	before := f.scenario.MonthlyExpense()

	ok, err := f.state.Update(f.bills.ID, "Internet", 100)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, f.scenario.MonthlyExpense().Equal(before.Add(decimal.NewFromInt(100))))

	ok, err = f.state.Update(f.bills.ID, planner.FieldTotal, 5)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.state.Update(uuid.New(), planner.FieldName, "x")
	assert.ErrorIs(t, err, planner.ErrNotFound)
}

func TestStateSaveAndLoad(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.state.Save())

	reloaded := New(store.New(f.state.store.Path(), nil), nil)
	require.NoError(t, reloaded.Load())
	assert.Len(t, reloaded.List(""), 5)

	entity, err := reloaded.FindByID(f.scenario.ID)
	require.NoError(t, err)
	scenario := entity.(*planner.Scenario)
	assert.True(t, f.scenario.GetMonthlyCashFlow().Equal(scenario.GetMonthlyCashFlow()))
}

func TestStateWithoutStore(t *testing.T) {
	state := New(nil, nil)
	assert.ErrorIs(t, state.Load(), planner.ErrInvalidInput)
	assert.ErrorIs(t, state.Save(), planner.ErrInvalidInput)
}

func TestStateView(t *testing.T) {
	f := newFixture(t)

	var name string
	require.NoError(t, f.state.View(f.job.ID, func(e planner.Entity) error {
		name = e.Base().Name
		return nil
	}))
	assert.Equal(t, "Engineer", name)
	assert.ErrorIs(t, f.state.View(uuid.New(), func(planner.Entity) error { return nil }), planner.ErrNotFound)
}

func TestStateProject(t *testing.T) {
	f := newFixture(t)
	start := datetime.MustParseTime(datetime.DateLayout, "2025-01-01")

	points, err := f.state.Project(f.scenario, start, 13, decimal.Zero)
	require.NoError(t, err)
	require.Len(t, points, 14)

	monthly := f.scenario.GetMonthlyCashFlow()
	assert.True(t, points[1].Balance.Equal(monthly), "first month matches the scenario cash flow")
	assert.Equal(t, []string{"Loan 'Car' paid off"}, points[12].Notes)

	steady := f.scenario.MonthlyIncome().Sub(f.bills.MonthlyExpense())
	assert.True(t, points[13].Balance.Sub(points[12].Balance).Equal(steady))
}

func TestStateMutate(t *testing.T) {
	f := newFixture(t)
	before := f.scenario.MonthlyIncome()

	require.NoError(t, f.state.Mutate(f.bracket.ID, func(e planner.Entity) error {
		bracket := e.(*planner.TaxBracket)
		require.True(t, bracket.RemoveRange(nil))
		require.True(t, bracket.AddRange(nil, 10))
		return nil
	}))
	assert.True(t, f.scenario.MonthlyIncome().LessThan(before), "higher state rate lowers scenario income")

	assert.ErrorIs(t, f.state.Mutate(uuid.New(), func(planner.Entity) error { return nil }), planner.ErrNotFound)
}
