package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/iwvelando/finance-planner/internal/planner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCollections(t *testing.T) *Collections {
	t.Helper()

	federal := planner.NewTaxBracket("Federal", "2024 single", planner.Federal, planner.Single)
	require.True(t, federal.AddRange(11600, 10))
	require.True(t, federal.AddRange(47150, 12))
	require.True(t, federal.AddRange(nil, 22))

	job := planner.NewJob("Engineer", "")
	require.True(t, job.SetIncome(4000))
	require.True(t, job.SetPayFrequency(planner.BiWeekly))
	require.True(t, job.SetRetirementRate(6))
	require.True(t, job.PreTaxDeductions().AddWithCategory("Dental", 25, planner.Healthcare))
	require.True(t, job.PostTaxDeductions().Add("Union", 15))
	require.True(t, job.AttachBracket(federal))
	require.True(t, job.SetAssumption(planner.AssumptionSocialSecurityCap, 168600))

	pension := planner.NewIncome("Pension", "")
	require.True(t, pension.SetAmount(1200))

	bills := planner.NewExpenses("Bills", "")
	require.True(t, bills.AddWithCategory("Groceries", "650.25", planner.Food))
	require.True(t, bills.AddWithCategory("Power", 120, planner.Utilities))

	home := planner.NewMortgage("Home", "primary residence")
	require.True(t, home.SetTotal(400000))
	require.True(t, home.SetDownPayment(40000))
	require.True(t, home.SetRate(6.5))
	require.True(t, home.SetTerm(360))
	require.True(t, home.SetOriginationDate("2025-01-15"))
	require.True(t, home.SetFirstPaymentDate("2025-03-01"))
	require.True(t, home.SetPropertyTax(4800))
	require.True(t, home.SetInsurancePremium(1500))
	require.True(t, home.SetAssessedValue(350000))
	require.True(t, home.AddExtraPayment(1, 121, 250))

	car := planner.NewLoan("Car", "", planner.AutoLoan)
	require.True(t, car.SetTotal(30000))
	require.True(t, car.SetRate(5.9))
	require.True(t, car.SetTerm(60))

	scenario := planner.NewScenario("Baseline", "")
	require.NoError(t, scenario.AddJob(job))
	require.NoError(t, scenario.AddIncome(pension))
	require.NoError(t, scenario.AddExpenses(bills))
	require.NoError(t, scenario.AddLoan(home))
	require.NoError(t, scenario.AddLoan(car))

	return &Collections{
		TaxBrackets: []*planner.TaxBracket{federal},
		Expenses:    []*planner.Expenses{bills},
		Incomes:     []*planner.Income{pension},
		Jobs:        []*planner.Job{job},
		Loans:       []planner.Borrowing{home, car},
		Scenarios:   []*planner.Scenario{scenario},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	original := sampleCollections(t)

	s := New(path, nil)
	require.NoError(t, s.Save(original))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded.All(), len(original.All()))

	for i, entity := range original.All() {
		restored := loaded.All()[i]
		assert.Equal(t, entity.Kind(), restored.Kind())
		assert.Equal(t, entity.Base().ID, restored.Base().ID)
		assert.Equal(t, entity.Base().Name, restored.Base().Name)
		assert.Equal(t, entity.Base().Description, restored.Base().Description)
		assert.Equal(t, entity.Base().AssumptionKeys(), restored.Base().AssumptionKeys())
	}

	job := loaded.Jobs[0]
	assert.Equal(t, planner.BiWeekly, job.PayFrequency())
	require.Len(t, job.TaxBrackets(), 1)
	assert.Same(t, loaded.TaxBrackets[0], job.TaxBrackets()[0])
	assert.True(t, original.Jobs[0].GetPosttaxIncome().Equal(job.GetPosttaxIncome()))
	item, ok := job.PreTaxDeductions().Get("dental")
	require.True(t, ok)
	assert.Equal(t, planner.Healthcare, item.Category)

	bracket := loaded.TaxBrackets[0]
	require.Len(t, bracket.Ranges(), 3)
	assert.True(t, bracket.Ranges()[2].Unbounded)
	assert.True(t, bracket.Ranges()[0].Rate.Equal(original.TaxBrackets[0].Ranges()[0].Rate))

	home, ok := loaded.Loans[0].(*planner.Mortgage)
	require.True(t, ok)
	assert.True(t, home.AssessedValueOverridden())
	assert.Equal(t, "350000", home.CalculateAssessedValue().String())
	assert.Len(t, home.ExtraPayments(), 1)
	assert.Equal(t, "2025-03-01", home.FirstPaymentDate().Format("2006-01-02"))
	assert.True(t, original.Loans[0].(*planner.Mortgage).CalcTotalMonthly().Equal(home.CalcTotalMonthly()))
	assert.Equal(t, original.Loans[0].CompareSchedules().MonthsSaved, home.CompareSchedules().MonthsSaved)

	assert.Equal(t, planner.KindAuto, loaded.Loans[1].Kind())

	scenario := loaded.Scenarios[0]
	assert.Len(t, scenario.Members(), 5)
	assert.True(t, original.Scenarios[0].GetMonthlyCashFlow().Equal(scenario.GetMonthlyCashFlow()))
}

func TestStoreMissingFile(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "absent.yaml"), nil)

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded.All())
}

func TestStoreSaveReplacesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("old: content\n"), 0o600))

	s := New(path, nil)
	require.NoError(t, s.Save(sampleCollections(t)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	doc, err := ReadDocument(path)
	require.NoError(t, err)
	assert.NotContains(t, doc, "old")
	assert.Len(t, doc[CollectionLoans], 2)
}

func TestDecodeUnknownKind(t *testing.T) {
	doc := Document{
		CollectionLoans: {{Kind: "boat", Name: "Yacht"}},
	}

	_, err := Decode(doc, nil)
	assert.ErrorIs(t, err, planner.ErrUnknownKind)

	doc = Document{
		CollectionLoans: {{Kind: "job", Name: "Misfiled"}},
	}
	_, err = Decode(doc, nil)
	assert.ErrorIs(t, err, planner.ErrUnknownKind)
}

func TestDecodeSkipsDanglingReferences(t *testing.T) {
	doc := Document{
		CollectionScenarios: {{
			Kind: "scenario",
			Name: "Orphan",
			Refs: map[string][]string{refJobs: {"0b6f5a62-8d64-4c4e-9a43-1f8e1e0d5a11"}},
		}},
	}

	loaded, err := Decode(doc, nil)
	require.NoError(t, err)
	require.Len(t, loaded.Scenarios, 1)
	assert.Empty(t, loaded.Scenarios[0].Members())
}

func TestReadDocumentMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("loans: [unterminated\n"), 0o600))

	_, err := ReadDocument(path)
	assert.Error(t, err)
}
