package planner

import (
	"testing"

	"github.com/iwvelando/finance-planner/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJob(t *testing.T) (*Job, *TaxBracket) {
	t.Helper()
	job := NewJob("Engineer", "Day job")
	require.True(t, job.SetIncome(5000))
	require.True(t, job.SetPayFrequency(Monthly))
	require.True(t, job.SetRetirementRate(10))
	require.True(t, job.SetRothRate(5))
	require.True(t, job.PreTaxDeductions().Add("Health", 200))
	require.True(t, job.PostTaxDeductions().Add("Union", 20))

	state := NewTaxBracket("State", "", State, Single)
	require.True(t, state.AddRange(nil, 5))
	require.True(t, job.AttachBracket(state))
	return job, state
}

func TestJobNetIncome(t *testing.T) {
	job, _ := newTestJob(t)

	testutil.AssertDecimal(t, "60000", job.GetAnnualIncome())
	testutil.AssertDecimal(t, "500", job.Get401kAmount())
	testutil.AssertDecimal(t, "250", job.GetRothAmount())
	testutil.AssertDecimal(t, "4300", job.GetPretaxIncome())
	testutil.AssertDecimal(t, "215", job.GetIncomeTax())
	testutil.AssertDecimal(t, "310", job.GetSocialSecurity())
	testutil.AssertDecimal(t, "72.5", job.GetMedicare())
	testutil.AssertDecimal(t, "3432.5", job.GetPosttaxIncome())
	testutil.AssertDecimal(t, "3432.5", job.GetMonthlyNetIncome())
}

func TestJobBiWeeklyPay(t *testing.T) {
	job := NewJob("Barista", "")
	require.True(t, job.SetIncome(2000))
	require.True(t, job.SetPayFrequency("bi-weekly"))

	testutil.AssertDecimal(t, "52000", job.GetAnnualIncome())
	testutil.AssertDecimal(t, "124", job.GetSocialSecurity())
	testutil.AssertDecimal(t, "29", job.GetMedicare())
	testutil.AssertDecimal(t, "1847", job.GetPosttaxIncome())
	testutil.AssertDecimal(t, "4001.83", job.GetMonthlyNetIncome())
}

func TestJobRothIsTakenAfterTax(t *testing.T) {
	job, _ := newTestJob(t)
	pretax := job.GetPretaxIncome()
	incomeTax := job.GetIncomeTax()
	net := job.GetPosttaxIncome()

	require.True(t, job.SetRothRate(10))
	assert.True(t, job.GetPretaxIncome().Equal(pretax))
	assert.True(t, job.GetIncomeTax().Equal(incomeTax))
	testutil.AssertDecimal(t, net.Sub(testutil.Dec("250")).String(), job.GetPosttaxIncome())

	require.True(t, job.SetRothRate(5))
	require.True(t, job.SetRetirementRate(20))
	assert.True(t, job.GetPretaxIncome().LessThan(pretax))
	assert.True(t, job.GetIncomeTax().LessThan(incomeTax))
}

func TestJobSocialSecurityCap(t *testing.T) {
	job := NewJob("Executive", "")
	require.True(t, job.SetIncome(300000))
	require.True(t, job.SetPayFrequency(Annually))

	testutil.AssertDecimal(t, "10918.2", job.GetSocialSecurity())
	testutil.AssertDecimal(t, "5250", job.GetMedicare())

	require.True(t, job.SetAssumption(AssumptionSocialSecurityCap, 100000))
	testutil.AssertDecimal(t, "6200", job.GetSocialSecurity())
}

func TestJobBrackets(t *testing.T) {
	job, state := newTestJob(t)

	assert.False(t, job.AttachBracket(state))
	assert.False(t, job.AttachBracket(nil))
	assert.Len(t, job.TaxBrackets(), 1)

	empty := NewTaxBracket("Empty", "", Local, Single)
	require.True(t, job.AttachBracket(empty))
	testutil.AssertDecimal(t, "215", job.GetIncomeTax())

	assert.True(t, job.DetachBracket(state))
	assert.False(t, job.DetachBracket(state))
	assert.True(t, job.GetIncomeTax().IsZero())
}

func TestJobRejectsInvalidInput(t *testing.T) {
	job, _ := newTestJob(t)
	before := job.GetPosttaxIncome()

	assert.False(t, job.SetIncome("a lot"))
	assert.False(t, job.SetIncome(-5))
	assert.False(t, job.SetPayFrequency("Fortnightly"))
	assert.False(t, job.SetRetirementRate(150))
	assert.False(t, job.Update(FieldRothRate, "ten"))
	assert.False(t, job.Update(FieldPosttaxIncome, 1))

	assert.Equal(t, Monthly, job.PayFrequency())
	assert.True(t, job.GetPosttaxIncome().Equal(before))
}

func TestJobData(t *testing.T) {
	job, _ := newTestJob(t)
	require.True(t, job.Update(FieldPayFrequency, "Semimonthly"))

	data := job.Data()
	assert.Equal(t, "Semimonthly", data[FieldPayFrequency])
	assert.Equal(t, []string{"State"}, data[FieldTaxBrackets])
	assert.Contains(t, data, FieldPosttaxIncome)
	assert.Contains(t, data, FieldMonthlyIncome)
}
