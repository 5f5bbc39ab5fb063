package validation

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/iwvelando/finance-planner/pkg/datetime"
)

// ValidateAssumptions checks configured assumption values. Keys ending in
// "Rate" are percentages and must fall within [0, 100]; every other value
// must be non-negative, and a ratio must be positive.
func ValidateAssumptions(values map[string]float64) error {
	for _, key := range slices.Sorted(maps.Keys(values)) {
		value := values[key]
		switch {
		case value < 0:
			return fmt.Errorf("assumption %s must not be negative, got %v", key, value)
		case strings.HasSuffix(key, "Rate") && value > 100:
			return fmt.Errorf("assumption %s is a percentage and must not exceed 100, got %v", key, value)
		case strings.HasSuffix(key, "Ratio") && value == 0:
			return fmt.Errorf("assumption %s must be positive", key)
		}
	}
	return nil
}

// ValidateLoanDates warns when a loan's first payment is not after its
// origination. Empty dates are not checked.
func ValidateLoanDates(loanName, originationDate, firstPaymentDate string) (string, error) {
	if originationDate == "" || firstPaymentDate == "" {
		return "", nil
	}
	before, err := datetime.DateBeforeDate(originationDate, firstPaymentDate)
	if err != nil {
		return "", err
	}
	if !before {
		return fmt.Sprintf("Loan '%s' first payment %s is not after origination %s",
			loanName, firstPaymentDate, originationDate), nil
	}
	return "", nil
}

// ValidateMaturity warns when a loan paid off after the given month count,
// counted from its first payment, ends after the horizon date.
func ValidateMaturity(loanName, firstPaymentDate, horizonDate string, months int) (string, error) {
	maturityDate, err := datetime.OffsetDate(firstPaymentDate, datetime.DateLayout, months-1)
	if err != nil {
		return "", err
	}

	if maturityDate > horizonDate {
		return fmt.Sprintf("Loan '%s' is paid off after the horizon (%s > %s) - it will have an outstanding balance",
			loanName, maturityDate, horizonDate), nil
	}

	return "", nil
}
