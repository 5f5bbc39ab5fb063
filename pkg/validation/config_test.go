package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAssumptions(t *testing.T) {
	tests := []struct {
		name      string
		values    map[string]float64
		expectErr bool
	}{
		{
			name:   "Defaults",
			values: map[string]float64{"socialSecurityRate": 6.2, "socialSecurityCap": 176100, "assessedValueRatio": 0.95},
		},
		{
			name:   "Zero rate allowed",
			values: map[string]float64{"pmiRate": 0},
		},
		{
			name:      "Negative cap",
			values:    map[string]float64{"socialSecurityCap": -1},
			expectErr: true,
		},
		{
			name:      "Rate above 100",
			values:    map[string]float64{"medicareRate": 145},
			expectErr: true,
		},
		{
			name:      "Zero ratio",
			values:    map[string]float64{"assessedValueRatio": 0},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAssumptions(tt.values)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateLoanDates(t *testing.T) {
	tests := []struct {
		name        string
		origination string
		first       string
		expectWarn  bool
		expectError bool
	}{
		{name: "First payment after origination", origination: "2025-01-15", first: "2025-03-01"},
		{name: "First payment same day", origination: "2025-03-01", first: "2025-03-01", expectWarn: true},
		{name: "First payment before origination", origination: "2025-03-01", first: "2025-01-01", expectWarn: true},
		{name: "Missing origination", first: "2025-03-01"},
		{name: "Malformed date", origination: "2025/01/15", first: "2025-03-01", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warning, err := ValidateLoanDates("Home", tt.origination, tt.first)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectWarn, warning != "")
		})
	}
}

func TestValidateMaturity(t *testing.T) {
	tests := []struct {
		name       string
		first      string
		horizon    string
		months     int
		expectWarn bool
	}{
		{name: "Paid off before horizon", first: "2025-01-01", horizon: "2030-01-01", months: 36},
		{name: "Paid off on horizon", first: "2025-01-01", horizon: "2025-12-01", months: 12},
		{name: "Paid off after horizon", first: "2025-01-01", horizon: "2026-06-01", months: 60, expectWarn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warning, err := ValidateMaturity("Car", tt.first, tt.horizon, tt.months)
			require.NoError(t, err)
			assert.Equal(t, tt.expectWarn, warning != "")
		})
	}

	_, err := ValidateMaturity("Car", "soon", "2026-01-01", 12)
	assert.Error(t, err)
}
