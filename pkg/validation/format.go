// Package validation provides common validation utilities.
package validation

import (
	"fmt"
	"slices"

	"github.com/iwvelando/finance-planner/pkg/constants"
)

// OutputFormats lists the supported output formats.
func OutputFormats() []string {
	return []string{constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON}
}

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	if !slices.Contains(OutputFormats(), format) {
		return fmt.Errorf("expected output format of %s, %s or %s, got %s",
			constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON, format)
	}
	return nil
}
