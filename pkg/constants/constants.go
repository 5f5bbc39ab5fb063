// Package constants provides shared constants for the finance-planner application.
package constants

// DateLayout is the format expected for loan dates in data files and is also
// the output date format.
const DateLayout = "2006-01-02"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// WeeksPerYear is the number of weeks in a year
	WeeksPerYear = 52

	// CurrencyPlaces is the number of decimal places kept for currency
	CurrencyPlaces = 2

	// RatePlaces is the number of decimal places kept for effective rates
	RatePlaces = 4

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Pay periods per year for each pay frequency.
const (
	WeeklyPeriods       = 52
	BiWeeklyPeriods     = 26
	SemimonthlyPeriods  = 24
	MonthlyPeriods      = 12
	QuarterlyPeriods    = 4
	AnnualPeriods       = 1
	DefaultPayFrequency = "Monthly"
)

// Payroll tax defaults, in percent where a rate is given.
const (
	DefaultSocialSecurityRate = 6.2
	DefaultSocialSecurityCap  = 176100.0
	DefaultMedicareRate       = 1.45
	DefaultMedicareSurtax     = 2.35
	DefaultMedicareThreshold  = 200000.0
)

// Standard deductions by filing status.
const (
	StandardDeductionSingle          = 14600.0
	StandardDeductionMarriedJoint    = 29200.0
	StandardDeductionMarriedSeparate = 14600.0
	StandardDeductionHeadOfHousehold = 21900.0
)

// Mortgage defaults
const (
	// DefaultPMIRate is the annual PMI rate in percent of principal
	DefaultPMIRate = 0.5

	// PMIEquityThreshold is the down payment percentage at which PMI stops
	PMIEquityThreshold = 20.0

	// AssessedValueRatio is the share of the purchase price used as the
	// assessed value when no override is set
	AssessedValueRatio = 0.95
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultDataFile is the default file holding saved entities
	DefaultDataFile = "finance-planner.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the command API
	DefaultServerAddress = "127.0.0.1:8080"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024

	// DefaultShutdownTimeout bounds graceful shutdown of the command API
	DefaultShutdownTimeout = "5s"
)

// Validation constants
const (
	// CurrencyTolerance is the tolerance for currency comparisons (1 cent)
	CurrencyTolerance = 0.01

	// MaxTermMonths bounds loan terms so schedules stay small
	MaxTermMonths = 600
)
