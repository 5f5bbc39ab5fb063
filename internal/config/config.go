// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the config.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/iwvelando/finance-planner/internal/planner"
	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/iwvelando/finance-planner/pkg/validation"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variable overrides, e.g.
// FINANCE_PLANNER_LOGGING_LEVEL=debug.
const EnvPrefix = "FINANCE_PLANNER"

// Configuration holds all configuration for finance-planner.
type Configuration struct {
	Logging     LoggingConfig     `yaml:"logging,omitempty"`
	Output      OutputConfig      `yaml:"output,omitempty"`
	Storage     StorageConfig     `yaml:"storage,omitempty"`
	Assumptions AssumptionsConfig `yaml:"assumptions,omitempty"`
	Server      ServerConfig      `yaml:"server,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, json
}

// StorageConfig locates the saved entity document.
type StorageConfig struct {
	DataFile string `yaml:"dataFile,omitempty"`
}

// AssumptionsConfig overrides the defaults copied into newly constructed
// entities. Rates are percentages.
type AssumptionsConfig struct {
	SocialSecurityRate float64 `yaml:"socialSecurityRate,omitempty"`
	SocialSecurityCap  float64 `yaml:"socialSecurityCap,omitempty"`
	MedicareRate       float64 `yaml:"medicareRate,omitempty"`
	MedicareSurtaxRate float64 `yaml:"medicareSurtaxRate,omitempty"`
	MedicareThreshold  float64 `yaml:"medicareThreshold,omitempty"`
	PMIRate            float64 `yaml:"pmiRate,omitempty"`
	PMIEquityThreshold float64 `yaml:"pmiEquityThreshold,omitempty"`
	AssessedValueRatio float64 `yaml:"assessedValueRatio,omitempty"`
}

// ServerConfig holds the command API listener settings.
type ServerConfig struct {
	Address         string `yaml:"address,omitempty"`
	MaxUploadSize   string `yaml:"maxUploadSize,omitempty"`   // human size, e.g. 256K
	ShutdownTimeout string `yaml:"shutdownTimeout,omitempty"` // Go duration, e.g. 5s
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there. A missing file yields the defaults, still subject to
// environment overrides.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigType("yml")

	if configPath != "" {
		_, err := os.Stat(configPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("error reading config file, %w", err)
		default:
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file, %w", err)
			}
		}
	}

	var configuration Configuration
	err := v.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if err := configuration.Validate(); err != nil {
		return nil, err
	}

	return &configuration, nil
}

func setDefaults(v *viper.Viper) {
	defaults := planner.DefaultAssumptions()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputFile", "")
	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("storage.dataFile", constants.DefaultDataFile)
	v.SetDefault("assumptions.socialSecurityRate", defaults.SocialSecurityRate.InexactFloat64())
	v.SetDefault("assumptions.socialSecurityCap", defaults.SocialSecurityCap.InexactFloat64())
	v.SetDefault("assumptions.medicareRate", defaults.MedicareRate.InexactFloat64())
	v.SetDefault("assumptions.medicareSurtaxRate", defaults.MedicareSurtaxRate.InexactFloat64())
	v.SetDefault("assumptions.medicareThreshold", defaults.MedicareThreshold.InexactFloat64())
	v.SetDefault("assumptions.pmiRate", defaults.PMIRate.InexactFloat64())
	v.SetDefault("assumptions.pmiEquityThreshold", defaults.PMIEquityThreshold.InexactFloat64())
	v.SetDefault("assumptions.assessedValueRatio", defaults.AssessedValueRatio.InexactFloat64())
	v.SetDefault("server.address", constants.DefaultServerAddress)
	v.SetDefault("server.maxUploadSize", "256K")
	v.SetDefault("server.shutdownTimeout", constants.DefaultShutdownTimeout)
}

// Validate checks the output format and that every assumption is usable.
func (c *Configuration) Validate() error {
	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		return err
	}
	if strings.TrimSpace(c.Storage.DataFile) == "" {
		return errors.New("storage.dataFile must not be empty")
	}
	return validation.ValidateAssumptions(map[string]float64{
		"socialSecurityRate": c.Assumptions.SocialSecurityRate,
		"socialSecurityCap":  c.Assumptions.SocialSecurityCap,
		"medicareRate":       c.Assumptions.MedicareRate,
		"medicareSurtaxRate": c.Assumptions.MedicareSurtaxRate,
		"medicareThreshold":  c.Assumptions.MedicareThreshold,
		"pmiRate":            c.Assumptions.PMIRate,
		"pmiEquityThreshold": c.Assumptions.PMIEquityThreshold,
		"assessedValueRatio": c.Assumptions.AssessedValueRatio,
	})
}

// PlannerAssumptions converts the configured assumptions for entity construction.
func (c *Configuration) PlannerAssumptions() planner.Assumptions {
	a := c.Assumptions
	return planner.Assumptions{
		SocialSecurityRate: decimal.NewFromFloat(a.SocialSecurityRate),
		SocialSecurityCap:  decimal.NewFromFloat(a.SocialSecurityCap),
		MedicareRate:       decimal.NewFromFloat(a.MedicareRate),
		MedicareSurtaxRate: decimal.NewFromFloat(a.MedicareSurtaxRate),
		MedicareThreshold:  decimal.NewFromFloat(a.MedicareThreshold),
		PMIRate:            decimal.NewFromFloat(a.PMIRate),
		PMIEquityThreshold: decimal.NewFromFloat(a.PMIEquityThreshold),
		AssessedValueRatio: decimal.NewFromFloat(a.AssessedValueRatio),
	}
}
