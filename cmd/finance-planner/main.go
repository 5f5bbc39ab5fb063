package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/iwvelando/finance-planner/internal/app"
	"github.com/iwvelando/finance-planner/internal/config"
	"github.com/iwvelando/finance-planner/internal/planner"
	"github.com/iwvelando/finance-planner/internal/store"
	"github.com/iwvelando/finance-planner/pkg/constants"
	"github.com/iwvelando/finance-planner/pkg/output"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info"
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	format := loggingConfig.Format
	if format == "" {
		format = "json"
	}

	var config zap.Config
	switch format {
	case "console":
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapLevel)
	case "json":
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapLevel)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
			}
		}

		file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", loggingConfig.OutputFile, err)
		}
		_ = file.Close()

		config.OutputPaths = []string{loggingConfig.OutputFile}
		config.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	} else {
		// Results go to stdout; keep logs off it.
		config.OutputPaths = []string{"stderr"}
	}

	return config.Build()
}

// cli carries what every subcommand needs once the configuration is loaded.
type cli struct {
	configLocation string
	logLevel       string
	outputFormat   string
	dataFile       string

	conf    *config.Configuration
	logger  *zap.Logger
	state   *app.State
	printer *output.Printer
}

func (c *cli) setup(cmd *cobra.Command) error {
	conf, err := config.LoadConfiguration(c.configLocation)
	if err != nil {
		return fmt.Errorf("failed to load configuration at %s: %w", c.configLocation, err)
	}
	c.conf = conf

	logger, err := initializeLogger(conf.Logging, c.logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.logger = logger

	// CLI override takes precedence over config
	format := conf.Output.Format
	if c.outputFormat != "" {
		format = c.outputFormat
	}
	c.printer, err = output.NewPrinter(cmd.OutOrStdout(), format)
	if err != nil {
		return err
	}

	dataFile := conf.Storage.DataFile
	if c.dataFile != "" {
		dataFile = c.dataFile
	}
	assumptions := planner.WithAssumptions(conf.PlannerAssumptions())
	st := store.New(dataFile, logger, planner.WithLogger(logger), assumptions)
	c.state = app.New(st, logger, assumptions)
	if err := c.state.Load(); err != nil {
		return err
	}

	logger.Debug(fmt.Sprintf("using data file %s", dataFile),
		zap.String("op", "main"),
	)
	return nil
}

func newRootCommand(out io.Writer) *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "finance-planner",
		Short:         "Plan jobs, taxes, expenses and loans, and project scenario cash flow",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&c.configLocation, "config", constants.DefaultConfigFile, "path to configuration file")
	flags.StringVar(&c.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	flags.StringVar(&c.outputFormat, "output-format", "", "type of output override: pretty, csv, json")
	flags.StringVar(&c.dataFile, "data", "", "data file override")

	root.AddCommand(
		newListCommand(c),
		newScheduleCommand(c),
		newCompareCommand(c),
		newTaxCommand(c),
		newScenarioCommand(c),
		newServeCommand(c),
		newNewCommand(c),
		newSetCommand(c),
		newRemoveCommand(c),
		newLinkCommand(c),
		newRangeCommand(c),
		newExtraCommand(c),
	)
	return root
}

func main() {
	if err := newRootCommand(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"error\": %q}\n", err.Error())
		os.Exit(1)
	}
}
