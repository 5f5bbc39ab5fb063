package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/finance-planner/internal/app"
	"github.com/iwvelando/finance-planner/internal/forecast"
	"github.com/iwvelando/finance-planner/internal/planner"
	"github.com/iwvelando/finance-planner/internal/server"
	"github.com/iwvelando/finance-planner/pkg/datetime"
	"github.com/iwvelando/finance-planner/pkg/mathutil"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var loanKinds = []planner.Kind{planner.KindLoan, planner.KindMortgage, planner.KindAuto,
	planner.KindStudent, planner.KindPersonal}

func newListCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list [collection]",
		Short: "List stored entities, optionally only one collection",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			collections := c.state.Collections()
			if len(args) == 1 {
				summaries, ok := collections[args[0]]
				if !ok {
					return fmt.Errorf("unknown collection %q: %w", args[0], planner.ErrNotFound)
				}
				collections = map[string][]app.Summary{args[0]: summaries}
			}
			return c.printer.Collections(collections)
		},
	}
}

func newScheduleCommand(c *cli) *cobra.Command {
	var applyExtra bool
	cmd := &cobra.Command{
		Use:   "schedule <loan>",
		Short: "Print the amortization schedule of a loan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loan, err := c.loan(args[0])
			if err != nil {
				return err
			}
			return c.printer.Schedule(loan.Base().Name, loan.AmortizationSchedule(applyExtra))
		},
	}
	cmd.Flags().BoolVar(&applyExtra, "extra", false, "apply the loan's extra payments")
	return cmd
}

func newCompareCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <loan>",
		Short: "Compare a loan's schedule with and without extra payments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loan, err := c.loan(args[0])
			if err != nil {
				return err
			}
			return c.printer.Comparison(loan.Base().Name, loan.CompareSchedules())
		},
	}
}

func newTaxCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "tax <bracket> <income>",
		Short: "Calculate the tax a bracket levies on an annual income",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, err := c.state.Find(args[0], planner.KindTaxBracket)
			if err != nil {
				return err
			}
			bracket := entity.(*planner.TaxBracket)

			income, ok := mathutil.FromAny(args[1])
			if !ok || income.IsNegative() {
				return fmt.Errorf("invalid income %q: %w", args[1], planner.ErrInvalidInput)
			}
			result := bracket.Calculate(income)
			if !result.Ok {
				return fmt.Errorf("tax bracket %s: %w", bracket.Name, planner.ErrNoRanges)
			}
			return c.printer.Tax(bracket.Name, income, result)
		},
	}
}

func newScenarioCommand(c *cli) *cobra.Command {
	var (
		months  int
		start   string
		balance string
	)
	cmd := &cobra.Command{
		Use:   "scenario <name>",
		Short: "Summarize a scenario and project its balance month by month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, err := c.state.Find(args[0], planner.KindScenario)
			if err != nil {
				return err
			}
			scenario := entity.(*planner.Scenario)
			if months <= 0 {
				scenario.Recalculate()
				return c.printer.Scenario(scenario)
			}

			startDate := time.Now().UTC().Truncate(24 * time.Hour)
			if start != "" {
				if startDate, err = datetime.Parse(start); err != nil {
					return fmt.Errorf("invalid start date %q: %w", start, planner.ErrInvalidInput)
				}
			}
			startingBalance, ok := mathutil.FromAny(balance)
			if !ok {
				return fmt.Errorf("invalid balance %q: %w", balance, planner.ErrInvalidInput)
			}

			result, err := c.state.Forecast(scenario, startDate, months, startingBalance)
			if err != nil {
				return err
			}
			for _, warning := range result.Warnings {
				c.logger.Warn(warning, zap.String("op", "main.scenario"))
			}
			if err := c.printer.Scenario(scenario); err != nil {
				return err
			}
			return c.printer.Forecasts([]forecast.Forecast{result})
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&months, "months", 0, "number of months to project; 0 prints only the summary")
	flags.StringVar(&start, "start", "", "projection start date (YYYY-MM-DD), default today")
	flags.StringVar(&balance, "balance", "0", "starting balance")
	return cmd
}

func newServeCommand(c *cli) *cobra.Command {
	var serverConfig string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the command API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				cfg *server.Config
				err error
			)
			if serverConfig != "" {
				cfg, err = server.LoadConfig(serverConfig)
			} else {
				cfg, err = server.FromConfiguration(c.conf)
			}
			if err != nil {
				return fmt.Errorf("failed to load server configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			handler := server.NewHandler(c.logger, c.state, cfg.UploadSizeBytes(), version)
			err = server.Serve(ctx, c.logger, cfg, handler)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&serverConfig, "server-config", "", "standalone server configuration file")
	return cmd
}

func (c *cli) loan(ref string) (planner.Borrowing, error) {
	entity, err := c.state.Find(ref, loanKinds...)
	if err != nil {
		return nil, err
	}
	return entity.(planner.Borrowing), nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, ok := mathutil.FromAny(raw)
	if !ok {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, planner.ErrInvalidInput)
	}
	return amount, nil
}
