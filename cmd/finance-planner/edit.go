package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iwvelando/finance-planner/internal/app"
	"github.com/iwvelando/finance-planner/internal/planner"
	"github.com/iwvelando/finance-planner/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// unboundedRange names the top tax range on the command line.
const unboundedRange = "top"

func newNewCommand(c *cli) *cobra.Command {
	var (
		description  string
		taxType      string
		filingStatus string
	)
	cmd := &cobra.Command{
		Use:   "new <kind> <name>",
		Short: "Create an entity and save it",
		Long: "Create an entity and save it. Kinds: expenses, tax_bracket, job, income, " +
			"loan, mortgage, auto, student, personal, scenario.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := planner.ParseKind(args[0])
			if !ok {
				return fmt.Errorf("kind %q: %w", args[0], planner.ErrUnknownKind)
			}
			name := args[1]
			opts := c.state.Options()

			var entity planner.Entity
			switch kind {
			case planner.KindExpenses:
				entity = planner.NewExpenses(name, description, opts...)
			case planner.KindJob:
				entity = planner.NewJob(name, description, opts...)
			case planner.KindIncome:
				entity = planner.NewIncome(name, description, opts...)
			case planner.KindScenario:
				entity = planner.NewScenario(name, description, opts...)
			case planner.KindMortgage:
				entity = planner.NewMortgage(name, description, opts...)
			case planner.KindTaxBracket:
				tt, ok := planner.ParseTaxType(taxType)
				if !ok {
					return fmt.Errorf("tax type %q: %w", taxType, planner.ErrInvalidInput)
				}
				fs, ok := planner.ParseFilingStatus(filingStatus)
				if !ok {
					return fmt.Errorf("filing status %q: %w", filingStatus, planner.ErrInvalidInput)
				}
				entity = planner.NewTaxBracket(name, description, tt, fs, opts...)
			default:
				lk, ok := planner.ParseLoanKind(string(kind))
				if !ok {
					return fmt.Errorf("kind %q: %w", args[0], planner.ErrUnknownKind)
				}
				entity = planner.NewLoan(name, description, lk, opts...)
			}

			if err := c.state.Add(entity); err != nil {
				return err
			}
			if err := c.save(); err != nil {
				return err
			}
			base := entity.Base()
			return c.printer.Collections(map[string][]app.Summary{
				store.CollectionFor(kind): {{ID: base.ID, Kind: kind, Name: base.Name, Description: base.Description}},
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&description, "description", "", "free-form description")
	flags.StringVar(&taxType, "tax-type", string(planner.Federal), "tax bracket type: Federal, State, Local")
	flags.StringVar(&filingStatus, "filing-status", string(planner.Single),
		"tax bracket filing status: Single, Married-Joint, Married-Separate, Head-of-Household")
	return cmd
}

func newSetCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "set <entity> <key> <value>",
		Short: "Update one field of an entity and save it",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, err := c.state.Find(args[0])
			if err != nil {
				return err
			}
			accepted, err := c.state.Update(entity.Base().ID, args[1], args[2])
			if err != nil {
				return err
			}
			if !accepted {
				return fmt.Errorf("%s rejected %s=%q: %w", entity.Base().Name, args[1], args[2], planner.ErrInvalidInput)
			}
			return c.save()
		},
	}
}

func newRemoveCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <entity>",
		Short: "Delete an entity, detaching it from jobs and scenarios, and save",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, err := c.state.Find(args[0])
			if err != nil {
				return err
			}
			if err := c.state.Remove(entity.Base().ID); err != nil {
				return err
			}
			return c.save()
		},
	}
}

func newLinkCommand(c *cli) *cobra.Command {
	var unlink bool
	cmd := &cobra.Command{
		Use:   "link <parent> <member>",
		Short: "Add a member to a scenario, or a tax bracket to a job, and save",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			parent, err := c.state.Find(args[0], planner.KindScenario, planner.KindJob)
			if err != nil {
				return err
			}
			member, err := c.state.Find(args[1])
			if err != nil {
				return err
			}
			err = c.state.Mutate(parent.Base().ID, func(e planner.Entity) error {
				return link(e, member, unlink)
			})
			if err != nil {
				return err
			}
			return c.save()
		},
	}
	cmd.Flags().BoolVar(&unlink, "remove", false, "remove the member instead of adding it")
	return cmd
}

func link(parent, member planner.Entity, unlink bool) error {
	rejected := fmt.Errorf("cannot link %s %s to %s %s: %w",
		member.Kind(), member.Base().Name, parent.Kind(), parent.Base().Name, planner.ErrInvalidInput)

	if job, ok := parent.(*planner.Job); ok {
		bracket, ok := member.(*planner.TaxBracket)
		if !ok {
			return rejected
		}
		if unlink {
			ok = job.DetachBracket(bracket)
		} else {
			ok = job.AttachBracket(bracket)
		}
		if !ok {
			return rejected
		}
		return nil
	}

	scenario := parent.(*planner.Scenario)
	if unlink {
		var ok bool
		switch m := member.(type) {
		case *planner.Job:
			ok = scenario.RemoveJob(m)
		case *planner.Income:
			ok = scenario.RemoveIncome(m)
		case *planner.Expenses:
			ok = scenario.RemoveExpenses(m)
		case planner.Borrowing:
			ok = scenario.RemoveLoan(m)
		}
		if !ok {
			return fmt.Errorf("%s is not in scenario %s: %w", member.Base().Name, scenario.Name, planner.ErrNotFound)
		}
		return nil
	}

	switch m := member.(type) {
	case *planner.Job:
		return scenario.AddJob(m)
	case *planner.Income:
		return scenario.AddIncome(m)
	case *planner.Expenses:
		return scenario.AddExpenses(m)
	case planner.Borrowing:
		return scenario.AddLoan(m)
	}
	return rejected
}

func newRangeCommand(c *cli) *cobra.Command {
	var remove bool
	cmd := &cobra.Command{
		Use:   "range <bracket> <upper-bound|top> [rate]",
		Short: "Add or replace a tax range of a bracket, rate in percent, and save",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, err := c.state.Find(args[0], planner.KindTaxBracket)
			if err != nil {
				return err
			}
			var bound any = args[1]
			if strings.EqualFold(args[1], unboundedRange) {
				bound = nil
			}
			if !remove && len(args) != 3 {
				return fmt.Errorf("missing rate: %w", planner.ErrInvalidInput)
			}

			err = c.state.Mutate(entity.Base().ID, func(e planner.Entity) error {
				bracket := e.(*planner.TaxBracket)
				if remove {
					if !bracket.RemoveRange(bound) {
						return fmt.Errorf("no range %s in %s: %w", args[1], bracket.Name, planner.ErrNotFound)
					}
					return nil
				}
				if !bracket.AddRange(bound, args[2]) {
					return fmt.Errorf("invalid range %s@%s: %w", args[1], args[2], planner.ErrInvalidInput)
				}
				return nil
			})
			if err != nil {
				return err
			}
			return c.save()
		},
	}
	cmd.Flags().BoolVar(&remove, "remove", false, "remove the range with this upper bound")
	return cmd
}

type extraPayer interface {
	AddExtraPayment(start, end int, amount any) bool
	RemoveExtraPayment(index int) bool
}

func newExtraCommand(c *cli) *cobra.Command {
	var removeIndex int
	cmd := &cobra.Command{
		Use:   "extra <loan> [start-month end-month amount]",
		Short: "Add an extra principal payment over months [start, end) and save",
		Args: func(cmd *cobra.Command, args []string) error {
			if removeIndex >= 0 {
				return cobra.ExactArgs(1)(cmd, args)
			}
			return cobra.ExactArgs(4)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			loan, err := c.loan(args[0])
			if err != nil {
				return err
			}

			var start, end int
			if removeIndex < 0 {
				if start, err = strconv.Atoi(args[1]); err != nil {
					return fmt.Errorf("invalid start month %q: %w", args[1], planner.ErrInvalidInput)
				}
				if end, err = strconv.Atoi(args[2]); err != nil {
					return fmt.Errorf("invalid end month %q: %w", args[2], planner.ErrInvalidInput)
				}
			}

			err = c.state.Mutate(loan.Base().ID, func(e planner.Entity) error {
				payer, ok := e.(extraPayer)
				if !ok {
					return fmt.Errorf("%s does not take extra payments: %w", e.Base().Name, planner.ErrInvalidInput)
				}
				if removeIndex >= 0 {
					if !payer.RemoveExtraPayment(removeIndex) {
						return fmt.Errorf("no extra payment %d on %s: %w", removeIndex, e.Base().Name, planner.ErrNotFound)
					}
					return nil
				}
				amount, err := parseAmount(args[3])
				if err != nil {
					return err
				}
				if !payer.AddExtraPayment(start, end, amount) {
					return fmt.Errorf("invalid extra payment [%d,%d)@%s: %w", start, end, args[3], planner.ErrInvalidInput)
				}
				return nil
			})
			if err != nil {
				return err
			}
			return c.save()
		},
	}
	cmd.Flags().IntVar(&removeIndex, "remove", -1, "remove the extra payment at this index instead")
	return cmd
}

func (c *cli) save() error {
	if err := c.state.Save(); err != nil {
		return err
	}
	c.logger.Info("saved", zap.String("op", "main.save"))
	return nil
}
