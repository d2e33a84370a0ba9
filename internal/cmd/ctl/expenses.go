package ctl

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/louisbranch/pennywise/internal/platform/money"
	"github.com/louisbranch/pennywise/internal/services/expense/domain"
	"github.com/louisbranch/pennywise/internal/services/expense/service"
	"github.com/louisbranch/pennywise/internal/services/expense/storage"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func (c *cli) addCommand() *cobra.Command {
	var (
		date        string
		category    string
		amount      string
		description string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			value, err := decimal.NewFromString(strings.TrimSpace(amount))
			if err != nil {
				return fmt.Errorf("amount must be a number: %w", err)
			}
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				created, err := svc.AddExpense(ctx, domain.CreateInput{
					Date:        date,
					Category:    category,
					Amount:      value,
					Description: description,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added expense %d: %s %s %s\n",
					created.ID, created.DateString(), created.Category, money.Format(created.Amount))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", time.Now().Format(domain.DateLayout), "Expense date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&category, "category", string(domain.CategoryFood), "Food, Transport, Bills, Entertainment or Other")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount in US dollars")
	cmd.Flags().StringVar(&description, "description", "", "Optional description")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func (c *cli) listCommand() *cobra.Command {
	var query storage.ListQuery
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				page, err := svc.ListExpenses(ctx, query)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(page.Expenses) == 0 {
					fmt.Fprintln(out, "No expenses found.")
					return nil
				}
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tDATE\tCATEGORY\tAMOUNT\tDESCRIPTION")
				for _, expense := range page.Expenses {
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
						expense.ID, expense.DateString(), expense.Category, money.Format(expense.Amount), expense.Description)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				if page.NextPageToken != "" {
					fmt.Fprintf(out, "Next page token: %s\n", page.NextPageToken)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&query.Filter, "filter", "", `AIP-160 filter, e.g. category = "Food" AND amount > 10`)
	cmd.Flags().IntVar(&query.PageSize, "page-size", 0, "Maximum expenses to show (default 50)")
	cmd.Flags().StringVar(&query.PageToken, "page-token", "", "Token from a previous page")
	return cmd
}

func (c *cli) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expenseID, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil || expenseID <= 0 {
				return fmt.Errorf("expense id must be a positive integer: %q", args[0])
			}
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				if err := svc.DeleteExpense(ctx, expenseID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Expense with ID %d has been deleted.\n", expenseID)
				return nil
			})
		},
	}
}

func (c *cli) resetCommand() *cobra.Command {
	var archive bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear the current expenses, optionally archiving them first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				if archive {
					result, err := svc.StartNewDay(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Archived and cleared %d expenses (archive %d).\n", result.Cleared, result.ArchiveID)
					return nil
				}
				result, err := svc.ResetDay(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d expenses.\n", result.Cleared)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&archive, "archive", false, "Save the expenses as a previous day before clearing")
	return cmd
}

func (c *cli) archivesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "archives",
		Short: "List archived days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				archives, err := svc.ListArchives(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(archives) == 0 {
					fmt.Fprintln(out, "No archived days.")
					return nil
				}
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tARCHIVED\tEXPENSES\tTOTAL")
				for _, archive := range archives {
					fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n",
						archive.ID, archive.ArchivedAt.UTC().Format(time.RFC3339), archive.Count, money.Format(archive.Total))
				}
				return tw.Flush()
			})
		},
	}
}
