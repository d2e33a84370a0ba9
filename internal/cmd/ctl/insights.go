package ctl

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/louisbranch/pennywise/internal/platform/money"
	"github.com/louisbranch/pennywise/internal/services/expense/chatbot"
	"github.com/louisbranch/pennywise/internal/services/expense/domain"
	"github.com/louisbranch/pennywise/internal/services/expense/forecast"
	"github.com/louisbranch/pennywise/internal/services/expense/service"
	"github.com/spf13/cobra"
)

func (c *cli) summaryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show spending totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				summary, err := svc.Summary(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Total spent: %s across %d expenses\n", money.Format(summary.Total), summary.Count)
				fmt.Fprintf(out, "Dated today: %s\n", money.Format(summary.TodayTotal))
				if len(summary.ByCategory) == 0 {
					return nil
				}
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "CATEGORY\tEXPENSES\tTOTAL")
				for _, entry := range summary.ByCategory {
					fmt.Fprintf(tw, "%s\t%d\t%s\n", entry.Category, entry.Count, money.Format(entry.Total))
				}
				return tw.Flush()
			})
		},
	}
}

func (c *cli) forecastCommand() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Predict daily spending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days <= 0 {
				return fmt.Errorf("days must be positive")
			}
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				result, err := svc.Forecast(ctx, days)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "DATE\tPREDICTED")
				for _, prediction := range result.Predictions {
					fmt.Fprintf(tw, "%s\t%s\n", prediction.Date.Format(domain.DateLayout), money.Format(prediction.Amount))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				if result.Model.TestSize > 0 {
					fmt.Fprintf(out, "Mean absolute error on %d held-out days: %s\n",
						result.Model.TestSize, money.Format(money.FromFloat(result.Model.MAE)))
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", forecast.DefaultHorizon, fmt.Sprintf("Days to predict (max %d)", forecast.MaxHorizon))
	return cmd
}

func (c *cli) askCommand() *cobra.Command {
	var apiKey string
	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Ask the financial assistant about your spending",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				response, err := svc.Ask(ctx, chatbot.Request{
					Prompt: strings.Join(args, " "),
					APIKey: apiKey,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), response.Text)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Gemini API key for this question (overrides PENNYWISE_GEMINI_API_KEY)")
	return cmd
}
