package ctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/louisbranch/pennywise/internal/services/expense/domain"
	"github.com/louisbranch/pennywise/internal/services/expense/service"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Fixture is the seed file layout.
type Fixture struct {
	Expenses []FixtureExpense `yaml:"expenses"`
}

// FixtureExpense is one seeded expense. Amount stays textual so cents survive
// decoding exactly.
type FixtureExpense struct {
	Date        string `yaml:"date"`
	Category    string `yaml:"category"`
	Amount      string `yaml:"amount"`
	Description string `yaml:"description"`
}

// LoadFixture reads and validates a seed file.
func LoadFixture(path string) ([]domain.CreateInput, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var fixture Fixture
	if err := yaml.Unmarshal(raw, &fixture); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if len(fixture.Expenses) == 0 {
		return nil, errors.New("fixture has no expenses")
	}
	inputs := make([]domain.CreateInput, 0, len(fixture.Expenses))
	for i, entry := range fixture.Expenses {
		amount, err := decimal.NewFromString(strings.TrimSpace(entry.Amount))
		if err != nil {
			return nil, fmt.Errorf("expense %d: amount %q is not a number", i+1, entry.Amount)
		}
		input := domain.CreateInput{
			Date:        entry.Date,
			Category:    entry.Category,
			Amount:      amount,
			Description: entry.Description,
		}
		if _, err := domain.NormalizeCreateInput(input); err != nil {
			return nil, fmt.Errorf("expense %d: %w", i+1, err)
		}
		inputs = append(inputs, input)
	}
	return inputs, nil
}

func (c *cli) seedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <fixture.yaml>",
		Short: "Load expenses from a YAML fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := LoadFixture(args[0])
			if err != nil {
				return err
			}
			return c.withService(cmd, func(ctx context.Context, svc *service.Service) error {
				for i, input := range inputs {
					if _, err := svc.AddExpense(ctx, input); err != nil {
						return fmt.Errorf("seed expense %d: %w", i+1, err)
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d expenses.\n", len(inputs))
				return nil
			})
		},
	}
}
