// Package ctl implements the pennywisectl operator CLI.
package ctl

import (
	"context"
	"fmt"
	"io"

	entrypoint "github.com/louisbranch/pennywise/internal/platform/cmd"
	"github.com/louisbranch/pennywise/internal/services/expense/app"
	"github.com/louisbranch/pennywise/internal/services/expense/service"
	"github.com/spf13/cobra"
)

type cli struct {
	runtime app.RuntimeConfig
}

// NewRootCommand builds the pennywisectl command tree. Runtime settings are
// read from the environment and the --db flag overrides the database path.
func NewRootCommand() (*cobra.Command, error) {
	runtime, err := app.LoadRuntimeConfig()
	if err != nil {
		return nil, err
	}
	c := &cli{runtime: runtime}

	root := &cobra.Command{
		Use:           "pennywisectl",
		Short:         "Manage pennywise expenses from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.runtime.DBPath, "db", c.runtime.DBPath, "Path to the expenses SQLite database")

	root.AddCommand(
		c.addCommand(),
		c.listCommand(),
		c.deleteCommand(),
		c.resetCommand(),
		c.archivesCommand(),
		c.summaryCommand(),
		c.forecastCommand(),
		c.askCommand(),
		c.seedCommand(),
	)
	return root, nil
}

// Execute runs the CLI with args, writing command output to out.
func Execute(ctx context.Context, args []string, out io.Writer) error {
	root, err := NewRootCommand()
	if err != nil {
		return err
	}
	root.SetArgs(args)
	root.SetOut(out)
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceCLI, root.ExecuteContext)
}

// withService opens the store for the duration of one command.
func (c *cli) withService(cmd *cobra.Command, run func(context.Context, *service.Service) error) error {
	runtime, err := app.OpenRuntime(c.runtime)
	if err != nil {
		return fmt.Errorf("open runtime: %w", err)
	}
	defer runtime.Close()
	return run(cmd.Context(), runtime.Service)
}
