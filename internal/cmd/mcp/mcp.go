// Package mcp parses MCP command flags and serves the expense tools.
package mcp

import (
	"context"
	"errors"
	"flag"
	"strings"

	entrypoint "github.com/louisbranch/pennywise/internal/platform/cmd"
	"github.com/louisbranch/pennywise/internal/services/expense/app"
	mcpserver "github.com/louisbranch/pennywise/internal/services/expense/mcp/server"
)

// Config holds MCP command configuration.
type Config struct {
	Transport string `env:"PENNYWISE_MCP_TRANSPORT" envDefault:"stdio"`
	Runtime   app.RuntimeConfig
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio")
	fs.StringVar(&cfg.Runtime.DBPath, "db", cfg.Runtime.DBPath, "Path to the expenses SQLite database")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(cfg.Runtime.DBPath) == "" {
		return Config{}, errors.New("db path is required")
	}
	return cfg, nil
}

// Run starts the MCP protocol adapter.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(ctx context.Context) error {
		runtime, err := app.OpenRuntime(cfg.Runtime)
		if err != nil {
			return err
		}
		defer runtime.Close()
		return mcpserver.Run(ctx, runtime.Service, mcpserver.Config{
			Transport: mcpserver.Transport(strings.TrimSpace(cfg.Transport)),
		})
	})
}
