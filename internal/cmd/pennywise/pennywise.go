// Package pennywise parses API server flags and launches the HTTP service.
package pennywise

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	entrypoint "github.com/louisbranch/pennywise/internal/platform/cmd"
	"github.com/louisbranch/pennywise/internal/platform/timeouts"
	"github.com/louisbranch/pennywise/internal/services/expense/app"
)

// Config holds API command configuration.
type Config struct {
	Port    int `env:"PENNYWISE_HTTP_PORT" envDefault:"8000"`
	Runtime app.RuntimeConfig
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The HTTP server port")
	fs.StringVar(&cfg.Runtime.DBPath, "db", cfg.Runtime.DBPath, "Path to the expenses SQLite database")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(cfg.Runtime.DBPath) == "" {
		return Config{}, errors.New("db path is required")
	}
	return cfg, nil
}

// Run starts the HTTP API, dashboard and chat websocket.
func Run(ctx context.Context, cfg Config) error {
	options := entrypoint.RunOptions{ShutdownTimeout: timeouts.Shutdown}
	return entrypoint.RunWithTelemetryAndOptions(ctx, entrypoint.ServiceAPI, options, func(ctx context.Context) error {
		runtime, err := app.OpenRuntime(cfg.Runtime)
		if err != nil {
			return err
		}
		defer runtime.Close()

		server, err := app.NewServer(ctx, app.Config{
			HTTPAddr: fmt.Sprintf(":%d", cfg.Port),
			Service:  runtime.Service,
		})
		if err != nil {
			return err
		}
		log.Printf("pennywise listening addr=%s db=%s", server.Addr(), cfg.Runtime.DBPath)
		return server.ListenAndServe(ctx)
	})
}
