// Package main runs the pennywisectl operator CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/louisbranch/pennywise/internal/cmd/ctl"
	"github.com/louisbranch/pennywise/internal/platform/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := ctl.Execute(ctx, os.Args[1:], os.Stdout); err != nil {
		stop()
		config.Exitf("Error: %v", err)
	}
}
