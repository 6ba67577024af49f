// Package cli wires the watchmarket command-line interface.
package cli

import (
	"context"
	"net/http"
	"os"

	"github.com/wardenlabs/watchmarket/internal/config"
	"github.com/wardenlabs/watchmarket/internal/marketplace"
	"github.com/wardenlabs/watchmarket/internal/trigger"

	"github.com/urfave/cli/v3"
)

// Run initializes and executes the watchmarket CLI application.
//
// It registers all available commands, including:
//
//   - `serve`: Starts the HTTP API, optionally with the background cycle scheduler.
//   - `cycle run`: Executes a single trigger cycle and prints its report.
//   - `cycle daemon`: Runs trigger cycles on a fixed interval until interrupted.
//   - `operator register`: Registers a marketplace operator.
//   - `type publish`: Publishes a watcher type owned by an operator.
//   - `watcher create`: Creates (or idempotently replays) a watcher instance.
func Run(ctx context.Context, cfg config.Config, m marketplace.Service, t trigger.Service, api http.Handler) error {
	app := &cli.Command{
		EnableShellCompletion: true,
		Name:                  "watchmarket",
		Description:           "Command-line interface for running and managing the watcher marketplace.",
		Usage:                 "watchmarket [command] [flags]",
		Commands: []*cli.Command{
			serveCommand(cfg, t, api),
			cycleCommand(cfg, t),
			operatorCommand(m),
			watcherTypeCommand(m),
			watcherCommand(m),
		},
	}

	return app.Run(ctx, os.Args)
}
