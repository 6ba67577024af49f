package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/wardenlabs/watchmarket/internal/config"
	"github.com/wardenlabs/watchmarket/internal/pkg/logger"
	"github.com/wardenlabs/watchmarket/internal/trigger"

	"github.com/urfave/cli/v3"
)

// serveCommand returns a CLI command that starts the HTTP API and, when
// --cycles is set, the background cycle scheduler alongside it.
//
// Usage example:
//
//	watchmarket serve --cycles
//
// The process runs until it receives an interrupt (SIGINT or SIGTERM), then
// shuts the listener down gracefully.
func serveCommand(cfg config.Config, t trigger.Service, api http.Handler) *cli.Command {
	return &cli.Command{
		Name:        "serve",
		Description: "Starts the HTTP API, optionally running trigger cycles in the background.",
		Usage:       "Runs the marketplace API. Terminates gracefully on Ctrl+C or termination signals.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "cycles",
				Usage: "Also run trigger cycles on the configured interval",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			quit := make(chan os.Signal, 1)
			defer close(quit)

			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			server := &http.Server{
				Addr:    cfg.HTTP.Address,
				Handler: api,
			}

			serverErr := make(chan error, 1)
			go func() {
				logger.Info(ctx, "http server listening", "address", cfg.HTTP.Address)

				if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			var stopScheduler func()
			if c.Bool("cycles") {
				stopScheduler = startScheduler(ctx, cfg.Cycle.Interval, t)
			}

			select {
			case err := <-serverErr:
				return err
			case <-quit:
			case <-ctx.Done():
			}

			if stopScheduler != nil {
				stopScheduler()
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()

			return server.Shutdown(shutdownCtx)
		},
	}
}
