package cli

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wardenlabs/watchmarket/internal/config"
	"github.com/wardenlabs/watchmarket/internal/pkg/logger"
	"github.com/wardenlabs/watchmarket/internal/trigger"

	"github.com/urfave/cli/v3"
)

// cycleCommand groups the trigger-cycle operations.
func cycleCommand(cfg config.Config, t trigger.Service) *cli.Command {
	return &cli.Command{
		Name:        "cycle",
		Description: "Trigger-cycle operations.",
		Usage:       "Run trigger cycles once or on a schedule.",
		Commands: []*cli.Command{
			cycleRunCommand(t),
			cycleDaemonCommand(cfg, t),
		},
	}
}

// cycleRunCommand returns a CLI command that executes exactly one trigger
// cycle and prints its report as JSON.
//
// Usage example:
//
//	watchmarket cycle run
func cycleRunCommand(t trigger.Service) *cli.Command {
	return &cli.Command{
		Name:        "run",
		Description: "Executes a single trigger cycle over all active watchers.",
		Usage:       "Runs one cycle and prints the resulting report.",
		Action: func(ctx context.Context, c *cli.Command) error {
			report, err := t.RunCycle(ctx)
			if err != nil {
				return err
			}

			return json.NewEncoder(os.Stdout).Encode(report)
		},
	}
}

// cycleDaemonCommand returns a CLI command that runs trigger cycles on the
// configured interval until interrupted.
//
// Usage example:
//
//	watchmarket cycle daemon
func cycleDaemonCommand(cfg config.Config, t trigger.Service) *cli.Command {
	return &cli.Command{
		Name:        "daemon",
		Description: "Runs trigger cycles on a fixed interval.",
		Usage:       "Schedules cycles until Ctrl+C or a termination signal.",
		Action: func(ctx context.Context, c *cli.Command) error {
			quit := make(chan os.Signal, 1)
			defer close(quit)

			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			stop := startScheduler(ctx, cfg.Cycle.Interval, t)
			defer stop()

			select {
			case <-quit:
			case <-ctx.Done():
			}

			return nil
		},
	}
}

// startScheduler launches a goroutine that runs one cycle per interval tick.
// An overlapping tick is skipped via the engine's own mutual exclusion. The
// returned function stops the scheduler and waits for an in-flight cycle.
func startScheduler(ctx context.Context, interval time.Duration, t trigger.Service) func() {
	schedulerCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-schedulerCtx.Done():
				return
			case <-ticker.C:
				report, err := t.RunCycle(schedulerCtx)
				switch {
				case errors.Is(err, trigger.ErrCycleInProgress):
					logger.Warn(schedulerCtx, "skipping tick, previous cycle still running")
				case err != nil:
					logger.Error(schedulerCtx, "trigger cycle failed", "error", err)
				default:
					logger.Info(schedulerCtx, "trigger cycle finished",
						"checked", report.Checked,
						"triggered", report.Triggered,
						"skipped", report.Skipped,
						"errors", report.Errors,
						"duration", report.Duration.String(),
					)
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
