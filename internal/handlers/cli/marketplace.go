package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/wardenlabs/watchmarket/internal/marketplace"

	"github.com/urfave/cli/v3"
)

// operatorCommand groups operator management operations.
func operatorCommand(m marketplace.Service) *cli.Command {
	return &cli.Command{
		Name:        "operator",
		Description: "Operator management operations.",
		Usage:       "Register and inspect marketplace operators.",
		Commands: []*cli.Command{
			{
				Name:        "register",
				Description: "Registers a new marketplace operator.",
				Usage:       "Creates an operator account. Must provide both name and payout address.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Operator display name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "payout-address",
						Usage:    "Address where operator shares settle",
						Required: true,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					op, err := m.RegisterOperator(ctx, marketplace.RegisterOperatorInput{
						Name:          c.String("name"),
						PayoutAddress: c.String("payout-address"),
					})
					if err != nil {
						return err
					}

					return json.NewEncoder(os.Stdout).Encode(op)
				},
			},
			{
				Name:        "list",
				Description: "Lists all registered operators.",
				Usage:       "Prints every operator as JSON.",
				Action: func(ctx context.Context, c *cli.Command) error {
					operators, err := m.ListOperators(ctx)
					if err != nil {
						return err
					}

					return json.NewEncoder(os.Stdout).Encode(operators)
				},
			},
		},
	}
}

// watcherTypeCommand groups watcher-type management operations.
func watcherTypeCommand(m marketplace.Service) *cli.Command {
	return &cli.Command{
		Name:        "type",
		Description: "Watcher-type management operations.",
		Usage:       "Publish and inspect watcher types.",
		Commands: []*cli.Command{
			{
				Name:        "publish",
				Description: "Publishes a new watcher type owned by an existing operator.",
				Usage:       "Creates a watcher-type template with a fixed price and evaluator.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "operator-id",
						Usage:    "Owning operator id",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "executor-id",
						Usage:    "Condition evaluator identifier (e.g., wallet-balance, token-price)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Watcher-type display name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "description",
						Usage: "Watcher-type description",
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "Marketplace category",
					},
					&cli.StringFlag{
						Name:     "price",
						Usage:    "Price per watcher instance (decimal)",
						Required: true,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					price, err := decimal.NewFromString(c.String("price"))
					if err != nil {
						return fmt.Errorf("invalid price: %w", err)
					}

					wt, err := m.CreateWatcherType(ctx, marketplace.CreateWatcherTypeInput{
						OperatorID:  c.String("operator-id"),
						ExecutorID:  c.String("executor-id"),
						Name:        c.String("name"),
						Description: c.String("description"),
						Category:    c.String("category"),
						Price:       price,
					})
					if err != nil {
						return err
					}

					return json.NewEncoder(os.Stdout).Encode(wt)
				},
			},
			{
				Name:        "list",
				Description: "Lists watcher types, optionally filtered.",
				Usage:       "Prints watcher types as JSON.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "operator-id",
						Usage: "Only types owned by this operator",
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "Only types in this category",
					},
					&cli.StringFlag{
						Name:  "status",
						Usage: "Only types with this status (active, deprecated)",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					watcherTypes, err := m.ListWatcherTypes(ctx, marketplace.WatcherTypeFilter{
						OperatorID: c.String("operator-id"),
						Category:   c.String("category"),
						Status:     marketplace.WatcherTypeStatus(c.String("status")),
					})
					if err != nil {
						return err
					}

					return json.NewEncoder(os.Stdout).Encode(watcherTypes)
				},
			},
		},
	}
}

// watcherCommand groups watcher instance operations.
func watcherCommand(m marketplace.Service) *cli.Command {
	return &cli.Command{
		Name:        "watcher",
		Description: "Watcher instance operations.",
		Usage:       "Create and manage watcher instances.",
		Commands: []*cli.Command{
			{
				Name:        "create",
				Description: "Creates a watcher instance, or replays the matching fulfillment.",
				Usage:       "Creates a watcher. The config flag takes the evaluator config as a JSON object.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "type-id",
						Usage:    "Watcher type to instantiate",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "customer-id",
						Usage: "Customer identity (defaults to anonymous)",
					},
					&cli.StringFlag{
						Name:     "webhook",
						Usage:    "HTTP(S) endpoint notified on trigger",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "config",
						Usage: "Evaluator config as a JSON object",
						Value: "{}",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					var config map[string]any
					if err := json.Unmarshal([]byte(c.String("config")), &config); err != nil {
						return fmt.Errorf("invalid config: %w", err)
					}

					out, err := m.CreateWatcher(ctx, marketplace.CreateWatcherInput{
						TypeID:     c.String("type-id"),
						CustomerID: c.String("customer-id"),
						Config:     config,
						Webhook:    c.String("webhook"),
					})
					if err != nil {
						return err
					}

					return json.NewEncoder(os.Stdout).Encode(out)
				},
			},
			{
				Name:        "pause",
				Description: "Pauses an active watcher.",
				Usage:       "Excludes the watcher from trigger cycles until resumed.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Watcher id",
						Required: true,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return m.SetWatcherStatus(ctx, c.String("id"), marketplace.WatcherStatusPaused)
				},
			},
			{
				Name:        "resume",
				Description: "Resumes a paused watcher.",
				Usage:       "Puts the watcher back into trigger cycles.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Watcher id",
						Required: true,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return m.SetWatcherStatus(ctx, c.String("id"), marketplace.WatcherStatusActive)
				},
			},
		},
	}
}
