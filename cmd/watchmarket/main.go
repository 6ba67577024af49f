package main

import (
	"context"
	"os"
	"time"

	"github.com/wardenlabs/watchmarket/internal/accounting"
	"github.com/wardenlabs/watchmarket/internal/config"
	"github.com/wardenlabs/watchmarket/internal/evaluator"
	"github.com/wardenlabs/watchmarket/internal/fulfillment"
	"github.com/wardenlabs/watchmarket/internal/handlers/cli"
	"github.com/wardenlabs/watchmarket/internal/handlers/rest"
	"github.com/wardenlabs/watchmarket/internal/infra/evaluators/balance"
	"github.com/wardenlabs/watchmarket/internal/infra/evaluators/price"
	"github.com/wardenlabs/watchmarket/internal/infra/storage/memory"
	"github.com/wardenlabs/watchmarket/internal/infra/storage/mongo"
	"github.com/wardenlabs/watchmarket/internal/infra/storage/redis"
	"github.com/wardenlabs/watchmarket/internal/infra/webhook"
	"github.com/wardenlabs/watchmarket/internal/marketplace"
	"github.com/wardenlabs/watchmarket/internal/pkg/logger"
	"github.com/wardenlabs/watchmarket/internal/pkg/resilience/retry"
	"github.com/wardenlabs/watchmarket/internal/pkg/telemetry"
	transporthttp "github.com/wardenlabs/watchmarket/internal/pkg/transport/http"
	"github.com/wardenlabs/watchmarket/internal/pkg/transport/jsonrpc"
	"github.com/wardenlabs/watchmarket/internal/trigger"
)

// stores bundles every persistence port a single backend must provide.
type stores struct {
	operators marketplace.OperatorStorage
	types     marketplace.WatcherTypeStorage
	watchers  marketplace.WatcherStorage
	payments  marketplace.PaymentStorage
	receipts  fulfillment.ReceiptStorage
	stats     accounting.StatsStorage
	state     trigger.WatcherStateStorage
}

func newStores(ctx context.Context, cfg config.StorageConfig) (stores, error) {
	switch cfg.Backend {
	case config.StorageRedis:
		client, err := redis.NewClient(ctx, cfg.Redis.Address, cfg.Redis.Username, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return stores{}, err
		}
		return stores{client, client, client, client, client, client, client}, nil
	case config.StorageMongo:
		client, err := mongo.NewClient(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return stores{}, err
		}
		return stores{client, client, client, client, client, client, client}, nil
	default:
		store := memory.New()
		return stores{store, store, store, store, store, store, store}, nil
	}
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Init(ctx, cfg.Telemetry.ServiceName)
		if err != nil {
			os.Stderr.WriteString("failed to initialize telemetry: " + err.Error() + "\n")
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	if err := logger.Init(logger.WithLevel(cfg.LogLevel)); err != nil {
		os.Stderr.WriteString("failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := newStores(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal(ctx, "failed to initialize storage", "backend", cfg.Storage.Backend, "error", err)
	}

	registry := evaluator.NewRegistry()
	rpcClient := jsonrpc.NewClient(transporthttp.NewClient().StandardClient(), cfg.Evaluator.RPCEndpoint)
	if err := registry.Register(balance.New(rpcClient)); err != nil {
		logger.Fatal(ctx, "failed to register balance evaluator", "error", err)
	}
	if err := registry.Register(price.New(transporthttp.NewClient(), cfg.Evaluator.PriceAPIURL)); err != nil {
		logger.Fatal(ctx, "failed to register price evaluator", "error", err)
	}

	acc := accounting.New(db.stats)
	ledger := fulfillment.NewLedger(db.receipts)

	market := marketplace.New(
		db.operators, db.types, db.watchers, db.payments,
		ledger, registry, acc,
		marketplace.WithPaymentNetwork(cfg.Payment.Network),
		marketplace.WithPaymentRail(cfg.Payment.Rail),
	)

	sink := webhook.NewSink(transporthttp.NewClient(), cfg.Telemetry.ServiceName)

	engineOpts := []trigger.Option{
		trigger.WithMaxConcurrency(cfg.Cycle.MaxConcurrency),
		trigger.WithCheckTimeout(cfg.Cycle.CheckTimeout),
		trigger.WithDeliveryTimeout(cfg.Cycle.DeliveryTimeout),
		trigger.WithEdgeTriggered(cfg.Cycle.EdgeTriggered),
	}
	if cfg.Cycle.DeliveryRetryAttempts > 1 {
		engineOpts = append(engineOpts, trigger.WithDeliveryRetry(
			retry.New(retry.WithAttempts(cfg.Cycle.DeliveryRetryAttempts)),
		))
	}

	engine := trigger.New(db.state, market, registry, sink, acc, engineOpts...)

	api := rest.NewRouter(market, engine, registry)

	if err := cli.Run(ctx, cfg, market, engine, api); err != nil {
		logger.Fatal(ctx, "application terminated with error", "error", err)
	}
}
