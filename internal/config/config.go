// Package config loads the process configuration from environment variables
// prefixed with WATCHMARKET_.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Storage backend selectors.
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageMongo  = "mongo"
)

// Config is the full process configuration.
type Config struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	Telemetry TelemetryConfig `envconfig:"TELEMETRY"`
	HTTP      HTTPConfig      `envconfig:"HTTP"`
	Storage   StorageConfig   `envconfig:"STORAGE"`
	Payment   PaymentConfig   `envconfig:"PAYMENT"`
	Evaluator EvaluatorConfig `envconfig:"EVALUATOR"`
	Cycle     CycleConfig     `envconfig:"CYCLE"`
}

// TelemetryConfig controls the OTLP exporters. The collector endpoint is
// taken from the standard OTEL_EXPORTER_OTLP_* environment variables.
type TelemetryConfig struct {
	Enabled     bool   `envconfig:"ENABLED" default:"false"`
	ServiceName string `envconfig:"SERVICE_NAME" default:"watchmarket"`
}

// HTTPConfig controls the REST listener.
type HTTPConfig struct {
	Address         string        `envconfig:"ADDRESS" default:":8080"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// StorageConfig selects and parameterizes the record store.
type StorageConfig struct {
	Backend string `envconfig:"BACKEND" default:"memory"`

	Redis RedisConfig `envconfig:"REDIS"`
	Mongo MongoConfig `envconfig:"MONGO"`
}

type RedisConfig struct {
	Address  string `envconfig:"ADDRESS" default:"localhost:6379"`
	Username string `envconfig:"USERNAME"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB" default:"0"`
}

type MongoConfig struct {
	URI      string `envconfig:"URI" default:"mongodb://localhost:27017"`
	Database string `envconfig:"DATABASE" default:"watchmarket"`
}

// PaymentConfig sets the settlement metadata recorded on payments and
// receipts.
type PaymentConfig struct {
	Network string `envconfig:"NETWORK" default:"base"`
	Rail    string `envconfig:"RAIL" default:"x402"`
}

// EvaluatorConfig parameterizes the built-in condition evaluators.
type EvaluatorConfig struct {
	RPCEndpoint string `envconfig:"RPC_ENDPOINT" default:"https://mainnet.base.org"`
	PriceAPIURL string `envconfig:"PRICE_API_URL" default:"https://api.coingecko.com/api/v3/simple/price"`
}

// CycleConfig tunes the trigger engine and its daemon scheduler.
type CycleConfig struct {
	Interval        time.Duration `envconfig:"INTERVAL" default:"30s"`
	MaxConcurrency  int           `envconfig:"MAX_CONCURRENCY" default:"8"`
	CheckTimeout    time.Duration `envconfig:"CHECK_TIMEOUT" default:"10s"`
	DeliveryTimeout time.Duration `envconfig:"DELIVERY_TIMEOUT" default:"10s"`
	EdgeTriggered   bool          `envconfig:"EDGE_TRIGGERED" default:"false"`

	// DeliveryRetryAttempts is the total number of in-cycle delivery
	// attempts per triggered watcher, the first one included. Values below 2
	// leave delivery at a single attempt per cycle.
	DeliveryRetryAttempts uint `envconfig:"DELIVERY_RETRY_ATTEMPTS" default:"1"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("watchmarket", &cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
