// Package balance implements the wallet-balance condition evaluator. It reads
// the native-token balance of an address over JSON-RPC (eth_getBalance) and
// triggers when the balance crosses the configured threshold.
package balance

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/wardenlabs/watchmarket/internal/evaluator"
	"github.com/wardenlabs/watchmarket/internal/pkg/transport/jsonrpc"
	"github.com/wardenlabs/watchmarket/internal/pkg/types"
	"github.com/wardenlabs/watchmarket/internal/pkg/validator"
)

const (
	// ExecutorID is the identifier watcher types reference to select this
	// evaluator.
	ExecutorID = "wallet-balance"

	directionAbove = "above"
	directionBelow = "below"

	// nativeTokenDecimals converts wei to native-token units.
	nativeTokenDecimals = -18
)

// watcherConfig is the schema of the opaque watcher config this evaluator
// consumes. Threshold is expressed in native-token units, not wei.
type watcherConfig struct {
	Address   types.Hex `json:"address" validate:"required"`
	Threshold string    `json:"threshold" validate:"required"`
	Direction string    `json:"direction" validate:"omitempty,oneof=above below"`
}

type balanceEvaluator struct {
	rpc jsonrpc.Client
}

var (
	_ evaluator.Evaluator       = (*balanceEvaluator)(nil)
	_ evaluator.ConfigValidator = (*balanceEvaluator)(nil)
)

// New creates the wallet-balance evaluator backed by the given JSON-RPC
// client.
func New(rpc jsonrpc.Client) *balanceEvaluator {
	return &balanceEvaluator{rpc: rpc}
}

func (e *balanceEvaluator) Describe() evaluator.Metadata {
	return evaluator.Metadata{
		ID:          ExecutorID,
		Name:        "Wallet Balance",
		Description: "Triggers when a wallet's native-token balance crosses a threshold",
	}
}

func (e *balanceEvaluator) ValidateConfig(config map[string]any) []string {
	cfg, err := parseConfig(config)
	if err != nil {
		if msgs := validator.Messages(err); len(msgs) > 0 {
			return msgs
		}
		return []string{err.Error()}
	}

	if _, err := decimal.NewFromString(cfg.Threshold); err != nil {
		return []string{fmt.Sprintf("'threshold': value '%s' is not a valid decimal number", cfg.Threshold)}
	}

	return nil
}

func (e *balanceEvaluator) Check(ctx context.Context, config map[string]any) (evaluator.CheckResult, error) {
	cfg, err := parseConfig(config)
	if err != nil {
		return evaluator.CheckResult{}, err
	}

	threshold, err := decimal.NewFromString(cfg.Threshold)
	if err != nil {
		return evaluator.CheckResult{}, fmt.Errorf("invalid threshold: %w", err)
	}

	res, err := e.rpc.Fetch(ctx, "eth_getBalance", cfg.Address, "latest")
	if err != nil {
		return evaluator.CheckResult{}, fmt.Errorf("fetching balance of %s: %w", cfg.Address, err)
	}

	var wei types.Hex
	if err := json.Unmarshal(res, &wei); err != nil {
		return evaluator.CheckResult{}, fmt.Errorf("decoding balance response: %w", err)
	}

	currentBalance := decimal.NewFromBigInt(wei.BigInt(), nativeTokenDecimals)

	triggered := currentBalance.GreaterThanOrEqual(threshold)
	if cfg.Direction == directionBelow {
		triggered = currentBalance.LessThanOrEqual(threshold)
	}

	return evaluator.CheckResult{
		Triggered: triggered,
		Data: map[string]any{
			"address":   string(cfg.Address),
			"balance":   currentBalance.String(),
			"threshold": threshold.String(),
			"direction": cfg.Direction,
		},
	}, nil
}

// parseConfig decodes the opaque config map into the evaluator's schema and
// validates it. Direction defaults to "above".
func parseConfig(config map[string]any) (watcherConfig, error) {
	raw, err := json.Marshal(config)
	if err != nil {
		return watcherConfig{}, err
	}

	var cfg watcherConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return watcherConfig{}, err
	}

	if cfg.Direction == "" {
		cfg.Direction = directionAbove
	}

	return cfg, validator.Validate(cfg)
}
