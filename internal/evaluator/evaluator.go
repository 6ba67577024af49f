// Package evaluator defines the pluggable condition-evaluation contract used
// by watcher types, along with the registry that maps executor identifiers to
// concrete evaluator implementations.
package evaluator

import "context"

// Metadata describes an evaluator to marketplace clients.
type Metadata struct {
	ID          string `json:"id"`          // executor identifier the registry dispatches on
	Name        string `json:"name"`        // human-readable name
	Description string `json:"description"` // what condition this evaluator checks
}

// CheckResult is the outcome of a single condition evaluation.
type CheckResult struct {
	// Triggered reports whether the watched condition is currently met.
	Triggered bool `json:"triggered"`

	// Data carries evaluator-specific observations (e.g., the balance or
	// price that was read). It is forwarded verbatim in webhook payloads.
	Data map[string]any `json:"data,omitempty"`
}

// Evaluator answers "has the condition become true?" for one watcher type.
//
// Check receives the watcher's opaque config and may fail with a transient
// error (network failure, provider outage); such failures are counted and
// retried on the next cycle by the caller. Implementations must honor ctx
// cancellation since every call is bounded by a timeout.
type Evaluator interface {
	// Describe returns static metadata about this evaluator.
	Describe() Metadata

	// Check evaluates the condition described by config.
	Check(ctx context.Context, config map[string]any) (CheckResult, error)
}

// ConfigValidator is an optional capability an Evaluator may implement to
// validate watcher configs at creation time. The returned slice holds one
// human-readable message per violated field; an empty result means the config
// is valid.
type ConfigValidator interface {
	ValidateConfig(config map[string]any) []string
}
