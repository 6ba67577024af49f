package trigger

import (
	"context"
	"time"

	"github.com/wardenlabs/watchmarket/internal/marketplace"
)

// WatcherStateStorage is the engine's view of the record store. The engine is
// the sole mutator of check/trigger bookkeeping fields, so writes are
// last-writer-wins at the granularity of these two operations.
type WatcherStateStorage interface {
	// ListActiveWatchers returns every watcher with status active. Paused
	// and expired watchers are excluded from the scan entirely.
	ListActiveWatchers(ctx context.Context) ([]marketplace.Watcher, error)

	// SaveCheckOutcome persists the bookkeeping of a committed evaluation:
	// lastChecked, the evaluator's result data, and whether the condition
	// held. It is called regardless of whether the condition triggered, but
	// never after a failed evaluation.
	SaveCheckOutcome(ctx context.Context, watcherID string, checkedAt time.Time, result map[string]any, triggered bool) error

	// SaveTriggerOutcome persists a successful delivery: it sets
	// lastTriggered, raises lastCheckTriggered, and increments triggerCount
	// by one. Raising the flag here rather than in SaveCheckOutcome lets
	// edge-triggered delivery treat it as a delivered-transition marker.
	SaveTriggerOutcome(ctx context.Context, watcherID string, triggeredAt time.Time) error
}

// WatcherTypeResolver resolves a watcher's type, primarily for its executor
// identifier.
type WatcherTypeResolver interface {
	GetWatcherType(ctx context.Context, id string) (marketplace.WatcherType, error)
}
