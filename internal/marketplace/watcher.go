package marketplace

import (
	"context"
	"errors"
	"time"
)

// ErrWatcherNotFound is returned when a watcher id does not resolve.
var ErrWatcherNotFound = errors.New("watcher not found")

// ErrInvalidStatusTransition is returned when a status change is not allowed
// (e.g., resuming an expired watcher).
var ErrInvalidStatusTransition = errors.New("invalid watcher status transition")

// WatcherStatus is the lifecycle state of a watcher instance.
type WatcherStatus string

const (
	WatcherStatusActive  WatcherStatus = "active"
	WatcherStatusPaused  WatcherStatus = "paused"
	WatcherStatusExpired WatcherStatus = "expired"
)

// Watcher is a paid, persistent instance of a monitored condition tied to a
// webhook. Check and trigger bookkeeping fields are mutated exclusively by
// the trigger engine; status is mutated exclusively by the lifecycle manager.
//
// Invariant: TriggerCount only increases, and LastTriggered is set if and
// only if TriggerCount > 0 and the corresponding webhook delivery succeeded.
type Watcher struct {
	ID         string         `json:"id"`
	TypeID     string         `json:"typeId"`
	OperatorID string         `json:"operatorId"`
	CustomerID string         `json:"customerId"`
	Config     map[string]any `json:"config"` // opaque to the core, owned by the evaluator
	Webhook    string         `json:"webhook"`
	Status     WatcherStatus  `json:"status"`
	CreatedAt  time.Time      `json:"createdAt"`

	LastChecked        *time.Time     `json:"lastChecked,omitempty"`
	LastCheckResult    map[string]any `json:"lastCheckResult,omitempty"`
	LastCheckTriggered bool           `json:"lastCheckTriggered"` // raised by a committed triggering check once its delivery succeeded
	LastTriggered      *time.Time     `json:"lastTriggered,omitempty"`
	TriggerCount       int64          `json:"triggerCount"`
}

// WatcherFilter narrows ListWatchers results. Zero fields match all.
type WatcherFilter struct {
	CustomerID string
	TypeID     string
	Status     WatcherStatus
}

// WatcherStorage is the persistence port for watcher instances.
type WatcherStorage interface {
	// CreateWatcher persists a new watcher record.
	CreateWatcher(ctx context.Context, w Watcher) error

	// GetWatcher returns the watcher with the given id, or ErrWatcherNotFound.
	GetWatcher(ctx context.Context, id string) (Watcher, error)

	// ListWatchers returns all watchers matching the filter.
	ListWatchers(ctx context.Context, filter WatcherFilter) ([]Watcher, error)

	// UpdateWatcherStatus sets the lifecycle status of a watcher.
	UpdateWatcherStatus(ctx context.Context, id string, status WatcherStatus) error
}

// CreateWatcherInput holds the caller-supplied parameters of a watcher
// creation request. CustomerID defaults to the anonymous sentinel upstream
// when the caller provides no identity.
type CreateWatcherInput struct {
	TypeID     string `validate:"required"`
	CustomerID string `validate:"required"`
	Config     map[string]any
	Webhook    string `validate:"required"`
}
