package marketplace

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrWatcherTypeNotFound is returned when a watcher-type id does not resolve.
var ErrWatcherTypeNotFound = errors.New("watcher type not found")

// ErrWatcherTypeDeprecated is returned when creating a watcher against a
// type that is no longer accepting new instances.
var ErrWatcherTypeDeprecated = errors.New("watcher type is deprecated")

// WatcherTypeStatus is the lifecycle state of a watcher type.
type WatcherTypeStatus string

const (
	WatcherTypeStatusActive     WatcherTypeStatus = "active"
	WatcherTypeStatusDeprecated WatcherTypeStatus = "deprecated"
)

// WatcherTypeStats aggregates best-effort counters for a watcher type.
// Both counters are monotonically non-decreasing.
type WatcherTypeStats struct {
	Instances int64 `json:"instances"`
	Triggers  int64 `json:"triggers"`
}

// WatcherType is an operator-defined template: it fixes the price, category,
// and which condition evaluator instances of this type use.
type WatcherType struct {
	ID          string            `json:"id"`
	OperatorID  string            `json:"operatorId"`
	ExecutorID  string            `json:"executorId"` // selects the condition evaluator
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Price       decimal.Decimal   `json:"price"`
	Status      WatcherTypeStatus `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
	Stats       WatcherTypeStats  `json:"stats"`
}

// WatcherTypeFilter narrows ListWatcherTypes results. Zero fields match all.
type WatcherTypeFilter struct {
	OperatorID string
	Category   string
	Status     WatcherTypeStatus
}

// WatcherTypeStorage is the persistence port for watcher types.
type WatcherTypeStorage interface {
	// CreateWatcherType persists a new watcher-type record.
	CreateWatcherType(ctx context.Context, wt WatcherType) error

	// GetWatcherType returns the watcher type with the given id, or
	// ErrWatcherTypeNotFound.
	GetWatcherType(ctx context.Context, id string) (WatcherType, error)

	// ListWatcherTypes returns all watcher types matching the filter.
	ListWatcherTypes(ctx context.Context, filter WatcherTypeFilter) ([]WatcherType, error)

	// UpdateWatcherTypeStatus sets the lifecycle status of a watcher type.
	UpdateWatcherTypeStatus(ctx context.Context, id string, status WatcherTypeStatus) error
}

// CreateWatcherTypeInput holds the caller-supplied watcher-type attributes.
type CreateWatcherTypeInput struct {
	OperatorID  string          `validate:"required"`
	ExecutorID  string          `validate:"required"`
	Name        string          `validate:"required"`
	Description string
	Category    string
	Price       decimal.Decimal
}
