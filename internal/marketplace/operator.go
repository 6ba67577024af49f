package marketplace

import (
	"context"
	"errors"
	"time"
)

// ErrOperatorNotFound is returned when an operator id does not resolve.
// During watcher creation this indicates a record-store integrity violation
// (a watcher type referencing a missing operator), not a client error.
var ErrOperatorNotFound = errors.New("operator not found")

// OperatorStats aggregates best-effort counters for an operator.
type OperatorStats struct {
	WatchersCreated int64 `json:"watchersCreated"`
	TotalTriggers   int64 `json:"totalTriggers"`
}

// Operator owns one or more watcher types and receives the operator share of
// each payment.
type Operator struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	PayoutAddress string        `json:"payoutAddress"` // where operator shares settle
	CreatedAt     time.Time     `json:"createdAt"`
	Stats         OperatorStats `json:"stats"`
}

// OperatorStorage is the persistence port for operators.
type OperatorStorage interface {
	// CreateOperator persists a new operator record.
	CreateOperator(ctx context.Context, op Operator) error

	// GetOperator returns the operator with the given id, or
	// ErrOperatorNotFound.
	GetOperator(ctx context.Context, id string) (Operator, error)

	// ListOperators returns every registered operator.
	ListOperators(ctx context.Context) ([]Operator, error)
}

// RegisterOperatorInput holds the caller-supplied operator attributes.
type RegisterOperatorInput struct {
	Name          string `validate:"required"`
	PayoutAddress string `validate:"required"`
}
