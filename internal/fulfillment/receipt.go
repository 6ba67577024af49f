package fulfillment

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrReceiptAlreadyExists is returned by ReceiptStorage.RecordReceipt when a
// receipt with the same fulfillment hash has already been persisted. The
// storage backend must enforce this with unique-constraint semantics so that
// concurrent duplicate creations are serialized.
var ErrReceiptAlreadyExists = errors.New("receipt already exists for fulfillment hash")

// ErrReceiptNotFound is returned by lookups for a fulfillment hash that has
// no recorded receipt.
var ErrReceiptNotFound = errors.New("receipt not found")

// Receipt is the proof of fulfillment anchoring the idempotency guarantee.
// At most one Receipt ever exists per distinct fulfillment hash; the mapping
// is append-only.
type Receipt struct {
	FulfillmentHash string          `json:"fulfillmentHash"` // deterministic digest of the creation parameters
	WatcherID       string          `json:"watcherId"`       // watcher created by this fulfillment
	PaymentID       string          `json:"paymentId"`       // payment charged by this fulfillment
	Amount          decimal.Decimal `json:"amount"`          // amount charged
	Chain           string          `json:"chain"`           // settlement chain identifier
	Rail            string          `json:"rail"`            // payment rail identifier
	CreatedAt       time.Time       `json:"createdAt"`
}

// ReceiptStorage is the persistence port for receipts. Implementations must
// guarantee uniqueness of the fulfillment hash: the first RecordReceipt for a
// hash wins and every later attempt fails with ErrReceiptAlreadyExists.
type ReceiptStorage interface {
	// GetReceipt returns the receipt recorded under the given fulfillment
	// hash, or ErrReceiptNotFound.
	GetReceipt(ctx context.Context, fulfillmentHash string) (Receipt, error)

	// RecordReceipt persists the receipt keyed by its fulfillment hash.
	// It fails with ErrReceiptAlreadyExists if the hash is already taken.
	RecordReceipt(ctx context.Context, receipt Receipt) error
}
