// Package fulfillment implements the idempotency ledger: it computes a
// deterministic fulfillment fingerprint from watcher-creation parameters and
// records receipts keyed by that fingerprint, so that retried creation
// requests observe the original outcome instead of producing duplicates.
package fulfillment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// FingerprintParams are the watcher-creation parameters that participate in
// the fulfillment fingerprint. Two requests with equal params are the same
// logical fulfillment.
type FingerprintParams struct {
	TypeID     string         `json:"typeId"`
	Config     map[string]any `json:"config"`
	Webhook    string         `json:"webhook"`
	CustomerID string         `json:"customerId"`
}

// Fingerprint computes the fulfillment fingerprint: a SHA-256 digest over the
// canonical JSON serialization of params. The canonicalization sorts object
// keys recursively, so incidental config field order never changes the hash,
// and the digest is stable across process restarts.
func Fingerprint(params FingerprintParams) (string, error) {
	canonical, err := canonicalJSON(params)
	if err != nil {
		return "", fmt.Errorf("canonicalizing fingerprint params: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Ledger mediates access to the receipt store, giving callers check-then-
// record semantics where losing a recording race is resolved by returning the
// winner's receipt.
type Ledger interface {
	// Lookup returns the receipt for the given fulfillment hash, if one has
	// been recorded. The boolean reports presence; storage failures are
	// returned as errors.
	Lookup(ctx context.Context, fulfillmentHash string) (Receipt, bool, error)

	// Record persists the receipt. If another request recorded a receipt
	// for the same hash first, Record re-reads and returns the winner's
	// receipt with created=false instead of propagating the conflict.
	Record(ctx context.Context, receipt Receipt) (stored Receipt, created bool, err error)
}

// ledger is the default Ledger implementation over a ReceiptStorage.
type ledger struct {
	storage ReceiptStorage
}

var _ Ledger = (*ledger)(nil)

// NewLedger creates a Ledger backed by the given receipt storage.
func NewLedger(storage ReceiptStorage) *ledger {
	return &ledger{
		storage: storage,
	}
}

func (l *ledger) Lookup(ctx context.Context, fulfillmentHash string) (Receipt, bool, error) {
	receipt, err := l.storage.GetReceipt(ctx, fulfillmentHash)
	if err != nil {
		if errors.Is(err, ErrReceiptNotFound) {
			return Receipt{}, false, nil
		}
		return Receipt{}, false, err
	}

	return receipt, true, nil
}

func (l *ledger) Record(ctx context.Context, receipt Receipt) (Receipt, bool, error) {
	err := l.storage.RecordReceipt(ctx, receipt)
	if err == nil {
		return receipt, true, nil
	}

	if !errors.Is(err, ErrReceiptAlreadyExists) {
		return Receipt{}, false, err
	}

	// Lost the race: the unique constraint serialized a concurrent duplicate
	// request. Return the winner's receipt as the fulfillment outcome.
	winner, getErr := l.storage.GetReceipt(ctx, receipt.FulfillmentHash)
	if getErr != nil {
		return Receipt{}, false, errors.Join(err, getErr)
	}

	return winner, false, nil
}
