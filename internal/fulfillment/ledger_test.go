package fulfillment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// receiptStorageStub is a hand-rolled ReceiptStorage test double.
type receiptStorageStub struct {
	getReceipt    func(ctx context.Context, fulfillmentHash string) (Receipt, error)
	recordReceipt func(ctx context.Context, receipt Receipt) error
}

func (s *receiptStorageStub) GetReceipt(ctx context.Context, fulfillmentHash string) (Receipt, error) {
	return s.getReceipt(ctx, fulfillmentHash)
}

func (s *receiptStorageStub) RecordReceipt(ctx context.Context, receipt Receipt) error {
	return s.recordReceipt(ctx, receipt)
}

func testReceipt(hash string) Receipt {
	return Receipt{
		FulfillmentHash: hash,
		WatcherID:       "watcher-1",
		PaymentID:       "payment-1",
		Amount:          decimal.NewFromFloat(9.99),
		Chain:           "base",
		Rail:            "x402",
		CreatedAt:       time.Now().UTC(),
	}
}

func TestLedgerLookup(t *testing.T) {
	t.Run("returns the receipt when present", func(t *testing.T) {
		expected := testReceipt("hash-1")
		storage := &receiptStorageStub{
			getReceipt: func(ctx context.Context, fulfillmentHash string) (Receipt, error) {
				assert.Equal(t, "hash-1", fulfillmentHash)
				return expected, nil
			},
		}

		receipt, found, err := NewLedger(storage).Lookup(t.Context(), "hash-1")

		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, expected, receipt)
	})

	t.Run("reports absence without an error", func(t *testing.T) {
		storage := &receiptStorageStub{
			getReceipt: func(ctx context.Context, fulfillmentHash string) (Receipt, error) {
				return Receipt{}, ErrReceiptNotFound
			},
		}

		_, found, err := NewLedger(storage).Lookup(t.Context(), "hash-1")

		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("propagates storage failures", func(t *testing.T) {
		storageErr := errors.New("connection reset")
		storage := &receiptStorageStub{
			getReceipt: func(ctx context.Context, fulfillmentHash string) (Receipt, error) {
				return Receipt{}, storageErr
			},
		}

		_, found, err := NewLedger(storage).Lookup(t.Context(), "hash-1")

		require.ErrorIs(t, err, storageErr)
		assert.False(t, found)
	})
}

func TestLedgerRecord(t *testing.T) {
	t.Run("returns the recorded receipt on success", func(t *testing.T) {
		receipt := testReceipt("hash-1")
		storage := &receiptStorageStub{
			recordReceipt: func(ctx context.Context, r Receipt) error {
				assert.Equal(t, receipt, r)
				return nil
			},
		}

		stored, created, err := NewLedger(storage).Record(t.Context(), receipt)

		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, receipt, stored)
	})

	t.Run("losing the race returns the winner's receipt", func(t *testing.T) {
		winner := testReceipt("hash-1")
		winner.WatcherID = "watcher-winner"

		loser := testReceipt("hash-1")
		storage := &receiptStorageStub{
			recordReceipt: func(ctx context.Context, r Receipt) error {
				return ErrReceiptAlreadyExists
			},
			getReceipt: func(ctx context.Context, fulfillmentHash string) (Receipt, error) {
				return winner, nil
			},
		}

		stored, created, err := NewLedger(storage).Record(t.Context(), loser)

		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, winner, stored)
	})

	t.Run("propagates storage failures", func(t *testing.T) {
		storageErr := errors.New("connection reset")
		storage := &receiptStorageStub{
			recordReceipt: func(ctx context.Context, r Receipt) error {
				return storageErr
			},
		}

		_, created, err := NewLedger(storage).Record(t.Context(), testReceipt("hash-1"))

		require.ErrorIs(t, err, storageErr)
		assert.False(t, created)
	})

	t.Run("joins the conflict when the winner cannot be read back", func(t *testing.T) {
		getErr := errors.New("connection reset")
		storage := &receiptStorageStub{
			recordReceipt: func(ctx context.Context, r Receipt) error {
				return ErrReceiptAlreadyExists
			},
			getReceipt: func(ctx context.Context, fulfillmentHash string) (Receipt, error) {
				return Receipt{}, getErr
			},
		}

		_, _, err := NewLedger(storage).Record(t.Context(), testReceipt("hash-1"))

		require.ErrorIs(t, err, ErrReceiptAlreadyExists)
		require.ErrorIs(t, err, getErr)
	})
}
