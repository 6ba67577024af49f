package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wardenlabs/watchmarket/internal/fulfillment"

	redis "github.com/redis/go-redis/v9"
)

// receiptKeyPrefix namespaces receipts, keyed by fulfillment hash.
const receiptKeyPrefix = "fulfillment:receipt"

func receiptKey(fulfillmentHash string) string {
	return fmt.Sprintf("%s:%s", receiptKeyPrefix, fulfillmentHash)
}

func (c *client) GetReceipt(ctx context.Context, fulfillmentHash string) (fulfillment.Receipt, error) {
	data, err := c.conn.Get(ctx, receiptKey(fulfillmentHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return fulfillment.Receipt{}, fulfillment.ErrReceiptNotFound
		}
		return fulfillment.Receipt{}, err
	}

	var r fulfillment.Receipt
	if err := json.Unmarshal(data, &r); err != nil {
		return fulfillment.Receipt{}, err
	}
	return r, nil
}

// RecordReceipt claims the fulfillment hash with SETNX. The first writer
// wins; every later attempt observes ErrReceiptAlreadyExists, which gives
// concurrent duplicate creations their unique-constraint serialization.
func (c *client) RecordReceipt(ctx context.Context, receipt fulfillment.Receipt) error {
	data, err := json.Marshal(receipt)
	if err != nil {
		return err
	}

	ok, err := c.conn.SetNX(ctx, receiptKey(receipt.FulfillmentHash), data, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fulfillment.ErrReceiptAlreadyExists
	}
	return nil
}

var _ fulfillment.ReceiptStorage = (*client)(nil)
