package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wardenlabs/watchmarket/internal/marketplace"

	redis "github.com/redis/go-redis/v9"
)

// paymentKeyPrefix namespaces payment records. Payments are immutable, so
// they are written once and never updated.
const paymentKeyPrefix = "marketplace:payment"

func paymentKey(id string) string {
	return fmt.Sprintf("%s:%s", paymentKeyPrefix, id)
}

func (c *client) CreatePayment(ctx context.Context, p marketplace.Payment) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.conn.Set(ctx, paymentKey(p.ID), data, 0).Err()
}

func (c *client) GetPayment(ctx context.Context, id string) (marketplace.Payment, error) {
	data, err := c.conn.Get(ctx, paymentKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return marketplace.Payment{}, marketplace.ErrPaymentNotFound
		}
		return marketplace.Payment{}, err
	}

	var p marketplace.Payment
	if err := json.Unmarshal(data, &p); err != nil {
		return marketplace.Payment{}, err
	}
	return p, nil
}

var _ marketplace.PaymentStorage = (*client)(nil)
