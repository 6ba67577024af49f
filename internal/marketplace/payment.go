package marketplace

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrPaymentNotFound is returned when a payment id does not resolve.
var ErrPaymentNotFound = errors.New("payment not found")

// Payment split ratios. The operator receives 80% of every charge and the
// platform keeps 20%; the two shares always sum to the full amount.
var (
	operatorShareRatio = decimal.NewFromFloat(0.80)
	platformShareRatio = decimal.NewFromFloat(0.20)
)

// Payment records a single charge tied 1:1 to a watcher creation. It is
// immutable once created.
type Payment struct {
	ID            string          `json:"id"`
	WatcherID     string          `json:"watcherId"`
	Amount        decimal.Decimal `json:"amount"`
	OperatorShare decimal.Decimal `json:"operatorShare"` // amount x 0.80
	PlatformShare decimal.Decimal `json:"platformShare"` // amount x 0.20
	Network       string          `json:"network"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// PaymentStorage is the persistence port for payments.
type PaymentStorage interface {
	// CreatePayment persists a new payment record.
	CreatePayment(ctx context.Context, p Payment) error

	// GetPayment returns the payment with the given id, or ErrPaymentNotFound.
	GetPayment(ctx context.Context, id string) (Payment, error)
}

// splitPayment computes the 80/20 fee split. The platform share is derived
// by subtraction so the two shares sum to amount exactly.
func splitPayment(amount decimal.Decimal) (operatorShare, platformShare decimal.Decimal) {
	operatorShare = amount.Mul(operatorShareRatio)
	platformShare = amount.Sub(operatorShare)
	return operatorShare, platformShare
}
