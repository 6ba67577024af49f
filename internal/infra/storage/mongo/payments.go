package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wardenlabs/watchmarket/internal/marketplace"
)

var _ marketplace.PaymentStorage = (*client)(nil)

type paymentDoc struct {
	ID            string    `bson:"_id"`
	WatcherID     string    `bson:"watcher_id"`
	Amount        string    `bson:"amount"`
	OperatorShare string    `bson:"operator_share"`
	PlatformShare string    `bson:"platform_share"`
	Network       string    `bson:"network"`
	CreatedAt     time.Time `bson:"created_at"`
}

func paymentToDoc(p marketplace.Payment) paymentDoc {
	return paymentDoc{
		ID:            p.ID,
		WatcherID:     p.WatcherID,
		Amount:        p.Amount.String(),
		OperatorShare: p.OperatorShare.String(),
		PlatformShare: p.PlatformShare.String(),
		Network:       p.Network,
		CreatedAt:     p.CreatedAt,
	}
}

func (d paymentDoc) toPayment() (marketplace.Payment, error) {
	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return marketplace.Payment{}, err
	}

	operatorShare, err := decimal.NewFromString(d.OperatorShare)
	if err != nil {
		return marketplace.Payment{}, err
	}

	platformShare, err := decimal.NewFromString(d.PlatformShare)
	if err != nil {
		return marketplace.Payment{}, err
	}

	return marketplace.Payment{
		ID:            d.ID,
		WatcherID:     d.WatcherID,
		Amount:        amount,
		OperatorShare: operatorShare,
		PlatformShare: platformShare,
		Network:       d.Network,
		CreatedAt:     d.CreatedAt,
	}, nil
}

func (c *client) CreatePayment(ctx context.Context, p marketplace.Payment) error {
	_, err := c.db.Collection(paymentsCollection).InsertOne(ctx, paymentToDoc(p))
	return err
}

func (c *client) GetPayment(ctx context.Context, id string) (marketplace.Payment, error) {
	var doc paymentDoc
	err := c.db.Collection(paymentsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return marketplace.Payment{}, marketplace.ErrPaymentNotFound
	} else if err != nil {
		return marketplace.Payment{}, err
	}

	return doc.toPayment()
}
