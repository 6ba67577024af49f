package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wardenlabs/watchmarket/internal/fulfillment"
)

var _ fulfillment.ReceiptStorage = (*client)(nil)

type receiptDoc struct {
	FulfillmentHash string    `bson:"_id"`
	WatcherID       string    `bson:"watcher_id"`
	PaymentID       string    `bson:"payment_id"`
	Amount          string    `bson:"amount"`
	Chain           string    `bson:"chain"`
	Rail            string    `bson:"rail"`
	CreatedAt       time.Time `bson:"created_at"`
}

func receiptToDoc(r fulfillment.Receipt) receiptDoc {
	return receiptDoc{
		FulfillmentHash: r.FulfillmentHash,
		WatcherID:       r.WatcherID,
		PaymentID:       r.PaymentID,
		Amount:          r.Amount.String(),
		Chain:           r.Chain,
		Rail:            r.Rail,
		CreatedAt:       r.CreatedAt,
	}
}

func (d receiptDoc) toReceipt() (fulfillment.Receipt, error) {
	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return fulfillment.Receipt{}, err
	}

	return fulfillment.Receipt{
		FulfillmentHash: d.FulfillmentHash,
		WatcherID:       d.WatcherID,
		PaymentID:       d.PaymentID,
		Amount:          amount,
		Chain:           d.Chain,
		Rail:            d.Rail,
		CreatedAt:       d.CreatedAt,
	}, nil
}

func (c *client) GetReceipt(ctx context.Context, fulfillmentHash string) (fulfillment.Receipt, error) {
	var doc receiptDoc
	err := c.db.Collection(receiptsCollection).FindOne(ctx, bson.M{"_id": fulfillmentHash}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fulfillment.Receipt{}, fulfillment.ErrReceiptNotFound
	} else if err != nil {
		return fulfillment.Receipt{}, err
	}

	return doc.toReceipt()
}

// RecordReceipt inserts the receipt keyed by its fulfillment hash. The _id
// primary key serializes concurrent duplicates: the loser's insert fails
// with a duplicate-key error and is surfaced as ErrReceiptAlreadyExists.
func (c *client) RecordReceipt(ctx context.Context, receipt fulfillment.Receipt) error {
	_, err := c.db.Collection(receiptsCollection).InsertOne(ctx, receiptToDoc(receipt))
	if mongo.IsDuplicateKeyError(err) {
		return fulfillment.ErrReceiptAlreadyExists
	}

	return err
}
