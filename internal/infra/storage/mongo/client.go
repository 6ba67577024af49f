// Package mongo implements the record-store ports on top of MongoDB.
// Entities live in one collection each; receipts use the fulfillment hash as
// their _id so the primary-key unique constraint serializes concurrent
// duplicate fulfillments, and stats counters are advanced with $inc.
package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	operatorsCollection    = "operators"
	watcherTypesCollection = "watcher_types"
	watchersCollection     = "watchers"
	paymentsCollection     = "payments"
	receiptsCollection     = "receipts"
)

type client struct {
	conn *mongo.Client
	db   *mongo.Database
}

// NewClient connects to MongoDB, verifies the connection, and prepares the
// secondary indexes the adapters rely on.
func NewClient(ctx context.Context, uri, database string) (*client, error) {
	conn, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(ctx, nil); err != nil {
		return nil, err
	}

	c := &client{
		conn: conn,
		db:   conn.Database(database),
	}

	if err := c.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	return c, nil
}

// ensureIndexes creates the indexes used by list scans. Receipt uniqueness
// needs no extra index since the fulfillment hash is the document _id.
func (c *client) ensureIndexes(ctx context.Context) error {
	_, err := c.db.Collection(watchersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "status", Value: 1}},
	})
	if err != nil {
		return err
	}

	_, err = c.db.Collection(watcherTypesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "operator_id", Value: 1}},
	})
	return err
}

func (c *client) Close(ctx context.Context) error {
	return c.conn.Disconnect(ctx)
}
