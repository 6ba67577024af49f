package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wardenlabs/watchmarket/internal/accounting"
	"github.com/wardenlabs/watchmarket/internal/marketplace"
)

var (
	_ marketplace.OperatorStorage = (*client)(nil)
	_ accounting.StatsStorage     = (*client)(nil)
)

type operatorDoc struct {
	ID            string    `bson:"_id"`
	Name          string    `bson:"name"`
	PayoutAddress string    `bson:"payout_address"`
	CreatedAt     time.Time `bson:"created_at"`
	Stats         struct {
		WatchersCreated int64 `bson:"watchers_created"`
		TotalTriggers   int64 `bson:"total_triggers"`
	} `bson:"stats"`
}

func operatorToDoc(op marketplace.Operator) operatorDoc {
	doc := operatorDoc{
		ID:            op.ID,
		Name:          op.Name,
		PayoutAddress: op.PayoutAddress,
		CreatedAt:     op.CreatedAt,
	}
	doc.Stats.WatchersCreated = op.Stats.WatchersCreated
	doc.Stats.TotalTriggers = op.Stats.TotalTriggers
	return doc
}

func (d operatorDoc) toOperator() marketplace.Operator {
	return marketplace.Operator{
		ID:            d.ID,
		Name:          d.Name,
		PayoutAddress: d.PayoutAddress,
		CreatedAt:     d.CreatedAt,
		Stats: marketplace.OperatorStats{
			WatchersCreated: d.Stats.WatchersCreated,
			TotalTriggers:   d.Stats.TotalTriggers,
		},
	}
}

func (c *client) CreateOperator(ctx context.Context, op marketplace.Operator) error {
	_, err := c.db.Collection(operatorsCollection).InsertOne(ctx, operatorToDoc(op))
	return err
}

func (c *client) GetOperator(ctx context.Context, id string) (marketplace.Operator, error) {
	var doc operatorDoc
	err := c.db.Collection(operatorsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return marketplace.Operator{}, marketplace.ErrOperatorNotFound
	} else if err != nil {
		return marketplace.Operator{}, err
	}

	return doc.toOperator(), nil
}

func (c *client) ListOperators(ctx context.Context) ([]marketplace.Operator, error) {
	cursor, err := c.db.Collection(operatorsCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}

	var docs []operatorDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	operators := make([]marketplace.Operator, len(docs))
	for i, doc := range docs {
		operators[i] = doc.toOperator()
	}

	return operators, nil
}

func (c *client) IncrementOperatorStats(ctx context.Context, operatorID string, watchersCreated, triggers int64) error {
	res, err := c.db.Collection(operatorsCollection).UpdateOne(ctx,
		bson.M{"_id": operatorID},
		bson.M{"$inc": bson.M{
			"stats.watchers_created": watchersCreated,
			"stats.total_triggers":   triggers,
		}},
	)
	if err != nil {
		return err
	}

	if res.MatchedCount == 0 {
		return marketplace.ErrOperatorNotFound
	}

	return nil
}
