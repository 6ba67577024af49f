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

var _ marketplace.WatcherTypeStorage = (*client)(nil)

type watcherTypeDoc struct {
	ID          string    `bson:"_id"`
	OperatorID  string    `bson:"operator_id"`
	ExecutorID  string    `bson:"executor_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description"`
	Category    string    `bson:"category"`
	Price       string    `bson:"price"` // decimal serialized as string
	Status      string    `bson:"status"`
	CreatedAt   time.Time `bson:"created_at"`
	Stats       struct {
		Instances int64 `bson:"instances"`
		Triggers  int64 `bson:"triggers"`
	} `bson:"stats"`
}

func watcherTypeToDoc(wt marketplace.WatcherType) watcherTypeDoc {
	doc := watcherTypeDoc{
		ID:          wt.ID,
		OperatorID:  wt.OperatorID,
		ExecutorID:  wt.ExecutorID,
		Name:        wt.Name,
		Description: wt.Description,
		Category:    wt.Category,
		Price:       wt.Price.String(),
		Status:      string(wt.Status),
		CreatedAt:   wt.CreatedAt,
	}
	doc.Stats.Instances = wt.Stats.Instances
	doc.Stats.Triggers = wt.Stats.Triggers
	return doc
}

func (d watcherTypeDoc) toWatcherType() (marketplace.WatcherType, error) {
	price, err := decimal.NewFromString(d.Price)
	if err != nil {
		return marketplace.WatcherType{}, err
	}

	return marketplace.WatcherType{
		ID:          d.ID,
		OperatorID:  d.OperatorID,
		ExecutorID:  d.ExecutorID,
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
		Price:       price,
		Status:      marketplace.WatcherTypeStatus(d.Status),
		CreatedAt:   d.CreatedAt,
		Stats: marketplace.WatcherTypeStats{
			Instances: d.Stats.Instances,
			Triggers:  d.Stats.Triggers,
		},
	}, nil
}

func (c *client) CreateWatcherType(ctx context.Context, wt marketplace.WatcherType) error {
	_, err := c.db.Collection(watcherTypesCollection).InsertOne(ctx, watcherTypeToDoc(wt))
	return err
}

func (c *client) GetWatcherType(ctx context.Context, id string) (marketplace.WatcherType, error) {
	var doc watcherTypeDoc
	err := c.db.Collection(watcherTypesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return marketplace.WatcherType{}, marketplace.ErrWatcherTypeNotFound
	} else if err != nil {
		return marketplace.WatcherType{}, err
	}

	return doc.toWatcherType()
}

func (c *client) ListWatcherTypes(ctx context.Context, filter marketplace.WatcherTypeFilter) ([]marketplace.WatcherType, error) {
	query := bson.M{}
	if filter.OperatorID != "" {
		query["operator_id"] = filter.OperatorID
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}

	cursor, err := c.db.Collection(watcherTypesCollection).Find(ctx, query)
	if err != nil {
		return nil, err
	}

	var docs []watcherTypeDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	watcherTypes := make([]marketplace.WatcherType, len(docs))
	for i, doc := range docs {
		if watcherTypes[i], err = doc.toWatcherType(); err != nil {
			return nil, err
		}
	}

	return watcherTypes, nil
}

func (c *client) UpdateWatcherTypeStatus(ctx context.Context, id string, status marketplace.WatcherTypeStatus) error {
	res, err := c.db.Collection(watcherTypesCollection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": string(status)}},
	)
	if err != nil {
		return err
	}

	if res.MatchedCount == 0 {
		return marketplace.ErrWatcherTypeNotFound
	}

	return nil
}

func (c *client) IncrementWatcherTypeStats(ctx context.Context, typeID string, instances, triggers int64) error {
	res, err := c.db.Collection(watcherTypesCollection).UpdateOne(ctx,
		bson.M{"_id": typeID},
		bson.M{"$inc": bson.M{
			"stats.instances": instances,
			"stats.triggers":  triggers,
		}},
	)
	if err != nil {
		return err
	}

	if res.MatchedCount == 0 {
		return marketplace.ErrWatcherTypeNotFound
	}

	return nil
}
