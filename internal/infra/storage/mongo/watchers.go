package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wardenlabs/watchmarket/internal/marketplace"
	"github.com/wardenlabs/watchmarket/internal/trigger"
)

var (
	_ marketplace.WatcherStorage  = (*client)(nil)
	_ trigger.WatcherStateStorage = (*client)(nil)
)

type watcherDoc struct {
	ID         string         `bson:"_id"`
	TypeID     string         `bson:"type_id"`
	OperatorID string         `bson:"operator_id"`
	CustomerID string         `bson:"customer_id"`
	Config     map[string]any `bson:"config"`
	Webhook    string         `bson:"webhook"`
	Status     string         `bson:"status"`
	CreatedAt  time.Time      `bson:"created_at"`

	LastChecked        *time.Time     `bson:"last_checked,omitempty"`
	LastCheckResult    map[string]any `bson:"last_check_result,omitempty"`
	LastCheckTriggered bool           `bson:"last_check_triggered"`
	LastTriggered      *time.Time     `bson:"last_triggered,omitempty"`
	TriggerCount       int64          `bson:"trigger_count"`
}

func watcherToDoc(w marketplace.Watcher) watcherDoc {
	return watcherDoc{
		ID:                 w.ID,
		TypeID:             w.TypeID,
		OperatorID:         w.OperatorID,
		CustomerID:         w.CustomerID,
		Config:             w.Config,
		Webhook:            w.Webhook,
		Status:             string(w.Status),
		CreatedAt:          w.CreatedAt,
		LastChecked:        w.LastChecked,
		LastCheckResult:    w.LastCheckResult,
		LastCheckTriggered: w.LastCheckTriggered,
		LastTriggered:      w.LastTriggered,
		TriggerCount:       w.TriggerCount,
	}
}

func (d watcherDoc) toWatcher() marketplace.Watcher {
	return marketplace.Watcher{
		ID:                 d.ID,
		TypeID:             d.TypeID,
		OperatorID:         d.OperatorID,
		CustomerID:         d.CustomerID,
		Config:             d.Config,
		Webhook:            d.Webhook,
		Status:             marketplace.WatcherStatus(d.Status),
		CreatedAt:          d.CreatedAt,
		LastChecked:        d.LastChecked,
		LastCheckResult:    d.LastCheckResult,
		LastCheckTriggered: d.LastCheckTriggered,
		LastTriggered:      d.LastTriggered,
		TriggerCount:       d.TriggerCount,
	}
}

func (c *client) CreateWatcher(ctx context.Context, w marketplace.Watcher) error {
	_, err := c.db.Collection(watchersCollection).InsertOne(ctx, watcherToDoc(w))
	return err
}

func (c *client) GetWatcher(ctx context.Context, id string) (marketplace.Watcher, error) {
	var doc watcherDoc
	err := c.db.Collection(watchersCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return marketplace.Watcher{}, marketplace.ErrWatcherNotFound
	} else if err != nil {
		return marketplace.Watcher{}, err
	}

	return doc.toWatcher(), nil
}

func (c *client) ListWatchers(ctx context.Context, filter marketplace.WatcherFilter) ([]marketplace.Watcher, error) {
	query := bson.M{}
	if filter.CustomerID != "" {
		query["customer_id"] = filter.CustomerID
	}
	if filter.TypeID != "" {
		query["type_id"] = filter.TypeID
	}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}

	cursor, err := c.db.Collection(watchersCollection).Find(ctx, query)
	if err != nil {
		return nil, err
	}

	var docs []watcherDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	watchers := make([]marketplace.Watcher, len(docs))
	for i, doc := range docs {
		watchers[i] = doc.toWatcher()
	}

	return watchers, nil
}

func (c *client) UpdateWatcherStatus(ctx context.Context, id string, status marketplace.WatcherStatus) error {
	res, err := c.db.Collection(watchersCollection).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": string(status)}},
	)
	if err != nil {
		return err
	}

	if res.MatchedCount == 0 {
		return marketplace.ErrWatcherNotFound
	}

	return nil
}

func (c *client) ListActiveWatchers(ctx context.Context) ([]marketplace.Watcher, error) {
	return c.ListWatchers(ctx, marketplace.WatcherFilter{Status: marketplace.WatcherStatusActive})
}

func (c *client) SaveCheckOutcome(ctx context.Context, watcherID string, checkedAt time.Time, result map[string]any, triggered bool) error {
	res, err := c.db.Collection(watchersCollection).UpdateOne(ctx,
		bson.M{"_id": watcherID},
		bson.M{"$set": bson.M{
			"last_checked":         checkedAt,
			"last_check_result":    result,
			"last_check_triggered": triggered,
		}},
	)
	if err != nil {
		return err
	}

	if res.MatchedCount == 0 {
		return marketplace.ErrWatcherNotFound
	}

	return nil
}

func (c *client) SaveTriggerOutcome(ctx context.Context, watcherID string, triggeredAt time.Time) error {
	res, err := c.db.Collection(watchersCollection).UpdateOne(ctx,
		bson.M{"_id": watcherID},
		bson.M{
			"$set": bson.M{
				"last_triggered":       triggeredAt,
				"last_check_triggered": true,
			},
			"$inc": bson.M{"trigger_count": int64(1)},
		},
	)
	if err != nil {
		return err
	}

	if res.MatchedCount == 0 {
		return marketplace.ErrWatcherNotFound
	}

	return nil
}
