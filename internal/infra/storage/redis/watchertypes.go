package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wardenlabs/watchmarket/internal/marketplace"

	redis "github.com/redis/go-redis/v9"
)

const (
	// watcherTypeKeyPrefix namespaces watcher-type records and stats.
	watcherTypeKeyPrefix = "marketplace:watchertype"

	// watcherTypeIndexKey is the set of all watcher-type ids.
	watcherTypeIndexKey = "marketplace:watchertypes"
)

func watcherTypeKey(id string) string {
	return fmt.Sprintf("%s:%s", watcherTypeKeyPrefix, id)
}

func watcherTypeStatsKey(id string) string {
	return fmt.Sprintf("%s:%s:stats", watcherTypeKeyPrefix, id)
}

func (c *client) CreateWatcherType(ctx context.Context, wt marketplace.WatcherType) error {
	data, err := json.Marshal(wt)
	if err != nil {
		return err
	}

	pipe := c.conn.TxPipeline()
	pipe.Set(ctx, watcherTypeKey(wt.ID), data, 0)
	pipe.SAdd(ctx, watcherTypeIndexKey, wt.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func (c *client) GetWatcherType(ctx context.Context, id string) (marketplace.WatcherType, error) {
	data, err := c.conn.Get(ctx, watcherTypeKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return marketplace.WatcherType{}, marketplace.ErrWatcherTypeNotFound
		}
		return marketplace.WatcherType{}, err
	}

	var wt marketplace.WatcherType
	if err := json.Unmarshal(data, &wt); err != nil {
		return marketplace.WatcherType{}, err
	}

	stats, err := c.conn.HGetAll(ctx, watcherTypeStatsKey(id)).Result()
	if err != nil {
		return marketplace.WatcherType{}, err
	}
	wt.Stats.Instances = parseCounter(stats["instances"])
	wt.Stats.Triggers = parseCounter(stats["triggers"])

	return wt, nil
}

func (c *client) ListWatcherTypes(ctx context.Context, filter marketplace.WatcherTypeFilter) ([]marketplace.WatcherType, error) {
	ids, err := c.conn.SMembers(ctx, watcherTypeIndexKey).Result()
	if err != nil {
		return nil, err
	}

	watcherTypes := make([]marketplace.WatcherType, 0, len(ids))
	for _, id := range ids {
		wt, err := c.GetWatcherType(ctx, id)
		if err != nil {
			if errors.Is(err, marketplace.ErrWatcherTypeNotFound) {
				continue
			}
			return nil, err
		}

		if filter.OperatorID != "" && wt.OperatorID != filter.OperatorID {
			continue
		}
		if filter.Category != "" && wt.Category != filter.Category {
			continue
		}
		if filter.Status != "" && wt.Status != filter.Status {
			continue
		}
		watcherTypes = append(watcherTypes, wt)
	}
	return watcherTypes, nil
}

func (c *client) UpdateWatcherTypeStatus(ctx context.Context, id string, status marketplace.WatcherTypeStatus) error {
	wt, err := c.GetWatcherType(ctx, id)
	if err != nil {
		return err
	}

	wt.Status = status
	data, err := json.Marshal(wt)
	if err != nil {
		return err
	}

	return c.conn.Set(ctx, watcherTypeKey(id), data, 0).Err()
}

func (c *client) IncrementWatcherTypeStats(ctx context.Context, typeID string, instances, triggers int64) error {
	pipe := c.conn.TxPipeline()
	if instances != 0 {
		pipe.HIncrBy(ctx, watcherTypeStatsKey(typeID), "instances", instances)
	}
	if triggers != 0 {
		pipe.HIncrBy(ctx, watcherTypeStatsKey(typeID), "triggers", triggers)
	}
	_, err := pipe.Exec(ctx)
	return err
}

var _ marketplace.WatcherTypeStorage = (*client)(nil)
