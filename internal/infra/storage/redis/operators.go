package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wardenlabs/watchmarket/internal/accounting"
	"github.com/wardenlabs/watchmarket/internal/marketplace"

	redis "github.com/redis/go-redis/v9"
)

const (
	// operatorKeyPrefix namespaces operator records and their stats hashes.
	operatorKeyPrefix = "marketplace:operator"

	// operatorIndexKey is the set of all operator ids.
	operatorIndexKey = "marketplace:operators"
)

func operatorKey(id string) string {
	return fmt.Sprintf("%s:%s", operatorKeyPrefix, id)
}

func operatorStatsKey(id string) string {
	return fmt.Sprintf("%s:%s:stats", operatorKeyPrefix, id)
}

func (c *client) CreateOperator(ctx context.Context, op marketplace.Operator) error {
	data, err := json.Marshal(op)
	if err != nil {
		return err
	}

	pipe := c.conn.TxPipeline()
	pipe.Set(ctx, operatorKey(op.ID), data, 0)
	pipe.SAdd(ctx, operatorIndexKey, op.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func (c *client) GetOperator(ctx context.Context, id string) (marketplace.Operator, error) {
	data, err := c.conn.Get(ctx, operatorKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return marketplace.Operator{}, marketplace.ErrOperatorNotFound
		}
		return marketplace.Operator{}, err
	}

	var op marketplace.Operator
	if err := json.Unmarshal(data, &op); err != nil {
		return marketplace.Operator{}, err
	}

	stats, err := c.conn.HGetAll(ctx, operatorStatsKey(id)).Result()
	if err != nil {
		return marketplace.Operator{}, err
	}
	op.Stats.WatchersCreated = parseCounter(stats["watchersCreated"])
	op.Stats.TotalTriggers = parseCounter(stats["totalTriggers"])

	return op, nil
}

func (c *client) ListOperators(ctx context.Context) ([]marketplace.Operator, error) {
	ids, err := c.conn.SMembers(ctx, operatorIndexKey).Result()
	if err != nil {
		return nil, err
	}

	operators := make([]marketplace.Operator, 0, len(ids))
	for _, id := range ids {
		op, err := c.GetOperator(ctx, id)
		if err != nil {
			if errors.Is(err, marketplace.ErrOperatorNotFound) {
				continue
			}
			return nil, err
		}
		operators = append(operators, op)
	}
	return operators, nil
}

func (c *client) IncrementOperatorStats(ctx context.Context, operatorID string, watchersCreated, triggers int64) error {
	pipe := c.conn.TxPipeline()
	if watchersCreated != 0 {
		pipe.HIncrBy(ctx, operatorStatsKey(operatorID), "watchersCreated", watchersCreated)
	}
	if triggers != 0 {
		pipe.HIncrBy(ctx, operatorStatsKey(operatorID), "totalTriggers", triggers)
	}
	_, err := pipe.Exec(ctx)
	return err
}

var (
	_ marketplace.OperatorStorage = (*client)(nil)
	_ accounting.StatsStorage     = (*client)(nil)
)
