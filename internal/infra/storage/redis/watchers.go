package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/wardenlabs/watchmarket/internal/marketplace"
	"github.com/wardenlabs/watchmarket/internal/trigger"

	redis "github.com/redis/go-redis/v9"
)

const (
	// watcherKeyPrefix namespaces watcher records.
	watcherKeyPrefix = "marketplace:watcher"

	// watcherStateKeyPrefix namespaces the per-watcher check/trigger
	// bookkeeping hashes. Bookkeeping lives outside the watcher document so
	// the engine writes it field-by-field without a read-modify-write that
	// could revert a concurrent lifecycle status change.
	watcherStateKeyPrefix = "marketplace:watcher:state"

	// watcherStatusIndexPrefix namespaces the per-status watcher id sets
	// used to scan active watchers without touching paused/expired ones.
	watcherStatusIndexPrefix = "marketplace:watchers:status"
)

// State hash field names.
const (
	stateFieldLastChecked        = "lastChecked"
	stateFieldLastCheckResult    = "lastCheckResult"
	stateFieldLastCheckTriggered = "lastCheckTriggered"
	stateFieldLastTriggered      = "lastTriggered"
	stateFieldTriggerCount       = "triggerCount"
)

func watcherKey(id string) string {
	return fmt.Sprintf("%s:%s", watcherKeyPrefix, id)
}

func watcherStateKey(id string) string {
	return fmt.Sprintf("%s:%s", watcherStateKeyPrefix, id)
}

func watcherStatusIndexKey(status marketplace.WatcherStatus) string {
	return fmt.Sprintf("%s:%s", watcherStatusIndexPrefix, status)
}

// watcherDocument marshals the lifecycle document, with the engine-owned
// bookkeeping fields zeroed out. Those live in the state hash only.
func watcherDocument(w marketplace.Watcher) ([]byte, error) {
	w.LastChecked = nil
	w.LastCheckResult = nil
	w.LastCheckTriggered = false
	w.LastTriggered = nil
	w.TriggerCount = 0
	return json.Marshal(w)
}

// applyWatcherState overlays the bookkeeping hash fields onto the watcher
// loaded from its document. An empty field map means the watcher has never
// been checked.
func applyWatcherState(w *marketplace.Watcher, fields map[string]string) error {
	if v, ok := fields[stateFieldLastChecked]; ok {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return fmt.Errorf("parsing last checked timestamp: %w", err)
		}
		w.LastChecked = &t
	}

	if v, ok := fields[stateFieldLastCheckResult]; ok {
		if err := json.Unmarshal([]byte(v), &w.LastCheckResult); err != nil {
			return fmt.Errorf("decoding last check result: %w", err)
		}
	}

	w.LastCheckTriggered = fields[stateFieldLastCheckTriggered] == "1"

	if v, ok := fields[stateFieldLastTriggered]; ok {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return fmt.Errorf("parsing last triggered timestamp: %w", err)
		}
		w.LastTriggered = &t
	}

	if v, ok := fields[stateFieldTriggerCount]; ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing trigger count: %w", err)
		}
		w.TriggerCount = n
	}

	return nil
}

func (c *client) CreateWatcher(ctx context.Context, w marketplace.Watcher) error {
	data, err := watcherDocument(w)
	if err != nil {
		return err
	}

	pipe := c.conn.TxPipeline()
	pipe.Set(ctx, watcherKey(w.ID), data, 0)
	pipe.SAdd(ctx, watcherStatusIndexKey(w.Status), w.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func (c *client) GetWatcher(ctx context.Context, id string) (marketplace.Watcher, error) {
	data, err := c.conn.Get(ctx, watcherKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return marketplace.Watcher{}, marketplace.ErrWatcherNotFound
		}
		return marketplace.Watcher{}, err
	}

	var w marketplace.Watcher
	if err := json.Unmarshal(data, &w); err != nil {
		return marketplace.Watcher{}, err
	}

	state, err := c.conn.HGetAll(ctx, watcherStateKey(id)).Result()
	if err != nil {
		return marketplace.Watcher{}, err
	}
	if err := applyWatcherState(&w, state); err != nil {
		return marketplace.Watcher{}, err
	}

	return w, nil
}

func (c *client) ListWatchers(ctx context.Context, filter marketplace.WatcherFilter) ([]marketplace.Watcher, error) {
	var ids []string
	var err error

	if filter.Status != "" {
		ids, err = c.conn.SMembers(ctx, watcherStatusIndexKey(filter.Status)).Result()
	} else {
		ids, err = c.allWatcherIDs(ctx)
	}
	if err != nil {
		return nil, err
	}

	watchers := make([]marketplace.Watcher, 0, len(ids))
	for _, id := range ids {
		w, err := c.GetWatcher(ctx, id)
		if err != nil {
			if errors.Is(err, marketplace.ErrWatcherNotFound) {
				continue
			}
			return nil, err
		}

		if filter.CustomerID != "" && w.CustomerID != filter.CustomerID {
			continue
		}
		if filter.TypeID != "" && w.TypeID != filter.TypeID {
			continue
		}
		watchers = append(watchers, w)
	}
	return watchers, nil
}

// allWatcherIDs unions the per-status index sets.
func (c *client) allWatcherIDs(ctx context.Context) ([]string, error) {
	keys := []string{
		watcherStatusIndexKey(marketplace.WatcherStatusActive),
		watcherStatusIndexKey(marketplace.WatcherStatusPaused),
		watcherStatusIndexKey(marketplace.WatcherStatusExpired),
	}
	return c.conn.SUnion(ctx, keys...).Result()
}

func (c *client) UpdateWatcherStatus(ctx context.Context, id string, status marketplace.WatcherStatus) error {
	w, err := c.GetWatcher(ctx, id)
	if err != nil {
		return err
	}

	previous := w.Status
	w.Status = status

	data, err := watcherDocument(w)
	if err != nil {
		return err
	}

	pipe := c.conn.TxPipeline()
	pipe.Set(ctx, watcherKey(id), data, 0)
	pipe.SRem(ctx, watcherStatusIndexKey(previous), id)
	pipe.SAdd(ctx, watcherStatusIndexKey(status), id)
	_, err = pipe.Exec(ctx)
	return err
}

func (c *client) ListActiveWatchers(ctx context.Context) ([]marketplace.Watcher, error) {
	return c.ListWatchers(ctx, marketplace.WatcherFilter{Status: marketplace.WatcherStatusActive})
}

// requireWatcher reports ErrWatcherNotFound for bookkeeping writes against a
// watcher that no longer exists, matching the other adapters.
func (c *client) requireWatcher(ctx context.Context, id string) error {
	n, err := c.conn.Exists(ctx, watcherKey(id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return marketplace.ErrWatcherNotFound
	}
	return nil
}

func (c *client) SaveCheckOutcome(ctx context.Context, watcherID string, checkedAt time.Time, result map[string]any, triggered bool) error {
	if err := c.requireWatcher(ctx, watcherID); err != nil {
		return err
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return err
	}

	triggeredFlag := "0"
	if triggered {
		triggeredFlag = "1"
	}

	return c.conn.HSet(ctx, watcherStateKey(watcherID),
		stateFieldLastChecked, checkedAt.UTC().Format(time.RFC3339Nano),
		stateFieldLastCheckResult, resultJSON,
		stateFieldLastCheckTriggered, triggeredFlag,
	).Err()
}

func (c *client) SaveTriggerOutcome(ctx context.Context, watcherID string, triggeredAt time.Time) error {
	if err := c.requireWatcher(ctx, watcherID); err != nil {
		return err
	}

	pipe := c.conn.TxPipeline()
	pipe.HSet(ctx, watcherStateKey(watcherID),
		stateFieldLastTriggered, triggeredAt.UTC().Format(time.RFC3339Nano),
		stateFieldLastCheckTriggered, "1",
	)
	pipe.HIncrBy(ctx, watcherStateKey(watcherID), stateFieldTriggerCount, 1)
	_, err := pipe.Exec(ctx)
	return err
}

var (
	_ marketplace.WatcherStorage  = (*client)(nil)
	_ trigger.WatcherStateStorage = (*client)(nil)
)
