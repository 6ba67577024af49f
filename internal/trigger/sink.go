package trigger

import (
	"context"
	"time"
)

// Notification is the payload delivered to a watcher's webhook when its
// condition is met.
type Notification struct {
	WatcherID string         // identity of the triggered watcher
	TypeID    string         // its watcher type
	Webhook   string         // customer-owned delivery target
	Data      map[string]any // evaluator result data
	Timestamp time.Time      // when the trigger was observed
}

// NotificationSink delivers trigger notifications to the customer-owned
// webhook endpoint. Its reliability is outside this system's control: a
// returned error means the occurrence was not acknowledged and the engine
// will re-detect and re-attempt on a later cycle.
type NotificationSink interface {
	Deliver(ctx context.Context, n Notification) error
}
