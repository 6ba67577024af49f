// Package webhook delivers trigger notifications to customer-owned HTTP
// endpoints.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/wardenlabs/watchmarket/internal/trigger"
)

// event name carried in every delivered payload.
const eventWatcherTriggered = "watcher_triggered"

// payload is the JSON body posted to the customer's webhook.
type payload struct {
	Event   string `json:"event"`
	Watcher struct {
		ID     string `json:"id"`
		TypeID string `json:"typeId"`
	} `json:"watcher"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Source    string         `json:"source"`
}

type sink struct {
	httpClient *retryablehttp.Client
	source     string
}

var _ trigger.NotificationSink = (*sink)(nil)

// NewSink creates a NotificationSink that POSTs trigger payloads with the
// given client. source identifies this deployment in delivered payloads.
func NewSink(httpClient *retryablehttp.Client, source string) *sink {
	return &sink{
		httpClient: httpClient,
		source:     source,
	}
}

// Deliver posts the notification to the watcher's webhook. Any non-2xx
// response counts as a failed delivery so the trigger is re-attempted on a
// later cycle.
func (s *sink) Deliver(ctx context.Context, n trigger.Notification) error {
	body := payload{
		Event:     eventWatcherTriggered,
		Data:      n.Data,
		Timestamp: n.Timestamp,
		Source:    s.source,
	}
	body.Watcher.ID = n.WatcherID
	body.Watcher.TypeID = n.TypeID

	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, n.Webhook, raw)
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delivering notification for watcher %s: %w", n.WatcherID, err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook for watcher %s returned status %d", n.WatcherID, res.StatusCode)
	}

	return nil
}
