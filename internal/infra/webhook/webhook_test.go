package webhook

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	transporthttp "github.com/wardenlabs/watchmarket/internal/pkg/transport/http"
	"github.com/wardenlabs/watchmarket/internal/trigger"
)

func testNotification(webhook string) trigger.Notification {
	return trigger.Notification{
		WatcherID: "w-1",
		TypeID:    "type-1",
		Webhook:   webhook,
		Data:      map[string]any{"balance": "1.23"},
		Timestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestDeliver(t *testing.T) {
	t.Run("posts the trigger payload", func(t *testing.T) {
		var (
			gotBody        []byte
			gotContentType string
		)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotContentType = r.Header.Get("Content-Type")
			gotBody, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		sink := NewSink(transporthttp.NewClient(transporthttp.WithRetryMax(0)), "watchmarket-test")

		err := sink.Deliver(t.Context(), testNotification(server.URL))

		require.NoError(t, err)
		assert.Equal(t, "application/json", gotContentType)

		var body map[string]any
		require.NoError(t, json.Unmarshal(gotBody, &body))
		assert.Equal(t, "watcher_triggered", body["event"])
		assert.Equal(t, "watchmarket-test", body["source"])
		assert.Equal(t, map[string]any{"id": "w-1", "typeId": "type-1"}, body["watcher"])
		assert.Equal(t, map[string]any{"balance": "1.23"}, body["data"])
	})

	t.Run("2xx statuses acknowledge the delivery", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
		}))
		defer server.Close()

		sink := NewSink(transporthttp.NewClient(transporthttp.WithRetryMax(0)), "watchmarket-test")

		require.NoError(t, sink.Deliver(t.Context(), testNotification(server.URL)))
	})

	t.Run("non-2xx statuses fail the delivery", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		sink := NewSink(transporthttp.NewClient(transporthttp.WithRetryMax(0)), "watchmarket-test")

		err := sink.Deliver(t.Context(), testNotification(server.URL))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "400")
	})

	t.Run("unreachable endpoints fail the delivery", func(t *testing.T) {
		sink := NewSink(transporthttp.NewClient(
			transporthttp.WithRetryMax(0),
			transporthttp.WithTimeout(100*time.Millisecond),
		), "watchmarket-test")

		err := sink.Deliver(t.Context(), testNotification("http://127.0.0.1:1/hook"))

		require.Error(t, err)
	})
}
