package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenlabs/watchmarket/internal/accounting"
	"github.com/wardenlabs/watchmarket/internal/evaluator"
	"github.com/wardenlabs/watchmarket/internal/fulfillment"
	"github.com/wardenlabs/watchmarket/internal/infra/storage/memory"
	"github.com/wardenlabs/watchmarket/internal/marketplace"
	"github.com/wardenlabs/watchmarket/internal/pkg/logger"
	"github.com/wardenlabs/watchmarket/internal/trigger"
)

func init() {
	// Initialize logger for tests to prevent nil pointer dereference
	_ = logger.Init(logger.WithLevel("error"))
}

// acceptAllEvaluator triggers on every check.
type acceptAllEvaluator struct{}

func (acceptAllEvaluator) Describe() evaluator.Metadata {
	return evaluator.Metadata{ID: "always-on", Name: "Always On"}
}

func (acceptAllEvaluator) Check(ctx context.Context, config map[string]any) (evaluator.CheckResult, error) {
	return evaluator.CheckResult{Triggered: true, Data: map[string]any{"value": "42"}}, nil
}

// sinkStub acknowledges every delivery.
type sinkStub struct{}

func (sinkStub) Deliver(ctx context.Context, n trigger.Notification) error {
	return nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := memory.New()
	registry := evaluator.NewRegistry()
	require.NoError(t, registry.Register(acceptAllEvaluator{}))

	acc := accounting.New(store)
	market := marketplace.New(store, store, store, store, fulfillment.NewLedger(store), registry, acc)
	engine := trigger.New(store, market, registry, sinkStub{}, acc)

	server := httptest.NewServer(NewRouter(market, engine, registry))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequestWithContext(t.Context(), method, url, &buf)
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(res.Body)
	require.NoError(t, err)

	return res, out.Bytes()
}

// seedWatcherType registers an operator and publishes a type, returning the
// type id.
func seedWatcherType(t *testing.T, baseURL string) string {
	t.Helper()

	res, body := doJSON(t, http.MethodPost, baseURL+"/v1/operators", map[string]any{
		"name":          "Acme Watchers",
		"payoutAddress": "0xpayout",
	}, nil)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var op marketplace.Operator
	require.NoError(t, json.Unmarshal(body, &op))

	res, body = doJSON(t, http.MethodPost, baseURL+"/v1/watcher-types", map[string]any{
		"operatorId": op.ID,
		"executorId": "always-on",
		"name":       "Always Firing",
		"category":   "testing",
		"price":      "9.99",
	}, nil)
	require.Equal(t, http.StatusCreated, res.StatusCode)

	var wt marketplace.WatcherType
	require.NoError(t, json.Unmarshal(body, &wt))
	return wt.ID
}

func TestHealth(t *testing.T) {
	server := newTestServer(t)

	res, _ := doJSON(t, http.MethodGet, server.URL+"/health", nil, nil)

	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestOperatorEndpoints(t *testing.T) {
	t.Run("register and list", func(t *testing.T) {
		server := newTestServer(t)

		res, _ := doJSON(t, http.MethodPost, server.URL+"/v1/operators", map[string]any{
			"name":          "Acme Watchers",
			"payoutAddress": "0xpayout",
		}, nil)
		require.Equal(t, http.StatusCreated, res.StatusCode)

		res, body := doJSON(t, http.MethodGet, server.URL+"/v1/operators", nil, nil)
		require.Equal(t, http.StatusOK, res.StatusCode)

		var operators []marketplace.Operator
		require.NoError(t, json.Unmarshal(body, &operators))
		assert.Len(t, operators, 1)
	})

	t.Run("rejects invalid payloads", func(t *testing.T) {
		server := newTestServer(t)

		res, _ := doJSON(t, http.MethodPost, server.URL+"/v1/operators", map[string]any{
			"name": "No Payout",
		}, nil)

		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})
}

func TestWatcherTypeEndpoints(t *testing.T) {
	t.Run("publish, get, deprecate", func(t *testing.T) {
		server := newTestServer(t)
		typeID := seedWatcherType(t, server.URL)

		res, body := doJSON(t, http.MethodGet, server.URL+"/v1/watcher-types/"+typeID, nil, nil)
		require.Equal(t, http.StatusOK, res.StatusCode)

		var wt marketplace.WatcherType
		require.NoError(t, json.Unmarshal(body, &wt))
		assert.Equal(t, marketplace.WatcherTypeStatusActive, wt.Status)

		res, _ = doJSON(t, http.MethodPost, server.URL+"/v1/watcher-types/"+typeID+"/deprecate", nil, nil)
		require.Equal(t, http.StatusNoContent, res.StatusCode)

		res, body = doJSON(t, http.MethodGet, server.URL+"/v1/watcher-types/"+typeID, nil, nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		require.NoError(t, json.Unmarshal(body, &wt))
		assert.Equal(t, marketplace.WatcherTypeStatusDeprecated, wt.Status)
	})

	t.Run("unknown type yields 404", func(t *testing.T) {
		server := newTestServer(t)

		res, _ := doJSON(t, http.MethodGet, server.URL+"/v1/watcher-types/missing", nil, nil)

		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})
}

func TestWatcherEndpoints(t *testing.T) {
	createBody := func(typeID string) map[string]any {
		return map[string]any{
			"typeId":  typeID,
			"config":  map[string]any{"threshold": "1"},
			"webhook": "https://example.com/hook",
		}
	}

	t.Run("create yields 201 with watcher, payment, and receipt", func(t *testing.T) {
		server := newTestServer(t)
		typeID := seedWatcherType(t, server.URL)

		res, body := doJSON(t, http.MethodPost, server.URL+"/v1/watchers", createBody(typeID),
			map[string]string{"X-Customer-Id": "customer-1"})
		require.Equal(t, http.StatusCreated, res.StatusCode)

		var out createWatcherResponse
		require.NoError(t, json.Unmarshal(body, &out))
		assert.False(t, out.Replayed)
		assert.Equal(t, "customer-1", out.Watcher.CustomerID)
		assert.NotEmpty(t, out.Receipt.FulfillmentHash)
		assert.True(t, out.Payment.OperatorShare.Add(out.Payment.PlatformShare).Equal(out.Payment.Amount))
	})

	t.Run("identical request replays with 200", func(t *testing.T) {
		server := newTestServer(t)
		typeID := seedWatcherType(t, server.URL)
		headers := map[string]string{"X-Customer-Id": "customer-1"}

		res, body := doJSON(t, http.MethodPost, server.URL+"/v1/watchers", createBody(typeID), headers)
		require.Equal(t, http.StatusCreated, res.StatusCode)

		var first createWatcherResponse
		require.NoError(t, json.Unmarshal(body, &first))

		res, body = doJSON(t, http.MethodPost, server.URL+"/v1/watchers", createBody(typeID), headers)
		require.Equal(t, http.StatusOK, res.StatusCode)

		var second createWatcherResponse
		require.NoError(t, json.Unmarshal(body, &second))
		assert.True(t, second.Replayed)
		assert.Equal(t, first.Watcher.ID, second.Watcher.ID)
	})

	t.Run("missing customer header defaults to anonymous", func(t *testing.T) {
		server := newTestServer(t)
		typeID := seedWatcherType(t, server.URL)

		res, body := doJSON(t, http.MethodPost, server.URL+"/v1/watchers", createBody(typeID), nil)
		require.Equal(t, http.StatusCreated, res.StatusCode)

		var out createWatcherResponse
		require.NoError(t, json.Unmarshal(body, &out))
		assert.Equal(t, marketplace.AnonymousCustomerID, out.Watcher.CustomerID)
	})

	t.Run("invalid webhook yields 400", func(t *testing.T) {
		server := newTestServer(t)
		typeID := seedWatcherType(t, server.URL)

		body := createBody(typeID)
		body["webhook"] = "not-a-url"

		res, _ := doJSON(t, http.MethodPost, server.URL+"/v1/watchers", body, nil)

		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	})

	t.Run("deprecated type yields 409", func(t *testing.T) {
		server := newTestServer(t)
		typeID := seedWatcherType(t, server.URL)

		res, _ := doJSON(t, http.MethodPost, server.URL+"/v1/watcher-types/"+typeID+"/deprecate", nil, nil)
		require.Equal(t, http.StatusNoContent, res.StatusCode)

		res, _ = doJSON(t, http.MethodPost, server.URL+"/v1/watchers", createBody(typeID), nil)

		assert.Equal(t, http.StatusConflict, res.StatusCode)
	})

	t.Run("pause, resume, expire lifecycle", func(t *testing.T) {
		server := newTestServer(t)
		typeID := seedWatcherType(t, server.URL)

		res, body := doJSON(t, http.MethodPost, server.URL+"/v1/watchers", createBody(typeID), nil)
		require.Equal(t, http.StatusCreated, res.StatusCode)

		var out createWatcherResponse
		require.NoError(t, json.Unmarshal(body, &out))
		watcherURL := server.URL + "/v1/watchers/" + out.Watcher.ID

		res, _ = doJSON(t, http.MethodPost, watcherURL+"/pause", nil, nil)
		require.Equal(t, http.StatusNoContent, res.StatusCode)

		res, _ = doJSON(t, http.MethodPost, watcherURL+"/resume", nil, nil)
		require.Equal(t, http.StatusNoContent, res.StatusCode)

		res, _ = doJSON(t, http.MethodPost, watcherURL+"/expire", nil, nil)
		require.Equal(t, http.StatusNoContent, res.StatusCode)

		// Expired is terminal.
		res, _ = doJSON(t, http.MethodPost, watcherURL+"/resume", nil, nil)
		assert.Equal(t, http.StatusConflict, res.StatusCode)
	})

	t.Run("list filters by customer", func(t *testing.T) {
		server := newTestServer(t)
		typeID := seedWatcherType(t, server.URL)

		_, _ = doJSON(t, http.MethodPost, server.URL+"/v1/watchers", createBody(typeID),
			map[string]string{"X-Customer-Id": "customer-1"})

		res, body := doJSON(t, http.MethodGet, server.URL+"/v1/watchers?customerId=customer-1", nil, nil)
		require.Equal(t, http.StatusOK, res.StatusCode)

		var watchers []marketplace.Watcher
		require.NoError(t, json.Unmarshal(body, &watchers))
		assert.Len(t, watchers, 1)

		res, body = doJSON(t, http.MethodGet, server.URL+"/v1/watchers?customerId=somebody-else", nil, nil)
		require.Equal(t, http.StatusOK, res.StatusCode)
		require.NoError(t, json.Unmarshal(body, &watchers))
		assert.Empty(t, watchers)
	})
}

func TestCycleEndpoint(t *testing.T) {
	t.Run("runs a cycle and reports counters", func(t *testing.T) {
		server := newTestServer(t)
		typeID := seedWatcherType(t, server.URL)

		res, _ := doJSON(t, http.MethodPost, server.URL+"/v1/watchers", map[string]any{
			"typeId":  typeID,
			"config":  map[string]any{"threshold": "1"},
			"webhook": "https://example.com/hook",
		}, nil)
		require.Equal(t, http.StatusCreated, res.StatusCode)

		res, body := doJSON(t, http.MethodPost, server.URL+"/v1/cycles/run", nil, nil)
		require.Equal(t, http.StatusOK, res.StatusCode)

		var report trigger.CycleReport
		require.NoError(t, json.Unmarshal(body, &report))
		assert.Equal(t, 1, report.Checked)
		assert.Equal(t, 1, report.Triggered)
	})
}

func TestEvaluatorsEndpoint(t *testing.T) {
	server := newTestServer(t)

	res, body := doJSON(t, http.MethodGet, server.URL+"/v1/evaluators", nil, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var metadata []evaluator.Metadata
	require.NoError(t, json.Unmarshal(body, &metadata))
	require.Len(t, metadata, 1)
	assert.Equal(t, "always-on", metadata[0].ID)
}
