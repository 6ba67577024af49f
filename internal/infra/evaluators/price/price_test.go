package price

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	transporthttp "github.com/wardenlabs/watchmarket/internal/pkg/transport/http"
)

// priceServer answers the simple-price endpoint with a fixed quote.
func priceServer(t *testing.T, token, currency, quote string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, token, r.URL.Query().Get("ids"))
		assert.Equal(t, currency, r.URL.Query().Get("vs_currencies"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"` + token + `": {"` + currency + `": ` + quote + `}}`))
	}))
}

func newEvaluator(apiURL string) *priceEvaluator {
	return New(transporthttp.NewClient(transporthttp.WithRetryMax(0)), apiURL)
}

func validConfig() map[string]any {
	return map[string]any{
		"token":     "ethereum",
		"threshold": "3000",
	}
}

func TestDescribe(t *testing.T) {
	metadata := newEvaluator("http://localhost").Describe()

	assert.Equal(t, ExecutorID, metadata.ID)
	assert.NotEmpty(t, metadata.Name)
}

func TestValidateConfig(t *testing.T) {
	ev := newEvaluator("http://localhost")

	t.Run("accepts a valid config", func(t *testing.T) {
		assert.Empty(t, ev.ValidateConfig(validConfig()))
	})

	t.Run("rejects a missing token", func(t *testing.T) {
		assert.NotEmpty(t, ev.ValidateConfig(map[string]any{"threshold": "3000"}))
	})

	t.Run("rejects a non-decimal threshold", func(t *testing.T) {
		cfg := validConfig()
		cfg["threshold"] = "expensive"

		msgs := ev.ValidateConfig(cfg)
		require.Len(t, msgs, 1)
		assert.Contains(t, msgs[0], "threshold")
	})

	t.Run("rejects an unknown direction", func(t *testing.T) {
		cfg := validConfig()
		cfg["direction"] = "sideways"

		assert.NotEmpty(t, ev.ValidateConfig(cfg))
	})
}

func TestCheck(t *testing.T) {
	t.Run("triggers above the threshold by default", func(t *testing.T) {
		server := priceServer(t, "ethereum", "usd", "3456.78")
		defer server.Close()

		result, err := newEvaluator(server.URL).Check(t.Context(), validConfig())

		require.NoError(t, err)
		assert.True(t, result.Triggered)
		assert.Equal(t, "3456.78", result.Data["price"])
		assert.Equal(t, "usd", result.Data["currency"])
	})

	t.Run("below direction inverts the comparison", func(t *testing.T) {
		server := priceServer(t, "ethereum", "usd", "3456.78")
		defer server.Close()

		cfg := validConfig()
		cfg["direction"] = "below"

		result, err := newEvaluator(server.URL).Check(t.Context(), cfg)

		require.NoError(t, err)
		assert.False(t, result.Triggered)
	})

	t.Run("honors a configured currency", func(t *testing.T) {
		server := priceServer(t, "ethereum", "eur", "2900.00")
		defer server.Close()

		cfg := validConfig()
		cfg["currency"] = "eur"

		result, err := newEvaluator(server.URL).Check(t.Context(), cfg)

		require.NoError(t, err)
		assert.False(t, result.Triggered)
	})

	t.Run("fails on missing quotes", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer server.Close()

		_, err := newEvaluator(server.URL).Check(t.Context(), validConfig())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "no usd quote")
	})

	t.Run("fails on provider errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		_, err := newEvaluator(server.URL).Check(t.Context(), validConfig())

		require.Error(t, err)
	})
}
