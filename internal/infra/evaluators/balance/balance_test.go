package balance

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rpcStub answers Fetch from a function field.
type rpcStub struct {
	fetch func(ctx context.Context, method string, params ...any) (json.RawMessage, error)
}

func (s *rpcStub) Fetch(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	return s.fetch(ctx, method, params...)
}

// balanceRPC returns a stub answering eth_getBalance with the given wei
// amount in hex.
func balanceRPC(t *testing.T, hexWei string) *rpcStub {
	t.Helper()
	return &rpcStub{
		fetch: func(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
			assert.Equal(t, "eth_getBalance", method)
			require.Len(t, params, 2)
			assert.Equal(t, "latest", params[1])
			return json.RawMessage(`"` + hexWei + `"`), nil
		},
	}
}

func validConfig() map[string]any {
	return map[string]any{
		"address":   "0x00000000219ab540356cbb839cbe05303d7705fa",
		"threshold": "1.5",
	}
}

func TestDescribe(t *testing.T) {
	metadata := New(&rpcStub{}).Describe()

	assert.Equal(t, ExecutorID, metadata.ID)
	assert.NotEmpty(t, metadata.Name)
}

func TestValidateConfig(t *testing.T) {
	ev := New(&rpcStub{})

	t.Run("accepts a valid config", func(t *testing.T) {
		assert.Empty(t, ev.ValidateConfig(validConfig()))
	})

	t.Run("rejects a missing address", func(t *testing.T) {
		msgs := ev.ValidateConfig(map[string]any{"threshold": "1.5"})
		require.NotEmpty(t, msgs)
	})

	t.Run("rejects a non-hex address", func(t *testing.T) {
		cfg := validConfig()
		cfg["address"] = "not-an-address"

		assert.NotEmpty(t, ev.ValidateConfig(cfg))
	})

	t.Run("rejects a non-decimal threshold", func(t *testing.T) {
		cfg := validConfig()
		cfg["threshold"] = "lots"

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
	// 2 ETH in wei.
	const twoETH = "0x1bc16d674ec80000"

	t.Run("triggers above the threshold by default", func(t *testing.T) {
		ev := New(balanceRPC(t, twoETH))

		result, err := ev.Check(t.Context(), validConfig())

		require.NoError(t, err)
		assert.True(t, result.Triggered)
		assert.Equal(t, "2", result.Data["balance"])
		assert.Equal(t, "above", result.Data["direction"])
	})

	t.Run("below direction inverts the comparison", func(t *testing.T) {
		ev := New(balanceRPC(t, twoETH))

		cfg := validConfig()
		cfg["direction"] = "below"

		result, err := ev.Check(t.Context(), cfg)

		require.NoError(t, err)
		assert.False(t, result.Triggered)
	})

	t.Run("does not trigger below the threshold", func(t *testing.T) {
		// 1 ETH in wei.
		ev := New(balanceRPC(t, "0xde0b6b3a7640000"))

		result, err := ev.Check(t.Context(), validConfig())

		require.NoError(t, err)
		assert.False(t, result.Triggered)
	})

	t.Run("exact threshold triggers in both directions", func(t *testing.T) {
		cfg := validConfig()
		cfg["threshold"] = "2"

		for _, direction := range []string{"above", "below"} {
			cfg["direction"] = direction

			result, err := New(balanceRPC(t, twoETH)).Check(t.Context(), cfg)
			require.NoError(t, err)
			assert.True(t, result.Triggered, "direction %s", direction)
		}
	})

	t.Run("propagates provider failures", func(t *testing.T) {
		providerErr := errors.New("provider unreachable")
		ev := New(&rpcStub{
			fetch: func(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
				return nil, providerErr
			},
		})

		_, err := ev.Check(t.Context(), validConfig())

		require.ErrorIs(t, err, providerErr)
	})

	t.Run("rejects invalid configs before fetching", func(t *testing.T) {
		ev := New(&rpcStub{
			fetch: func(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
				t.Fatal("fetch must not be called for an invalid config")
				return nil, nil
			},
		})

		_, err := ev.Check(t.Context(), map[string]any{"threshold": "1.5"})

		require.Error(t, err)
	})
}
