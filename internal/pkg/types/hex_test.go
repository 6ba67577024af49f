package types

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexFromString(t *testing.T) {
	t.Run("valid hex", func(t *testing.T) {
		h, err := HexFromString("0x1a")
		require.NoError(t, err)
		assert.Equal(t, Hex("0x1a"), h)
	})

	t.Run("missing 0x prefix", func(t *testing.T) {
		_, err := HexFromString("1a")
		require.Error(t, err)
	})

	t.Run("invalid hex characters", func(t *testing.T) {
		_, err := HexFromString("0xZZZ")
		require.Error(t, err)
	})
}

func TestHex_UnmarshalJSON(t *testing.T) {
	t.Run("valid lowercase hex", func(t *testing.T) {
		input := `"0x1a"`
		var h Hex

		err := json.Unmarshal([]byte(input), &h)
		require.NoError(t, err)
		assert.Equal(t, Hex("0x1a"), h)
	})

	t.Run("valid uppercase hex", func(t *testing.T) {
		input := `"0X2F"`
		var h Hex

		err := json.Unmarshal([]byte(input), &h)
		require.NoError(t, err)
		assert.Equal(t, Hex("0X2F"), h)
	})

	t.Run("missing 0x prefix", func(t *testing.T) {
		input := `"1a"`
		var h Hex

		err := json.Unmarshal([]byte(input), &h)
		require.Error(t, err)
	})

	t.Run("invalid hex characters", func(t *testing.T) {
		input := `"0xZZZ"`
		var h Hex

		err := json.Unmarshal([]byte(input), &h)
		require.Error(t, err)
	})

	t.Run("not a string", func(t *testing.T) {
		input := `42`
		var h Hex

		err := json.Unmarshal([]byte(input), &h)
		require.Error(t, err)
	})
}

func TestHex_MarshalJSON(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		var h Hex = "0x1a"

		data, err := json.Marshal(h)
		require.NoError(t, err)
		assert.Equal(t, `"0x1a"`, string(data))
	})
}

func TestHex_BigInt(t *testing.T) {
	t.Run("small value", func(t *testing.T) {
		var h Hex = "0x0a"
		assert.Equal(t, big.NewInt(10), h.BigInt())
	})

	t.Run("value beyond 64 bits", func(t *testing.T) {
		// 2^80
		var h Hex = "0x100000000000000000000"

		expected := new(big.Int).Lsh(big.NewInt(1), 80)
		assert.Equal(t, expected, h.BigInt())
	})

	t.Run("empty value decodes to zero", func(t *testing.T) {
		var h Hex
		assert.Zero(t, h.BigInt().Sign())
	})

	t.Run("invalid value decodes to zero", func(t *testing.T) {
		var h Hex = "0xZZZ"
		assert.Zero(t, h.BigInt().Sign())
	})
}
