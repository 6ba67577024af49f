package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Run("should pass when all required fields are present", func(t *testing.T) {
		type Operator struct {
			Name          string `validate:"required"`
			PayoutAddress string `validate:"required"`
		}

		err := Validate(Operator{
			Name:          "chain-metrics",
			PayoutAddress: "0x1234",
		})
		assert.NoError(t, err)
	})

	t.Run("should pass when enum value is valid", func(t *testing.T) {
		type Condition struct {
			Direction string `validate:"required,oneof=above below"`
		}

		err := Validate(Condition{Direction: "below"})
		assert.NoError(t, err)
	})

	t.Run("should fail when required field is empty", func(t *testing.T) {
		type Operator struct {
			Name string `validate:"required"`
		}

		err := Validate(Operator{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidationFailed)
		assert.Contains(t, err.Error(), "'Name': value '' does not meet the requirements for the 'required' validation")
	})

	t.Run("should fail when enum value is invalid", func(t *testing.T) {
		type Condition struct {
			Direction string `validate:"required,oneof=above below"`
		}

		err := Validate(Condition{Direction: "sideways"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidationFailed)
		assert.Contains(t, err.Error(), "'Direction': value 'sideways' does not meet the requirements for the 'oneof' validation")
	})

	t.Run("should report every failed field", func(t *testing.T) {
		type Listing struct {
			Name       string `validate:"required"`
			ExecutorID string `validate:"required"`
			Category   string `validate:"omitempty,oneof=defi nft infra"`
		}

		err := Validate(Listing{Category: "gaming"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidationFailed)

		errStr := err.Error()
		assert.Contains(t, errStr, "'Name'")
		assert.Contains(t, errStr, "'ExecutorID'")
		assert.Contains(t, errStr, "'Category'")
	})
}

func TestFormatError(t *testing.T) {
	t.Run("should return original error when not validation error", func(t *testing.T) {
		originalErr := errors.New("storage unavailable")
		assert.Equal(t, originalErr, formatError(originalErr))
	})
}

func TestMessages(t *testing.T) {
	t.Run("should flatten field errors and drop the sentinel", func(t *testing.T) {
		type Webhook struct {
			URL    string `validate:"required"`
			Secret string `validate:"required"`
		}

		err := Validate(Webhook{})
		require.Error(t, err)

		msgs := Messages(err)
		require.Len(t, msgs, 2)
		for _, msg := range msgs {
			assert.NotContains(t, msg, ErrValidationFailed.Error())
		}
	})

	t.Run("should return nil for nil error", func(t *testing.T) {
		assert.Nil(t, Messages(nil))
	})

	t.Run("should return nil for non-joined errors", func(t *testing.T) {
		assert.Nil(t, Messages(errors.New("plain failure")))
	})
}
