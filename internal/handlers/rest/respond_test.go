package rest

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wardenlabs/watchmarket/internal/marketplace"
)

func TestStatusFor(t *testing.T) {
	t.Run("integrity violations are server faults", func(t *testing.T) {
		err := fmt.Errorf("watcher type type-1 references missing operator op-1: %w", marketplace.ErrIntegrityViolation)
		assert.Equal(t, http.StatusInternalServerError, statusFor(err))
	})

	t.Run("direct operator lookups are not found", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, statusFor(marketplace.ErrOperatorNotFound))
	})

	t.Run("unrecognized errors default to server faults", func(t *testing.T) {
		assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("wires crossed")))
	})
}
