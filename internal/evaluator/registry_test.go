package evaluator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// evaluatorStub is a hand-rolled Evaluator test double.
type evaluatorStub struct {
	metadata Metadata
	check    func(ctx context.Context, config map[string]any) (CheckResult, error)
}

func (s *evaluatorStub) Describe() Metadata {
	return s.metadata
}

func (s *evaluatorStub) Check(ctx context.Context, config map[string]any) (CheckResult, error) {
	return s.check(ctx, config)
}

func TestRegistryRegister(t *testing.T) {
	t.Run("registers and resolves by metadata id", func(t *testing.T) {
		registry := NewRegistry()
		ev := &evaluatorStub{metadata: Metadata{ID: "wallet-balance"}}

		require.NoError(t, registry.Register(ev))

		resolved, ok := registry.Resolve("wallet-balance")
		require.True(t, ok)
		assert.Same(t, ev, resolved)
	})

	t.Run("rejects nil evaluators", func(t *testing.T) {
		registry := NewRegistry()

		err := registry.Register(nil)

		require.ErrorIs(t, err, ErrInvalidEvaluator)
	})

	t.Run("rejects evaluators without an id", func(t *testing.T) {
		registry := NewRegistry()

		err := registry.Register(&evaluatorStub{})

		require.ErrorIs(t, err, ErrInvalidEvaluator)
	})

	t.Run("rejects duplicate ids", func(t *testing.T) {
		registry := NewRegistry()
		require.NoError(t, registry.Register(&evaluatorStub{metadata: Metadata{ID: "token-price"}}))

		err := registry.Register(&evaluatorStub{metadata: Metadata{ID: "token-price"}})

		require.ErrorIs(t, err, ErrInvalidEvaluator)
	})
}

func TestRegistryResolve(t *testing.T) {
	t.Run("reports unknown ids", func(t *testing.T) {
		registry := NewRegistry()

		_, ok := registry.Resolve("unknown")

		assert.False(t, ok)
	})
}

func TestRegistryList(t *testing.T) {
	t.Run("lists all registered ids", func(t *testing.T) {
		registry := NewRegistry()
		require.NoError(t, registry.Register(&evaluatorStub{metadata: Metadata{ID: "wallet-balance"}}))
		require.NoError(t, registry.Register(&evaluatorStub{metadata: Metadata{ID: "token-price"}}))

		assert.ElementsMatch(t, []string{"wallet-balance", "token-price"}, registry.List())
	})

	t.Run("empty registry lists nothing", func(t *testing.T) {
		assert.Empty(t, NewRegistry().List())
	})
}
