package evaluator

import (
	"errors"
	"sync"
)

// ErrInvalidEvaluator is returned by Register when the evaluator is nil, has
// no executor identifier, or the identifier is already taken.
var ErrInvalidEvaluator = errors.New("invalid evaluator")

// Registry maps executor identifiers to Evaluator implementations. It is a
// pure synchronous lookup with no retries or failure recovery; registration
// happens once during application wiring.
type Registry interface {
	// Register adds an evaluator under the identifier from its metadata.
	// It fails with ErrInvalidEvaluator for nil evaluators, empty
	// identifiers, or duplicate registrations.
	Register(ev Evaluator) error

	// Resolve returns the evaluator registered under id, if any.
	Resolve(id string) (Evaluator, bool)

	// List returns the identifiers of all registered evaluators, in no
	// particular order.
	List() []string
}

// registry is the default in-memory Registry implementation. It is safe for
// concurrent use: the trigger engine resolves evaluators from many goroutines.
type registry struct {
	mu         sync.RWMutex
	evaluators map[string]Evaluator
}

var _ Registry = (*registry)(nil)

// NewRegistry creates an empty evaluator registry.
func NewRegistry() *registry {
	return &registry{
		evaluators: make(map[string]Evaluator),
	}
}

func (r *registry) Register(ev Evaluator) error {
	if ev == nil {
		return errors.Join(ErrInvalidEvaluator, errors.New("evaluator must not be nil"))
	}

	id := ev.Describe().ID
	if id == "" {
		return errors.Join(ErrInvalidEvaluator, errors.New("evaluator metadata has no id"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.evaluators[id]; exists {
		return errors.Join(ErrInvalidEvaluator, errors.New("evaluator id already registered: "+id))
	}

	r.evaluators[id] = ev
	return nil
}

func (r *registry) Resolve(id string) (Evaluator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ev, ok := r.evaluators[id]
	return ev, ok
}

func (r *registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.evaluators))
	for id := range r.evaluators {
		ids = append(ids, id)
	}
	return ids
}
