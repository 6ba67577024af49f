// Package memory provides an in-process record store implementing every
// persistence port of the marketplace, fulfillment ledger, accounting, and
// trigger engine. It backs the zero-dependency development mode and the
// service-level tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/wardenlabs/watchmarket/internal/accounting"
	"github.com/wardenlabs/watchmarket/internal/fulfillment"
	"github.com/wardenlabs/watchmarket/internal/marketplace"
	"github.com/wardenlabs/watchmarket/internal/trigger"
)

// Store is a thread-safe, map-backed record store.
type Store struct {
	mu           sync.RWMutex
	operators    map[string]marketplace.Operator
	watcherTypes map[string]marketplace.WatcherType
	watchers     map[string]marketplace.Watcher
	payments     map[string]marketplace.Payment
	receipts     map[string]fulfillment.Receipt
}

var (
	_ marketplace.OperatorStorage    = (*Store)(nil)
	_ marketplace.WatcherTypeStorage = (*Store)(nil)
	_ marketplace.WatcherStorage     = (*Store)(nil)
	_ marketplace.PaymentStorage     = (*Store)(nil)
	_ fulfillment.ReceiptStorage     = (*Store)(nil)
	_ accounting.StatsStorage        = (*Store)(nil)
	_ trigger.WatcherStateStorage    = (*Store)(nil)
)

// New creates an empty in-memory record store.
func New() *Store {
	return &Store{
		operators:    make(map[string]marketplace.Operator),
		watcherTypes: make(map[string]marketplace.WatcherType),
		watchers:     make(map[string]marketplace.Watcher),
		payments:     make(map[string]marketplace.Payment),
		receipts:     make(map[string]fulfillment.Receipt),
	}
}

func (s *Store) CreateOperator(ctx context.Context, op marketplace.Operator) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.operators[op.ID] = op
	return nil
}

func (s *Store) GetOperator(ctx context.Context, id string) (marketplace.Operator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	op, ok := s.operators[id]
	if !ok {
		return marketplace.Operator{}, marketplace.ErrOperatorNotFound
	}
	return op, nil
}

func (s *Store) ListOperators(ctx context.Context) ([]marketplace.Operator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]marketplace.Operator, 0, len(s.operators))
	for _, op := range s.operators {
		out = append(out, op)
	}
	return out, nil
}

func (s *Store) CreateWatcherType(ctx context.Context, wt marketplace.WatcherType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.watcherTypes[wt.ID] = wt
	return nil
}

func (s *Store) GetWatcherType(ctx context.Context, id string) (marketplace.WatcherType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wt, ok := s.watcherTypes[id]
	if !ok {
		return marketplace.WatcherType{}, marketplace.ErrWatcherTypeNotFound
	}
	return wt, nil
}

func (s *Store) ListWatcherTypes(ctx context.Context, filter marketplace.WatcherTypeFilter) ([]marketplace.WatcherType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]marketplace.WatcherType, 0, len(s.watcherTypes))
	for _, wt := range s.watcherTypes {
		if filter.OperatorID != "" && wt.OperatorID != filter.OperatorID {
			continue
		}
		if filter.Category != "" && wt.Category != filter.Category {
			continue
		}
		if filter.Status != "" && wt.Status != filter.Status {
			continue
		}
		out = append(out, wt)
	}
	return out, nil
}

func (s *Store) UpdateWatcherTypeStatus(ctx context.Context, id string, status marketplace.WatcherTypeStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wt, ok := s.watcherTypes[id]
	if !ok {
		return marketplace.ErrWatcherTypeNotFound
	}
	wt.Status = status
	s.watcherTypes[id] = wt
	return nil
}

func (s *Store) CreateWatcher(ctx context.Context, w marketplace.Watcher) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.watchers[w.ID] = w
	return nil
}

func (s *Store) GetWatcher(ctx context.Context, id string) (marketplace.Watcher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.watchers[id]
	if !ok {
		return marketplace.Watcher{}, marketplace.ErrWatcherNotFound
	}
	return w, nil
}

func (s *Store) ListWatchers(ctx context.Context, filter marketplace.WatcherFilter) ([]marketplace.Watcher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]marketplace.Watcher, 0, len(s.watchers))
	for _, w := range s.watchers {
		if filter.CustomerID != "" && w.CustomerID != filter.CustomerID {
			continue
		}
		if filter.TypeID != "" && w.TypeID != filter.TypeID {
			continue
		}
		if filter.Status != "" && w.Status != filter.Status {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func (s *Store) UpdateWatcherStatus(ctx context.Context, id string, status marketplace.WatcherStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.watchers[id]
	if !ok {
		return marketplace.ErrWatcherNotFound
	}
	w.Status = status
	s.watchers[id] = w
	return nil
}

func (s *Store) CreatePayment(ctx context.Context, p marketplace.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.payments[p.ID] = p
	return nil
}

func (s *Store) GetPayment(ctx context.Context, id string) (marketplace.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[id]
	if !ok {
		return marketplace.Payment{}, marketplace.ErrPaymentNotFound
	}
	return p, nil
}

func (s *Store) GetReceipt(ctx context.Context, fulfillmentHash string) (fulfillment.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.receipts[fulfillmentHash]
	if !ok {
		return fulfillment.Receipt{}, fulfillment.ErrReceiptNotFound
	}
	return r, nil
}

func (s *Store) RecordReceipt(ctx context.Context, receipt fulfillment.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.receipts[receipt.FulfillmentHash]; exists {
		return fulfillment.ErrReceiptAlreadyExists
	}
	s.receipts[receipt.FulfillmentHash] = receipt
	return nil
}

func (s *Store) IncrementOperatorStats(ctx context.Context, operatorID string, watchersCreated, triggers int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, ok := s.operators[operatorID]
	if !ok {
		return marketplace.ErrOperatorNotFound
	}
	op.Stats.WatchersCreated += watchersCreated
	op.Stats.TotalTriggers += triggers
	s.operators[operatorID] = op
	return nil
}

func (s *Store) IncrementWatcherTypeStats(ctx context.Context, typeID string, instances, triggers int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wt, ok := s.watcherTypes[typeID]
	if !ok {
		return marketplace.ErrWatcherTypeNotFound
	}
	wt.Stats.Instances += instances
	wt.Stats.Triggers += triggers
	s.watcherTypes[typeID] = wt
	return nil
}

func (s *Store) ListActiveWatchers(ctx context.Context) ([]marketplace.Watcher, error) {
	return s.ListWatchers(ctx, marketplace.WatcherFilter{Status: marketplace.WatcherStatusActive})
}

func (s *Store) SaveCheckOutcome(ctx context.Context, watcherID string, checkedAt time.Time, result map[string]any, triggered bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.watchers[watcherID]
	if !ok {
		return marketplace.ErrWatcherNotFound
	}
	w.LastChecked = &checkedAt
	w.LastCheckResult = result
	w.LastCheckTriggered = triggered
	s.watchers[watcherID] = w
	return nil
}

func (s *Store) SaveTriggerOutcome(ctx context.Context, watcherID string, triggeredAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.watchers[watcherID]
	if !ok {
		return marketplace.ErrWatcherNotFound
	}
	w.LastTriggered = &triggeredAt
	w.LastCheckTriggered = true
	w.TriggerCount++
	s.watchers[watcherID] = w
	return nil
}
