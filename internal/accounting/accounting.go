// Package accounting advances the best-effort operator and watcher-type
// counters. It is invoked by the lifecycle manager when watchers are created
// and by the trigger engine when webhooks are delivered. Counters are
// monotonically non-decreasing aggregates, not exact sums.
package accounting

import "context"

// StatsStorage is the persistence port for counter increments. Increments
// must be atomic per entity but require no cross-entity transaction.
type StatsStorage interface {
	// IncrementOperatorStats adds the given deltas to the operator's
	// watchersCreated and totalTriggers counters.
	IncrementOperatorStats(ctx context.Context, operatorID string, watchersCreated, triggers int64) error

	// IncrementWatcherTypeStats adds the given deltas to the watcher type's
	// instances and triggers counters.
	IncrementWatcherTypeStats(ctx context.Context, typeID string, instances, triggers int64) error
}

// Service records accounting side effects for marketplace activity.
type Service interface {
	// RecordWatcherCreated bumps instance counters for a newly created
	// watcher of the given type and operator.
	RecordWatcherCreated(ctx context.Context, operatorID, typeID string) error

	// RecordTrigger bumps trigger counters after a successful webhook
	// delivery for a watcher of the given type and operator.
	RecordTrigger(ctx context.Context, operatorID, typeID string) error
}

type service struct {
	stats StatsStorage
}

var _ Service = (*service)(nil)

// New creates an accounting service over the given stats storage.
func New(stats StatsStorage) *service {
	return &service{
		stats: stats,
	}
}

func (s *service) RecordWatcherCreated(ctx context.Context, operatorID, typeID string) error {
	if err := s.stats.IncrementOperatorStats(ctx, operatorID, 1, 0); err != nil {
		return err
	}
	return s.stats.IncrementWatcherTypeStats(ctx, typeID, 1, 0)
}

func (s *service) RecordTrigger(ctx context.Context, operatorID, typeID string) error {
	if err := s.stats.IncrementOperatorStats(ctx, operatorID, 0, 1); err != nil {
		return err
	}
	return s.stats.IncrementWatcherTypeStats(ctx, typeID, 0, 1)
}
