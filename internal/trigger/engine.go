// Package trigger implements the trigger engine: the component that, once
// per cycle, evaluates every active watcher's condition against its external
// data source and delivers webhook notifications for the ones that fire,
// with per-watcher failure isolation and at-least-once delivery semantics.
package trigger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wardenlabs/watchmarket/internal/accounting"
	"github.com/wardenlabs/watchmarket/internal/evaluator"
	"github.com/wardenlabs/watchmarket/internal/marketplace"
	"github.com/wardenlabs/watchmarket/internal/pkg/logger"
	"github.com/wardenlabs/watchmarket/internal/pkg/resilience/retry"
	"github.com/wardenlabs/watchmarket/internal/pkg/types"

	"github.com/sourcegraph/conc/pool"
)

// ErrCycleInProgress is returned by RunCycle when another cycle is still in
// flight. Cycles are mutually exclusive: overlapping scans of the same
// watcher could double-fire a single trigger occurrence while the first
// delivery is still pending.
var ErrCycleInProgress = errors.New("trigger cycle already in progress")

const (
	defaultMaxConcurrency  = 8
	defaultCheckTimeout    = 10 * time.Second
	defaultDeliveryTimeout = 10 * time.Second
)

// EvaluatorResolver is the engine's view of the evaluator registry.
type EvaluatorResolver interface {
	Resolve(id string) (evaluator.Evaluator, bool)
}

// Service is the externally invoked surface of the trigger engine.
type Service interface {
	// RunCycle performs one full pass over all active watchers and returns
	// the cycle summary. It fails with ErrCycleInProgress if invoked while
	// a previous cycle is still running; any other error means the watcher
	// scan itself could not be read. Per-watcher failures never fail the
	// cycle; they surface in the report's counters.
	RunCycle(ctx context.Context) (CycleReport, error)
}

type engine struct {
	// cycleMu enforces mutual exclusion of cycles. It is held for the full
	// duration of RunCycle, so acquisition must be non-blocking.
	cycleMu sync.Mutex

	watchers     WatcherStateStorage
	watcherTypes WatcherTypeResolver
	evaluators   EvaluatorResolver
	sink         NotificationSink
	accounting   accounting.Service

	maxConcurrency  int
	checkTimeout    time.Duration
	deliveryTimeout time.Duration
	edgeTriggered   bool
	deliveryRetry   retry.Retry
	now             func() time.Time
	metrics         *cycleMetrics
}

var _ Service = (*engine)(nil)

// config holds optional engine settings.
type config struct {
	maxConcurrency  int
	checkTimeout    time.Duration
	deliveryTimeout time.Duration
	edgeTriggered   bool
	deliveryRetry   retry.Retry
	now             func() time.Time
}

// Option configures the trigger engine.
type Option func(*config)

// WithMaxConcurrency bounds how many watchers are evaluated in parallel
// within a cycle. Default: 8.
func WithMaxConcurrency(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxConcurrency = n
		}
	}
}

// WithCheckTimeout bounds a single condition evaluation. Default: 10s.
func WithCheckTimeout(d time.Duration) Option {
	return func(c *config) {
		c.checkTimeout = d
	}
}

// WithDeliveryTimeout bounds a single webhook delivery attempt. Default: 10s.
func WithDeliveryTimeout(d time.Duration) Option {
	return func(c *config) {
		c.deliveryTimeout = d
	}
}

// WithEdgeTriggered switches delivery to fire only on the false-to-true
// transition of a condition, instead of on every cycle the condition holds
// (the default, level-triggered behavior).
func WithEdgeTriggered(enabled bool) Option {
	return func(c *config) {
		c.edgeTriggered = enabled
	}
}

// WithDeliveryRetry wraps each webhook delivery in the given retry policy
// within the cycle. Without it a failed delivery simply waits for the next
// cycle's re-detection.
func WithDeliveryRetry(r retry.Retry) Option {
	return func(c *config) {
		c.deliveryRetry = r
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}

// New wires the trigger engine from the record-store ports, the evaluator
// registry, the notification sink, and the accounting service.
func New(
	watchers WatcherStateStorage,
	watcherTypes WatcherTypeResolver,
	evaluators EvaluatorResolver,
	sink NotificationSink,
	acc accounting.Service,
	opts ...Option,
) *engine {
	cfg := config{
		maxConcurrency:  defaultMaxConcurrency,
		checkTimeout:    defaultCheckTimeout,
		deliveryTimeout: defaultDeliveryTimeout,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	metrics, err := newCycleMetrics()
	if err != nil {
		// The engine stays fully functional without metrics.
		metrics = nil
	}

	return &engine{
		watchers:        watchers,
		watcherTypes:    watcherTypes,
		evaluators:      evaluators,
		sink:            sink,
		accounting:      acc,
		maxConcurrency:  cfg.maxConcurrency,
		checkTimeout:    cfg.checkTimeout,
		deliveryTimeout: cfg.deliveryTimeout,
		edgeTriggered:   cfg.edgeTriggered,
		deliveryRetry:   cfg.deliveryRetry,
		now:             cfg.now,
		metrics:         metrics,
	}
}

// watcherOutcome categorizes one watcher's processing within a cycle.
// checked and errs may both be set: a committed evaluation whose delivery
// failed counts under both.
type watcherOutcome struct {
	checked   bool
	triggered bool
	skipped   bool
	errs      int
}

// RunCycle iterates all active watchers, evaluating each and delivering
// notifications for the ones whose condition holds.
func (e *engine) RunCycle(ctx context.Context) (CycleReport, error) {
	if !e.cycleMu.TryLock() {
		return CycleReport{}, ErrCycleInProgress
	}
	defer e.cycleMu.Unlock()

	start := e.now()

	watchers, err := e.watchers.ListActiveWatchers(ctx)
	if err != nil {
		return CycleReport{}, err
	}

	watcherTypes := e.prefetchWatcherTypes(ctx, watchers)

	var checked, triggered, skipped, errCount atomic.Int64

	workers := pool.New().WithMaxGoroutines(e.maxConcurrency)
	for _, w := range watchers {
		workers.Go(func() {
			outcome := e.processWatcher(ctx, w, watcherTypes)
			if outcome.checked {
				checked.Add(1)
			}
			if outcome.triggered {
				triggered.Add(1)
			}
			if outcome.skipped {
				skipped.Add(1)
			}
			errCount.Add(int64(outcome.errs))
		})
	}
	workers.Wait()

	report := CycleReport{
		Checked:   int(checked.Load()),
		Triggered: int(triggered.Load()),
		Skipped:   int(skipped.Load()),
		Errors:    int(errCount.Load()),
		Duration:  e.now().Sub(start),
		Timestamp: start.UTC(),
	}

	e.metrics.record(ctx, report)

	logger.Info(ctx, "trigger cycle completed",
		"cycle.checked", report.Checked,
		"cycle.triggered", report.Triggered,
		"cycle.skipped", report.Skipped,
		"cycle.errors", report.Errors,
		"cycle.durationMs", report.Duration.Milliseconds(),
	)

	return report, nil
}

// prefetchWatcherTypes resolves each distinct watcher type once per cycle.
// Types that fail to resolve are simply absent from the result; their
// watchers are counted as skipped.
func (e *engine) prefetchWatcherTypes(ctx context.Context, watchers []marketplace.Watcher) map[string]marketplace.WatcherType {
	typeIDs := types.NewSet[string]()
	for _, w := range watchers {
		typeIDs.Add(w.TypeID)
	}

	resolved := make(map[string]marketplace.WatcherType, len(typeIDs))
	for id := range typeIDs.ToIter() {
		wt, err := e.watcherTypes.GetWatcherType(ctx, id)
		if err != nil {
			logger.Warn(ctx, "failed to resolve watcher type for cycle",
				"watcherType.id", id,
				"error", err,
			)
			continue
		}
		resolved[id] = wt
	}

	return resolved
}

// processWatcher runs the per-watcher state machine: resolution, evaluation,
// commit, and delivery. A failure at any step affects only this watcher.
func (e *engine) processWatcher(ctx context.Context, w marketplace.Watcher, watcherTypes map[string]marketplace.WatcherType) watcherOutcome {
	wt, ok := watcherTypes[w.TypeID]
	if !ok || wt.ExecutorID == "" {
		// Configuration gap, not a failure: state is untouched, so the
		// watcher is retried automatically next cycle.
		return watcherOutcome{skipped: true}
	}

	ev, ok := e.evaluators.Resolve(wt.ExecutorID)
	if !ok {
		return watcherOutcome{skipped: true}
	}

	checkCtx, cancel := context.WithTimeout(ctx, e.checkTimeout)
	result, err := ev.Check(checkCtx, w.Config)
	cancel()
	if err != nil {
		// Transient evaluation failure: no state update, so the next cycle
		// retries from scratch with no partial progress to corrupt.
		logger.Warn(ctx, "watcher condition check failed",
			"watcher.id", w.ID,
			"watcherType.executorId", wt.ExecutorID,
			"error", err,
		)
		return watcherOutcome{errs: 1}
	}

	now := e.now().UTC()
	checkTriggered := result.Triggered
	if e.edgeTriggered && !w.LastCheckTriggered {
		// In edge mode the persisted flag marks a delivered transition, not
		// an observed one. SaveTriggerOutcome raises it once the webhook
		// lands; until then the transition stays pending and the next cycle
		// attempts delivery again.
		checkTriggered = false
	}
	if err := e.watchers.SaveCheckOutcome(ctx, w.ID, now, result.Data, checkTriggered); err != nil {
		logger.Error(ctx, "failed to persist watcher check outcome",
			"watcher.id", w.ID,
			"error", err,
		)
		return watcherOutcome{errs: 1}
	}

	outcome := watcherOutcome{checked: true}

	if !result.Triggered {
		return outcome
	}

	if e.edgeTriggered && w.LastCheckTriggered {
		// The current true-run was already delivered; in edge mode only the
		// false-to-true transition fires.
		return outcome
	}

	notification := Notification{
		WatcherID: w.ID,
		TypeID:    w.TypeID,
		Webhook:   w.Webhook,
		Data:      result.Data,
		Timestamp: now,
	}

	if err := e.deliver(ctx, notification); err != nil {
		// The condition remains true and will be re-detected next cycle;
		// triggerCount and lastTriggered stay untouched so the occurrence
		// is never silently lost.
		logger.Warn(ctx, "webhook delivery failed",
			"watcher.id", w.ID,
			"watcher.webhook", w.Webhook,
			"error", err,
		)
		outcome.errs++
		return outcome
	}

	if err := e.watchers.SaveTriggerOutcome(ctx, w.ID, now); err != nil {
		// Delivered but not recorded: the next cycle may deliver again,
		// which at-least-once semantics allow.
		logger.Error(ctx, "failed to persist watcher trigger outcome",
			"watcher.id", w.ID,
			"error", err,
		)
		outcome.errs++
		return outcome
	}

	outcome.triggered = true

	if err := e.accounting.RecordTrigger(ctx, w.OperatorID, w.TypeID); err != nil {
		logger.Warn(ctx, "failed to record trigger stats",
			"watcher.id", w.ID,
			"operator.id", w.OperatorID,
			"error", err,
		)
	}

	return outcome
}

// deliver performs one webhook delivery, bounded by the delivery timeout and
// optionally wrapped in the configured retry policy.
func (e *engine) deliver(ctx context.Context, n Notification) error {
	attempt := func() error {
		deliveryCtx, cancel := context.WithTimeout(ctx, e.deliveryTimeout)
		defer cancel()
		return e.sink.Deliver(deliveryCtx, n)
	}

	if e.deliveryRetry != nil {
		return e.deliveryRetry.Execute(ctx, attempt)
	}
	return attempt()
}
