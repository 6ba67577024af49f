package trigger

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// cycleMetrics emits the engine's cycle counters through the global OTel
// meter, decoupling the core's reporting from console output.
type cycleMetrics struct {
	cycles    metric.Int64Counter
	checked   metric.Int64Counter
	triggered metric.Int64Counter
	skipped   metric.Int64Counter
	errors    metric.Int64Counter
	duration  metric.Float64Histogram
}

func newCycleMetrics() (*cycleMetrics, error) {
	meter := otel.Meter("watchmarket.trigger")

	cycles, err := meter.Int64Counter("trigger.cycles",
		metric.WithDescription("completed trigger cycles"))
	if err != nil {
		return nil, err
	}

	checked, err := meter.Int64Counter("trigger.watchers_checked",
		metric.WithDescription("watchers whose evaluation committed"))
	if err != nil {
		return nil, err
	}

	triggered, err := meter.Int64Counter("trigger.watchers_triggered",
		metric.WithDescription("webhook deliveries acknowledged"))
	if err != nil {
		return nil, err
	}

	skipped, err := meter.Int64Counter("trigger.watchers_skipped",
		metric.WithDescription("watchers skipped due to configuration gaps"))
	if err != nil {
		return nil, err
	}

	errCounter, err := meter.Int64Counter("trigger.watcher_errors",
		metric.WithDescription("transient per-watcher failures"))
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram("trigger.cycle_duration",
		metric.WithDescription("trigger cycle duration"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	return &cycleMetrics{
		cycles:    cycles,
		checked:   checked,
		triggered: triggered,
		skipped:   skipped,
		errors:    errCounter,
		duration:  duration,
	}, nil
}

func (m *cycleMetrics) record(ctx context.Context, report CycleReport) {
	if m == nil {
		return
	}

	m.cycles.Add(ctx, 1)
	m.checked.Add(ctx, int64(report.Checked))
	m.triggered.Add(ctx, int64(report.Triggered))
	m.skipped.Add(ctx, int64(report.Skipped))
	m.errors.Add(ctx, int64(report.Errors))
	m.duration.Record(ctx, float64(report.Duration.Milliseconds()))
}
