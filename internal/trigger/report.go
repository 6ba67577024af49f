package trigger

import "time"

// CycleReport summarizes one full pass of the engine over all active
// watchers. Every watcher lands in exactly one of checked, skipped, or
// errors for its evaluation; a delivery failure additionally counts under
// errors for a watcher that was already checked.
type CycleReport struct {
	Checked   int           `json:"checked"`   // evaluations committed to the record store
	Triggered int           `json:"triggered"` // webhook deliveries acknowledged
	Skipped   int           `json:"skipped"`   // configuration gaps (missing type, executor, or evaluator)
	Errors    int           `json:"errors"`    // transient failures, retried next cycle
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}
