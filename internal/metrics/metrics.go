// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Outcome labels for counters that distinguish results.
const (
	OutcomeAdded     = "added"
	OutcomeDuplicate = "duplicate"
	OutcomeRemoved   = "removed"
	OutcomeMissing   = "missing"
	OutcomeValid     = "valid"
	OutcomeInvalid   = "invalid"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Subscription metrics
	IncSubscribe(outcome string)   // "added" or "duplicate"
	IncUnsubscribe(outcome string) // "removed" or "missing"

	// Access gate metrics
	IncTokenRequested()
	IncTokenApproved()
	IncTokenRejected()
	IncTokenVerified(outcome string) // "valid" or "invalid"

	// Mail delivery failures, labeled by template
	IncMailFailed(kind string)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
