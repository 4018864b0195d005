package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncSubscribe is a no-op.
func (n *NoopRecorder) IncSubscribe(outcome string) {}

// IncUnsubscribe is a no-op.
func (n *NoopRecorder) IncUnsubscribe(outcome string) {}

// IncTokenRequested is a no-op.
func (n *NoopRecorder) IncTokenRequested() {}

// IncTokenApproved is a no-op.
func (n *NoopRecorder) IncTokenApproved() {}

// IncTokenRejected is a no-op.
func (n *NoopRecorder) IncTokenRejected() {}

// IncTokenVerified is a no-op.
func (n *NoopRecorder) IncTokenVerified(outcome string) {}

// IncMailFailed is a no-op.
func (n *NoopRecorder) IncMailFailed(kind string) {}
