package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	SubscribesAdded        uint64
	SubscribesDuplicate    uint64
	UnsubscribesRemoved    uint64
	UnsubscribesMissing    uint64
	TokensRequested        uint64
	TokensApproved         uint64
	TokensRejected         uint64
	TokenVerifications     uint64
	TokenVerificationsFail uint64
	MailFailures           map[string]uint64
}

// MailFailureKinds returns the failure labels in stable order.
func (s Snapshot) MailFailureKinds() []string {
	kinds := make([]string, 0, len(s.MailFailures))
	for k := range s.MailFailures {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// InMemoryRecorder stores metrics in memory.
type InMemoryRecorder struct {
	subscribesAdded        uint64
	subscribesDuplicate    uint64
	unsubscribesRemoved    uint64
	unsubscribesMissing    uint64
	tokensRequested        uint64
	tokensApproved         uint64
	tokensRejected         uint64
	tokenVerifications     uint64
	tokenVerificationsFail uint64

	mu           sync.Mutex
	mailFailures map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{mailFailures: make(map[string]uint64)}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	failures := make(map[string]uint64, len(m.mailFailures))
	for k, v := range m.mailFailures {
		failures[k] = v
	}
	m.mu.Unlock()

	return Snapshot{
		SubscribesAdded:        atomic.LoadUint64(&m.subscribesAdded),
		SubscribesDuplicate:    atomic.LoadUint64(&m.subscribesDuplicate),
		UnsubscribesRemoved:    atomic.LoadUint64(&m.unsubscribesRemoved),
		UnsubscribesMissing:    atomic.LoadUint64(&m.unsubscribesMissing),
		TokensRequested:        atomic.LoadUint64(&m.tokensRequested),
		TokensApproved:         atomic.LoadUint64(&m.tokensApproved),
		TokensRejected:         atomic.LoadUint64(&m.tokensRejected),
		TokenVerifications:     atomic.LoadUint64(&m.tokenVerifications),
		TokenVerificationsFail: atomic.LoadUint64(&m.tokenVerificationsFail),
		MailFailures:           failures,
	}
}

// IncSubscribe counts a subscribe call by outcome.
func (m *InMemoryRecorder) IncSubscribe(outcome string) {
	if outcome == OutcomeDuplicate {
		atomic.AddUint64(&m.subscribesDuplicate, 1)
		return
	}
	atomic.AddUint64(&m.subscribesAdded, 1)
}

// IncUnsubscribe counts an unsubscribe call by outcome.
func (m *InMemoryRecorder) IncUnsubscribe(outcome string) {
	if outcome == OutcomeMissing {
		atomic.AddUint64(&m.unsubscribesMissing, 1)
		return
	}
	atomic.AddUint64(&m.unsubscribesRemoved, 1)
}

// IncTokenRequested counts accepted access requests.
func (m *InMemoryRecorder) IncTokenRequested() {
	atomic.AddUint64(&m.tokensRequested, 1)
}

// IncTokenApproved counts approvals.
func (m *InMemoryRecorder) IncTokenApproved() {
	atomic.AddUint64(&m.tokensApproved, 1)
}

// IncTokenRejected counts rejections.
func (m *InMemoryRecorder) IncTokenRejected() {
	atomic.AddUint64(&m.tokensRejected, 1)
}

// IncTokenVerified counts verify calls by outcome.
func (m *InMemoryRecorder) IncTokenVerified(outcome string) {
	if outcome == OutcomeValid {
		atomic.AddUint64(&m.tokenVerifications, 1)
		return
	}
	atomic.AddUint64(&m.tokenVerificationsFail, 1)
}

// IncMailFailed counts a failed send for the given template kind.
func (m *InMemoryRecorder) IncMailFailed(kind string) {
	m.mu.Lock()
	m.mailFailures[kind]++
	m.mu.Unlock()
}
