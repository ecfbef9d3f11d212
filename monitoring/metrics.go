package monitoring

import (
	"sync/atomic"
	"time"
)

// Metrics is a small set of in-process counters surfaced by the health
// endpoint.
type Metrics struct {
	startedAt      time.Time
	eventsAccepted int64
	eventsRejected int64
	remoteFailures int64
	codesCreated   int64
	codesDeleted   int64
}

func NewMetrics() *Metrics {
	return &Metrics{startedAt: time.Now()}
}

func (m *Metrics) RecordEvent(status string) {
	switch status {
	case "accepted":
		atomic.AddInt64(&m.eventsAccepted, 1)
	case "rejected":
		atomic.AddInt64(&m.eventsRejected, 1)
	case "remote_failure":
		atomic.AddInt64(&m.remoteFailures, 1)
	}
}

func (m *Metrics) RecordCodeCreated() {
	atomic.AddInt64(&m.codesCreated, 1)
}

func (m *Metrics) RecordCodeDeleted(count int) {
	atomic.AddInt64(&m.codesDeleted, int64(count))
}

func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"events_accepted": atomic.LoadInt64(&m.eventsAccepted),
		"events_rejected": atomic.LoadInt64(&m.eventsRejected),
		"remote_failures": atomic.LoadInt64(&m.remoteFailures),
		"codes_created":   atomic.LoadInt64(&m.codesCreated),
		"codes_deleted":   atomic.LoadInt64(&m.codesDeleted),
	}
}

func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startedAt)
}
