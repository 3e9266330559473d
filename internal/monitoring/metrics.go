// Package monitoring provides lightweight in-memory counters for tracked
// calls.
//
// DESIGN: Atomic counters, no locks, read by the dashboard:
//   - calls/failures:    wrapped target invocations and their outcomes
//   - tracking_failures: successful calls whose usage could not be recorded
//
// For production, export these to Prometheus or similar.
package monitoring

import (
	"sync/atomic"
	"time"
)

// Metrics collects tracking counters. Implements track.Observer.
type Metrics struct {
	startedAt time.Time

	calls            atomic.Int64
	failures         atomic.Int64
	trackingFailures atomic.Int64
}

// NewMetrics creates a metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{startedAt: time.Now()}
}

// CallSucceeded records a tracked call that succeeded and was recorded.
func (m *Metrics) CallSucceeded(_ string) {
	m.calls.Add(1)
}

// CallFailed records a wrapped call whose target failed.
func (m *Metrics) CallFailed(_ string) {
	m.calls.Add(1)
	m.failures.Add(1)
}

// TrackingFailed records a successful call whose usage could not be tracked.
func (m *Metrics) TrackingFailed(_ string) {
	m.calls.Add(1)
	m.trackingFailures.Add(1)
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Uptime           time.Duration `json:"uptime"`
	Calls            int64         `json:"calls"`
	Failures         int64         `json:"failures"`
	TrackingFailures int64         `json:"tracking_failures"`
}

// Snapshot returns current counter values.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Uptime:           time.Since(m.startedAt),
		Calls:            m.calls.Load(),
		Failures:         m.failures.Load(),
		TrackingFailures: m.trackingFailures.Load(),
	}
}
