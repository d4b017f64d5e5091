// Package node assembles a Data Vector, Network Manager, Thread Manager
// and the user-supplied controllers/devices into a running Device Node or
// Control Node, and provides the per-node tick metrics both loops record
// into.
package node

import (
	"sync/atomic"
	"time"
)

// tickLatencyBuckets are cumulative histogram boundaries in nanoseconds,
// covering from 100us (well under one nominal 10ms tick) to 1s (a grossly
// missed deadline).
var tickLatencyBuckets = []uint64{
	100_000,     // 100us
	1_000_000,   // 1ms
	5_000_000,   // 5ms
	10_000_000,  // 10ms, the nominal tick period
	20_000_000,  // 20ms
	100_000_000, // 100ms
	1_000_000_000, // 1s
}

const numTickLatencyBuckets = 7

// Metrics tracks one node's loop-level operational statistics: how many
// ticks ran, how many step errors each stage reported, how many deadlines
// were missed, and a latency histogram of tick bodies.
type Metrics struct {
	TickCount      atomic.Uint64
	ErrorCount     atomic.Uint64
	DeadlineMisses atomic.Uint64

	TotalTickLatencyNs atomic.Uint64
	TickLatencyBuckets [numTickLatencyBuckets]atomic.Uint64

	StartTimeUnixNano atomic.Int64
}

// NewMetrics returns a zeroed Metrics with StartTimeUnixNano set to now.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTimeUnixNano.Store(time.Now().UnixNano())
	return m
}

// RecordTick records one completed tick's body latency.
func (m *Metrics) RecordTick(latencyNs uint64) {
	m.TickCount.Add(1)
	m.TotalTickLatencyNs.Add(latencyNs)
	for i, bound := range tickLatencyBuckets {
		if latencyNs <= bound {
			m.TickLatencyBuckets[i].Add(1)
			return
		}
	}
}

// RecordStepError increments the node-wide error counter. step is not
// separately tallied; there is exactly one counter, held here in Metrics
// and not copied into any Data Vector element.
func (m *Metrics) RecordStepError(step string) {
	_ = step
	m.ErrorCount.Add(1)
}

// RecordDeadlineMiss increments the missed-deadline counter. Driven by the
// thread manager's periodic-thread error handler.
func (m *Metrics) RecordDeadlineMiss() {
	m.DeadlineMisses.Add(1)
}

// AverageTickLatencyNs returns the mean recorded tick latency, or 0 if no
// ticks have been recorded yet.
func (m *Metrics) AverageTickLatencyNs() uint64 {
	count := m.TickCount.Load()
	if count == 0 {
		return 0
	}
	return m.TotalTickLatencyNs.Load() / count
}
