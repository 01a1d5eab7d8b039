package input

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/actionflow/internal/input/state"
)

const latencySamples = 1000

// Metrics tracks tick evaluation counters and latency.
type Metrics struct {
	ticks            atomic.Uint64
	actionsEvaluated atomic.Uint64
	mockedUpdates    atomic.Uint64
	consumedInputs   atomic.Uint64
	lingering        atomic.Int64
	events           [len(state.AllEvents)]atomic.Uint64

	mu         sync.RWMutex
	latencies  []time.Duration
	latencyIdx int
	peak       atomic.Int64
	startTime  time.Time

	enabled atomic.Bool
}

// NewMetrics creates an enabled metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{
		latencies: make([]time.Duration, latencySamples),
		startTime: time.Now(),
	}
	m.enabled.Store(true)
	return m
}

// SetEnabled enables or disables collection.
func (m *Metrics) SetEnabled(enabled bool) {
	m.enabled.Store(enabled)
}

// IsEnabled reports whether collection is enabled.
func (m *Metrics) IsEnabled() bool {
	return m.enabled.Load()
}

// RecordTick records one completed tick.
func (m *Metrics) RecordTick(latency time.Duration, consumed int) {
	if !m.enabled.Load() {
		return
	}
	m.ticks.Add(1)
	m.consumedInputs.Add(uint64(consumed))

	ns := latency.Nanoseconds()
	for {
		cur := m.peak.Load()
		if ns <= cur || m.peak.CompareAndSwap(cur, ns) {
			break
		}
	}

	m.mu.Lock()
	m.latencies[m.latencyIdx] = latency
	m.latencyIdx = (m.latencyIdx + 1) % latencySamples
	m.mu.Unlock()
}

// RecordAction records one action update.
func (m *Metrics) RecordAction(mocked bool, ev state.Events) {
	if !m.enabled.Load() {
		return
	}
	m.actionsEvaluated.Add(1)
	if mocked {
		m.mockedUpdates.Add(1)
	}
	for i, kind := range state.AllEvents {
		if ev&kind != 0 {
			m.events[i].Add(1)
		}
	}
}

// SetLingering records the number of actions kept alive after their
// context was removed.
func (m *Metrics) SetLingering(n int) {
	m.lingering.Store(int64(n))
}

// MetricsSnapshot is a point-in-time view of the metrics.
type MetricsSnapshot struct {
	Ticks            uint64
	ActionsEvaluated uint64
	MockedUpdates    uint64
	ConsumedInputs   uint64
	Lingering        int
	Events           map[string]uint64

	AvgTickLatency  time.Duration
	MaxTickLatency  time.Duration
	P99TickLatency  time.Duration
	PeakTickLatency time.Duration

	TicksPerSecond float64
	Uptime         time.Duration
}

// Snapshot returns the current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	latencies := make([]time.Duration, len(m.latencies))
	copy(latencies, m.latencies)
	start := m.startTime
	m.mu.RUnlock()

	snap := MetricsSnapshot{
		Ticks:            m.ticks.Load(),
		ActionsEvaluated: m.actionsEvaluated.Load(),
		MockedUpdates:    m.mockedUpdates.Load(),
		ConsumedInputs:   m.consumedInputs.Load(),
		Lingering:        int(m.lingering.Load()),
		Events:           make(map[string]uint64, len(state.AllEvents)),
		PeakTickLatency:  time.Duration(m.peak.Load()),
		Uptime:           time.Since(start),
	}
	for i, kind := range state.AllEvents {
		snap.Events[kind.String()] = m.events[i].Load()
	}
	if snap.Uptime > 0 {
		snap.TicksPerSecond = float64(snap.Ticks) / snap.Uptime.Seconds()
	}
	snap.AvgTickLatency, snap.MaxTickLatency, snap.P99TickLatency = latencyStats(latencies)
	return snap
}

// EventCount returns how many events of a single kind were raised.
func (m *Metrics) EventCount(kind state.Events) uint64 {
	for i, k := range state.AllEvents {
		if k == kind {
			return m.events[i].Load()
		}
	}
	return 0
}

// Ticks returns the number of recorded ticks.
func (m *Metrics) Ticks() uint64 {
	return m.ticks.Load()
}

func latencyStats(latencies []time.Duration) (avg, maxLat, p99 time.Duration) {
	valid := make([]time.Duration, 0, len(latencies))
	for _, l := range latencies {
		if l > 0 {
			valid = append(valid, l)
		}
	}
	if len(valid) == 0 {
		return 0, 0, 0
	}

	var sum time.Duration
	for _, l := range valid {
		sum += l
		if l > maxLat {
			maxLat = l
		}
	}
	avg = sum / time.Duration(len(valid))

	sort.Slice(valid, func(i, j int) bool { return valid[i] < valid[j] })
	idx := int(float64(len(valid)) * 0.99)
	if idx >= len(valid) {
		idx = len(valid) - 1
	}
	return avg, maxLat, valid[idx]
}

// Reset clears every counter.
func (m *Metrics) Reset() {
	m.ticks.Store(0)
	m.actionsEvaluated.Store(0)
	m.mockedUpdates.Store(0)
	m.consumedInputs.Store(0)
	m.lingering.Store(0)
	m.peak.Store(0)
	for i := range m.events {
		m.events[i].Store(0)
	}

	m.mu.Lock()
	m.latencies = make([]time.Duration, latencySamples)
	m.latencyIdx = 0
	m.startTime = time.Now()
	m.mu.Unlock()
}

// HealthStatus reports whether ticks complete within a latency budget.
type HealthStatus struct {
	Healthy          bool
	PeakLatency      time.Duration
	LatencyThreshold time.Duration
	Message          string
}

// HealthCheck compares the peak tick latency against a threshold.
func (m *Metrics) HealthCheck(threshold time.Duration) HealthStatus {
	status := HealthStatus{
		Healthy:          true,
		PeakLatency:      time.Duration(m.peak.Load()),
		LatencyThreshold: threshold,
		Message:          "healthy",
	}
	if status.PeakLatency > threshold {
		status.Healthy = false
		status.Message = "tick latency threshold exceeded"
	}
	return status
}
