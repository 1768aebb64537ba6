package gateway

import (
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/Edu-Lacalle/BankingSystemApplication/internal/metrics"
)

// UtilizationFunc reports system utilization as a percentage (0..100).
type UtilizationFunc func() float64

// MonitorConfig sets the thresholds above which the router switches to
// asynchronous processing.
type MonitorConfig struct {
	CPUThreshold        float64
	ConnectionThreshold int64
	SampleInterval      time.Duration
}

func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		CPUThreshold:        70,
		ConnectionThreshold: 100,
		SampleInterval:      time.Second,
	}
}

// LoadMonitor tracks in-flight requests and a cached utilization sample.
// All state is atomic; it is read on every request.
type LoadMonitor struct {
	cfg     MonitorConfig
	utilFn  UtilizationFunc
	nowFn   func() time.Time

	inFlight    atomic.Int64
	utilization atomic.Uint64 // math.Float64bits
	lastSample  atomic.Int64  // unix nanos
}

func NewLoadMonitor(cfg MonitorConfig) *LoadMonitor {
	return &LoadMonitor{cfg: cfg, utilFn: goroutinePressure, nowFn: time.Now}
}

// RequestStarted registers an in-flight request and returns a done func.
func (m *LoadMonitor) RequestStarted() func() {
	n := m.inFlight.Add(1)
	metrics.InFlightRequests.Set(float64(n))
	return func() {
		metrics.InFlightRequests.Set(float64(m.inFlight.Add(-1)))
	}
}

func (m *LoadMonitor) InFlight() int64 {
	return m.inFlight.Load()
}

// Utilization returns the cached utilization percentage, refreshing it at
// most once per SampleInterval. Concurrent refreshes are harmless; the
// last writer wins.
func (m *LoadMonitor) Utilization() float64 {
	now := m.nowFn().UnixNano()
	last := m.lastSample.Load()
	if now-last >= int64(m.cfg.SampleInterval) && m.lastSample.CompareAndSwap(last, now) {
		m.utilization.Store(math.Float64bits(m.utilFn()))
	}
	return math.Float64frombits(m.utilization.Load())
}

// Overloaded reports whether either threshold is currently exceeded.
func (m *LoadMonitor) Overloaded() bool {
	return m.Utilization() > m.cfg.CPUThreshold || m.InFlight() > m.cfg.ConnectionThreshold
}

// goroutinePressure approximates scheduler load as the ratio of live
// goroutines to a per-core budget. There is no portable process CPU
// gauge in the runtime, and this tracks the same saturation signal.
func goroutinePressure() float64 {
	budget := float64(runtime.NumCPU() * 256)
	pct := float64(runtime.NumGoroutine()) / budget * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}
