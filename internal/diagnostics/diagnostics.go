// Package diagnostics collects process-health metrics for a running
// Client: uptime, Go runtime stats, and a bounded ring buffer of recent
// errors, independent of the per-dispatcher wire counters in internal/rpc.
package diagnostics

// file: internal/diagnostics/diagnostics.go

import (
	"runtime"
	"sync"
	"time"
)

// Snapshot is a point-in-time copy of a Collector's state.
type Snapshot struct {
	StartTime     time.Time     `json:"startTime"`
	Uptime        time.Duration `json:"uptime"`
	GoVersion     string        `json:"goVersion"`
	NumGoroutines int           `json:"numGoroutines"`

	MemoryAllocated   uint64 `json:"memoryAllocated"`
	MemoryTotalAlloc  uint64 `json:"memoryTotalAlloc"`
	MemorySystemTotal uint64 `json:"memorySystemTotal"`
	MemoryGCCount     uint32 `json:"memoryGCCount"`

	TurnsCompleted int            `json:"turnsCompleted"`
	TurnsFailed    int            `json:"turnsFailed"`
	TurnLatencyMs  map[string]int `json:"turnLatencyMs,omitempty"` // method -> moving average ms

	LastErrors []ErrorInfo `json:"lastErrors,omitempty"`
}

// ErrorInfo records one entry in the error ring buffer.
type ErrorInfo struct {
	Timestamp time.Time `json:"timestamp"`
	Component string    `json:"component"`
	Message   string    `json:"message"`
}

// Collector accumulates diagnostics for one Client's lifetime.
type Collector struct {
	mu             sync.RWMutex
	startTime      time.Time
	turnsCompleted int
	turnsFailed    int
	turnLatencyMs  map[string]int
	errorBuffer    []ErrorInfo
	bufferSize     int
}

// NewCollector builds a Collector whose error ring buffer holds at most
// errorBufferSize entries.
func NewCollector(errorBufferSize int) *Collector {
	if errorBufferSize <= 0 {
		errorBufferSize = 32
	}
	return &Collector{
		startTime:     time.Now(),
		turnLatencyMs: make(map[string]int),
		errorBuffer:   make([]ErrorInfo, 0, errorBufferSize),
		bufferSize:    errorBufferSize,
	}
}

// RecordTurn records one completed or failed turn's latency, keyed by the
// method name the turn was driven through (normally turn/start).
func (c *Collector) RecordTurn(method string, latency time.Duration, success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if success {
		c.turnsCompleted++
	} else {
		c.turnsFailed++
	}

	latencyMs := int(latency.Milliseconds())
	if existing, ok := c.turnLatencyMs[method]; ok {
		c.turnLatencyMs[method] = (existing + latencyMs) / 2
	} else {
		c.turnLatencyMs[method] = latencyMs
	}
}

// RecordError appends an entry to the error ring buffer, evicting the
// oldest entry once bufferSize is reached.
func (c *Collector) RecordError(component, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.errorBuffer) >= c.bufferSize {
		c.errorBuffer = c.errorBuffer[1:]
	}
	c.errorBuffer = append(c.errorBuffer, ErrorInfo{
		Timestamp: time.Now(), Component: component, Message: message,
	})
}

// Snapshot returns a race-free copy of the current diagnostics, including
// freshly sampled Go runtime stats.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	snap := Snapshot{
		StartTime:         c.startTime,
		Uptime:            time.Since(c.startTime),
		GoVersion:         runtime.Version(),
		NumGoroutines:     runtime.NumGoroutine(),
		MemoryAllocated:   memStats.Alloc,
		MemoryTotalAlloc:  memStats.TotalAlloc,
		MemorySystemTotal: memStats.Sys,
		MemoryGCCount:     memStats.NumGC,
		TurnsCompleted:    c.turnsCompleted,
		TurnsFailed:       c.turnsFailed,
	}
	if len(c.turnLatencyMs) > 0 {
		snap.TurnLatencyMs = make(map[string]int, len(c.turnLatencyMs))
		for k, v := range c.turnLatencyMs {
			snap.TurnLatencyMs[k] = v
		}
	}
	if len(c.errorBuffer) > 0 {
		snap.LastErrors = make([]ErrorInfo, len(c.errorBuffer))
		copy(snap.LastErrors, c.errorBuffer)
	}
	return snap
}
