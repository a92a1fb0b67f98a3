// Package profiler - Request stage timing and runtime statistics.
package profiler

import (
	"runtime"
	"sort"
	"sync"
	"time"
)

// DefaultMaxSamples is the number of recent durations kept per operation.
const DefaultMaxSamples = 256

// Profiler tracks timing statistics for named operations. It is safe for concurrent use.
type Profiler struct {
	mu         sync.RWMutex
	startTime  time.Time
	maxSamples int
	operations map[string]*TimeTracker
}

// TimeTracker tracks timing statistics for one operation.
type TimeTracker struct {
	durations []time.Duration
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration
	count     int64
}

// OperationStats summarises an operation over the retained samples.
type OperationStats struct {
	Name    string        `json:"name"`
	Count   int64         `json:"count"`
	Average time.Duration `json:"average_ns"`
	Min     time.Duration `json:"min_ns"`
	Max     time.Duration `json:"max_ns"`
}

// Stats is a snapshot of the profiler and the Go runtime.
type Stats struct {
	Uptime     time.Duration    `json:"uptime_ns"`
	Goroutines int              `json:"goroutines"`
	HeapAlloc  uint64           `json:"heap_alloc"`
	Operations []OperationStats `json:"operations"`
}

// New creates a profiler keeping at most maxSamples durations per operation. Values below one
// use DefaultMaxSamples.
func New(maxSamples int) *Profiler {
	if maxSamples < 1 {
		maxSamples = DefaultMaxSamples
	}
	return &Profiler{
		startTime:  time.Now(),
		maxSamples: maxSamples,
		operations: make(map[string]*TimeTracker),
	}
}

// StartOperation begins timing an operation.
//
// Arguments:
//   - name: The name of the operation to track.
//
// Returns:
//   - func() time.Duration: Call when the operation completes; it records and returns the elapsed time.
//
// @example
// done := p.StartOperation("detect")
// defer done()
func (p *Profiler) StartOperation(name string) func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		d := time.Since(start)
		p.Record(name, d)
		return d
	}
}

// Record adds one duration sample for name.
func (p *Profiler) Record(name string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tracker, ok := p.operations[name]
	if !ok {
		tracker = &TimeTracker{minTime: d, maxTime: d}
		p.operations[name] = tracker
	}

	tracker.durations = append(tracker.durations, d)
	tracker.totalTime += d
	if len(tracker.durations) > p.maxSamples {
		// Remove oldest sample
		tracker.totalTime -= tracker.durations[0]
		tracker.durations = tracker.durations[1:]
	}
	tracker.count++

	if d < tracker.minTime {
		tracker.minTime = d
	}
	if d > tracker.maxTime {
		tracker.maxTime = d
	}
}

func (t *TimeTracker) stats(name string) OperationStats {
	s := OperationStats{Name: name, Count: t.count, Min: t.minTime, Max: t.maxTime}
	if n := len(t.durations); n > 0 {
		s.Average = t.totalTime / time.Duration(n)
	}
	return s
}

// Snapshot returns the current statistics, operations sorted by name.
func (p *Profiler) Snapshot() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	stats := Stats{
		Uptime:     time.Since(p.startTime),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  mem.HeapAlloc,
		Operations: make([]OperationStats, 0, len(p.operations)),
	}
	for name, tracker := range p.operations {
		stats.Operations = append(stats.Operations, tracker.stats(name))
	}
	sort.Slice(stats.Operations, func(i, j int) bool {
		return stats.Operations[i].Name < stats.Operations[j].Name
	})
	return stats
}
