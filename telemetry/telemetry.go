// Package telemetry accumulates statement execution statistics for a client
// session: executed statement count, total elapsed time and slow statements.
package telemetry

import (
	"sync"
	"time"

	"github.com/satishbabariya/dbcmd/internal/debug"
)

// StatementEvent describes one executed statement.
type StatementEvent struct {
	Command string
	SQL     string
	Elapsed time.Duration
	Err     error
}

// SlowFunc is called for every statement slower than the slow threshold.
type SlowFunc func(event StatementEvent)

// Snapshot is a point-in-time copy of the collected statistics.
type Snapshot struct {
	Queries   int64
	Errors    int64
	Slow      int64
	Elapsed   time.Duration
	ByCommand map[string]int64
}

// Average returns the mean elapsed time per statement.
func (s Snapshot) Average() time.Duration {
	if s.Queries == 0 {
		return 0
	}
	return s.Elapsed / time.Duration(s.Queries)
}

// QueryStats collects statistics. The zero value is ready to use and has no
// slow threshold.
type QueryStats struct {
	mu            sync.Mutex
	queries       int64
	errors        int64
	slow          int64
	elapsed       time.Duration
	byCommand     map[string]int64
	slowThreshold time.Duration
	onSlow        SlowFunc
}

// NewQueryStats returns a collector reporting statements slower than
// slowThreshold through the debug logger. A threshold of zero disables the report.
func NewQueryStats(slowThreshold time.Duration) *QueryStats {
	return &QueryStats{slowThreshold: slowThreshold}
}

// OnSlow replaces the slow statement report.
func (s *QueryStats) OnSlow(fn SlowFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSlow = fn
}

// Record adds one executed statement.
func (s *QueryStats) Record(event StatementEvent) {
	s.mu.Lock()
	s.queries++
	s.elapsed += event.Elapsed
	if event.Err != nil {
		s.errors++
	}
	if s.byCommand == nil {
		s.byCommand = make(map[string]int64)
	}
	s.byCommand[event.Command]++

	slow := s.slowThreshold > 0 && event.Elapsed >= s.slowThreshold
	if slow {
		s.slow++
	}
	fn := s.onSlow
	s.mu.Unlock()

	if !slow {
		return
	}
	if fn != nil {
		fn(event)
		return
	}
	debug.Warn("slow statement",
		"command", event.Command,
		"sql", event.SQL,
		"elapsed", event.Elapsed,
	)
}

// Snapshot returns a copy of the statistics.
func (s *QueryStats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	by := make(map[string]int64, len(s.byCommand))
	for k, v := range s.byCommand {
		by[k] = v
	}
	return Snapshot{
		Queries:   s.queries,
		Errors:    s.errors,
		Slow:      s.slow,
		Elapsed:   s.elapsed,
		ByCommand: by,
	}
}

// Reset clears the statistics, keeping the threshold and slow report.
func (s *QueryStats) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries, s.errors, s.slow, s.elapsed = 0, 0, 0, 0
	s.byCommand = nil
}
