package telemetry

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecord(t *testing.T) {
	s := NewQueryStats(0)
	s.Record(StatementEvent{Command: "SELECT", SQL: "SELECT 1", Elapsed: 10 * time.Millisecond})
	s.Record(StatementEvent{Command: "SELECT", SQL: "SELECT 2", Elapsed: 30 * time.Millisecond})
	s.Record(StatementEvent{Command: "INSERT", SQL: "INSERT", Elapsed: 20 * time.Millisecond, Err: errors.New("dup")})

	snap := s.Snapshot()
	assert.Equal(t, int64(3), snap.Queries)
	assert.Equal(t, int64(1), snap.Errors)
	assert.Equal(t, int64(0), snap.Slow)
	assert.Equal(t, 60*time.Millisecond, snap.Elapsed)
	assert.Equal(t, 20*time.Millisecond, snap.Average())
	assert.Equal(t, map[string]int64{"SELECT": 2, "INSERT": 1}, snap.ByCommand)

	s.Reset()
	snap = s.Snapshot()
	assert.Zero(t, snap.Queries)
	assert.Zero(t, snap.Average())
	assert.Empty(t, snap.ByCommand)
}

func TestSlowStatements(t *testing.T) {
	s := NewQueryStats(50 * time.Millisecond)
	var slow []StatementEvent
	s.OnSlow(func(e StatementEvent) { slow = append(slow, e) })

	s.Record(StatementEvent{Command: "SELECT", SQL: "fast", Elapsed: time.Millisecond})
	s.Record(StatementEvent{Command: "SELECT", SQL: "slow", Elapsed: 80 * time.Millisecond})

	assert.Len(t, slow, 1)
	assert.Equal(t, "slow", slow[0].SQL)
	assert.Equal(t, int64(1), s.Snapshot().Slow)
}

func TestZeroValue(t *testing.T) {
	var s QueryStats
	s.Record(StatementEvent{Command: "USE", Elapsed: time.Second})
	assert.Equal(t, int64(1), s.Snapshot().Queries)
	assert.Zero(t, s.Snapshot().Slow)
}
