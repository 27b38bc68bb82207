package diagnostics

// file: internal/diagnostics/diagnostics_test.go

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollector_RecordTurnAccumulatesCounts(t *testing.T) {
	c := NewCollector(8)
	c.RecordTurn("turn/start", 10*time.Millisecond, true)
	c.RecordTurn("turn/start", 20*time.Millisecond, true)
	c.RecordTurn("turn/start", 5*time.Millisecond, false)

	snap := c.Snapshot()
	assert.Equal(t, 2, snap.TurnsCompleted)
	assert.Equal(t, 1, snap.TurnsFailed)
	assert.Contains(t, snap.TurnLatencyMs, "turn/start")
}

func TestCollector_RecordErrorEvictsOldestPastBufferSize(t *testing.T) {
	c := NewCollector(2)
	c.RecordError("supervisor", "first")
	c.RecordError("supervisor", "second")
	c.RecordError("supervisor", "third")

	snap := c.Snapshot()
	assert.Len(t, snap.LastErrors, 2)
	assert.Equal(t, "second", snap.LastErrors[0].Message)
	assert.Equal(t, "third", snap.LastErrors[1].Message)
}

func TestCollector_SnapshotIncludesRuntimeStats(t *testing.T) {
	c := NewCollector(4)
	snap := c.Snapshot()
	assert.NotEmpty(t, snap.GoVersion)
	assert.Positive(t, snap.NumGoroutines)
	assert.NotZero(t, snap.StartTime)
}
