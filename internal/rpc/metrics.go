package rpc

// file: internal/rpc/metrics.go

import "sync/atomic"

// Metrics is the lock-free counters surface required by §5's "metrics
// snapshot" for missed-subscriber envelopes plus the dispatcher's own
// stale-response and invalid-envelope counts.
type Metrics struct {
	MissedBroadcastEnvelopes atomic.Int64
	StaleResponses           atomic.Int64
	InvalidEnvelopes         atomic.Int64
}

// Snapshot is a point-in-time, race-free copy of Metrics for callers.
type Snapshot struct {
	MissedBroadcastEnvelopes int64
	StaleResponses           int64
	InvalidEnvelopes         int64
	DroppedFrames            int64
}
