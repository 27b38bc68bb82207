package rpc

// file: internal/rpc/pending.go

import (
	"encoding/json"
	"time"
)

// pendingRequest is owned exclusively by the dispatcher goroutine from the
// moment a request is registered until a response is matched or the
// dispatcher tears down. replyCh is buffered(1) so resolution never blocks
// the dispatch loop even if the caller already withdrew (timeout/cancel).
type pendingRequest struct {
	rpcID              int64
	method             string
	createdAtMonotonic time.Time
	replyCh            chan pendingResult
}

type pendingResult struct {
	result json.RawMessage
	err    error
}

// PendingServerRequest is an inbound request from the child awaiting a host
// decision, held in the single-consumer queue and the approval table keyed
// by approvalId.
type PendingServerRequest struct {
	ApprovalID string
	Method     string
	Params     json.RawMessage
	rpcID      json.RawMessage
}
