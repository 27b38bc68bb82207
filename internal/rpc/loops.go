package rpc

// file: internal/rpc/loops.go

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/dkoosis/appserversdk/internal/state"
)

// dispatchLoop is the sole reader of the transport and sole mutator of
// RuntimeState. It classifies every inbound frame, resolves responses
// against pendingByID (under d.mu, which the request and shutdown paths
// also hold when they change that map), enqueues server requests into the
// single-consumer queue plus the approval table, reduces notifications, and
// broadcasts every envelope to subscribers.
func (d *Dispatcher) dispatchLoop() {
	defer d.wg.Done()
	defer close(d.serverRequests)
	for {
		select {
		case <-d.stopCh:
			return
		default:
		}

		frame, err := d.transport.ReadMessage(d.ctx)
		if err != nil {
			return
		}

		env := state.Classify(frame)
		switch env.Kind {
		case state.KindResponse:
			d.resolveResponse(env)
		case state.KindServerRequest:
			d.enqueueServerRequest(env)
		case state.KindNotification:
			if env.Method == state.InvalidMethod {
				d.metrics.InvalidEnvelopes.Add(1)
			}
			state.Reduce(d.runtimeState, env)
		}
		d.broadcast(env)
	}
}

func (d *Dispatcher) resolveResponse(env state.Envelope) {
	id, err := strconv.ParseInt(env.IDs.RPCID, 10, 64)
	if err != nil {
		d.metrics.StaleResponses.Add(1)
		return
	}
	d.mu.Lock()
	pr, ok := d.pendingByID[id]
	if ok {
		delete(d.pendingByID, id)
	}
	d.mu.Unlock()
	if !ok {
		d.metrics.StaleResponses.Add(1)
		return
	}
	pr.replyCh <- pendingResult{result: env.Payload}
}

func (d *Dispatcher) enqueueServerRequest(env state.Envelope) {
	approvalID := env.IDs.ApprovalID
	if approvalID == "" {
		approvalID = uuid.NewString()
	}
	psr := &PendingServerRequest{
		ApprovalID: approvalID,
		Method:     env.Method,
		Params:     env.Payload,
		rpcID:      []byte(env.IDs.RPCID),
	}

	d.mu.Lock()
	d.pendingApprovals[approvalID] = psr
	d.mu.Unlock()

	select {
	case d.serverRequests <- psr:
	case <-d.stopCh:
	}
}

// writeLoop is the sole writer to the transport, serializing every outbound
// frame so concurrent Request/Notify/RespondServerRequest calls never race
// on the wire.
func (d *Dispatcher) writeLoop() {
	defer d.wg.Done()
	for {
		select {
		case <-d.stopCh:
			return
		case frame := <-d.outbound:
			err := d.transport.WriteMessage(context.Background(), frame.data)
			frame.done <- err
		}
	}
}
