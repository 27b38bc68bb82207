// Package rpc implements the single-owner JSON-RPC dispatcher: it
// correlates responses to pending requests, routes server-initiated
// requests into a single-consumer queue, reduces notifications into
// RuntimeState, and fans out a non-blocking live broadcast.
package rpc

// file: internal/rpc/dispatcher.go

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dkoosis/appserversdk/internal/apperrors"
	"github.com/dkoosis/appserversdk/internal/contract"
	"github.com/dkoosis/appserversdk/internal/logging"
	"github.com/dkoosis/appserversdk/internal/state"
	"github.com/dkoosis/appserversdk/internal/transport"
)

// outboundFrame is one queued write, serialized by the writer task.
type outboundFrame struct {
	data []byte
	done chan error
}

// Dispatcher owns pendingByID, the pending-approval table, the server-request
// queue, and RuntimeState. RuntimeState is mutated only by the dispatch loop
// goroutine. pendingByID and pendingApprovals are shared between that loop
// and the methods below, which read and mutate them under mu; outbound
// frames are handed to the writer goroutine via a channel.
type Dispatcher struct {
	transport transport.Transport
	validator *contract.Validator
	mode      contract.ValidationMode
	logger    logging.Logger

	mu         sync.Mutex
	pendingByID map[int64]*pendingRequest
	nextID      int64
	closed      bool

	serverRequests   chan *PendingServerRequest
	pendingApprovals map[string]*PendingServerRequest
	queueTaken       atomic.Bool

	outbound chan outboundFrame

	runtimeState *state.RuntimeState
	subscribers  []chan state.Envelope
	subMu        sync.RWMutex

	metrics Metrics

	ctx    context.Context
	cancel context.CancelFunc
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// Config configures a new Dispatcher.
type Config struct {
	Transport        transport.Transport
	Validator        *contract.Validator
	Mode             contract.ValidationMode
	Logger           logging.Logger
	StateBudgetBytes int
}

// New constructs and starts a Dispatcher's background tasks. Call Shutdown
// to tear it down.
func New(cfg Config) *Dispatcher {
	if cfg.Logger == nil {
		cfg.Logger = logging.GetNoopLogger()
	}
	d := &Dispatcher{
		transport:           cfg.Transport,
		validator:           cfg.Validator,
		mode:                cfg.Mode,
		logger:              cfg.Logger.WithField("component", "rpc.dispatcher"),
		pendingByID:         make(map[int64]*pendingRequest),
		serverRequests:      make(chan *PendingServerRequest, 64),
		pendingApprovals:    make(map[string]*PendingServerRequest),
		outbound:            make(chan outboundFrame, 64),
		runtimeState:        state.NewRuntimeState(cfg.StateBudgetBytes),
		stopCh:              make(chan struct{}),
	}
	d.ctx, d.cancel = context.WithCancel(context.Background())
	d.wg.Add(2)
	go d.dispatchLoop()
	go d.writeLoop()
	return d
}

// request sends method/params, validates per mode, and blocks for the
// correlated response or ctx cancellation.
func (d *Dispatcher) Request(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	return d.request(ctx, method, params, false)
}

// RequestUnchecked sends method/params without schema validation
// regardless of the dispatcher's configured ValidationMode, for callers
// that need raw passthrough to methods outside the known-method catalog.
func (d *Dispatcher) RequestUnchecked(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	return d.request(ctx, method, params, true)
}

func (d *Dispatcher) request(ctx context.Context, method string, params interface{}, unchecked bool) (json.RawMessage, error) {
	if !unchecked {
		if err := d.checkValidation(method, params, true); err != nil {
			return nil, err
		}
	}

	paramsJSON, err := marshalParams(params)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, apperrors.NewClosed("dispatcher")
	}
	d.nextID++
	id := d.nextID
	pr := &pendingRequest{rpcID: id, method: method, createdAtMonotonic: time.Now(), replyCh: make(chan pendingResult, 1)}
	d.pendingByID[id] = pr
	d.mu.Unlock()

	frame, err := encodeRequest(id, method, paramsJSON)
	if err != nil {
		d.withdraw(id)
		return nil, err
	}

	if err := d.enqueueWrite(ctx, frame); err != nil {
		d.withdraw(id)
		return nil, err
	}

	select {
	case <-ctx.Done():
		d.withdraw(id)
		return nil, apperrors.NewTimeout(method)
	case res := <-pr.replyCh:
		if res.err != nil {
			return nil, res.err
		}
		if !unchecked && d.shouldValidate(method) {
			if verr := d.validator.ValidateResult(method, res.result); verr != nil {
				return nil, verr
			}
		}
		return res.result, nil
	}
}

// Notify sends a fire-and-forget notification; same validation rules as
// Request, no correlation.
func (d *Dispatcher) Notify(ctx context.Context, method string, params interface{}) error {
	return d.notify(ctx, method, params, false)
}

// NotifyUnchecked sends a notification without schema validation
// regardless of the dispatcher's configured ValidationMode.
func (d *Dispatcher) NotifyUnchecked(ctx context.Context, method string, params interface{}) error {
	return d.notify(ctx, method, params, true)
}

func (d *Dispatcher) notify(ctx context.Context, method string, params interface{}, unchecked bool) error {
	if !unchecked {
		if err := d.checkValidation(method, params, false); err != nil {
			return err
		}
	}
	paramsJSON, err := marshalParams(params)
	if err != nil {
		return err
	}
	frame, err := encodeNotification(method, paramsJSON)
	if err != nil {
		return err
	}
	return d.enqueueWrite(ctx, frame)
}

// TakeServerRequests transfers exclusive ownership of the inbound
// server-request channel. A second call while one is outstanding fails.
func (d *Dispatcher) TakeServerRequests() (<-chan *PendingServerRequest, error) {
	if !d.queueTaken.CompareAndSwap(false, true) {
		return nil, apperrors.NewAlreadyTaken()
	}
	return d.serverRequests, nil
}

// RespondServerRequestOK sends a correlated success reply.
func (d *Dispatcher) RespondServerRequestOK(ctx context.Context, approvalID string, payload interface{}) error {
	return d.respondServerRequest(ctx, approvalID, payload, nil)
}

// RespondServerRequestErr sends a correlated error reply.
func (d *Dispatcher) RespondServerRequestErr(ctx context.Context, approvalID string, rpcErr error) error {
	return d.respondServerRequest(ctx, approvalID, nil, rpcErr)
}

func (d *Dispatcher) respondServerRequest(ctx context.Context, approvalID string, payload interface{}, rpcErr error) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return apperrors.NewClosed("dispatcher")
	}
	psr, ok := d.pendingApprovals[approvalID]
	if ok {
		delete(d.pendingApprovals, approvalID)
	}
	d.mu.Unlock()
	if !ok {
		return apperrors.NewUnknownApproval(approvalID)
	}

	var frame []byte
	var err error
	if rpcErr != nil {
		frame, err = encodeErrorResponseFromErr(psr.rpcID, rpcErr)
	} else {
		var payloadJSON json.RawMessage
		payloadJSON, err = marshalParams(payload)
		if err == nil {
			frame, err = encodeResultResponse(psr.rpcID, payloadJSON)
		}
	}
	if err != nil {
		return err
	}
	return d.enqueueWrite(ctx, frame)
}

// Shutdown drains pending requests with Cancelled, resolves outstanding
// approvals with ApprovalCancelled, closes the transport, and joins tasks.
func (d *Dispatcher) Shutdown() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	for id, pr := range d.pendingByID {
		pr.replyCh <- pendingResult{err: apperrors.NewCancelled(pr.method)}
		delete(d.pendingByID, id)
	}
	cancelledApprovals := make([]*PendingServerRequest, 0, len(d.pendingApprovals))
	for approvalID, psr := range d.pendingApprovals {
		cancelledApprovals = append(cancelledApprovals, psr)
		delete(d.pendingApprovals, approvalID)
	}
	d.mu.Unlock()

	for _, psr := range cancelledApprovals {
		code := apperrors.Code(apperrors.NewCancelled(psr.Method))
		if frame, err := encodeErrorResponse(psr.rpcID, code, "approval cancelled: dispatcher shutting down"); err == nil {
			cancelCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			_ = d.transport.WriteMessage(cancelCtx, frame)
			cancel()
		}
	}

	close(d.stopCh)
	d.cancel()
	transportErr := d.transport.Close()
	d.wg.Wait()

	if transportErr != nil {
		return apperrors.NewInternal("dispatcher shutdown join error", transportErr, nil)
	}
	return nil
}

// StateSnapshot returns the live RuntimeState pointer. Callers must treat it
// as read-only; the dispatcher goroutine remains the sole mutator.
func (d *Dispatcher) StateSnapshot() *state.RuntimeState {
	return d.runtimeState
}

// MetricsSnapshot copies the current counters.
func (d *Dispatcher) MetricsSnapshot() Snapshot {
	return Snapshot{
		MissedBroadcastEnvelopes: d.metrics.MissedBroadcastEnvelopes.Load(),
		StaleResponses:           d.metrics.StaleResponses.Load(),
		InvalidEnvelopes:         d.metrics.InvalidEnvelopes.Load(),
		DroppedFrames:            d.transport.DroppedFrames(),
	}
}

// Subscribe returns a non-blocking channel of every Envelope reduced by the
// dispatch loop. A slow subscriber misses envelopes rather than stalling
// the core; misses are counted in MetricsSnapshot.
func (d *Dispatcher) Subscribe(buffer int) <-chan state.Envelope {
	ch := make(chan state.Envelope, buffer)
	d.subMu.Lock()
	d.subscribers = append(d.subscribers, ch)
	d.subMu.Unlock()
	return ch
}

func (d *Dispatcher) broadcast(env state.Envelope) {
	d.subMu.RLock()
	defer d.subMu.RUnlock()
	for _, sub := range d.subscribers {
		select {
		case sub <- env:
		default:
			d.metrics.MissedBroadcastEnvelopes.Add(1)
		}
	}
}

func (d *Dispatcher) withdraw(id int64) {
	d.mu.Lock()
	delete(d.pendingByID, id)
	d.mu.Unlock()
}

func (d *Dispatcher) checkValidation(method string, params interface{}, mustBeKnown bool) error {
	if d.mode == contract.Unchecked {
		return nil
	}
	known := contract.IsKnownMethod(method)
	if !known {
		if d.mode == contract.Strict {
			return apperrors.NewUnknownMethod(method)
		}
		return nil // KnownMethods mode: unknown methods pass through
	}
	paramsJSON, err := marshalParams(params)
	if err != nil {
		return err
	}
	return d.validator.ValidateParams(method, paramsJSON)
}

func (d *Dispatcher) shouldValidate(method string) bool {
	return d.mode != contract.Unchecked && contract.IsKnownMethod(method)
}

func (d *Dispatcher) enqueueWrite(ctx context.Context, frame []byte) error {
	done := make(chan error, 1)
	select {
	case d.outbound <- outboundFrame{data: frame, done: done}:
	case <-ctx.Done():
		return apperrors.NewTimeout("write")
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return apperrors.NewTimeout("write")
	}
}

func marshalParams(v interface{}) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, apperrors.NewInternal("failed to marshal params", err, nil)
	}
	return data, nil
}
