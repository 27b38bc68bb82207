// Package approval implements the host-facing half of the approval
// router: claiming the dispatcher's single-consumer server-request queue,
// deciding whether an incoming method is a recognized approval kind, and
// auto-declining the rest.
package approval

// file: internal/approval/router.go

import (
	"context"

	"github.com/dkoosis/appserversdk/internal/apperrors"
	"github.com/dkoosis/appserversdk/internal/logging"
	"github.com/dkoosis/appserversdk/internal/rpc"
)

// Kind enumerates the approval request methods the router recognizes.
type Kind string

const (
	KindExec    Kind = "approval/exec"
	KindPatch   Kind = "approval/applyPatch"
	KindNetwork Kind = "approval/network"
)

var knownKinds = map[Kind]struct{}{
	KindExec:    {},
	KindPatch:   {},
	KindNetwork: {},
}

// IsKnownKind reports whether method names a recognized approval kind.
func IsKnownKind(method string) bool {
	_, ok := knownKinds[Kind(method)]
	return ok
}

// ServerRequest is one approval request surfaced to the host.
type ServerRequest struct {
	ApprovalID string
	Method     string
	Params     []byte
}

// Router claims the dispatcher's server-request queue exactly once and
// republishes recognized approval kinds on Requests, auto-declining
// anything else when AutoDeclineUnknown is set.
type Router struct {
	dispatcher         *rpc.Dispatcher
	logger             logging.Logger
	autoDeclineUnknown bool
	requests           chan ServerRequest
}

// Config configures a new Router.
type Config struct {
	AutoDeclineUnknown bool
	Logger             logging.Logger
}

// New claims the dispatcher's queue and starts relaying known approval
// kinds to Requests(). Only one Router may be built per dispatcher; a
// second call surfaces the dispatcher's AlreadyTaken error.
func New(d *rpc.Dispatcher, cfg Config) (*Router, error) {
	queue, err := d.TakeServerRequests()
	if err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.GetNoopLogger()
	}
	r := &Router{
		dispatcher:         d,
		logger:             cfg.Logger.WithField("component", "approval.router"),
		autoDeclineUnknown: cfg.AutoDeclineUnknown,
		requests:           make(chan ServerRequest, 64),
	}
	go r.relay(queue)
	return r, nil
}

func (r *Router) relay(queue <-chan *rpc.PendingServerRequest) {
	for psr := range queue {
		if !IsKnownKind(psr.Method) {
			if r.autoDeclineUnknown {
				r.decline(psr.ApprovalID, psr.Method)
			}
			continue
		}
		r.requests <- ServerRequest{ApprovalID: psr.ApprovalID, Method: psr.Method, Params: psr.Params}
	}
}

func (r *Router) decline(approvalID, method string) {
	r.logger.Warn("auto-declining unrecognized approval method", "method", method, "approvalId", approvalID)
	ctx := context.Background()
	if err := r.dispatcher.RespondServerRequestErr(ctx, approvalID, apperrors.NewUnknownMethod(method)); err != nil {
		r.logger.Error("failed to auto-decline unknown approval", "approvalId", approvalID, "error", err)
	}
}

// Requests returns the channel of recognized approval requests awaiting a
// host decision.
func (r *Router) Requests() <-chan ServerRequest {
	return r.requests
}

// Approve sends a successful decision for approvalID.
func (r *Router) Approve(ctx context.Context, approvalID string, payload interface{}) error {
	return r.dispatcher.RespondServerRequestOK(ctx, approvalID, payload)
}

// Decline sends an error decision for approvalID.
func (r *Router) Decline(ctx context.Context, approvalID string, reason error) error {
	return r.dispatcher.RespondServerRequestErr(ctx, approvalID, reason)
}
