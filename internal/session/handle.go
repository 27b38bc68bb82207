package session

// file: internal/session/handle.go

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dkoosis/appserversdk/internal/apperrors"
	"github.com/dkoosis/appserversdk/internal/config"
	"github.com/dkoosis/appserversdk/internal/contract"
)

// Handle is one thread's per-session state machine: Open -> Closing ->
// Closed (terminal, idempotent). Once Closed, ask/ask_with/interrupt_turn
// return SessionClosed locally without touching transport.
type Handle struct {
	threadID string
	cwd      string
	cfg      config.SessionConfig
	client   *Client
	hooks    []Hook

	closed      atomic.Bool
	closeOnce   sync.Once
	closeResult error
}

// NewHandle opens a handle bound to an already-started thread. Hooks apply
// to every turn run through this handle.
func NewHandle(threadID string, client *Client, cfg config.SessionConfig, hooks []Hook) *Handle {
	return &Handle{threadID: threadID, cwd: cfg.Cwd, cfg: cfg, client: client, hooks: hooks}
}

// ThreadID reports the thread this handle is bound to.
func (h *Handle) ThreadID() string { return h.threadID }

// Ask runs a prompt with the handle's default session config.
func (h *Handle) Ask(ctx context.Context, prompt string) (*PromptRunResult, error) {
	return h.AskWith(ctx, TurnInput{Prompt: prompt})
}

// AskWith runs a prompt with caller-supplied overrides layered onto the
// handle's bound thread/cwd/config. Once Closed, this never reaches the
// dispatcher.
func (h *Handle) AskWith(ctx context.Context, in TurnInput) (*PromptRunResult, error) {
	if h.closed.Load() {
		return nil, apperrors.NewSessionClosed()
	}

	in.ThreadID = h.threadID
	if in.Cwd == "" {
		in.Cwd = h.cwd
	}
	in.Config = h.cfg

	d, err := h.client.Dispatcher()
	if err != nil {
		return nil, err
	}
	return runPrompt(ctx, d, h.hooks, in)
}

// InterruptTurn requests the core stop a running turn. Once Closed, this
// never reaches the dispatcher.
func (h *Handle) InterruptTurn(ctx context.Context, turnID string) error {
	if h.closed.Load() {
		return apperrors.NewSessionClosed()
	}
	d, err := h.client.Dispatcher()
	if err != nil {
		return err
	}
	_, err = d.Request(ctx, contract.MethodTurnInterrupt, map[string]interface{}{
		"threadId": h.threadID,
		"turnId":   turnID,
	})
	return err
}

// Close transitions the handle to Closed, idempotently. The first call may
// emit a remote thread/archive RPC; a failure of that call is returned to
// the caller, but the handle becomes Closed regardless, and the result is
// cached for every repeat call.
func (h *Handle) Close(ctx context.Context) error {
	h.closeOnce.Do(func() {
		h.closed.Store(true)

		d, err := h.client.Dispatcher()
		if err != nil {
			// Client is already closed; there is no transport left to archive
			// over, so there is nothing more to report.
			return
		}
		_, h.closeResult = d.Request(ctx, contract.MethodThreadArchive, map[string]interface{}{
			"threadId": h.threadID,
		})
	})
	return h.closeResult
}
