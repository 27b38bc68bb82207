// Package appserversdk is the host-facing façade over a spawned app-server
// child process: one-shot Run, explicit Connect/Setup/Ask/Close/Shutdown,
// and raw JSON-RPC passthrough for callers that need it.
package appserversdk

// file: appserver.go

import (
	"context"
	"encoding/json"

	"time"

	"github.com/dkoosis/appserversdk/internal/apperrors"
	"github.com/dkoosis/appserversdk/internal/approval"
	"github.com/dkoosis/appserversdk/internal/config"
	"github.com/dkoosis/appserversdk/internal/contract"
	"github.com/dkoosis/appserversdk/internal/diagnostics"
	"github.com/dkoosis/appserversdk/internal/logging"
	"github.com/dkoosis/appserversdk/internal/rpc"
	"github.com/dkoosis/appserversdk/internal/session"
	"github.com/dkoosis/appserversdk/internal/state"
	"github.com/dkoosis/appserversdk/internal/supervisor"
)

// Known method name constants. Mirrors contract.KnownMethods(); a
// table-driven test in this package asserts the two sets are identical,
// per spec §6's "the facade must expose a constant for every catalog
// entry."
const (
	MethodThreadStart      = contract.MethodThreadStart
	MethodThreadResume     = contract.MethodThreadResume
	MethodThreadFork       = contract.MethodThreadFork
	MethodThreadArchive    = contract.MethodThreadArchive
	MethodThreadRead       = contract.MethodThreadRead
	MethodThreadList       = contract.MethodThreadList
	MethodThreadLoadedList = contract.MethodThreadLoadedList
	MethodThreadRollback   = contract.MethodThreadRollback
	MethodTurnStart        = contract.MethodTurnStart
	MethodTurnInterrupt    = contract.MethodTurnInterrupt
)

// KnownMethods returns every method name this package names a constant
// for, in no particular order.
func KnownMethods() []string {
	return []string{
		MethodThreadStart, MethodThreadResume, MethodThreadFork, MethodThreadArchive,
		MethodThreadRead, MethodThreadList, MethodThreadLoadedList, MethodThreadRollback,
		MethodTurnStart, MethodTurnInterrupt,
	}
}

// Hook re-exports session.Hook so callers configuring a Client never need
// to import internal/session directly.
type Hook = session.Hook

// TurnResult re-exports session.PromptRunResult.
type TurnResult = session.PromptRunResult

// Options configures a new Client.
type Options struct {
	Profile          config.RunProfile
	Mode             contract.ValidationMode
	StateBudgetBytes int
	Logger           logging.Logger
	Hooks            []Hook

	// SkipApprovalRouter leaves the dispatcher's server-request queue
	// unclaimed at connect time, for callers that want to own it directly
	// via TakeServerRequests/RespondServerRequest* instead of going through
	// ApprovalRequests/Approve/Decline.
	SkipApprovalRouter bool
}

// Client is the top-level handle a host program holds: it owns the
// supervisor-spawned runtime, the session lifecycle machine, and the
// approval router, composed behind spec §6's façade surface.
type Client struct {
	profile config.RunProfile
	opts    Options
	logger  logging.Logger

	session *session.Client
	router  *approval.Router
	diag    *diagnostics.Collector
}

// New builds a Client in the disconnected state. Connect (or Run) must be
// called before Ask/Setup will succeed.
func New(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	logger = logger.WithField("component", "appserversdk.client")

	c := &Client{profile: opts.Profile, opts: opts, logger: logger, diag: diagnostics.NewCollector(32)}
	connector := func(ctx context.Context) (*rpc.Dispatcher, session.Teardown, error) {
		runtime, err := supervisor.Spawn(ctx, opts.Profile, supervisor.Options{
			Mode:             opts.Mode,
			StateBudgetBytes: opts.StateBudgetBytes,
			Logger:           logger,
		})
		if err != nil {
			return nil, nil, err
		}
		c.dispatcherSpawned(runtime)
		return runtime.Dispatcher, runtime.Shutdown, nil
	}
	c.session = session.NewClient(connector, logger)
	return c
}

// dispatcherSpawned wires the approval router onto a freshly spawned
// dispatcher. Invoked from inside the connector, before session.Client
// transitions to Ready, so ApprovalRequests() is usable the instant
// Connect returns.
func (c *Client) dispatcherSpawned(runtime *supervisor.Runtime) {
	if c.opts.SkipApprovalRouter {
		return
	}
	router, err := approval.New(runtime.Dispatcher, approval.Config{
		AutoDeclineUnknown: true,
		Logger:             c.logger,
	})
	if err != nil {
		c.logger.Error("failed to install approval router on new runtime", "error", err)
		return
	}
	c.router = router
}

// Connect spawns the app-server child and performs the handshake.
func (c *Client) Connect(ctx context.Context) error {
	return c.session.Connect(ctx)
}

// Shutdown tears the runtime down. After Shutdown returns, every other
// Client method that returns an error returns a Closed error.
func (c *Client) Shutdown(ctx context.Context) error {
	return c.session.Shutdown(ctx)
}

// ApprovalRequests returns the channel of host-facing approval requests
// awaiting a decision. Valid once Connect has succeeded.
func (c *Client) ApprovalRequests() <-chan approval.ServerRequest {
	if c.router == nil {
		return nil
	}
	return c.router.Requests()
}

// Approve resolves a pending approval request successfully.
func (c *Client) Approve(ctx context.Context, approvalID string, payload interface{}) error {
	if c.router == nil {
		return apperrors.NewClosed("approval router")
	}
	return c.router.Approve(ctx, approvalID, payload)
}

// Decline resolves a pending approval request with an error.
func (c *Client) Decline(ctx context.Context, approvalID string, reason error) error {
	if c.router == nil {
		return apperrors.NewClosed("approval router")
	}
	return c.router.Decline(ctx, approvalID, reason)
}

type threadStartResult struct {
	ThreadID string `json:"threadId"`
}

// Setup starts a new thread rooted at cwd under cfg and returns a Session
// handle bound to it. Connect must already have succeeded.
func (c *Client) Setup(ctx context.Context, cwd string, cfg config.SessionConfig) (*Session, error) {
	d, err := c.session.Dispatcher()
	if err != nil {
		return nil, err
	}
	cfg.Cwd = cwd

	raw, err := d.Request(ctx, contract.MethodThreadStart, map[string]interface{}{
		"cwd":            cwd,
		"model":          cfg.Model,
		"effort":         cfg.Effort,
		"approvalPolicy": cfg.ApprovalPolicy,
		"sandboxPolicy":  cfg.SandboxPolicy,
	})
	if err != nil {
		return nil, err
	}
	var started threadStartResult
	if jsonErr := json.Unmarshal(raw, &started); jsonErr != nil {
		return nil, apperrors.NewInvalidResponse("thread/start result did not match expected shape", map[string]interface{}{"cause": jsonErr.Error()})
	}

	handle := session.NewHandle(started.ThreadID, c.session, cfg, c.opts.Hooks)
	return &Session{handle: handle, diag: c.diag}, nil
}

// Run is the one-shot convenience path: connect, start a thread at cwd,
// ask prompt, return the result. The underlying runtime is left connected
// (callers that want a single-use runtime should call Shutdown themselves).
func (c *Client) Run(ctx context.Context, cwd, prompt string) (*TurnResult, error) {
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	sess, err := c.Setup(ctx, cwd, c.profile.DefaultSession)
	if err != nil {
		return nil, err
	}
	return sess.Ask(ctx, prompt)
}

// Diagnostics returns a point-in-time snapshot of process health and
// accumulated turn latency, independent of Connect/Ready state.
func (c *Client) Diagnostics() diagnostics.Snapshot {
	return c.diag.Snapshot()
}

// StateSnapshot returns the current projected runtime state. Connect must
// already have succeeded.
func (c *Client) StateSnapshot() (*state.RuntimeState, error) {
	d, err := c.session.Dispatcher()
	if err != nil {
		return nil, err
	}
	return d.StateSnapshot(), nil
}

// RequestJSON issues a raw, schema-validated JSON-RPC request, bypassing
// the session/hook layer entirely. params and the return value are left
// as json.RawMessage for callers that want the wire shape directly.
func (c *Client) RequestJSON(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error) {
	d, err := c.session.Dispatcher()
	if err != nil {
		return nil, err
	}
	return d.Request(ctx, method, params)
}

// NotifyJSON issues a raw, schema-validated JSON-RPC notification.
func (c *Client) NotifyJSON(ctx context.Context, method string, params json.RawMessage) error {
	d, err := c.session.Dispatcher()
	if err != nil {
		return err
	}
	return d.Notify(ctx, method, params)
}

// RequestJSONUnchecked is RequestJSON without schema validation, for
// methods outside the known-method catalog.
func (c *Client) RequestJSONUnchecked(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error) {
	d, err := c.session.Dispatcher()
	if err != nil {
		return nil, err
	}
	return d.RequestUnchecked(ctx, method, params)
}

// NotifyJSONUnchecked is NotifyJSON without schema validation.
func (c *Client) NotifyJSONUnchecked(ctx context.Context, method string, params json.RawMessage) error {
	d, err := c.session.Dispatcher()
	if err != nil {
		return err
	}
	return d.NotifyUnchecked(ctx, method, params)
}

// TakeServerRequests transfers exclusive ownership of the raw inbound
// server-request channel, bypassing the approval router's known-kind
// filtering entirely. Requires Options.SkipApprovalRouter, since Connect
// otherwise installs a Router that claims the queue first.
func (c *Client) TakeServerRequests() (<-chan *rpc.PendingServerRequest, error) {
	d, err := c.session.Dispatcher()
	if err != nil {
		return nil, err
	}
	return d.TakeServerRequests()
}

// RespondServerRequestOK answers a raw server request (taken via
// TakeServerRequests) successfully.
func (c *Client) RespondServerRequestOK(ctx context.Context, approvalID string, payload interface{}) error {
	d, err := c.session.Dispatcher()
	if err != nil {
		return err
	}
	return d.RespondServerRequestOK(ctx, approvalID, payload)
}

// RespondServerRequestErr answers a raw server request with an error.
func (c *Client) RespondServerRequestErr(ctx context.Context, approvalID string, reason error) error {
	d, err := c.session.Dispatcher()
	if err != nil {
		return err
	}
	return d.RespondServerRequestErr(ctx, approvalID, reason)
}

// Session is a handle on one started thread, returned by Setup.
type Session struct {
	handle *session.Handle
	diag   *diagnostics.Collector
}

// ThreadID reports the thread this session is bound to.
func (s *Session) ThreadID() string { return s.handle.ThreadID() }

// Ask runs prompt as a new turn against this session.
func (s *Session) Ask(ctx context.Context, prompt string) (*TurnResult, error) {
	return s.AskWith(ctx, session.TurnInput{Prompt: prompt})
}

// AskWith runs a turn with caller-supplied overrides (model, attachments,
// metadata delta) layered onto the session's bound config.
func (s *Session) AskWith(ctx context.Context, in session.TurnInput) (*TurnResult, error) {
	start := time.Now()
	result, err := s.handle.AskWith(ctx, in)
	if s.diag != nil {
		s.diag.RecordTurn(contract.MethodTurnStart, time.Since(start), err == nil)
	}
	return result, err
}

// InterruptTurn requests the app-server stop a running turn.
func (s *Session) InterruptTurn(ctx context.Context, turnID string) error {
	return s.handle.InterruptTurn(ctx, turnID)
}

// Close archives the thread and marks this session closed. Idempotent.
func (s *Session) Close(ctx context.Context) error {
	return s.handle.Close(ctx)
}
