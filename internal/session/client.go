package session

// file: internal/session/client.go

import (
	"context"
	"sync"

	"github.com/dkoosis/appserversdk/internal/apperrors"
	"github.com/dkoosis/appserversdk/internal/fsm"
	"github.com/dkoosis/appserversdk/internal/logging"
	"github.com/dkoosis/appserversdk/internal/rpc"
)

const (
	StateDisconnected fsm.State = "disconnected"
	StateConnecting   fsm.State = "connecting"
	StateReady        fsm.State = "ready"
	StateDraining     fsm.State = "draining"
	StateClosed       fsm.State = "closed"

	eventConnect     fsm.Event = "connect"
	eventConnected   fsm.Event = "connected"
	eventConnectFail fsm.Event = "connectFail"
	eventShutdown    fsm.Event = "shutdown"
	eventDrained     fsm.Event = "drained"
)

// Teardown reverses whatever a Connector set up — dispatcher shutdown,
// signalling and reaping a spawned child process, releasing a validator —
// in whatever order the connector's owner requires. Client calls it exactly
// once, from Shutdown, and never touches the dispatcher's own Shutdown
// directly once a Teardown exists.
type Teardown func(ctx context.Context) error

// Connector produces a live, handshaken Dispatcher plus the Teardown that
// undoes it. Implementations (see internal/supervisor) own process spawn
// and handshake; a non-nil error MUST already account for any partial
// runtime it created — if spawn succeeded but the handshake failed, the
// connector tears that runtime down itself and returns the combined error,
// so Client never has to guess what partial state exists behind a failed
// connect.
type Connector func(ctx context.Context) (*rpc.Dispatcher, Teardown, error)

// Client is the top-level lifecycle state machine: Disconnected ->
// Connecting -> Ready -> Draining -> Closed. Once Closed, every operation
// other than Shutdown returns a Closed error without touching the connector
// or dispatcher again; Shutdown on a closed client is a no-op returning nil.
type Client struct {
	mu         sync.Mutex
	machine    fsm.FSM
	connector  Connector
	dispatcher *rpc.Dispatcher
	teardown   Teardown
	logger     logging.Logger
}

// NewClient builds a Client in the Disconnected state. connect is deferred
// until Connect is called explicitly.
func NewClient(connector Connector, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	logger = logger.WithField("component", "session.client")

	m := fsm.NewFSM(StateDisconnected, logger)
	m.AddTransition(fsm.Transition{From: []fsm.State{StateDisconnected}, Event: eventConnect, To: StateConnecting})
	m.AddTransition(fsm.Transition{From: []fsm.State{StateConnecting}, Event: eventConnected, To: StateReady})
	m.AddTransition(fsm.Transition{From: []fsm.State{StateConnecting}, Event: eventConnectFail, To: StateDisconnected})
	m.AddTransition(fsm.Transition{From: []fsm.State{StateReady}, Event: eventShutdown, To: StateDraining})
	m.AddTransition(fsm.Transition{From: []fsm.State{StateDraining}, Event: eventDrained, To: StateClosed})
	if err := m.Build(); err != nil {
		logger.Error("client fsm build failed", "error", err)
	}

	return &Client{machine: m, connector: connector, logger: logger}
}

// Connect drives Disconnected -> Connecting -> Ready. A connector failure
// leaves the client back in Disconnected (so a caller may retry) and
// returns the connector's error verbatim — never swallowed, never wrapped
// away.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.machine.CurrentState() == StateClosed {
		return apperrors.NewClosed("client")
	}
	if err := c.machine.Transition(ctx, eventConnect, nil); err != nil {
		return err
	}

	d, teardown, err := c.connector(ctx)
	if err != nil {
		if ferr := c.machine.Transition(ctx, eventConnectFail, nil); ferr != nil {
			c.logger.Error("failed to unwind connecting state after connect failure", "error", ferr)
		}
		return err
	}

	c.dispatcher = d
	c.teardown = teardown
	return c.machine.Transition(ctx, eventConnected, nil)
}

// Shutdown drives Ready -> Draining -> Closed, running the connector's
// Teardown. Once the teardown has run (successfully or not) the client is
// Closed; a later Shutdown returns nil and every other subsequent call
// returns apperrors.NewClosed.
func (c *Client) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.machine.CurrentState() == StateClosed {
		return nil
	}
	if err := c.machine.Transition(ctx, eventShutdown, nil); err != nil {
		return err
	}

	var shutdownErr error
	if c.teardown != nil {
		shutdownErr = c.teardown(ctx)
	} else if c.dispatcher != nil {
		shutdownErr = c.dispatcher.Shutdown()
	}

	if err := c.machine.Transition(ctx, eventDrained, nil); err != nil {
		c.logger.Error("failed to reach closed state after shutdown", "error", err)
	}
	return shutdownErr
}

// Dispatcher returns the live dispatcher, or apperrors.NewClosed if the
// client is not Ready.
func (c *Client) Dispatcher() (*rpc.Dispatcher, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.machine.CurrentState() != StateReady {
		return nil, apperrors.NewClosed("client")
	}
	return c.dispatcher, nil
}

// State reports the client's current lifecycle state, primarily for tests
// and diagnostics.
func (c *Client) State() fsm.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.CurrentState()
}
