package session

// file: internal/session/handle_test.go

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/appserversdk/internal/apperrors"
	"github.com/dkoosis/appserversdk/internal/config"
	"github.com/dkoosis/appserversdk/internal/contract"
	"github.com/dkoosis/appserversdk/internal/rpc"
	"github.com/dkoosis/appserversdk/internal/transport"
)

func newReadyTestClient(t *testing.T) (*Client, transport.Transport) {
	t.Helper()
	pair := transport.NewInMemoryTransportPair()
	connector := func(ctx context.Context) (*rpc.Dispatcher, Teardown, error) {
		d := rpc.New(rpc.Config{Transport: pair.ClientTransport, Mode: contract.Unchecked})
		return d, func(context.Context) error { return d.Shutdown() }, nil
	}
	c := NewClient(connector, nil)
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { _ = c.Shutdown(context.Background()) })
	return c, pair.ServerTransport
}

func TestHandle_CloseEmitsArchiveAndCachesFirstResult(t *testing.T) {
	c, child := newReadyTestClient(t)
	h := NewHandle("thread-1", c, config.DefaultSessionConfig(), nil)

	done := make(chan error, 1)
	go func() { done <- h.Close(context.Background()) }()

	frame, err := child.ReadMessage(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(frame), "thread/archive")

	var req struct {
		ID     json.RawMessage `json:"id"`
		Params struct {
			ThreadID string `json:"threadId"`
		} `json:"params"`
	}
	require.NoError(t, json.Unmarshal(frame, &req))
	assert.Equal(t, "thread-1", req.Params.ThreadID)

	reply, _ := json.Marshal(map[string]interface{}{"jsonrpc": "2.0", "id": json.RawMessage(req.ID), "result": map[string]interface{}{}})
	require.NoError(t, child.WriteMessage(context.Background(), reply))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("close never completed")
	}

	// Repeat close must return the cached result without emitting a second
	// archive RPC.
	require.NoError(t, h.Close(context.Background()))
}

func TestHandle_AskAfterCloseReturnsSessionClosedWithoutTouchingTransport(t *testing.T) {
	c, child := newReadyTestClient(t)
	h := NewHandle("thread-1", c, config.DefaultSessionConfig(), nil)

	go func() {
		frame, err := child.ReadMessage(context.Background())
		if err != nil {
			return
		}
		var req struct {
			ID json.RawMessage `json:"id"`
		}
		_ = json.Unmarshal(frame, &req)
		reply, _ := json.Marshal(map[string]interface{}{"jsonrpc": "2.0", "id": json.RawMessage(req.ID), "result": map[string]interface{}{}})
		_ = child.WriteMessage(context.Background(), reply)
	}()
	require.NoError(t, h.Close(context.Background()))

	_, err := h.Ask(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeSessionClosed, apperrors.Code(err))

	err = h.InterruptTurn(context.Background(), "turn-1")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeSessionClosed, apperrors.Code(err))
}
