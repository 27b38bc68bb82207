package approval

// file: internal/approval/router_test.go

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/appserversdk/internal/contract"
	"github.com/dkoosis/appserversdk/internal/rpc"
	"github.com/dkoosis/appserversdk/internal/transport"
)

func newTestRouter(t *testing.T, autoDecline bool) (*Router, transport.Transport) {
	t.Helper()
	pair := transport.NewInMemoryTransportPair()
	d := rpc.New(rpc.Config{Transport: pair.ClientTransport, Mode: contract.Unchecked})
	t.Cleanup(func() { _ = d.Shutdown() })

	r, err := New(d, Config{AutoDeclineUnknown: autoDecline})
	require.NoError(t, err)
	return r, pair.ServerTransport
}

func TestRouter_RecognizedKindIsSurfacedToHost(t *testing.T) {
	r, child := newTestRouter(t, true)

	frame, _ := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0", "id": 1, "method": string(KindExec),
		"params": map[string]interface{}{"approvalId": "a1", "command": "ls"},
	})
	require.NoError(t, child.WriteMessage(context.Background(), frame))

	select {
	case req := <-r.Requests():
		assert.Equal(t, "a1", req.ApprovalID)
		assert.Equal(t, string(KindExec), req.Method)
	case <-time.After(time.Second):
		t.Fatal("recognized approval kind was never surfaced")
	}
}

func TestRouter_UnknownKindIsAutoDeclined(t *testing.T) {
	r, child := newTestRouter(t, true)
	_ = r

	frame, _ := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0", "id": 2, "method": "approval/unknownThing",
		"params": map[string]interface{}{"approvalId": "a2"},
	})
	require.NoError(t, child.WriteMessage(context.Background(), frame))

	reply, err := child.ReadMessage(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(reply), `"error"`)

	select {
	case <-r.Requests():
		t.Fatal("unknown kind must not reach the host requests channel")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRouter_SecondRouterOnSameDispatcherFails(t *testing.T) {
	pair := transport.NewInMemoryTransportPair()
	d := rpc.New(rpc.Config{Transport: pair.ClientTransport, Mode: contract.Unchecked})
	t.Cleanup(func() { _ = d.Shutdown() })

	_, err := New(d, Config{})
	require.NoError(t, err)

	_, err = New(d, Config{})
	require.Error(t, err)
}

func TestIsKnownKind(t *testing.T) {
	assert.True(t, IsKnownKind("approval/exec"))
	assert.False(t, IsKnownKind("approval/unheardOf"))
}
