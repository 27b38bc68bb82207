package supervisor

// file: internal/supervisor/handshake_test.go

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/appserversdk/internal/config"
	"github.com/dkoosis/appserversdk/internal/transport"
)

func TestHandshake_MissingUserAgentFailsBeforeAnyWireFrame(t *testing.T) {
	pair := transport.NewInMemoryTransportPair()
	err := handshake(context.Background(), pair.ClientTransport, config.ClientConfig{})
	require.Error(t, err)

	readCtx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, readErr := pair.ServerTransport.ReadMessage(readCtx)
	assert.Error(t, readErr, "no initialize frame should have been sent without a userAgent")
}

func TestHandshake_IncompatibleVersionFails(t *testing.T) {
	pair := transport.NewInMemoryTransportPair()
	go replyToInitialize(t, pair.ServerTransport, "0.100.0")

	err := handshake(context.Background(), pair.ClientTransport, config.ClientConfig{
		UserAgent: "test-client/1.0", MinimumVersion: "0.104.0",
	})
	require.Error(t, err)
}

func TestHandshake_CompatibleVersionSucceeds(t *testing.T) {
	pair := transport.NewInMemoryTransportPair()
	go replyToInitialize(t, pair.ServerTransport, "0.105.2")

	err := handshake(context.Background(), pair.ClientTransport, config.ClientConfig{
		UserAgent: "test-client/1.0", MinimumVersion: "0.104.0",
	})
	require.NoError(t, err)
}

func TestHandshake_DisabledGateAcceptsOlderVersion(t *testing.T) {
	pair := transport.NewInMemoryTransportPair()
	go replyToInitialize(t, pair.ServerTransport, "0.1.0")

	err := handshake(context.Background(), pair.ClientTransport, config.ClientConfig{
		UserAgent: "test-client/1.0", MinimumVersion: "0.104.0", DisableVersionGate: true,
	})
	require.NoError(t, err)
}

func replyToInitialize(t *testing.T, child transport.Transport, version string) {
	t.Helper()
	frame, err := child.ReadMessage(context.Background())
	if err != nil {
		return
	}
	var req struct {
		ID json.RawMessage `json:"id"`
	}
	_ = json.Unmarshal(frame, &req)
	reply, _ := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0", "id": json.RawMessage(req.ID),
		"result": map[string]interface{}{"version": version},
	})
	_ = child.WriteMessage(context.Background(), reply)
}
