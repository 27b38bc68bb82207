package transport

// file: internal/transport/in_memory_transport.go
//
// InMemoryTransport lets dispatcher/session tests exercise a full
// request/response cycle without spawning a real process.

import (
	"context"
	"sync"

	"github.com/dkoosis/appserversdk/internal/apperrors"
)

// InMemoryTransport implements Transport over paired in-process channels.
type InMemoryTransport struct {
	incoming  chan []byte
	outgoing  chan []byte
	closed    bool
	closeLock sync.RWMutex
	readLock  sync.Mutex
	writeLock sync.Mutex
}

// InMemoryTransportPair is two InMemoryTransports wired to each other.
type InMemoryTransportPair struct {
	ClientTransport *InMemoryTransport
	ServerTransport *InMemoryTransport
}

// NewInMemoryTransportPair creates a connected pair with a 100-message buffer
// on each direction.
func NewInMemoryTransportPair() *InMemoryTransportPair {
	clientToServer := make(chan []byte, 100)
	serverToClient := make(chan []byte, 100)
	client := &InMemoryTransport{incoming: serverToClient, outgoing: clientToServer}
	server := &InMemoryTransport{incoming: clientToServer, outgoing: serverToClient}
	return &InMemoryTransportPair{ClientTransport: client, ServerTransport: server}
}

// ReadMessage returns the next message sent by the paired transport.
func (t *InMemoryTransport) ReadMessage(ctx context.Context) ([]byte, error) {
	t.readLock.Lock()
	defer t.readLock.Unlock()

	t.closeLock.RLock()
	closed := t.closed
	t.closeLock.RUnlock()
	if closed {
		return nil, apperrors.NewClosed("transport")
	}

	select {
	case <-ctx.Done():
		return nil, apperrors.NewTimeout("transport.read")
	case msg, ok := <-t.incoming:
		if !ok {
			return nil, apperrors.NewClosed("transport")
		}
		if err := ValidateMessage(msg); err != nil {
			return nil, err
		}
		return msg, nil
	}
}

// WriteMessage sends message to the paired transport's reader.
func (t *InMemoryTransport) WriteMessage(ctx context.Context, message []byte) error {
	t.writeLock.Lock()
	defer t.writeLock.Unlock()

	t.closeLock.RLock()
	closed := t.closed
	t.closeLock.RUnlock()
	if closed {
		return apperrors.NewClosed("transport")
	}

	if err := ValidateMessage(message); err != nil {
		return err
	}
	if len(message) > MaxMessageSize {
		return apperrors.NewTransportFrameInvalid("message exceeds size limit", calculatePreview(message))
	}

	select {
	case <-ctx.Done():
		return apperrors.NewTimeout("transport.write")
	case t.outgoing <- message:
		return nil
	}
}

// Close marks the transport closed; it does not close the underlying
// channels so the paired side can still drain buffered messages.
func (t *InMemoryTransport) Close() error {
	t.closeLock.Lock()
	defer t.closeLock.Unlock()
	t.closed = true
	return nil
}

// DroppedFrames is always zero: the in-memory transport has no bounded
// backlog to overflow.
func (t *InMemoryTransport) DroppedFrames() int64 { return 0 }

// CloseChannels closes both directions' channels; only safe once both sides
// are done, typically in test cleanup.
func (p *InMemoryTransportPair) CloseChannels() {
	p.ServerTransport.closeLock.Lock()
	p.ClientTransport.closeLock.Lock()
	close(p.ServerTransport.outgoing)
	close(p.ClientTransport.outgoing)
	p.ClientTransport.closeLock.Unlock()
	p.ServerTransport.closeLock.Unlock()
}
