// Package transport spawns the app-server child process and frames
// newline-delimited JSON messages over its stdio.
package transport

// file: internal/transport/transport.go

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/dkoosis/appserversdk/internal/apperrors"
	"github.com/dkoosis/appserversdk/internal/logging"
)

// MaxMessageSize bounds a single NDJSON frame (1MB) to prevent memory
// exhaustion from a runaway or malicious child process.
const MaxMessageSize = 1024 * 1024

// DefaultReaderBacklog is the bounded size of the reader's internal channel.
// When full, the oldest buffered frame is dropped rather than blocking the
// core path (spec §4.1, §5 backpressure rules).
const DefaultReaderBacklog = 256

// Transport is the half-duplex pair of operations the dispatcher uses to
// talk to the spawned child. Implementations must be safe for concurrent
// ReadMessage/WriteMessage/Close calls.
type Transport interface {
	ReadMessage(ctx context.Context) ([]byte, error)
	WriteMessage(ctx context.Context, message []byte) error
	Close() error
	// DroppedFrames returns the number of frames discarded because the
	// reader's internal backlog was full.
	DroppedFrames() int64
}

// calculatePreview renders a safe, truncated, control-character-free preview
// of raw bytes for logging and error context.
func calculatePreview(data []byte) string {
	const maxPreviewLen = 100
	n := len(data)
	if n > maxPreviewLen {
		n = maxPreviewLen
	}
	clean := bytes.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return '.'
		}
		return r
	}, data[:n])
	if len(data) > maxPreviewLen {
		return string(clean) + "..."
	}
	return string(clean)
}

// ValidateMessage checks a raw frame for JSON-RPC 2.0 structural validity:
// valid JSON, jsonrpc=="2.0", well-typed id/method/params, and mutual
// exclusivity of result/error.
// nolint:gocyclo
func ValidateMessage(message []byte) error {
	var msg map[string]interface{}
	if err := json.Unmarshal(message, &msg); err != nil {
		return apperrors.NewTransportFrameInvalid("not valid JSON", calculatePreview(message))
	}

	version, ok := msg["jsonrpc"]
	if !ok {
		return apperrors.NewTransportFrameInvalid("missing jsonrpc field", calculatePreview(message))
	}
	if version != "2.0" {
		return apperrors.NewTransportFrameInvalid("unsupported jsonrpc version", calculatePreview(message))
	}

	hasMethod := false
	if method, exists := msg["method"]; exists {
		hasMethod = true
		methodStr, ok := method.(string)
		if !ok || methodStr == "" {
			return apperrors.NewTransportFrameInvalid("method must be a non-empty string", calculatePreview(message))
		}
		if len(methodStr) >= 4 && methodStr[:4] == "rpc." {
			return apperrors.NewTransportFrameInvalid("method names starting with rpc. are reserved", calculatePreview(message))
		}
	}

	hasID := false
	if id, exists := msg["id"]; exists {
		hasID = true
		switch id.(type) {
		case string, float64, nil, json.Number:
		default:
			return apperrors.NewTransportFrameInvalid(fmt.Sprintf("invalid id type %T", id), calculatePreview(message))
		}
	}

	hasResult := false
	if _, exists := msg["result"]; exists {
		hasResult = true
	}

	hasError := false
	if errObj, exists := msg["error"]; exists {
		hasError = true
		errMap, ok := errObj.(map[string]interface{})
		if !ok {
			return apperrors.NewTransportFrameInvalid("error field must be an object", calculatePreview(message))
		}
		code, hasCode := errMap["code"]
		msgText, hasMsg := errMap["message"]
		if !hasCode || !hasMsg {
			return apperrors.NewTransportFrameInvalid("error object must contain code and message", calculatePreview(message))
		}
		switch code.(type) {
		case float64, json.Number:
		default:
			return apperrors.NewTransportFrameInvalid("error code must be a number", calculatePreview(message))
		}
		if _, ok := msgText.(string); !ok {
			return apperrors.NewTransportFrameInvalid("error message must be a string", calculatePreview(message))
		}
	}

	if hasMethod {
		if hasResult || hasError {
			return apperrors.NewTransportFrameInvalid("request/notification cannot contain result or error", calculatePreview(message))
		}
		if params, exists := msg["params"]; exists {
			switch params.(type) {
			case map[string]interface{}, []interface{}, nil:
			default:
				return apperrors.NewTransportFrameInvalid("params must be object, array or null", calculatePreview(message))
			}
		}
	} else {
		if !hasID && !hasError {
			return apperrors.NewTransportFrameInvalid("response message must contain id", calculatePreview(message))
		}
		if !hasResult && !hasError {
			return apperrors.NewTransportFrameInvalid("response message must contain result or error", calculatePreview(message))
		}
		if hasResult && hasError {
			return apperrors.NewTransportFrameInvalid("response message cannot contain both result and error", calculatePreview(message))
		}
	}

	return nil
}

// NDJSONTransport frames newline-delimited JSON over an arbitrary
// io.Reader/io.Writer/io.Closer, typically a spawned child's stdout/stdin.
// The reader runs a background pump into a bounded channel so that a slow
// consumer never blocks the wire read; overflow drops the oldest frame.
type NDJSONTransport struct {
	writer    io.Writer
	closer    io.Closer
	logger    logging.Logger
	writeLock sync.Mutex
	closed    bool
	closeLock sync.RWMutex

	backlog  chan []byte
	readErrs chan error
	dropped  int64
	dropMu   sync.Mutex
}

// NewNDJSONTransport wraps reader/writer/closer in an NDJSONTransport with a
// bounded read-ahead backlog of DefaultReaderBacklog frames.
func NewNDJSONTransport(reader io.Reader, writer io.Writer, closer io.Closer, logger logging.Logger) *NDJSONTransport {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	t := &NDJSONTransport{
		writer:   writer,
		closer:   closer,
		logger:   logger.WithField("component", "ndjson_transport"),
		backlog:  make(chan []byte, DefaultReaderBacklog),
		readErrs: make(chan error, 1),
	}
	go t.pump(bufio.NewReaderSize(reader, 64*1024))
	return t
}

// pump runs for the lifetime of the transport, reading frames off the wire
// and pushing them into the bounded backlog, dropping the oldest on overflow.
func (t *NDJSONTransport) pump(r *bufio.Reader) {
	for {
		line, err := r.ReadBytes('\n')
		if err != nil {
			if len(line) == 0 {
				select {
				case t.readErrs <- apperrors.NewTransportBroken(err):
				default:
				}
				return
			}
		}
		trimmed := bytes.TrimRight(line, "\r\n")
		if len(trimmed) == 0 {
			continue // tolerate blank lines per §4.1
		}
		if len(trimmed) > MaxMessageSize {
			continue // oversized frame discarded, not fatal to the stream
		}
		frame := append([]byte(nil), trimmed...)
		select {
		case t.backlog <- frame:
		default:
			// backlog full: drop the oldest, then enqueue the new one
			select {
			case <-t.backlog:
				t.dropMu.Lock()
				t.dropped++
				t.dropMu.Unlock()
			default:
			}
			select {
			case t.backlog <- frame:
			default:
			}
		}
		if err != nil {
			select {
			case t.readErrs <- apperrors.NewTransportBroken(err):
			default:
			}
			return
		}
	}
}

// ReadMessage returns the next validated frame, or blocks until one arrives,
// the transport breaks, or ctx is cancelled.
func (t *NDJSONTransport) ReadMessage(ctx context.Context) ([]byte, error) {
	t.closeLock.RLock()
	closed := t.closed
	t.closeLock.RUnlock()
	if closed {
		return nil, apperrors.NewClosed("transport")
	}

	for {
		select {
		case <-ctx.Done():
			return nil, apperrors.NewTimeout("transport.read")
		case err := <-t.readErrs:
			return nil, err
		case frame := <-t.backlog:
			if err := ValidateMessage(frame); err != nil {
				t.logger.Warn("discarding invalid frame", "error", err)
				continue
			}
			return frame, nil
		}
	}
}

// WriteMessage validates and sends message, appending the frame terminator.
func (t *NDJSONTransport) WriteMessage(ctx context.Context, message []byte) error {
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

	t.writeLock.Lock()
	defer t.writeLock.Unlock()

	resultCh := make(chan error, 1)
	go func() {
		buf := make([]byte, len(message)+1)
		copy(buf, message)
		buf[len(message)] = '\n'
		n, err := t.writer.Write(buf)
		if err == nil && n < len(buf) {
			err = io.ErrShortWrite
		}
		resultCh <- err
	}()

	select {
	case <-ctx.Done():
		return apperrors.NewTimeout("transport.write")
	case err := <-resultCh:
		if err != nil {
			return apperrors.NewTransportBroken(err)
		}
		return nil
	}
}

// Close marks the transport closed and closes the underlying stream. Safe
// to call more than once.
func (t *NDJSONTransport) Close() error {
	t.closeLock.Lock()
	defer t.closeLock.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if t.closer != nil {
		if err := t.closer.Close(); err != nil {
			return apperrors.NewTransportBroken(err)
		}
	}
	return nil
}

// DroppedFrames returns the number of frames discarded due to backlog overflow.
func (t *NDJSONTransport) DroppedFrames() int64 {
	t.dropMu.Lock()
	defer t.dropMu.Unlock()
	return t.dropped
}
