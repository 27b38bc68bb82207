package transport

// file: internal/transport/testhelpers_test.go

import (
	"io"
	"testing"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newPipe returns a connected io.Reader/io.Writer pair for NDJSON transport tests.
func newPipe(t *testing.T) (io.Reader, io.Writer) {
	t.Helper()
	r, w := io.Pipe()
	t.Cleanup(func() {
		_ = r.Close()
		_ = w.Close()
	})
	return r, w
}
