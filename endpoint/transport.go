package endpoint

import (
	"io"
	"sync"

	"github.com/boldui/core/protocol"
)

// Transport is the framed-message connection underlying every role. It has
// no goroutine or queue of its own: ReadFrame reads on the caller's
// goroutine and is driven from a single reader goroutine per Transport,
// while WriteFrame may be called concurrently from any number of
// goroutines (replies, opens, and caller-initiated sends all write through
// the same mutex-guarded frame writer).
type Transport struct {
	rw      io.ReadWriteCloser
	writeMu sync.Mutex
}

// NewTransport wraps an already-connected pipe or socket.
func NewTransport(rw io.ReadWriteCloser) *Transport {
	return &Transport{rw: rw}
}

// ReadFrame reads one length-prefixed frame. It returns io.EOF,
// unwrapped, when the peer has closed the transport cleanly, so callers
// can distinguish "peer hung up" from "malformed frame".
func (t *Transport) ReadFrame() ([]byte, error) {
	return protocol.ReadFrame(t.rw)
}

// WriteFrame writes one length-prefixed frame, serialized against any
// other concurrent writer on this Transport.
func (t *Transport) WriteFrame(payload []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return protocol.WriteFrame(t.rw, payload)
}

// Close closes the underlying pipe or socket, unblocking any in-flight
// ReadFrame with an error.
func (t *Transport) Close() error {
	return t.rw.Close()
}
