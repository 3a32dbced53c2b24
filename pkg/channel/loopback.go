package channel

import (
	"sync"

	"github.com/samsamfire/goxmodem/pkg/xmodem"
)

// Loopback is an in-memory, unbounded-byte-queue endpoint of a pair
// created by NewLoopbackPair, grounded on the teacher pack's virtual CAN
// bus "receive own" loopback mode: two endpoints, each reading what the
// other wrote, with no backing transport.
type Loopback struct {
	mu   sync.Mutex
	in   []byte
	peer *Loopback
}

// NewLoopbackPair returns two connected endpoints: bytes written to a
// are read from b, and vice versa. Used by pkg/xmodem's scenario tests.
func NewLoopbackPair() (a, b *Loopback) {
	a = &Loopback{}
	b = &Loopback{}
	a.peer = b
	b.peer = a
	return a, b
}

// ReadByte implements xmodem.Channel. It never blocks: if nothing has
// arrived it reports ReadEmpty immediately, matching an in-memory
// transport that has no intrinsic poll latency.
func (l *Loopback) ReadByte() (byte, xmodem.ReadResult) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.in) == 0 {
		return 0, xmodem.ReadEmpty
	}
	b := l.in[0]
	l.in = l.in[1:]
	return b, xmodem.ReadGot
}

// WriteBytes implements xmodem.Channel by appending to the peer's queue.
func (l *Loopback) WriteBytes(buf []byte) error {
	l.peer.mu.Lock()
	defer l.peer.mu.Unlock()
	l.peer.in = append(l.peer.in, buf...)
	return nil
}
