// Package console provides the ring-buffer implementation of the
// input/output interface the command protocol's frame layer and encoder
// treat as an external collaborator: a non-destructive peek over pending
// inbound bytes, a destructive pop, and a reserve/commit pair for building
// outbound frames in place.
package console

import "sync"

// DefaultInboundCapacity and DefaultOutboundCapacity size a Buffer's rings
// generously relative to the protocol's own 64-byte frame ceiling, so that
// ordinary traffic essentially never hits the "reserve fails" backpressure
// path described in the protocol's error handling.
const (
	DefaultInboundCapacity  = 1024
	DefaultOutboundCapacity = 1024
)

// Input is the non-destructive read side of the console: Peek returns a view
// of whatever bytes are currently buffered (possibly fewer than requested,
// possibly none), and Pop discards the first n of them.
type Input interface {
	Peek() []byte
	Pop(n int)
}

// Output is the write side: Reserve carves out n contiguous bytes for the
// caller to fill in place, returning ok=false if that much room isn't
// available (the caller must silently drop its message in that case, per the
// protocol's error handling policy). Commit marks the first n reserved bytes
// as ready to transmit.
type Output interface {
	Reserve(n int) (buf []byte, ok bool)
	Commit(n int)
}

// Buffer is a fixed-capacity byte ring satisfying Input on its inbound side
// and Output on its outbound side. It is safe for concurrent use by one
// producer (e.g. a transport's read goroutine, or a writer draining the
// outbound ring) and one consumer (the scheduler's tick goroutine).
type Buffer struct {
	mu sync.Mutex

	in    []byte // inbound bytes not yet popped
	inCap int

	out       []byte // outbound bytes committed but not yet drained
	outCap    int
	reserved  int // bytes currently checked out via Reserve, not yet committed
}

// NewBuffer creates a Buffer with the given inbound/outbound capacities.
func NewBuffer(inboundCap, outboundCap int) *Buffer {
	return &Buffer{
		in:     make([]byte, 0, inboundCap),
		inCap:  inboundCap,
		out:    make([]byte, 0, outboundCap),
		outCap: outboundCap,
	}
}

// Feed appends bytes arriving from the transport to the inbound ring. It
// drops bytes that would overflow capacity rather than blocking, since
// nothing in the protocol core can apply backpressure to a UART.
func (b *Buffer) Feed(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	room := b.inCap - len(b.in)
	if room <= 0 {
		return
	}
	if len(data) > room {
		data = data[:room]
	}
	b.in = append(b.in, data...)
}

// Peek implements Input.
func (b *Buffer) Peek() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, len(b.in))
	copy(out, b.in)
	return out
}

// Pop implements Input.
func (b *Buffer) Pop(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n <= 0 {
		return
	}
	if n > len(b.in) {
		n = len(b.in)
	}
	copy(b.in, b.in[n:])
	b.in = b.in[:len(b.in)-n]
}

// Reserve implements Output.
func (b *Buffer) Reserve(n int) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.reserved != 0 {
		// Only one encode may be in flight at a time; the dispatcher and
		// sendf are single-threaded by contract, so this indicates misuse.
		return nil, false
	}
	if len(b.out)+n > b.outCap {
		return nil, false
	}
	b.out = b.out[:len(b.out)+n]
	b.reserved = n
	return b.out[len(b.out)-n:], true
}

// Commit implements Output. It accepts n <= the reserved size, truncating
// any unused tail of the reservation (sendf reserves max_size+5 up front but
// typically writes fewer bytes).
func (b *Buffer) Commit(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n < 0 {
		n = 0
	}
	if n > b.reserved {
		n = b.reserved
	}
	b.out = b.out[:len(b.out)-(b.reserved-n)]
	b.reserved = 0
}

// DrainOutbound removes and returns all committed outbound bytes, for a
// transport to write to the wire.
func (b *Buffer) DrainOutbound() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, len(b.out))
	copy(out, b.out)
	b.out = b.out[:0]
	return out
}
