package protocol

import "time"

// Transport is the serial byte source the line buffer drains.
// Both methods must return without blocking.
type Transport interface {
	// Available returns the number of bytes that can be read now
	Available() int

	// ReadByte reads one byte
	ReadByte() (byte, error)
}

// Sleeper pauses between transport reads
type Sleeper interface {
	Sleep(d time.Duration)
}

// OverflowPolicy decides what a drain does once the buffer is full
type OverflowPolicy uint8

const (
	// OverflowBackpressure stops draining and leaves the remaining bytes
	// in the transport for a later drain
	OverflowBackpressure OverflowPolicy = iota

	// OverflowDiscard keeps reading and drops bytes that do not fit
	OverflowDiscard
)

// String returns the policy name used in configuration files
func (p OverflowPolicy) String() string {
	switch p {
	case OverflowBackpressure:
		return "backpressure"
	case OverflowDiscard:
		return "discard"
	default:
		return "unknown"
	}
}

// ParseOverflowPolicy parses a policy name; ok is false for unknown names
func ParseOverflowPolicy(s string) (policy OverflowPolicy, ok bool) {
	switch s {
	case "", "backpressure":
		return OverflowBackpressure, true
	case "discard":
		return OverflowDiscard, true
	default:
		return OverflowBackpressure, false
	}
}

// LineBufferConfig configures a LineBuffer
type LineBufferConfig struct {
	Capacity int            // Maximum buffered bytes
	Pacing   time.Duration  // Pause after each byte read from the transport
	Overflow OverflowPolicy // Behaviour once Capacity is reached
}

// DefaultLineBufferConfig returns the winder's receive buffer settings
func DefaultLineBufferConfig() LineBufferConfig {
	return LineBufferConfig{
		Capacity: ReceiveBufferSize,
		Pacing:   ReceivePacing,
		Overflow: OverflowBackpressure,
	}
}

// LineBuffer collects bytes from a Transport without blocking and hands
// them out one at a time to the command interpreter.
//
// The transport is only read from HasNext, and only once the buffer has
// been emptied. Bytes are returned in arrival order.
type LineBuffer struct {
	sleeper Sleeper
	source  Transport
	cfg     LineBufferConfig

	buf   []byte
	read  int // Next byte to hand out
	fill  int // Next free slot
	drops uint32
	errs  uint32
}

// NewLineBuffer creates a LineBuffer reading from source. A zero Capacity
// falls back to ReceiveBufferSize.
func NewLineBuffer(source Transport, sleeper Sleeper, cfg LineBufferConfig) *LineBuffer {
	if cfg.Capacity <= 0 {
		cfg.Capacity = ReceiveBufferSize
	}
	return &LineBuffer{
		sleeper: sleeper,
		source:  source,
		cfg:     cfg,
		buf:     make([]byte, cfg.Capacity),
	}
}

// HasNext reports whether a received byte is pending. If the buffer is
// empty it first drains the transport once.
func (b *LineBuffer) HasNext() bool {
	if b.fill == 0 {
		b.receive()
	}
	return b.read < b.fill
}

// GetNext removes and returns the oldest pending byte.
//
// It returns 0 when nothing is pending, which cannot be told apart from a
// received zero byte: gate calls with HasNext, or use Next.
func (b *LineBuffer) GetNext() byte {
	value, _ := b.Next()
	return value
}

// Next removes and returns the oldest pending byte; ok is false when
// nothing is pending
func (b *LineBuffer) Next() (value byte, ok bool) {
	if !b.HasNext() {
		return 0, false
	}

	value = b.buf[b.read]
	b.read++

	if b.read == b.fill {
		b.read = 0
		b.fill = 0
	}

	return value, true
}

// Len returns the number of pending bytes
func (b *LineBuffer) Len() int {
	return b.fill - b.read
}

// Cap returns the buffer capacity
func (b *LineBuffer) Cap() int {
	return len(b.buf)
}

// Dropped returns the number of bytes discarded under OverflowDiscard
func (b *LineBuffer) Dropped() uint32 {
	return b.drops
}

// ReadErrors returns the number of failed transport reads
func (b *LineBuffer) ReadErrors() uint32 {
	return b.errs
}

// receive drains the transport until it is empty or the buffer is full.
// Under OverflowDiscard at most one bufferful of excess bytes is dropped
// per drain, so a sender that outpaces the drain cannot hold it forever.
func (b *LineBuffer) receive() {
	dropped := 0
	for b.source.Available() > 0 {
		full := b.fill >= len(b.buf)
		if full && b.cfg.Overflow == OverflowBackpressure {
			return
		}

		value, err := b.source.ReadByte()
		if err != nil {
			b.errs++
			return
		}

		if full {
			b.drops++
			dropped++
			if dropped >= len(b.buf) {
				return
			}
		} else {
			b.buf[b.fill] = value
			b.fill++
		}

		if b.cfg.Pacing > 0 && b.sleeper != nil {
			b.sleeper.Sleep(b.cfg.Pacing)
		}
	}
}

// FifoBuffer is a circular byte buffer. The host serial adapter uses it to
// stage bytes between its reader goroutine and the control loop.
type FifoBuffer struct {
	buf   []byte
	read  int
	write int
	size  int
}

// NewFifoBuffer creates a new FifoBuffer with the specified capacity.
// One slot is kept free to tell full from empty.
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{
		buf:  make([]byte, capacity),
		size: capacity,
	}
}

// Write appends data to the FIFO buffer and returns how much fit
func (f *FifoBuffer) Write(data []byte) int {
	written := 0
	for _, b := range data {
		nextWrite := (f.write + 1) % f.size
		if nextWrite == f.read {
			// Buffer full
			break
		}
		f.buf[f.write] = b
		f.write = nextWrite
		written++
	}
	return written
}

// Read reads up to len(data) bytes from the FIFO buffer
func (f *FifoBuffer) Read(data []byte) int {
	read := 0
	for i := range data {
		if f.read == f.write {
			// Buffer empty
			break
		}
		data[i] = f.buf[f.read]
		f.read = (f.read + 1) % f.size
		read++
	}
	return read
}

// PopByte removes one byte; ok is false when the buffer is empty
func (f *FifoBuffer) PopByte() (value byte, ok bool) {
	if f.read == f.write {
		return 0, false
	}
	value = f.buf[f.read]
	f.read = (f.read + 1) % f.size
	return value, true
}

// Available returns the number of bytes available for reading
func (f *FifoBuffer) Available() int {
	if f.write >= f.read {
		return f.write - f.read
	}
	return f.size - f.read + f.write
}

// Free returns the number of bytes available for writing
func (f *FifoBuffer) Free() int {
	return f.size - f.Available() - 1
}

// IsEmpty returns true if the buffer is empty
func (f *FifoBuffer) IsEmpty() bool {
	return f.read == f.write
}

// Reset clears the buffer
func (f *FifoBuffer) Reset() {
	f.read = 0
	f.write = 0
}
