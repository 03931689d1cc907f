// Package serial connects the winder's line buffer to a host serial port
package serial

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	tarm "github.com/tarm/serial"

	"winder/protocol"
)

// DefaultBaud is the rate the winder's host application talks at
const DefaultBaud = 38400

// ErrNoData is returned by ReadByte when nothing has been received
var ErrNoData = errors.New("no data available")

// Port is an open serial device. *tarm.Port satisfies it; tests use pipes.
type Port interface {
	io.ReadWriteCloser

	// Flush discards unread input and unsent output
	Flush() error
}

// Config selects the command link device
type Config struct {
	Device      string        // e.g. "/dev/ttyUSB0", "COM3"; empty: discover
	Baud        int           // Line rate
	ReadTimeout time.Duration // Bounds each blocking read; 0 blocks
}

// DefaultConfig returns the winder's link settings for device
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// Open opens cfg.Device and discards anything queued before the winder
// started listening
func Open(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Baud <= 0 {
		return nil, fmt.Errorf("invalid baud rate %d for %s", cfg.Baud, cfg.Device)
	}

	port, err := tarm.OpenPort(&tarm.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Device, err)
	}

	if err := port.Flush(); err != nil {
		port.Close()
		return nil, fmt.Errorf("flush %s: %w", cfg.Device, err)
	}
	return port, nil
}

// PortTransport adapts a blocking serial port to protocol.Transport.
//
// A reader goroutine copies received bytes into a staging FIFO, playing
// the part of a UART's receive FIFO; the control loop polls the FIFO
// without blocking. Bytes arriving while the FIFO is full are counted as
// overruns and lost, as they would be in hardware.
type PortTransport struct {
	port io.ReadCloser

	mu       sync.Mutex
	fifo     *protocol.FifoBuffer
	overruns uint32
	err      error

	done chan struct{}
}

// NewPortTransport starts reading from port. size is the staging FIFO
// capacity; zero selects protocol.StagingBufferSize.
func NewPortTransport(port io.ReadCloser, size int) *PortTransport {
	if size <= 0 {
		size = protocol.StagingBufferSize
	}
	t := &PortTransport{
		port: port,
		fifo: protocol.NewFifoBuffer(size),
		done: make(chan struct{}),
	}
	go t.readerLoop()
	return t
}

// readerLoop copies port data into the FIFO until the port fails or is
// closed. io.EOF is how tarm/serial reports a read timeout.
func (t *PortTransport) readerLoop() {
	defer close(t.done)

	buf := make([]byte, 64)
	for {
		n, err := t.port.Read(buf)
		if n > 0 {
			t.mu.Lock()
			written := t.fifo.Write(buf[:n])
			t.overruns += uint32(n - written)
			t.mu.Unlock()
		}
		if err != nil && err != io.EOF {
			t.mu.Lock()
			t.err = err
			t.mu.Unlock()
			return
		}
	}
}

// Available returns the number of staged bytes
func (t *PortTransport) Available() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fifo.Available()
}

// ReadByte returns the oldest staged byte, or ErrNoData
func (t *PortTransport) ReadByte() (byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	b, ok := t.fifo.PopByte()
	if !ok {
		return 0, ErrNoData
	}
	return b, nil
}

// Overruns returns the number of bytes lost to a full staging FIFO
func (t *PortTransport) Overruns() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.overruns
}

// Err returns the error that stopped the reader, if any
func (t *PortTransport) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Close closes the port and waits for the reader to exit
func (t *PortTransport) Close() error {
	err := t.port.Close()
	<-t.done
	return err
}
