// Package protocol implements receive-side buffering of the winder's
// serial command stream. Command framing is left to the interpreter.
package protocol

import "time"

// Version represents the winder firmware version
const Version = "0.1.0"

// Receive constants
const (
	ReceiveBufferSize = 32                   // Bytes held between drains
	ReceivePacing     = 3 * time.Millisecond // Pause after each received byte

	// StagingBufferSize sizes the host adapter's FIFO between its reader
	// goroutine and the line buffer
	StagingBufferSize = 256
)
