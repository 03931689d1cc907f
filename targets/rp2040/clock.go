//go:build rp2040

package main

import (
	"runtime/volatile"
	"time"
	"unsafe"

	"winder/core"
)

// RP2040 Timer peripheral memory map
const (
	timerBase     = 0x40054000
	timerTIMERAWL = timerBase + 0x0C // Raw timer low word
)

var timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))

// hardwareClock reads the RP2040's free-running 1MHz timer
type hardwareClock struct{}

// Micros returns the low 32 bits of the microsecond counter
func (hardwareClock) Micros() uint32 {
	return timerRAWL.Get()
}

// DelayMicros busy-waits; step pulses are too short for the scheduler
func (c hardwareClock) DelayMicros(us uint32) {
	start := c.Micros()
	for core.Since(c.Micros(), start) < us {
	}
}

// Sleep yields to other goroutines
func (hardwareClock) Sleep(d time.Duration) {
	time.Sleep(d)
}
