//go:build rp2040

package main

import (
	"fmt"
	"machine"
	"time"

	"winder/bench"
	"winder/core"
	"winder/protocol"
)

// Board wiring (TB6600 with ENA-/DIR-/PUL- tied to ground)
const (
	pinEnable    = machine.GPIO2
	pinDirection = machine.GPIO3
	pinPulse     = machine.GPIO4

	commandTX = machine.UART0_TX_PIN
	commandRX = machine.UART0_RX_PIN
	baudRate  = 38400

	stepsPerRevolution = 200
	windSpeed          = 1.0 // rev/s
	windRevolutions    = 100
)

// uartTransport exposes the UART receive FIFO as a protocol.Transport
type uartTransport struct {
	*machine.UART
}

func (t uartTransport) Available() int {
	return t.Buffered()
}

func outputPin(p machine.Pin) machine.Pin {
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return p
}

func main() {
	// Debug output goes to USB CDC; the UART carries commands
	core.SetDebugWriter(func(s string) {
		machine.Serial.Write([]byte(s))
		machine.Serial.Write([]byte("\r\n"))
	})
	core.SetDebugEnabled(true)

	uart := machine.UART0
	uart.Configure(machine.UARTConfig{
		BaudRate: baudRate,
		TX:       commandTX,
		RX:       commandRX,
	})

	pins := core.PinBinding{
		Enable:    outputPin(pinEnable),
		Direction: outputPin(pinDirection),
		Pulse:     outputPin(pinPulse),
	}

	clock := hardwareClock{}
	driver := core.NewStepperDriver(pins, core.CommonGround, clock)
	motor := core.NewStepperMotor(driver, stepsPerRevolution)

	rx := protocol.NewLineBuffer(uartTransport{uart}, clock, protocol.DefaultLineBufferConfig())

	logf := func(format string, args ...interface{}) {
		core.DebugPrintln(fmt.Sprintf(format, args...))
	}
	b := bench.New(windSpeed, windRevolutions, 1, logf)
	b.OnDone = core.DumpTimingRing

	loop := core.NewControlLoop(rx, motor, b, clock, core.DefaultTickPeriod)

	for {
		loop.Poll()
		if b.Done() {
			// Keep echoing input with the motor disabled
			time.Sleep(time.Millisecond)
		}
	}
}
