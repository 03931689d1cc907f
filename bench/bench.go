// Package bench is a fixed-profile interpreter for exercising a winder
// axis without a host application: it echoes received lines and runs one
// winding at a set speed until a number of revolutions is counted, then
// ramps down and disables the motor.
package bench

import (
	"winder/core"
)

// MaxLineLength bounds the echoed line; longer input is truncated
const MaxLineLength = 64

// DefaultHaltTicks bounds the ramp-down at the end of a winding
const DefaultHaltTicks = 200

// Logf receives the bench's progress messages
type Logf func(format string, args ...interface{})

// Bench implements core.Interpreter
type Bench struct {
	target       float64
	revolutions  int64
	stepsPerTick int
	direction    core.Direction

	// HaltTicks bounds the final ramp-down
	HaltTicks int
	// OnDone is called once after the motor has been halted
	OnDone func()

	logf Logf

	line    []byte
	lines   int
	started bool
	done    bool
	stopped bool
}

// New returns a bench winding revolutions turns at target rev/s. A
// negative target winds counter-clockwise; zero revolutions winds until
// the loop is stopped.
func New(target float64, revolutions int64, stepsPerTick int, logf Logf) *Bench {
	if stepsPerTick <= 0 {
		stepsPerTick = 1
	}
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	direction := core.Clockwise
	if target < 0 {
		target = -target
		direction = core.CounterClockwise
	}
	return &Bench{
		target:       target,
		revolutions:  revolutions,
		stepsPerTick: stepsPerTick,
		direction:    direction,
		HaltTicks:    DefaultHaltTicks,
		logf:         logf,
		line:         make([]byte, 0, MaxLineLength),
	}
}

// Feed collects bytes into lines and logs each completed line
func (b *Bench) Feed(c byte) {
	if c == '\n' || c == '\r' {
		if len(b.line) > 0 {
			b.lines++
			b.logf("rx: %q", b.line)
			b.line = b.line[:0]
		}
		return
	}
	if len(b.line) < MaxLineLength {
		b.line = append(b.line, c)
	}
}

// Tick advances the winding by a few steps
func (b *Bench) Tick(m *core.StepperMotor) {
	if b.done {
		return
	}

	if !b.started {
		b.started = true
		m.ResetRevolutions()
		m.SetDirection(b.direction)
		m.SetEnabled(true)
		m.SetTargetSpeed(b.target)
		b.logf("winding %d revolutions %s at %.2f rps", b.revolutions, b.direction, b.target)
	}

	m.MoveSteps(b.stepsPerTick)

	revs := m.Revolutions()
	if revs < 0 {
		revs = -revs
	}
	if b.revolutions > 0 && revs >= b.revolutions {
		b.finish(m)
	}
}

func (b *Bench) finish(m *core.StepperMotor) {
	b.done = true
	b.stopped = m.Halt(b.HaltTicks)
	b.logf("done: %d steps, %d revolutions, stopped=%v", m.StepCount(), m.Revolutions(), b.stopped)
	if b.OnDone != nil {
		b.OnDone()
	}
}

// Done reports whether the winding has finished
func (b *Bench) Done() bool {
	return b.done
}

// Stopped reports whether the final ramp-down reached zero speed
func (b *Bench) Stopped() bool {
	return b.stopped
}

// Lines returns the number of lines received
func (b *Bench) Lines() int {
	return b.lines
}
