package core

import (
	"context"
	"time"

	"winder/protocol"
)

// DefaultTickPeriod is the spacing of interpreter ticks
const DefaultTickPeriod = time.Millisecond

// Interpreter turns received bytes into motor operations. It is supplied
// by the application; the control loop only feeds and ticks it.
type Interpreter interface {
	// Feed hands over one received byte
	Feed(b byte)

	// Tick runs once per scheduler tick. Keep MoveSteps counts small here:
	// serial input is not read while the motor is stepping.
	Tick(m *StepperMotor)
}

// ControlLoop is the single-threaded main loop of one winder axis
type ControlLoop struct {
	rx     *protocol.LineBuffer
	motor  *StepperMotor
	interp Interpreter
	clock  Clock
	period uint32

	sched     Scheduler
	tickTimer Timer
	ticks     uint32
}

// NewControlLoop wires the receive buffer, motor and interpreter together.
// A non-positive period falls back to DefaultTickPeriod.
func NewControlLoop(rx *protocol.LineBuffer, motor *StepperMotor, interp Interpreter, clock Clock, period time.Duration) *ControlLoop {
	if period <= 0 {
		period = DefaultTickPeriod
	}

	l := &ControlLoop{
		rx:     rx,
		motor:  motor,
		interp: interp,
		clock:  clock,
		period: TimerFromDuration(period),
	}

	l.tickTimer.Handler = l.tickHandler
	l.tickTimer.WakeTime = clock.Micros() + l.period
	l.sched.ScheduleTimer(&l.tickTimer)

	return l
}

// Motor returns the axis motor
func (l *ControlLoop) Motor() *StepperMotor {
	return l.motor
}

// Ticks returns the number of interpreter ticks run so far
func (l *ControlLoop) Ticks() uint32 {
	return l.ticks
}

// Poll feeds at most one bufferful of received bytes to the interpreter
// and then runs the tick if it is due
func (l *ControlLoop) Poll() {
	if l.rx.HasNext() {
		for l.rx.Len() > 0 {
			l.interp.Feed(l.rx.GetNext())
		}
	}

	l.sched.TimerDispatch(l.clock.Micros())
}

// Run polls until ctx is cancelled
func (l *ControlLoop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		l.Poll()
	}
}

// tickHandler runs the interpreter tick. If stepping overran the period
// the next tick is spaced from now instead of firing back to back.
func (l *ControlLoop) tickHandler(t *Timer) uint8 {
	l.ticks++
	l.interp.Tick(l.motor)

	now := l.clock.Micros()
	t.WakeTime += l.period
	if !timerBefore(now, t.WakeTime) {
		t.WakeTime = now + l.period
	}
	return SF_RESCHEDULE
}
