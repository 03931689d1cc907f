package core

import "time"

// fakeClock advances only when waited on. jitter adds extra microseconds
// to successive DelayMicros calls to simulate a late wake-up.
type fakeClock struct {
	now    uint32
	jitter []uint32
	delays []uint32
	sleeps []time.Duration
}

func (c *fakeClock) Micros() uint32 {
	return c.now
}

func (c *fakeClock) DelayMicros(us uint32) {
	c.delays = append(c.delays, us)
	c.now += us
	if len(c.jitter) > 0 {
		c.now += c.jitter[0]
		c.jitter = c.jitter[1:]
	}
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now += uint32(d / time.Microsecond)
}

func (c *fakeClock) advance(us uint32) {
	c.now += us
}

type pinEvent struct {
	at    uint32
	value bool
}

// recordingPin records every write with the fake clock's timestamp
type recordingPin struct {
	clock  *fakeClock
	events []pinEvent
}

func (p *recordingPin) Set(value bool) {
	p.events = append(p.events, pinEvent{at: p.clock.now, value: value})
}

func (p *recordingPin) level() bool {
	if len(p.events) == 0 {
		return false
	}
	return p.events[len(p.events)-1].value
}

// rises counts low-to-high transitions
func (p *recordingPin) rises() int {
	n := 0
	prev := false
	for _, e := range p.events {
		if e.value && !prev {
			n++
		}
		prev = e.value
	}
	return n
}

func (p *recordingPin) reset() {
	p.events = nil
}

type testRig struct {
	clock              *fakeClock
	enable, dir, pulse *recordingPin
	driver             *StepperDriver
}

func newTestRig(polarity Polarity) *testRig {
	clock := &fakeClock{}
	r := &testRig{
		clock:  clock,
		enable: &recordingPin{clock: clock},
		dir:    &recordingPin{clock: clock},
		pulse:  &recordingPin{clock: clock},
	}
	r.driver = NewStepperDriver(PinBinding{
		Enable:    r.enable,
		Direction: r.dir,
		Pulse:     r.pulse,
	}, polarity, clock)
	return r
}
