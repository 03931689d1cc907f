package core

import "time"

// Clock is the time source used for pulse timing.
// Micros wraps around after ~71 minutes; callers compare with Since.
type Clock interface {
	Sleeper

	// Micros returns a monotonic microsecond counter
	Micros() uint32

	// DelayMicros busy-waits for the given number of microseconds
	DelayMicros(us uint32)
}

// Sleeper pauses the control loop for coarse, millisecond-scale waits
type Sleeper interface {
	Sleep(d time.Duration)
}

// Since returns the microseconds elapsed from start to now, correct across
// counter wrap-around
func Since(now, start uint32) uint32 {
	return now - start
}

// Remaining returns the microseconds left until deadline, clamped to zero
// when the deadline has already passed
func Remaining(deadline, now uint32) uint32 {
	left := int32(deadline - now)
	if left < 0 {
		return 0
	}
	return uint32(left)
}

// TimerFromUS converts microseconds to timer ticks. The clock runs at
// 1MHz so ticks and microseconds are the same unit.
func TimerFromUS(us uint32) uint32 {
	return us
}

// TimerFromDuration converts a duration to timer ticks
func TimerFromDuration(d time.Duration) uint32 {
	return uint32(d / time.Microsecond)
}

// SystemClock is a Clock backed by the Go runtime's monotonic time.
// DelayMicros spins instead of sleeping: the scheduler's sleep granularity
// is far coarser than a step pulse.
type SystemClock struct {
	start time.Time
}

// NewSystemClock creates a clock whose counter starts at zero
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

// Micros returns microseconds since the clock was created
func (c *SystemClock) Micros() uint32 {
	return uint32(time.Since(c.start) / time.Microsecond)
}

// DelayMicros busy-waits for us microseconds
func (c *SystemClock) DelayMicros(us uint32) {
	if us == 0 {
		return
	}
	start := c.Micros()
	for Since(c.Micros(), start) < us {
	}
}

// Sleep yields the processor for d
func (c *SystemClock) Sleep(d time.Duration) {
	time.Sleep(d)
}
