package core

// Speed-ramped stepper motor control for the winder axis

import "math"

const (
	// MinMovingSpeed is the speed (rev/s) above which MoveSteps emits pulses
	MinMovingSpeed = 0.5

	// SpeedSnapThreshold is the distance (rev/s) below which the ramp jumps
	// straight to the target
	SpeedSnapThreshold = 0.25

	// RampDivisor sets the fraction of the remaining gap closed per ramp tick
	RampDivisor = 5

	// MaxStepRate caps the step rate (steps/s); it keeps the pulse at least
	// 5µs high, within what TB6600-class drivers accept
	MaxStepRate = 100000
)

// StepperMotor owns the current and target speed of one axis and drives a
// StepperDriver at the ramped speed
type StepperMotor struct {
	driver      *StepperDriver
	stepsPerRev int

	enabled   bool
	direction Direction
	speed     float64 // Current speed [rev/s]
	target    float64 // Target speed [rev/s]

	steps int64 // Signed steps since start or last ResetRevolutions
}

// NewStepperMotor creates a disabled, stationary motor.
// stepsPerRevolution must be positive.
func NewStepperMotor(driver *StepperDriver, stepsPerRevolution int) *StepperMotor {
	if stepsPerRevolution <= 0 {
		panic("steps per revolution must be positive")
	}
	return &StepperMotor{
		driver:      driver,
		stepsPerRev: stepsPerRevolution,
		direction:   Clockwise,
	}
}

// GetEnabled returns the last value passed to SetEnabled
func (m *StepperMotor) GetEnabled() bool {
	return m.enabled
}

// SetEnabled records the state and forwards it to the driver
func (m *StepperMotor) SetEnabled(enabled bool) {
	m.enabled = enabled
	m.driver.SetEnabled(enabled)

	var v uint32
	if enabled {
		v = 1
	}
	RecordTiming(EvtEnable, m.driver.clock.Micros(), v, 0)
}

// SetDirection forwards the rotation direction to the driver.
// Speed is not affected.
func (m *StepperMotor) SetDirection(dir Direction) {
	m.direction = dir
	m.driver.SetDirection(dir)
	RecordTiming(EvtDirection, m.driver.clock.Micros(), uint32(dir), 0)
}

// Direction returns the last direction set
func (m *StepperMotor) Direction() Direction {
	return m.direction
}

// SetTargetSpeed sets the speed [rev/s] the ramp moves toward on
// subsequent MoveSteps calls
func (m *StepperMotor) SetTargetSpeed(revsPerSec float64) {
	m.target = revsPerSec
}

// TargetSpeed returns the target speed [rev/s]
func (m *StepperMotor) TargetSpeed() float64 {
	return m.target
}

// Speed returns the current ramped speed [rev/s]
func (m *StepperMotor) Speed() float64 {
	return m.speed
}

// StepsPerRevolution returns the configured steps per full turn
func (m *StepperMotor) StepsPerRevolution() int {
	return m.stepsPerRev
}

// MoveStep moves a single step, see MoveSteps
func (m *StepperMotor) MoveStep() int {
	return m.MoveSteps(1)
}

// MoveSteps runs one ramp tick and, if the ramped speed is above
// MinMovingSpeed, emits numberSteps pulses at that speed.
//
// Returns the number of steps moved (0 while the motor is too slow).
// The call blocks for about numberSteps step periods.
func (m *StepperMotor) MoveSteps(numberSteps int) int {
	m.adaptSpeed()

	if m.speed <= MinMovingSpeed || numberSteps <= 0 {
		RecordTiming(EvtStepSkip, m.driver.clock.Micros(), uint32(max(numberSteps, 0)), 0)
		return 0
	}

	duration := m.stepDurationMicros()
	RecordTiming(EvtStepBatch, m.driver.clock.Micros(), uint32(numberSteps), duration)

	for i := 0; i < numberSteps; i++ {
		m.driver.MoveStep(duration)
	}

	if m.direction == Clockwise {
		m.steps += int64(numberSteps)
	} else {
		m.steps -= int64(numberSteps)
	}

	return numberSteps
}

// stepDurationMicros returns the step period at the current speed. The step
// rate is truncated to whole steps per second and limited to MaxStepRate.
func (m *StepperMotor) stepDurationMicros() uint32 {
	rate := m.speed * float64(m.stepsPerRev)
	if rate > MaxStepRate {
		rate = MaxStepRate
	}
	stepsPerSec := uint32(rate)
	if stepsPerSec == 0 {
		stepsPerSec = 1
	}
	return 1000000 / stepsPerSec
}

// adaptSpeed moves the current speed a fifth of the way to the target,
// snapping once it is within SpeedSnapThreshold
func (m *StepperMotor) adaptSpeed() {
	delta := m.target - m.speed

	if math.Abs(delta) < SpeedSnapThreshold {
		m.speed = m.target
	} else {
		m.speed += delta / RampDivisor
	}

	RecordTiming(EvtRampTick, m.driver.clock.Micros(), milli(m.speed), milli(m.target))
}

// StepCount returns signed steps moved since start or the last reset.
// Clockwise steps count up.
func (m *StepperMotor) StepCount() int64 {
	return m.steps
}

// Revolutions returns full revolutions since start or the last reset
func (m *StepperMotor) Revolutions() int64 {
	return m.steps / int64(m.stepsPerRev)
}

// ResetRevolutions zeroes the step counter
func (m *StepperMotor) ResetRevolutions() {
	m.steps = 0
}

// Halt sets the target speed to zero, ramps down for at most maxTicks
// ramp ticks and disables the motor. Steps are still emitted while the
// speed is above MinMovingSpeed so the ramp-down is smooth.
// Returns true if the motor reached zero speed.
func (m *StepperMotor) Halt(maxTicks int) bool {
	m.SetTargetSpeed(0)

	ticks := 0
	for ticks < maxTicks && m.speed != 0 {
		m.MoveSteps(1)
		ticks++
	}

	stopped := m.speed == 0
	m.SetEnabled(false)

	var v uint32
	if stopped {
		v = 1
	}
	RecordTiming(EvtHalt, m.driver.clock.Micros(), uint32(ticks), v)
	DebugPrintln("[MOTOR] halt after " + itoa(ticks) + " ticks, speed=" + ftoa(m.speed))

	return stopped
}
