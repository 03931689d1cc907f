package core

// Step/direction/enable driver for TB6600-class stepper drivers

// DefaultStepDurationMicros is the step period used by Step (~2kHz)
const DefaultStepDurationMicros = 500

// StepperDriver translates enable, direction and step requests into
// output levels on its bound pins
type StepperDriver struct {
	pins     PinBinding
	polarity Polarity
	clock    Clock
}

// NewStepperDriver binds the driver to its pins and leaves the motor
// disabled with direction clockwise and the pulse line low
func NewStepperDriver(pins PinBinding, polarity Polarity, clock Clock) *StepperDriver {
	d := &StepperDriver{
		pins:     pins,
		polarity: polarity,
		clock:    clock,
	}

	d.SetDirection(Clockwise)
	d.pins.Pulse.Set(Low)
	d.SetEnabled(false)

	return d
}

// Polarity returns the wiring convention the driver was built with
func (d *StepperDriver) Polarity() Polarity {
	return d.polarity
}

// SetEnabled drives the enable line to the polarity's enabled level, or
// its inverse when disabling
func (d *StepperDriver) SetEnabled(enabled bool) {
	if enabled {
		d.pins.Enable.Set(d.polarity.EnabledLevel)
	} else {
		d.pins.Enable.Set(!d.polarity.EnabledLevel)
	}
}

// SetDirection drives the direction line for the requested rotation
func (d *StepperDriver) SetDirection(dir Direction) {
	if dir == Clockwise {
		d.pins.Direction.Set(d.polarity.ClockwiseLevel)
	} else {
		d.pins.Direction.Set(!d.polarity.ClockwiseLevel)
	}
}

// Step emits one pulse with the default period
func (d *StepperDriver) Step() {
	d.MoveStep(DefaultStepDurationMicros)
}

// MoveStep emits one step pulse lasting roughly durationMicros overall.
//
// The pulse is held high for half the period. The low phase waits only for
// what is left of the period measured from the start of the call, so delay
// in the high phase is absorbed instead of stretching the step.
func (d *StepperDriver) MoveStep(durationMicros uint32) {
	deadline := d.clock.Micros() + durationMicros

	d.pins.Pulse.Set(High)
	d.clock.DelayMicros(durationMicros / 2)

	d.pins.Pulse.Set(Low)
	d.clock.DelayMicros(Remaining(deadline, d.clock.Micros()))
}
