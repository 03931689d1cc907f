package core

// Signal levels for OutputPin.Set
const (
	Low  = false
	High = true
)

// OutputPin is the abstract digital output that core code drives.
// Platform-specific implementations handle actual hardware control.
// TinyGo's machine.Pin satisfies it directly.
type OutputPin interface {
	// Set drives the pin high (true) or low (false)
	Set(value bool)
}

// PinBinding is the enable/direction/pulse output triple of one driver.
// It is bound at construction and must not be shared between drivers.
type PinBinding struct {
	Enable    OutputPin
	Direction OutputPin
	Pulse     OutputPin
}

// Polarity describes how a driver board interprets the enable and
// direction lines.
type Polarity struct {
	// EnabledLevel is driven on the enable line while the motor is enabled
	EnabledLevel bool

	// ClockwiseLevel is driven on the direction line for clockwise rotation
	ClockwiseLevel bool
}

// CommonGround is the wiring of TB6600-style drivers with ENA- and DIR-
// tied to ground: enable is active low, clockwise is high.
var CommonGround = Polarity{
	EnabledLevel:   Low,
	ClockwiseLevel: High,
}

// Direction of motor rotation
type Direction uint8

const (
	Clockwise Direction = iota
	CounterClockwise
)

// String returns the direction name
func (d Direction) String() string {
	switch d {
	case Clockwise:
		return "clockwise"
	case CounterClockwise:
		return "counter-clockwise"
	default:
		return "unknown"
	}
}

// PinFunc adapts a plain function to OutputPin
type PinFunc func(value bool)

// Set calls f(value)
func (f PinFunc) Set(value bool) {
	f(value)
}
