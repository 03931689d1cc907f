// Package config loads the winder axis configuration from YAML with
// environment overrides
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v2"

	"winder/core"
	"winder/protocol"
)

var (
	ErrMissingPin         = errors.New("enable, direction and pulse pins are required")
	ErrStepsPerRevolution = errors.New("steps_per_revolution must be positive")
	ErrBadOverflow        = errors.New("overflow must be \"backpressure\" or \"discard\"")
	ErrBadLevel           = errors.New("level must be \"high\" or \"low\"")
)

// Level is a signal level written as "high" or "low"
type Level bool

// UnmarshalYAML parses "high"/"low"
func (l *Level) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return l.UnmarshalText([]byte(s))
}

// MarshalYAML writes the level name
func (l Level) MarshalYAML() (interface{}, error) {
	return l.String(), nil
}

// UnmarshalText parses "high"/"low"; used for environment overrides
func (l *Level) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "high", "1":
		*l = Level(core.High)
	case "low", "0":
		*l = Level(core.Low)
	default:
		return fmt.Errorf("%w: %q", ErrBadLevel, text)
	}
	return nil
}

func (l Level) String() string {
	if l {
		return "high"
	}
	return "low"
}

// PinsConfig names the driver outputs and their wiring
type PinsConfig struct {
	Enable    string `yaml:"enable" env:"WINDER_PIN_ENABLE"`
	Direction string `yaml:"direction" env:"WINDER_PIN_DIRECTION"`
	Pulse     string `yaml:"pulse" env:"WINDER_PIN_PULSE"`

	// EnabledLevel is driven on the enable line while the motor is enabled
	EnabledLevel Level `yaml:"enabled_level" env:"WINDER_ENABLED_LEVEL"`
	// ClockwiseLevel is driven on the direction line for clockwise rotation
	ClockwiseLevel Level `yaml:"clockwise_level" env:"WINDER_CLOCKWISE_LEVEL"`
}

// SerialConfig describes the command link
type SerialConfig struct {
	Device      string        `yaml:"device" env:"WINDER_DEVICE"` // Empty: discover
	Baud        int           `yaml:"baud" env:"WINDER_BAUD"`
	ReadTimeout time.Duration `yaml:"read_timeout" env:"WINDER_READ_TIMEOUT"`
}

// ReceiveConfig configures the line receive buffer
type ReceiveConfig struct {
	Capacity int           `yaml:"capacity" env:"WINDER_RX_CAPACITY"`
	Pacing   time.Duration `yaml:"pacing" env:"WINDER_RX_PACING"`
	Overflow string        `yaml:"overflow" env:"WINDER_RX_OVERFLOW"`
}

// AxisConfig is the complete configuration of one winder axis
type AxisConfig struct {
	Pins               PinsConfig    `yaml:"pins"`
	StepsPerRevolution int           `yaml:"steps_per_revolution" env:"WINDER_STEPS_PER_REV"`
	Serial             SerialConfig  `yaml:"serial"`
	Receive            ReceiveConfig `yaml:"receive"`
	TickPeriod         time.Duration `yaml:"tick_period" env:"WINDER_TICK_PERIOD"`
	Debug              bool          `yaml:"debug" env:"WINDER_DEBUG"`
}

// Default returns the configuration of the reference winder: a 200 step
// motor on a TB6600 wired to common ground
func Default() *AxisConfig {
	cfg := &AxisConfig{
		Pins: PinsConfig{
			EnabledLevel:   Level(core.CommonGround.EnabledLevel),
			ClockwiseLevel: Level(core.CommonGround.ClockwiseLevel),
		},
	}
	applyDefaults(cfg)
	return cfg
}

// Load parses a YAML document, applies defaults and environment overrides
// and validates the result
func Load(data []byte) (*AxisConfig, error) {
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads and loads a YAML configuration file
func LoadFile(path string) (*AxisConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Load(data)
}

// applyDefaults fills in missing configuration values
func applyDefaults(cfg *AxisConfig) {
	if cfg.StepsPerRevolution == 0 {
		cfg.StepsPerRevolution = 200 // 1.8° motor, full steps
	}
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = 38400
	}
	if cfg.Serial.ReadTimeout == 0 {
		cfg.Serial.ReadTimeout = 100 * time.Millisecond
	}
	if cfg.Receive.Capacity == 0 {
		cfg.Receive.Capacity = protocol.ReceiveBufferSize
	}
	if cfg.Receive.Pacing == 0 {
		cfg.Receive.Pacing = protocol.ReceivePacing
	}
	if cfg.Receive.Overflow == "" {
		cfg.Receive.Overflow = protocol.OverflowBackpressure.String()
	}
	if cfg.TickPeriod == 0 {
		cfg.TickPeriod = core.DefaultTickPeriod
	}
}

// Validate checks the configuration for values the firmware cannot use
func (c *AxisConfig) Validate() error {
	if c.Pins.Enable == "" || c.Pins.Direction == "" || c.Pins.Pulse == "" {
		return ErrMissingPin
	}
	if c.StepsPerRevolution <= 0 {
		return ErrStepsPerRevolution
	}
	if _, ok := protocol.ParseOverflowPolicy(c.Receive.Overflow); !ok {
		return fmt.Errorf("%w: %q", ErrBadOverflow, c.Receive.Overflow)
	}
	if c.Receive.Capacity < 0 {
		return fmt.Errorf("receive capacity must not be negative: %d", c.Receive.Capacity)
	}
	return nil
}

// Polarity returns the driver wiring convention
func (c *AxisConfig) Polarity() core.Polarity {
	return core.Polarity{
		EnabledLevel:   bool(c.Pins.EnabledLevel),
		ClockwiseLevel: bool(c.Pins.ClockwiseLevel),
	}
}

// LineBuffer returns the receive buffer settings
func (c *AxisConfig) LineBuffer() protocol.LineBufferConfig {
	policy, _ := protocol.ParseOverflowPolicy(c.Receive.Overflow)
	return protocol.LineBufferConfig{
		Capacity: c.Receive.Capacity,
		Pacing:   c.Receive.Pacing,
		Overflow: policy,
	}
}

// Marshal renders the configuration as YAML
func (c *AxisConfig) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
