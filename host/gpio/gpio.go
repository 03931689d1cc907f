// Package gpio drives winder outputs from a Linux host (Raspberry Pi and
// similar boards) through periph.io
package gpio

import (
	"errors"
	"fmt"
	"sync"

	pgpio "periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"

	"winder/config"
	"winder/core"
)

// ErrUnknownPin is returned when the pin registry has no such name
var ErrUnknownPin = errors.New("unknown gpio pin")

// Hooks replaced in tests
var (
	initHost = func() error {
		_, err := host.Init()
		return err
	}
	byName = gpioreg.ByName
)

var (
	initOnce sync.Once
	initErr  error
)

// Init loads the periph host drivers once
func Init() error {
	initOnce.Do(func() {
		initErr = initHost()
	})
	return initErr
}

// Pin adapts a periph output to core.OutputPin.
//
// core.OutputPin cannot report errors, so failed writes are counted and
// logged through the debug channel.
type Pin struct {
	out    pgpio.PinOut
	name   string
	faults uint32
}

// Open looks up a pin by name ("GPIO17", "P1_11", ...) and drives it low
func Open(name string) (*Pin, error) {
	if err := Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	p := byName(name)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPin, name)
	}
	if err := p.Out(pgpio.Low); err != nil {
		return nil, fmt.Errorf("configure %s as output: %w", name, err)
	}
	return &Pin{out: p, name: name}, nil
}

// Set drives the pin
func (p *Pin) Set(value bool) {
	if err := p.out.Out(pgpio.Level(value)); err != nil {
		p.faults++
		if core.IsDebugEnabled() {
			core.DebugPrintln("[GPIO] " + p.name + ": " + err.Error())
		}
	}
}

// Name returns the registry name of the pin
func (p *Pin) Name() string {
	return p.name
}

// Faults returns the number of writes that failed
func (p *Pin) Faults() uint32 {
	return p.faults
}

// Bind opens the enable, direction and pulse pins named in cfg
func Bind(cfg config.PinsConfig) (core.PinBinding, error) {
	var binding core.PinBinding

	enable, err := Open(cfg.Enable)
	if err != nil {
		return binding, err
	}
	direction, err := Open(cfg.Direction)
	if err != nil {
		return binding, err
	}
	pulse, err := Open(cfg.Pulse)
	if err != nil {
		return binding, err
	}

	binding.Enable = enable
	binding.Direction = direction
	binding.Pulse = pulse
	return binding, nil
}
