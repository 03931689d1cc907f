package gpio

import (
	"errors"
	"strings"
	"testing"

	pgpio "periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpiotest"

	"winder/config"
	"winder/core"
)

// failingPin rejects every write
type failingPin struct {
	*gpiotest.Pin
}

func (f *failingPin) Out(l pgpio.Level) error {
	return errors.New("pin is input-only")
}

func useRegistry(t *testing.T, pins map[string]pgpio.PinIO) {
	t.Helper()
	oldInit, oldByName := initHost, byName
	initHost = func() error { return nil }
	byName = func(name string) pgpio.PinIO {
		if p, ok := pins[name]; ok {
			return p
		}
		return nil
	}
	t.Cleanup(func() {
		initHost, byName = oldInit, oldByName
	})
}

func TestOpenDrivesLow(t *testing.T) {
	raw := &gpiotest.Pin{N: "GPIO17", Num: 17, L: pgpio.High}
	useRegistry(t, map[string]pgpio.PinIO{"GPIO17": raw})

	pin, err := Open("GPIO17")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if raw.Read() != pgpio.Low {
		t.Errorf("Expected pin low after open")
	}
	if pin.Name() != "GPIO17" {
		t.Errorf("Expected name GPIO17, got %s", pin.Name())
	}

	pin.Set(core.High)
	if raw.Read() != pgpio.High {
		t.Errorf("Expected pin high after Set(High)")
	}
	pin.Set(core.Low)
	if raw.Read() != pgpio.Low {
		t.Errorf("Expected pin low after Set(Low)")
	}
}

func TestOpenUnknownPin(t *testing.T) {
	useRegistry(t, nil)

	_, err := Open("GPIO99")
	if !errors.Is(err, ErrUnknownPin) {
		t.Errorf("Expected ErrUnknownPin, got %v", err)
	}
}

func TestOpenRejectsInputOnlyPin(t *testing.T) {
	useRegistry(t, map[string]pgpio.PinIO{
		"GPIO4": &failingPin{Pin: &gpiotest.Pin{N: "GPIO4", Num: 4}},
	})

	if _, err := Open("GPIO4"); err == nil {
		t.Errorf("Expected error configuring input-only pin")
	}
}

func TestSetFaultIsCountedAndLogged(t *testing.T) {
	var lines []string
	core.SetDebugWriter(func(msg string) { lines = append(lines, msg) })
	core.SetDebugEnabled(true)
	defer core.SetDebugEnabled(false)

	pin := &Pin{out: &failingPin{Pin: &gpiotest.Pin{N: "GPIO4"}}, name: "GPIO4"}
	pin.Set(core.High)
	pin.Set(core.Low)

	if pin.Faults() != 2 {
		t.Errorf("Expected 2 faults, got %d", pin.Faults())
	}
	if len(lines) != 2 || !strings.Contains(lines[0], "GPIO4") {
		t.Errorf("Expected fault logged with pin name, got %v", lines)
	}
}

func TestBind(t *testing.T) {
	ena := &gpiotest.Pin{N: "GPIO22"}
	dir := &gpiotest.Pin{N: "GPIO27"}
	pul := &gpiotest.Pin{N: "GPIO17"}
	useRegistry(t, map[string]pgpio.PinIO{"GPIO22": ena, "GPIO27": dir, "GPIO17": pul})

	cfg := config.PinsConfig{Enable: "GPIO22", Direction: "GPIO27", Pulse: "GPIO17"}
	binding, err := Bind(cfg)
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	drv := core.NewStepperDriver(binding, core.CommonGround, nil)
	if ena.Read() != pgpio.High {
		t.Errorf("Expected enable high (disabled) after driver init")
	}
	if dir.Read() != pgpio.High {
		t.Errorf("Expected direction high (clockwise) after driver init")
	}

	drv.SetEnabled(true)
	if ena.Read() != pgpio.Low {
		t.Errorf("Expected enable low after SetEnabled(true)")
	}

	cfg.Pulse = "GPIO5"
	if _, err := Bind(cfg); !errors.Is(err, ErrUnknownPin) {
		t.Errorf("Expected ErrUnknownPin for missing pulse pin, got %v", err)
	}
}
