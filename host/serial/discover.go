package serial

import (
	"errors"
	"fmt"
	"sort"

	bugst "go.bug.st/serial"
)

// ErrNoPort is returned when discovery finds no usable port
var ErrNoPort = errors.New("no serial port found")

// Hooks replaced in tests
var (
	listPorts = bugst.GetPortsList
	openPort  = Open
)

// Discover lists the serial ports present on this host in name order
func Discover() ([]string, error) {
	ports, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	sort.Strings(ports)
	return ports, nil
}

// OpenFirst opens cfg.Device, or when it is empty the first discovered
// port that opens successfully. The chosen device is stored in cfg.
func OpenFirst(cfg *Config) (Port, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Device != "" {
		return openPort(cfg)
	}

	ports, err := Discover()
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, name := range ports {
		try := *cfg
		try.Device = name
		port, err := openPort(&try)
		if err != nil {
			lastErr = err
			continue
		}
		cfg.Device = name
		return port, nil
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoPort, lastErr)
	}
	return nil, ErrNoPort
}
