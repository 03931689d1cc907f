// winder-axis drives one winder axis from a Linux host: commands arrive
// on a serial port and the step/direction/enable outputs are GPIO pins.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"winder/bench"
	"winder/config"
	"winder/core"
	"winder/host/gpio"
	"winder/host/serial"
	"winder/protocol"
)

var (
	configPath   = flag.String("config", "winder.yaml", "Axis configuration file")
	device       = flag.String("device", "", "Serial device path (overrides config, empty: discover)")
	speed        = flag.Float64("speed", 1.0, "Target speed in revolutions per second (negative: counter-clockwise)")
	revolutions  = flag.Int64("revs", 10, "Revolutions to wind (0: run until interrupted)")
	stepsPerTick = flag.Int("steps", 1, "Steps emitted per control tick")
	listOnly     = flag.Bool("list", false, "List serial ports and exit")
	verbose      = flag.Bool("verbose", false, "Enable debug output")
)

func main() {
	flag.Parse()

	if *listOnly {
		ports, err := serial.Discover()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		return err
	}
	if *device != "" {
		cfg.Serial.Device = *device
	}

	core.SetDebugWriter(func(msg string) { log.Println(msg) })
	core.SetDebugEnabled(cfg.Debug || *verbose)

	// Outputs first so the driver is disabled before anything else happens
	pins, err := gpio.Bind(cfg.Pins)
	if err != nil {
		return err
	}
	clock := core.NewSystemClock()
	driver := core.NewStepperDriver(pins, cfg.Polarity(), clock)
	motor := core.NewStepperMotor(driver, cfg.StepsPerRevolution)

	portCfg := &serial.Config{
		Device:      cfg.Serial.Device,
		Baud:        cfg.Serial.Baud,
		ReadTimeout: cfg.Serial.ReadTimeout,
	}
	port, err := serial.OpenFirst(portCfg)
	if err != nil {
		return err
	}
	transport := serial.NewPortTransport(port, 0)
	defer transport.Close()
	log.Printf("listening on %s at %d baud", portCfg.Device, portCfg.Baud)

	rx := protocol.NewLineBuffer(transport, clock, cfg.LineBuffer())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := bench.New(*speed, *revolutions, *stepsPerTick, log.Printf)
	b.OnDone = stop

	loop := core.NewControlLoop(rx, motor, b, clock, cfg.TickPeriod)
	_ = loop.Run(ctx)

	if !b.Done() {
		log.Printf("interrupted, stopping motor")
		motor.Halt(bench.DefaultHaltTicks)
	}

	log.Printf("ticks=%d rx_dropped=%d rx_errors=%d overruns=%d",
		loop.Ticks(), rx.Dropped(), rx.ReadErrors(), transport.Overruns())
	if err := transport.Err(); err != nil {
		return fmt.Errorf("serial port: %w", err)
	}

	core.DumpTimingRing()
	return nil
}
