package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"winder/core"
	"winder/protocol"
)

const testYaml = `
pins:
  enable: GPIO17
  direction: GPIO27
  pulse: GPIO22
steps_per_revolution: 400
serial:
  device: /dev/ttyUSB0
receive:
  pacing: 2ms
  overflow: discard
tick_period: 500us
`

func TestLoad(t *testing.T) {
	Convey("loading a winder config", t, func() {
		cfg, err := Load([]byte(testYaml))
		So(err, ShouldBeNil)

		Convey("explicit values are kept", func() {
			So(cfg.Pins.Enable, ShouldEqual, "GPIO17")
			So(cfg.Pins.Pulse, ShouldEqual, "GPIO22")
			So(cfg.StepsPerRevolution, ShouldEqual, 400)
			So(cfg.Serial.Device, ShouldEqual, "/dev/ttyUSB0")
			So(cfg.Receive.Pacing, ShouldEqual, 2*time.Millisecond)
			So(cfg.TickPeriod, ShouldEqual, 500*time.Microsecond)
		})

		Convey("missing values get defaults", func() {
			So(cfg.Serial.Baud, ShouldEqual, 38400)
			So(cfg.Serial.ReadTimeout, ShouldEqual, 100*time.Millisecond)
			So(cfg.Receive.Capacity, ShouldEqual, protocol.ReceiveBufferSize)
		})

		Convey("wiring defaults to common ground", func() {
			So(cfg.Polarity(), ShouldResemble, core.CommonGround)
		})

		Convey("the line buffer config carries the overflow policy", func() {
			lb := cfg.LineBuffer()
			So(lb.Overflow, ShouldEqual, protocol.OverflowDiscard)
			So(lb.Capacity, ShouldEqual, 32)
		})
	})

	Convey("alternate wiring", t, func() {
		cfg, err := Load([]byte(testYaml + `
debug: true
`))
		So(err, ShouldBeNil)
		So(cfg.Debug, ShouldBeTrue)

		cfg, err = Load([]byte(`
pins: {enable: a, direction: b, pulse: c, enabled_level: high, clockwise_level: low}
`))
		So(err, ShouldBeNil)
		So(cfg.Polarity(), ShouldResemble, core.Polarity{EnabledLevel: core.High, ClockwiseLevel: core.Low})
	})
}

func TestLoadErrors(t *testing.T) {
	Convey("invalid configs are rejected", t, func() {
		Convey("missing pins", func() {
			_, err := Load([]byte("steps_per_revolution: 200\n"))
			So(err, ShouldEqual, ErrMissingPin)
		})

		Convey("negative steps per revolution", func() {
			_, err := Load([]byte(`
pins: {enable: a, direction: b, pulse: c}
steps_per_revolution: -1
`))
			So(err, ShouldEqual, ErrStepsPerRevolution)
		})

		Convey("unknown overflow policy", func() {
			_, err := Load([]byte(`
pins: {enable: a, direction: b, pulse: c}
receive: {overflow: overwrite}
`))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "overwrite")
		})

		Convey("bad level name", func() {
			_, err := Load([]byte(`
pins: {enable: a, direction: b, pulse: c, enabled_level: sideways}
`))
			So(err, ShouldNotBeNil)
		})

		Convey("malformed yaml", func() {
			_, err := Load([]byte("pins: [unterminated"))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestEnvironmentOverrides(t *testing.T) {
	Convey("environment variables override the file", t, func() {
		os.Setenv("WINDER_DEVICE", "/dev/ttyACM1")
		os.Setenv("WINDER_ENABLED_LEVEL", "high")
		os.Setenv("WINDER_DEBUG", "true")
		defer func() {
			os.Unsetenv("WINDER_DEVICE")
			os.Unsetenv("WINDER_ENABLED_LEVEL")
			os.Unsetenv("WINDER_DEBUG")
		}()

		cfg, err := Load([]byte(testYaml))
		So(err, ShouldBeNil)
		So(cfg.Serial.Device, ShouldEqual, "/dev/ttyACM1")
		So(cfg.Pins.EnabledLevel, ShouldEqual, Level(core.High))
		So(cfg.Debug, ShouldBeTrue)
		So(cfg.Pins.Enable, ShouldEqual, "GPIO17")
	})
}

func TestLoadFile(t *testing.T) {
	Convey("configs round trip through a file", t, func() {
		cfg, err := Load([]byte(testYaml))
		So(err, ShouldBeNil)

		data, err := cfg.Marshal()
		So(err, ShouldBeNil)

		path := filepath.Join(t.TempDir(), "winder.yaml")
		So(os.WriteFile(path, data, 0644), ShouldBeNil)

		loaded, err := LoadFile(path)
		So(err, ShouldBeNil)
		So(loaded, ShouldResemble, cfg)

		_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
		So(err, ShouldNotBeNil)
	})
}
