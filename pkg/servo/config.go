package servo

import (
	"errors"
	"fmt"
)

// Actuation backends
const (
	BackendMaestro = "maestro" // Pololu Maestro over a serial port
	BackendSim     = "sim"     // No hardware, pose is tracked in memory
)

var (
	// ErrUnsupportedBackend is returned for an unknown pan_tilt.backend
	ErrUnsupportedBackend = errors.New("unsupported actuation backend")

	// ErrNotConnected is returned when commanding a servo after Shutdown
	ErrNotConnected = errors.New("servo not connected")
)

// Config holds actuation settings (the pan_tilt section)
type Config struct {
	Backend string `yaml:"backend" json:"backend"`

	PanMin   float64 `yaml:"pan_min" json:"pan_min"`
	PanMax   float64 `yaml:"pan_max" json:"pan_max"`
	PanHome  float64 `yaml:"pan_home" json:"pan_home"`
	TiltMin  float64 `yaml:"tilt_min" json:"tilt_min"`
	TiltMax  float64 `yaml:"tilt_max" json:"tilt_max"`
	TiltHome float64 `yaml:"tilt_home" json:"tilt_home"`

	MaxStepDeg float64 `yaml:"max_step_deg" json:"max_step_deg"` // Per-cycle delta bound

	// Maestro serial link
	SerialPort  string `yaml:"serial_port" json:"serial_port"`
	BaudRate    int    `yaml:"baud_rate" json:"baud_rate"`
	PanChannel  int    `yaml:"pan_channel" json:"pan_channel"`
	TiltChannel int    `yaml:"tilt_channel" json:"tilt_channel"`

	// Angle to pulse width calibration
	MinPulseUS float64 `yaml:"min_pulse_us" json:"min_pulse_us"`
	MaxPulseUS float64 `yaml:"max_pulse_us" json:"max_pulse_us"`
	TravelDeg  float64 `yaml:"travel_deg" json:"travel_deg"`
}

// DefaultConfig returns settings for a 270 degree hobby servo pair
func DefaultConfig() Config {
	return Config{
		Backend:     BackendSim,
		PanMin:      45,
		PanMax:      225,
		PanHome:     135,
		TiltMin:     45,
		TiltMax:     135,
		TiltHome:    90,
		MaxStepDeg:  5,
		SerialPort:  "/dev/ttyACM0",
		BaudRate:    9600,
		PanChannel:  0,
		TiltChannel: 1,
		MinPulseUS:  500,
		MaxPulseUS:  2500,
		TravelDeg:   270,
	}
}

// Limits returns the mechanical range
func (c Config) Limits() Limits {
	return Limits{PanMin: c.PanMin, PanMax: c.PanMax, TiltMin: c.TiltMin, TiltMax: c.TiltMax}
}

// Home returns the start pose
func (c Config) Home() Pose {
	return Pose{Pan: c.PanHome, Tilt: c.TiltHome}
}

// PulseMap returns the angle to pulse width mapping
func (c Config) PulseMap() PulseMap {
	return PulseMap{MinUS: c.MinPulseUS, MaxUS: c.MaxPulseUS, TravelDeg: c.TravelDeg}
}

// CheckBackend reports whether name is a known actuation backend
func CheckBackend(name string) error {
	switch name {
	case BackendMaestro, BackendSim:
		return nil
	default:
		return fmt.Errorf("%w: %q (expected %s or %s)", ErrUnsupportedBackend, name, BackendMaestro, BackendSim)
	}
}

// Validate checks the configuration and returns a list of problems
func (c Config) Validate() []string {
	var errs []string

	if err := CheckBackend(c.Backend); err != nil {
		errs = append(errs, err.Error())
	}
	if c.PanMin >= c.PanMax {
		errs = append(errs, "pan_min must be less than pan_max")
	}
	if c.TiltMin >= c.TiltMax {
		errs = append(errs, "tilt_min must be less than tilt_max")
	}
	if c.PanHome < c.PanMin || c.PanHome > c.PanMax {
		errs = append(errs, "pan_home must be within [pan_min, pan_max]")
	}
	if c.TiltHome < c.TiltMin || c.TiltHome > c.TiltMax {
		errs = append(errs, "tilt_home must be within [tilt_min, tilt_max]")
	}
	if c.MaxStepDeg <= 0 {
		errs = append(errs, "max_step_deg must be positive")
	}
	if c.TravelDeg <= 0 {
		errs = append(errs, "travel_deg must be positive")
	}
	if c.MinPulseUS <= 0 || c.MinPulseUS >= c.MaxPulseUS {
		errs = append(errs, "min_pulse_us must be positive and less than max_pulse_us")
	}
	if c.Backend == BackendMaestro {
		if c.SerialPort == "" {
			errs = append(errs, "serial_port is required for the maestro backend")
		}
		if c.PanChannel < 0 || c.PanChannel > 23 || c.TiltChannel < 0 || c.TiltChannel > 23 {
			errs = append(errs, "pan_channel and tilt_channel must be in 0-23")
		}
		if c.PanChannel == c.TiltChannel {
			errs = append(errs, "pan_channel and tilt_channel must differ")
		}
	}

	return errs
}
