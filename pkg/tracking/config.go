// Package tracking implements the pan/tilt control core: target lock
// hysteresis, a constant-velocity Kalman filter over the normalized target
// error, per-axis PD controllers, the scan sweep and the SCAN/TRACK mode
// machine that ties them together.
package tracking

// Gains holds PD gains for one axis
type Gains struct {
	Kp float64 `yaml:"kp" json:"kp"` // Proportional gain (degrees per unit error)
	Kd float64 `yaml:"kd" json:"kd"` // Derivative gain (degrees per unit error per second)
}

// Config holds all tunable parameters for the control loop
type Config struct {
	// Target lock hysteresis
	LockFrames int // Consecutive detection cycles needed to lock
	LostFrames int // Empty cycles tolerated while locked

	// Kalman filter
	ProcessNoise     float64 // q, scalar on I4
	MeasurementNoise float64 // r, scalar on I2

	// PD Controller
	Pan      Gains
	Tilt     Gains
	DeadZone float64 // Don't move if |normalized error| < this
	MaxStep  float64 // Maximum delta per cycle (degrees)

	// Scan sweep
	ScanSpeed float64 // Degrees per second
	PanMin    float64 // Sweep lower bound (degrees)
	PanMax    float64 // Sweep upper bound (degrees)
}

// DefaultConfig returns the recommended configuration for a hobby servo gimbal
func DefaultConfig() Config {
	return Config{
		// Lock - 3 frames to lock, ~0.5s grace at 30fps
		LockFrames: 3,
		LostFrames: 15,

		// Kalman
		ProcessNoise:     0.01,
		MeasurementNoise: 0.1,

		// PD Controller
		Pan:      Gains{Kp: 20.0, Kd: 4.0},
		Tilt:     Gains{Kp: 20.0, Kd: 4.0},
		DeadZone: 0.03, // ~3% of half-frame
		MaxStep:  5.0,

		// Scan sweep
		ScanSpeed: 30.0,
		PanMin:    45.0,
		PanMax:    225.0,
	}
}

// SlowConfig returns a configuration for slower, smoother tracking
func SlowConfig() Config {
	cfg := DefaultConfig()
	cfg.Pan = Gains{Kp: 12.0, Kd: 5.0}
	cfg.Tilt = Gains{Kp: 12.0, Kd: 5.0}
	cfg.DeadZone = 0.05
	cfg.MaxStep = 3.0
	cfg.MeasurementNoise = 0.2 // Trust the filter more
	cfg.ScanSpeed = 20.0
	return cfg
}

// AggressiveConfig returns a configuration for very fast tracking
func AggressiveConfig() Config {
	cfg := DefaultConfig()
	cfg.LockFrames = 2
	cfg.Pan = Gains{Kp: 30.0, Kd: 3.0}
	cfg.Tilt = Gains{Kp: 30.0, Kd: 3.0}
	cfg.DeadZone = 0.02
	cfg.MaxStep = 8.0
	cfg.MeasurementNoise = 0.05 // Trust new readings more
	cfg.ScanSpeed = 45.0
	return cfg
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.LockFrames < 1 {
		errors = append(errors, "lock_frames must be at least 1")
	}
	if c.LostFrames < 0 {
		errors = append(errors, "lost_frames must not be negative")
	}
	if c.ProcessNoise < 0 {
		errors = append(errors, "process_noise must not be negative")
	}
	if c.MeasurementNoise <= 0 {
		errors = append(errors, "measurement_noise must be positive")
	}
	if c.DeadZone < 0 {
		errors = append(errors, "deadzone must not be negative")
	}
	if c.MaxStep <= 0 {
		errors = append(errors, "max_step_deg must be positive")
	}
	if c.ScanSpeed < 0 {
		errors = append(errors, "pan_speed_deg_per_sec must not be negative")
	}
	if c.PanMin >= c.PanMax {
		errors = append(errors, "pan_min must be below pan_max")
	}

	return errors
}

// presets maps preset names to configurations
var presets = map[string]func() Config{
	"default":    DefaultConfig,
	"slow":       SlowConfig,
	"aggressive": AggressiveConfig,
}

// PresetNames returns the available tracking presets
func PresetNames() []string {
	return []string{"default", "slow", "aggressive"}
}

// GetPreset returns a preset by name
func GetPreset(name string) (Config, bool) {
	fn, ok := presets[name]
	if !ok {
		return Config{}, false
	}
	return fn(), true
}
