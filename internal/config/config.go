// Package config loads the single gimbal configuration: defaults, a YAML
// file, environment overrides and validation.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/teslashibe/go-gimbal/pkg/camera"
	"github.com/teslashibe/go-gimbal/pkg/detection"
	"github.com/teslashibe/go-gimbal/pkg/servo"
	"github.com/teslashibe/go-gimbal/pkg/tracking"
)

// Environment overrides
const (
	EnvSerialPort = "GIMBAL_SERIAL_PORT"
	EnvLogLevel   = "GIMBAL_LOG_LEVEL"
	EnvWebPort    = "GIMBAL_WEB_PORT"
)

// DefaultPath is where the binaries look for the config file
const DefaultPath = "config/config.yaml"

// Config is the whole application configuration
type Config struct {
	Camera    camera.Config    `yaml:"camera"`
	Detection detection.Config `yaml:"detection"`
	PanTilt   servo.Config     `yaml:"pan_tilt"`
	Scan      ScanConfig       `yaml:"scan"`
	Tracking  TrackingConfig   `yaml:"tracking"`
	Kalman    KalmanConfig     `yaml:"kalman"`
	PID       PIDConfig        `yaml:"pid"`
	Web       WebConfig        `yaml:"web"`
	Log       LogConfig        `yaml:"log"`
}

// ScanConfig holds the scan sweep settings
type ScanConfig struct {
	PanSpeedDegPerSec float64 `yaml:"pan_speed_deg_per_sec"`
}

// TrackingConfig holds the lock hysteresis and dead zone
type TrackingConfig struct {
	LockFrames int     `yaml:"lock_frames"`
	LostFrames int     `yaml:"lost_frames"`
	DeadZone   float64 `yaml:"deadzone"`
}

// KalmanConfig holds the filter noise scalars
type KalmanConfig struct {
	ProcessNoise     float64 `yaml:"process_noise"`
	MeasurementNoise float64 `yaml:"measurement_noise"`
}

// PIDConfig holds the per-axis PD gains
type PIDConfig struct {
	Pan  tracking.Gains `yaml:"pan"`
	Tilt tracking.Gains `yaml:"tilt"`
}

// WebConfig controls the status dashboard
type WebConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// LogConfig controls logging
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ValidationError describes one invalid configuration field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Default returns the configuration used when no file is given
func Default() Config {
	tc := tracking.DefaultConfig()
	pt := servo.DefaultConfig()
	pt.MaxStepDeg = tc.MaxStep

	return Config{
		Camera:    camera.DefaultConfig(),
		Detection: detection.DefaultConfig(),
		PanTilt:   pt,
		Scan:      ScanConfig{PanSpeedDegPerSec: tc.ScanSpeed},
		Tracking: TrackingConfig{
			LockFrames: tc.LockFrames,
			LostFrames: tc.LostFrames,
			DeadZone:   tc.DeadZone,
		},
		Kalman: KalmanConfig{
			ProcessNoise:     tc.ProcessNoise,
			MeasurementNoise: tc.MeasurementNoise,
		},
		PID: PIDConfig{Pan: tc.Pan, Tilt: tc.Tilt},
		Web: WebConfig{Enabled: false, Port: 8181},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path on top of the defaults and applies environment overrides.
// Keys missing from the file keep their default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of the defaults and applies environment overrides.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv applies the GIMBAL_* environment overrides
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvSerialPort); v != "" {
		c.PanTilt.SerialPort = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvWebPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid port %q: %w", EnvWebPort, v, err)
		}
		c.Web.Port = port
		c.Web.Enabled = true
	}
	return nil
}

// Validate checks every section and returns all problems joined into one error
func (c *Config) Validate() error {
	var errs []error
	add := func(field string, messages []string) {
		for _, m := range messages {
			errs = append(errs, &ValidationError{Field: field, Message: m})
		}
	}

	add("camera", c.Camera.Validate())

	if err := detection.CheckBackend(c.Detection.Backend); err != nil {
		errs = append(errs, &ValidationError{Field: "detection.backend", Message: err.Error()})
	}
	add("detection", c.Detection.Validate())

	add("pan_tilt", c.PanTilt.Validate())

	tc := c.TrackingConfig()
	add("tracking", tc.Validate())

	if c.Web.Enabled && (c.Web.Port < 1 || c.Web.Port > 65535) {
		errs = append(errs, &ValidationError{Field: "web.port", Message: "must be between 1 and 65535"})
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, &ValidationError{Field: "log.format", Message: "must be text or json"})
	}

	return errors.Join(errs...)
}

// TrackingConfig maps the file layout onto the control core configuration.
// The scan sweep covers the full pan range.
func (c *Config) TrackingConfig() tracking.Config {
	return tracking.Config{
		LockFrames:       c.Tracking.LockFrames,
		LostFrames:       c.Tracking.LostFrames,
		ProcessNoise:     c.Kalman.ProcessNoise,
		MeasurementNoise: c.Kalman.MeasurementNoise,
		Pan:              c.PID.Pan,
		Tilt:             c.PID.Tilt,
		DeadZone:         c.Tracking.DeadZone,
		MaxStep:          c.PanTilt.MaxStepDeg,
		ScanSpeed:        c.Scan.PanSpeedDegPerSec,
		PanMin:           c.PanTilt.PanMin,
		PanMax:           c.PanTilt.PanMax,
	}
}

// ApplyTrackingPreset replaces the control parameters with a tracking preset.
// The pan range stays with pan_tilt.
func (c *Config) ApplyTrackingPreset(name string) error {
	tc, ok := tracking.GetPreset(name)
	if !ok {
		return fmt.Errorf("unknown tracking preset %q (available: %s)", name, strings.Join(tracking.PresetNames(), ", "))
	}

	c.Tracking = TrackingConfig{LockFrames: tc.LockFrames, LostFrames: tc.LostFrames, DeadZone: tc.DeadZone}
	c.Kalman = KalmanConfig{ProcessNoise: tc.ProcessNoise, MeasurementNoise: tc.MeasurementNoise}
	c.PID = PIDConfig{Pan: tc.Pan, Tilt: tc.Tilt}
	c.Scan.PanSpeedDegPerSec = tc.ScanSpeed
	c.PanTilt.MaxStepDeg = tc.MaxStep
	return nil
}

// ApplyCameraPreset replaces resolution, frame rate and field of view with a
// camera preset. The source device, file and warm-up stay as configured.
func (c *Config) ApplyCameraPreset(name string) error {
	p := camera.GetPreset(name)
	if p == nil {
		return fmt.Errorf("unknown camera preset %q (available: %s)", name, strings.Join(camera.PresetNames(), ", "))
	}

	c.Camera.Width = p.Width
	c.Camera.Height = p.Height
	c.Camera.Framerate = p.Framerate
	c.Camera.FOVHorizontalDeg = p.FOVHorizontalDeg
	c.Camera.FOVVerticalDeg = p.FOVVerticalDeg
	return nil
}

// Summary returns key/value pairs describing the configuration for the
// startup log line
func (c *Config) Summary() []any {
	return []any{
		"resolution", fmt.Sprintf("%dx%d", c.Camera.Width, c.Camera.Height),
		"detector", c.Detection.Backend,
		"model", c.Detection.ModelPath,
		"actuator", c.PanTilt.Backend,
		"pan_range", fmt.Sprintf("%.0f-%.0f", c.PanTilt.PanMin, c.PanTilt.PanMax),
		"tilt_range", fmt.Sprintf("%.0f-%.0f", c.PanTilt.TiltMin, c.PanTilt.TiltMax),
		"lock_frames", c.Tracking.LockFrames,
		"lost_frames", c.Tracking.LostFrames,
		"web", c.Web.Enabled,
	}
}
