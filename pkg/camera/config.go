// Package camera provides the frame source for the control loop: camera
// settings and presets, the frame clock and a gocv VideoCapture camera.
package camera

import (
	"errors"
	"image"
	"time"
)

var (
	// ErrClosed is returned when reading from a closed camera
	ErrClosed = errors.New("camera closed")

	// ErrEmptyFrame is returned when the device delivers no image
	ErrEmptyFrame = errors.New("empty frame")
)

// Config holds all camera configuration parameters.
type Config struct {
	// === Resolution ===
	Width     int `yaml:"resolution_width" json:"width"`   // Frame width in pixels
	Height    int `yaml:"resolution_height" json:"height"` // Frame height in pixels
	Framerate int `yaml:"framerate" json:"framerate"`      // Target FPS

	// === Source ===
	// Device is the V4L2 index; File (a video path or stream URL) wins when set.
	Device int    `yaml:"device" json:"device"`
	File   string `yaml:"file" json:"file"`

	// Warmup is the sensor settle time after opening (seconds)
	Warmup float64 `yaml:"warmup" json:"warmup"`

	// === Optics ===
	// Field of view, used by the simulator to project angles into pixels.
	FOVHorizontalDeg float64 `yaml:"fov_horizontal_deg" json:"fov_horizontal_deg"`
	FOVVerticalDeg   float64 `yaml:"fov_vertical_deg" json:"fov_vertical_deg"`
}

// Sensor capabilities
const (
	MaxWidth     = 4608
	MaxHeight    = 2592
	MaxFramerate = 120
)

// DefaultConfig returns the recommended configuration.
// 640x480 keeps YOLO inference fast on a Pi-class CPU.
func DefaultConfig() Config {
	return Config{
		Width:     640,
		Height:    480,
		Framerate: 30,

		Device: 0,
		Warmup: 2.0,

		// Raspberry Pi camera v2
		FOVHorizontalDeg: 62.2,
		FOVVerticalDeg:   48.8,
	}
}

// Center returns the frame center in pixels (integer halves)
func (c Config) Center() image.Point {
	return image.Pt(c.Width/2, c.Height/2)
}

// WarmupDuration returns Warmup as a duration
func (c Config) WarmupDuration() time.Duration {
	return time.Duration(c.Warmup * float64(time.Second))
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Width < 2 || c.Width > MaxWidth {
		errors = append(errors, "resolution_width must be between 2 and 4608")
	}
	if c.Height < 2 || c.Height > MaxHeight {
		errors = append(errors, "resolution_height must be between 2 and 2592")
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, "framerate must be between 1 and 120")
	}
	if c.Device < 0 {
		errors = append(errors, "device must be non-negative")
	}
	if c.Warmup < 0 {
		errors = append(errors, "warmup must be non-negative")
	}
	if c.FOVHorizontalDeg <= 0 || c.FOVHorizontalDeg >= 180 {
		errors = append(errors, "fov_horizontal_deg must be between 0 and 180")
	}
	if c.FOVVerticalDeg <= 0 || c.FOVVerticalDeg >= 180 {
		errors = append(errors, "fov_vertical_deg must be between 0 and 180")
	}

	return errors
}
