// Package servo provides the pan/tilt actuation sink: a clamped pose, the
// angle to pulse-width mapping and hardware drivers (Pololu Maestro over a
// serial port, or an in-memory simulation).
package servo

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/teslashibe/go-gimbal/internal/log"
)

// Actuator is the full actuation interface used by the application.
// The control core only needs ApplyDelta, Pan and Tilt.
type Actuator interface {
	ApplyDelta(panDelta, tiltDelta float64) error
	Pan() float64
	Tilt() float64
	Pose() Pose
	Center() error
	Shutdown() error
}

// Ensure Servo implements Actuator
var _ Actuator = (*Servo)(nil)

// Servo tracks the commanded pose and writes it through a Driver.
// The pose only changes when the driver accepts the write.
type Servo struct {
	mu       sync.Mutex
	driver   Driver
	limits   Limits
	pulses   PulseMap
	panCh    int
	tiltCh   int
	pose     Pose
	shutdown bool

	log *slog.Logger
}

// New creates the actuator selected by cfg.Backend and drives it to the
// home pose.
func New(cfg Config) (*Servo, error) {
	var driver Driver
	switch cfg.Backend {
	case BackendSim:
		driver = NewSimDriver()
	case BackendMaestro:
		m, err := OpenMaestro(cfg.SerialPort, PortOptions{BaudRate: cfg.BaudRate})
		if err != nil {
			return nil, err
		}
		driver = m
	default:
		return nil, CheckBackend(cfg.Backend)
	}

	s, err := NewWithDriver(cfg, driver)
	if err != nil {
		driver.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDriver creates a Servo on top of an existing driver and writes the
// home pose.
func NewWithDriver(cfg Config, driver Driver) (*Servo, error) {
	s := &Servo{
		driver: driver,
		limits: cfg.Limits(),
		pulses: cfg.PulseMap(),
		panCh:  cfg.PanChannel,
		tiltCh: cfg.TiltChannel,
		log:    log.Component("servo"),
	}

	home := s.limits.Clamp(cfg.Home())
	if err := s.write(home); err != nil {
		return nil, fmt.Errorf("drive to home pose: %w", err)
	}
	s.pose = home

	s.log.Info("servo initialized", "backend", cfg.Backend, "pose", home.String())
	return s, nil
}

// ApplyDelta adds the deltas to the current pose, clamps it to the limits and
// writes it. On error the pose is unchanged.
func (s *Servo) ApplyDelta(panDelta, tiltDelta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shutdown {
		return ErrNotConnected
	}

	next := s.limits.Clamp(s.pose.Add(panDelta, tiltDelta))
	if err := s.write(next); err != nil {
		return err
	}
	s.pose = next

	log.Debug("servo move", "pan", next.Pan, "tilt", next.Tilt)
	return nil
}

// Center drives both axes to the middle of their ranges
func (s *Servo) Center() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shutdown {
		return ErrNotConnected
	}

	center := s.limits.Center()
	if err := s.write(center); err != nil {
		return err
	}
	s.pose = center
	return nil
}

// Shutdown turns both pulse trains off and releases the driver.
// Safe to call more than once.
func (s *Servo) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shutdown {
		return nil
	}
	s.shutdown = true

	disarmErr := s.driver.SetTargets(Target{Channel: s.panCh}, Target{Channel: s.tiltCh})
	closeErr := s.driver.Close()

	s.log.Info("servo shutdown", "pose", s.pose.String())

	if disarmErr != nil {
		return fmt.Errorf("disarm: %w", disarmErr)
	}
	return closeErr
}

// Pan returns the commanded pan angle
func (s *Servo) Pan() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pose.Pan
}

// Tilt returns the commanded tilt angle
func (s *Servo) Tilt() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pose.Tilt
}

// Pose returns the commanded pose
func (s *Servo) Pose() Pose {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pose
}

// Limits returns the configured range
func (s *Servo) Limits() Limits {
	return s.limits
}

func (s *Servo) write(p Pose) error {
	return s.driver.SetTargets(
		Target{Channel: s.panCh, Value: s.pulses.QuarterUS(p.Pan)},
		Target{Channel: s.tiltCh, Value: s.pulses.QuarterUS(p.Tilt)},
	)
}
