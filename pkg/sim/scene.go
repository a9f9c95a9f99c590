// Package sim provides a synthetic scene for running the control loop
// without hardware: a target moving in pan/tilt space, a camera that
// produces timed empty frames and a detector that projects the target into
// the frame using the current gimbal pose.
package sim

import (
	"context"
	"image"
	"math/rand"
	"sync"
	"time"

	"github.com/teslashibe/go-gimbal/pkg/camera"
	"github.com/teslashibe/go-gimbal/pkg/detection"
	"github.com/teslashibe/go-gimbal/pkg/servo"
)

// PoseSource reports where the gimbal currently points
type PoseSource interface {
	Pose() servo.Pose
}

// Config describes the simulated target and sensor
type Config struct {
	// Target motion (degrees, degrees per second)
	StartPan, StartTilt float64
	VelPan, VelTilt     float64
	Bounds              servo.Limits // The target bounces inside these

	// Visibility window (seconds of scene time, DisappearAt 0 = never)
	AppearAt    float64
	DisappearAt float64

	// Sensor
	BoxSize     int     // Bounding box side (pixels)
	NoisePx     float64 // Gaussian noise on the box position (pixels)
	DropoutRate float64 // Probability of a missed detection
	Confidence  float64

	// Realtime paces frames to the wall clock instead of running flat out
	Realtime bool
	Seed     int64
}

// DefaultConfig returns a target crossing the sky slowly
func DefaultConfig() Config {
	return Config{
		StartPan:    150,
		StartTilt:   100,
		VelPan:      10,
		VelTilt:     4,
		Bounds:      servo.Limits{PanMin: 70, PanMax: 200, TiltMin: 60, TiltMax: 120},
		BoxSize:     24,
		NoisePx:     1.0,
		DropoutRate: 0,
		Confidence:  0.8,
		Seed:        1,
	}
}

// Scene owns the simulated world and the scene clock
type Scene struct {
	mu sync.Mutex

	cfg   Config
	proj  Projection
	pose  PoseSource
	rng   *rand.Rand
	start time.Time
	dt    time.Duration

	elapsed     float64 // Scene time (seconds)
	pan, tilt   float64 // Target position (degrees)
	vPan, vTilt float64
	clock       camera.Clock
	frames      uint64
}

// NewScene creates a scene viewed through cam, running at cam.Framerate
func NewScene(cfg Config, cam camera.Config, pose PoseSource) *Scene {
	fps := cam.Framerate
	if fps <= 0 {
		fps = 30
	}
	return &Scene{
		cfg:   cfg,
		proj:  NewProjection(cam),
		pose:  pose,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		start: time.Now(),
		dt:    time.Second / time.Duration(fps),
		pan:   cfg.StartPan,
		tilt:  cfg.StartTilt,
		vPan:  cfg.VelPan,
		vTilt: cfg.VelTilt,
	}
}

// Camera returns the scene's frame source
func (s *Scene) Camera() *Camera {
	return &Camera{scene: s}
}

// Detector returns the scene's detector, throttled like a real one
func (s *Scene) Detector(interval time.Duration) *Detector {
	return &Detector{scene: s, throttle: detection.NewThrottle(interval)}
}

// Target returns the current target angles
func (s *Scene) Target() (float64, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pan, s.tilt
}

// Visible reports whether the target is currently in the scene
func (s *Scene) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible()
}

// Projection returns the camera model
func (s *Scene) Projection() Projection {
	return s.proj
}

// advance moves the scene clock one frame forward
func (s *Scene) advance() camera.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frames > 0 {
		step := s.dt.Seconds()
		s.elapsed += step
		s.pan, s.vPan = bounce(s.pan+s.vPan*step, s.vPan, s.cfg.Bounds.PanMin, s.cfg.Bounds.PanMax)
		s.tilt, s.vTilt = bounce(s.tilt+s.vTilt*step, s.vTilt, s.cfg.Bounds.TiltMin, s.cfg.Bounds.TiltMax)
	}
	s.frames++

	ts := s.start.Add(time.Duration(s.elapsed * float64(time.Second)))
	index, dt := s.clock.Tick(ts)

	return camera.Frame{
		Timestamp: ts,
		DT:        dt,
		Index:     index,
		Size:      image.Pt(s.proj.Width, s.proj.Height),
	}
}

// observe produces the detections for the current pose
func (s *Scene) observe() []detection.Detection {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.visible() {
		return nil
	}
	if s.cfg.DropoutRate > 0 && s.rng.Float64() < s.cfg.DropoutRate {
		return nil
	}

	x, y := s.proj.WorldToFrame(s.pan, s.tilt, s.pose.Pose())
	x += s.rng.NormFloat64() * s.cfg.NoisePx
	y += s.rng.NormFloat64() * s.cfg.NoisePx
	if !s.proj.InFrame(x, y) {
		return nil
	}

	half := s.cfg.BoxSize / 2
	cx, cy := int(x), int(y)
	return []detection.Detection{{
		X1:         cx - half,
		Y1:         cy - half,
		X2:         cx + half,
		Y2:         cy + half,
		Confidence: s.cfg.Confidence,
	}}
}

func (s *Scene) visible() bool {
	if s.elapsed < s.cfg.AppearAt {
		return false
	}
	if s.cfg.DisappearAt > 0 && s.elapsed >= s.cfg.DisappearAt {
		return false
	}
	return true
}

// bounce reflects a coordinate that left [min, max]
func bounce(v, vel, min, max float64) (float64, float64) {
	if min >= max {
		return v, vel
	}
	if v > max {
		return max - (v - max), -vel
	}
	if v < min {
		return min + (min - v), -vel
	}
	return v, vel
}

// Camera produces frames on the scene clock
type Camera struct {
	scene *Scene

	mu     sync.Mutex
	closed bool
}

// Read advances the scene by one frame. In realtime mode it waits one frame
// period first.
func (c *Camera) Read(ctx context.Context) (camera.Frame, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return camera.Frame{}, camera.ErrClosed
	}

	if c.scene.cfg.Realtime {
		select {
		case <-time.After(c.scene.dt):
		case <-ctx.Done():
			return camera.Frame{}, ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return camera.Frame{}, err
	}

	return c.scene.advance(), nil
}

// Center returns the frame center
func (c *Camera) Center() image.Point {
	return c.scene.proj.Center()
}

// Resolution returns the frame size
func (c *Camera) Resolution() image.Point {
	return image.Pt(c.scene.proj.Width, c.scene.proj.Height)
}

// Close stops the camera. Safe to call more than once.
func (c *Camera) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

// Detector reports the projected target
type Detector struct {
	scene    *Scene
	throttle *detection.Throttle
}

// Detect returns the target box for the current pose, or the cached result
// inside the inference interval
func (d *Detector) Detect(frame camera.Frame) ([]detection.Detection, error) {
	return d.throttle.Do(frame.Timestamp, func() ([]detection.Detection, error) {
		return d.scene.observe(), nil
	})
}

// Close is a no-op
func (d *Detector) Close() error {
	return nil
}
