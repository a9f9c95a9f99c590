package tracking

import (
	"image"
	"log/slog"

	"github.com/teslashibe/go-gimbal/internal/log"
	"github.com/teslashibe/go-gimbal/pkg/detection"
)

// Mode represents the current mode of the gimbal
type Mode int

const (
	ModeScan Mode = iota
	ModeTrack
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case ModeScan:
		return "SCAN"
	case ModeTrack:
		return "TRACK"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the mode by name
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Cycle describes what one controller step did
type Cycle struct {
	Previous Mode         `json:"previous"`
	Mode     Mode         `json:"mode"`
	Locked   bool         `json:"locked"`
	Target   *image.Point `json:"target,omitempty"`
	Command  Command      `json:"command"`
}

// Transitioned reports whether the step switched modes
func (c Cycle) Transitioned() bool {
	return c.Previous != c.Mode
}

// snapshot holds all persistent control state for rollback
type snapshot struct {
	mode      Mode
	lock      LockState
	kalman    KalmanState
	panError  float64
	tiltError float64
	direction int
}

// Controller is the SCAN/TRACK state machine. It owns the target lock, the
// scan sweep and the tracking loop, and resets the tracking loop on every
// transition.
type Controller struct {
	lock *TargetLock
	scan *ScanSweep
	loop *TrackingLoop

	mode Mode
	log  *slog.Logger
}

// NewController wires the control core around an actuator.
// frameCenter is the pixel center used to normalize target errors.
func NewController(cfg Config, actuator Actuator, frameCenter image.Point) *Controller {
	return &Controller{
		lock: NewTargetLock(cfg.LockFrames, cfg.LostFrames),
		scan: NewScanSweep(actuator, cfg.PanMin, cfg.PanMax, cfg.ScanSpeed),
		loop: NewTrackingLoop(cfg, actuator, frameCenter),
		mode: ModeScan,
		log:  log.Component("controller"),
	}
}

// Step runs one control cycle: lock update, transition check, then the
// scan sweep or the tracking loop. If actuation fails every piece of control
// state is rolled back to what it was before the step.
func (c *Controller) Step(dets []detection.Detection, dt float64) (Cycle, error) {
	before := c.snapshot()

	target, locked := c.lock.Update(dets)

	cycle := Cycle{Previous: c.mode, Locked: locked, Target: target}

	switch {
	case c.mode == ModeScan && locked:
		c.loop.Reset()
		c.mode = ModeTrack
	case c.mode == ModeTrack && !locked:
		c.loop.Reset()
		c.mode = ModeScan
	}
	cycle.Mode = c.mode

	var err error
	switch c.mode {
	case ModeScan:
		cycle.Command.PanDelta, err = c.scan.Update(dt)
	case ModeTrack:
		cycle.Command, err = c.loop.Update(target, dt)
	}
	if err != nil {
		c.restore(before)
		return Cycle{Previous: before.mode, Mode: before.mode, Locked: before.lock.Locked}, err
	}

	if cycle.Transitioned() {
		c.log.Info("mode transition", "from", cycle.Previous, "to", cycle.Mode)
	}
	return cycle, nil
}

// Mode returns the current mode
func (c *Controller) Mode() Mode {
	return c.mode
}

// LockState returns a copy of the target lock state
func (c *Controller) LockState() LockState {
	return c.lock.State()
}

// Loop returns the tracking loop
func (c *Controller) Loop() *TrackingLoop {
	return c.loop
}

// Scan returns the scan sweep
func (c *Controller) Scan() *ScanSweep {
	return c.scan
}

// Reset returns to SCAN with a cleared lock and tracking state
func (c *Controller) Reset() {
	c.lock.Reset()
	c.loop.Reset()
	c.mode = ModeScan
}

func (c *Controller) snapshot() snapshot {
	return snapshot{
		mode:      c.mode,
		lock:      c.lock.State(),
		kalman:    c.loop.kalman.Snapshot(),
		panError:  c.loop.pan.lastError,
		tiltError: c.loop.tilt.lastError,
		direction: c.scan.direction,
	}
}

func (c *Controller) restore(s snapshot) {
	c.mode = s.mode
	c.lock.Restore(s.lock)
	c.loop.kalman.Restore(s.kalman)
	c.loop.pan.lastError = s.panError
	c.loop.tilt.lastError = s.tiltError
	c.scan.direction = s.direction
}
