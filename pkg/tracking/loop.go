package tracking

import (
	"image"
)

// Command is the servo delta issued by one cycle (degrees)
type Command struct {
	PanDelta  float64 `json:"pan_delta"`
	TiltDelta float64 `json:"tilt_delta"`
}

// TrackingLoop turns a target pixel position into a servo delta:
// normalize against the frame center, smooth with the Kalman filter,
// then run one PD controller per axis.
type TrackingLoop struct {
	kalman   *KalmanFilter
	pan      *PDController
	tilt     *PDController
	actuator Actuator

	cx, cy float64 // Frame center (pixels)
}

// NewTrackingLoop creates a tracking loop for a frame with the given center
func NewTrackingLoop(cfg Config, actuator Actuator, frameCenter image.Point) *TrackingLoop {
	return &TrackingLoop{
		kalman:   NewKalmanFilter(cfg.ProcessNoise, cfg.MeasurementNoise),
		pan:      NewPDController(cfg.Pan, cfg.DeadZone, cfg.MaxStep),
		tilt:     NewPDController(cfg.Tilt, cfg.DeadZone, cfg.MaxStep),
		actuator: actuator,
		cx:       float64(frameCenter.X),
		cy:       float64(frameCenter.Y),
	}
}

// NormalizedError returns the offset of target from the frame center divided
// by the half-frame size. Targets outside the frame give values beyond ±1.
func (t *TrackingLoop) NormalizedError(target image.Point) (float64, float64) {
	return (float64(target.X) - t.cx) / t.cx, (float64(target.Y) - t.cy) / t.cy
}

// Update runs one tracking cycle. A nil target holds the current pose and
// keeps filter and controller state as is.
func (t *TrackingLoop) Update(target *image.Point, dt float64) (Command, error) {
	if target == nil {
		return Command{}, nil
	}

	errX, errY := t.NormalizedError(*target)

	t.kalman.Predict(dt)
	fx, fy := t.kalman.Update(errX, errY)

	// Image rows grow downwards, tilt grows upwards
	cmd := Command{
		PanDelta:  t.pan.Compute(fx, dt),
		TiltDelta: t.tilt.Compute(-fy, dt),
	}

	if err := t.actuator.ApplyDelta(cmd.PanDelta, cmd.TiltDelta); err != nil {
		return Command{}, err
	}
	return cmd, nil
}

// Reset clears the Kalman filter and both PD controllers
func (t *TrackingLoop) Reset() {
	t.kalman.Reset()
	t.pan.Reset()
	t.tilt.Reset()
}

// Kalman returns the loop's filter
func (t *TrackingLoop) Kalman() *KalmanFilter {
	return t.kalman
}

// PanController returns the pan axis controller
func (t *TrackingLoop) PanController() *PDController {
	return t.pan
}

// TiltController returns the tilt axis controller
func (t *TrackingLoop) TiltController() *PDController {
	return t.tilt
}

// SetDeadZone updates the dead zone on both axes
func (t *TrackingLoop) SetDeadZone(deadZone float64) {
	t.pan.DeadZone = deadZone
	t.tilt.DeadZone = deadZone
}
