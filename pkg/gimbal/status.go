package gimbal

import (
	"image"
	"time"

	"github.com/teslashibe/go-gimbal/pkg/tracking"
)

// Point is a pixel position
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Status is a snapshot of the control loop for dashboards
type Status struct {
	SessionID     string        `json:"session_id,omitempty"`
	Mode          tracking.Mode `json:"mode"`
	Locked        bool          `json:"locked"`
	LockCounter   int           `json:"lock_counter"`
	LostCounter   int           `json:"lost_counter"`
	Pan           float64       `json:"pan"`
	Tilt          float64       `json:"tilt"`
	Target        Point         `json:"target"`
	HasTarget     bool          `json:"has_target"`
	Cycles        uint64        `json:"cycles"`
	SkippedCycles uint64        `json:"skipped_cycles"`
	LastError     string        `json:"last_error,omitempty"`
	Time          time.Time     `json:"time"`
}

// Status returns the latest status
func (a *App) Status() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

// snapshotStatus builds the control part of the status from the components.
// Counters are carried over by the caller.
func (a *App) snapshotStatus() Status {
	lock := a.controller.LockState()
	pose := a.actuator.Pose()

	return Status{
		SessionID:   a.sessionID,
		Mode:        a.controller.Mode(),
		Locked:      lock.Locked,
		LockCounter: lock.LockCounter,
		LostCounter: lock.LostCounter,
		Pan:         pose.Pan,
		Tilt:        pose.Tilt,
		Time:        time.Now(),
	}
}

// publish refreshes the status and hands it to the sink
func (a *App) publish(target *image.Point) {
	s := a.snapshotStatus()

	a.mu.Lock()
	s.Cycles = a.status.Cycles
	s.SkippedCycles = a.status.SkippedCycles
	s.LastError = a.status.LastError
	if target != nil {
		s.Target = Point{X: target.X, Y: target.Y}
		s.HasTarget = true
	}
	a.status = s
	a.mu.Unlock()

	if a.sink != nil {
		a.sink.PublishStatus(s)
	}
}
