// Package gimbal runs the pan/tilt control loop: it wires a camera, a
// detector and an actuator around the tracking controller, applies the
// recoverable-vs-fatal error policy and guarantees a clean shutdown.
package gimbal

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-gimbal/internal/log"
	"github.com/teslashibe/go-gimbal/pkg/camera"
	"github.com/teslashibe/go-gimbal/pkg/debug"
	"github.com/teslashibe/go-gimbal/pkg/detection"
	"github.com/teslashibe/go-gimbal/pkg/servo"
	"github.com/teslashibe/go-gimbal/pkg/tracking"
)

// Camera is the frame source
type Camera interface {
	Read(ctx context.Context) (camera.Frame, error)
	Center() image.Point
	Close() error
}

// Detector finds objects in a frame
type Detector interface {
	Detect(frame camera.Frame) ([]detection.Detection, error)
	Close() error
}

// Actuator drives the gimbal
type Actuator interface {
	tracking.Actuator
	Pose() servo.Pose
	Shutdown() error
}

// StatusSink receives the status after every cycle
type StatusSink interface {
	PublishStatus(Status)
}

// FrameObserver sees every processed frame, e.g. for a preview window.
// Returning false stops the loop.
type FrameObserver interface {
	Observe(frame camera.Frame, dets []detection.Detection, cycle tracking.Cycle) bool
}

// Pipeline stages that may fail without ending the loop
const (
	StageCapture = "capture"
	StageDetect  = "detect"
	StageActuate = "actuate"
)

// App owns every component of one gimbal and runs the control loop.
// Control state is only mutated by the goroutine running Run.
type App struct {
	camera     Camera
	detector   Detector
	actuator   Actuator
	controller *tracking.Controller

	sink     StatusSink
	observer FrameObserver

	tuning      chan TuningParams
	warnings    *warnLimiter
	sessionID   string
	sessionFrom time.Time

	mu      sync.RWMutex
	status  Status
	current TuningParams

	shutdownOnce sync.Once
	shutdownErr  error

	log *slog.Logger
}

// New wires already constructed components into an App
func New(cfg tracking.Config, cam Camera, det Detector, act Actuator) *App {
	a := &App{
		camera:     cam,
		detector:   det,
		actuator:   act,
		controller: tracking.NewController(cfg, act, cam.Center()),
		tuning:     make(chan TuningParams, 1),
		warnings:   newWarnLimiter(5*time.Second, time.Now),
		current:    tuningFromConfig(cfg),
		log:        log.Component("gimbal"),
	}
	a.status = a.snapshotStatus()
	return a
}

// SetStatusSink registers where status updates go
func (a *App) SetStatusSink(sink StatusSink) {
	a.sink = sink
}

// SetFrameObserver registers a per-frame observer
func (a *App) SetFrameObserver(o FrameObserver) {
	a.observer = o
}

// Controller returns the tracking controller
func (a *App) Controller() *tracking.Controller {
	return a.controller
}

// Run executes control cycles until ctx is cancelled, the frame observer asks
// to stop, or a cycle panics. Shutdown always runs before Run returns.
func (a *App) Run(ctx context.Context) (err error) {
	defer func() {
		if shutdownErr := a.Shutdown(); shutdownErr != nil {
			a.log.Error("shutdown failed", "error", shutdownErr)
		}
	}()

	a.log.Info("control loop started", "mode", a.controller.Mode(), "pose", a.actuator.Pose().String())

	for {
		select {
		case <-ctx.Done():
			a.log.Info("control loop stopping", "reason", ctx.Err())
			return nil
		default:
		}

		a.applyTuning()

		stop, err := a.step(ctx)
		if err != nil {
			a.log.Error("control loop aborted", "error", err)
			return err
		}
		if stop {
			a.log.Info("control loop stopped by observer")
			return nil
		}
	}
}

// step runs one cycle. Recoverable failures are logged and skipped; only a
// panic is returned as an error.
func (a *App) step(ctx context.Context) (stop bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("control cycle panicked: %v", r)
		}
	}()

	frame, err := a.camera.Read(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false, nil
		}
		a.skip(StageCapture, err)
		return false, nil
	}
	defer frame.Close()

	dets, err := a.detector.Detect(frame)
	if err != nil {
		a.skip(StageDetect, err)
		return false, nil
	}

	cycle, err := a.controller.Step(dets, frame.DT)
	if err != nil {
		a.skip(StageActuate, err)
		return false, nil
	}

	a.trackSession(cycle, frame.Timestamp)

	debug.CycleLog("cycle",
		"frame", frame.Index,
		"dt", frame.DT,
		"detections", len(dets),
		"mode", cycle.Mode,
		"pan_delta", cycle.Command.PanDelta,
		"tilt_delta", cycle.Command.TiltDelta,
	)

	a.mu.Lock()
	a.status.Cycles++
	a.status.LastError = ""
	a.mu.Unlock()
	a.publish(cycle.Target)

	if a.observer != nil && !a.observer.Observe(frame, dets, cycle) {
		return true, nil
	}
	return false, nil
}

// skip records a failed cycle. Control state was not changed by it.
func (a *App) skip(stage string, err error) {
	a.mu.Lock()
	a.status.SkippedCycles++
	a.status.LastError = fmt.Sprintf("%s: %v", stage, err)
	a.mu.Unlock()

	if n, suppressed, ok := a.warnings.allow(stage); ok {
		a.log.Warn("cycle skipped", "stage", stage, "error", err, "failures", n, "suppressed", suppressed)
	}
	a.publish(nil)
}

// trackSession assigns a tracking-session id on every SCAN -> TRACK transition
func (a *App) trackSession(cycle tracking.Cycle, ts time.Time) {
	if !cycle.Transitioned() {
		return
	}

	switch cycle.Mode {
	case tracking.ModeTrack:
		a.sessionID = uuid.NewString()
		a.sessionFrom = ts
		a.log.Info("tracking session started", "session", a.sessionID, "pose", a.actuator.Pose().String())
	case tracking.ModeScan:
		a.log.Info("tracking session ended", "session", a.sessionID, "duration", ts.Sub(a.sessionFrom).Round(time.Millisecond))
		a.sessionID = ""
	}
}

// Shutdown releases the actuator, the camera and the detector.
// Only the first call does anything; later calls return the same result.
func (a *App) Shutdown() error {
	a.shutdownOnce.Do(func() {
		a.log.Info("shutting down")

		var errs []error
		if err := a.actuator.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("actuator: %w", err))
		}
		if err := a.camera.Close(); err != nil {
			errs = append(errs, fmt.Errorf("camera: %w", err))
		}
		if err := a.detector.Close(); err != nil {
			errs = append(errs, fmt.Errorf("detector: %w", err))
		}
		a.shutdownErr = errors.Join(errs...)
	})
	return a.shutdownErr
}
