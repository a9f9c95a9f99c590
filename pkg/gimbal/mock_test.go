package gimbal

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"github.com/teslashibe/go-gimbal/pkg/camera"
	"github.com/teslashibe/go-gimbal/pkg/detection"
	"github.com/teslashibe/go-gimbal/pkg/servo"
	"github.com/teslashibe/go-gimbal/pkg/tracking"
)

var (
	errCapture = errors.New("capture failed")
	errDetect  = errors.New("inference failed")
	errServo   = errors.New("servo bus error")
)

var epoch = time.Unix(1700000000, 0)

// fakeCamera serves numbered frames 100ms apart and cancels the run after
// stopAfter reads
type fakeCamera struct {
	mu        sync.Mutex
	reads     int
	closes    int
	errAt     map[int]error
	stopAfter int
	cancel    context.CancelFunc
}

func (c *fakeCamera) Read(ctx context.Context) (camera.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.reads++
	n := c.reads
	if c.stopAfter > 0 && n > c.stopAfter {
		c.cancel()
		return camera.Frame{}, ctx.Err()
	}
	if err := c.errAt[n]; err != nil {
		return camera.Frame{}, err
	}

	dt := 0.1
	if n == 1 {
		dt = 0
	}
	return camera.Frame{
		Timestamp: epoch.Add(time.Duration(n) * 100 * time.Millisecond),
		DT:        dt,
		Index:     uint64(n),
		Size:      image.Pt(640, 480),
	}, nil
}

func (c *fakeCamera) Center() image.Point {
	return image.Pt(320, 240)
}

func (c *fakeCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	return nil
}

func (c *fakeCamera) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

// fakeDetector returns scripted detections per call (1-based)
type fakeDetector struct {
	mu      sync.Mutex
	calls   int
	closes  int
	script  func(call int) ([]detection.Detection, error)
	panicAt int
}

func (d *fakeDetector) Detect(frame camera.Frame) ([]detection.Detection, error) {
	d.mu.Lock()
	d.calls++
	n := d.calls
	d.mu.Unlock()

	if d.panicAt == n {
		panic("tensor shape mismatch")
	}
	if d.script == nil {
		return nil, nil
	}
	return d.script(n)
}

func (d *fakeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closes++
	return nil
}

func (d *fakeDetector) closeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closes
}

// fakeActuator is a clamped pose that can be made to fail
type fakeActuator struct {
	mu        sync.Mutex
	pose      servo.Pose
	fail      bool
	shutdowns int
}

func newFakeActuator() *fakeActuator {
	return &fakeActuator{pose: servo.Pose{Pan: 135, Tilt: 90}}
}

func (a *fakeActuator) ApplyDelta(panDelta, tiltDelta float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail {
		return errServo
	}
	limits := servo.Limits{PanMin: 45, PanMax: 225, TiltMin: 45, TiltMax: 135}
	a.pose = limits.Clamp(a.pose.Add(panDelta, tiltDelta))
	return nil
}

func (a *fakeActuator) Pan() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pose.Pan
}

func (a *fakeActuator) Tilt() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pose.Tilt
}

func (a *fakeActuator) Pose() servo.Pose {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pose
}

func (a *fakeActuator) Shutdown() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.shutdowns++
	return nil
}

func (a *fakeActuator) shutdownCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.shutdowns
}

// statusRecorder collects published statuses
type statusRecorder struct {
	mu       sync.Mutex
	statuses []Status
}

func (r *statusRecorder) PublishStatus(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
}

func (r *statusRecorder) all() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Status(nil), r.statuses...)
}

// observerFunc adapts a function to FrameObserver
type observerFunc func(camera.Frame, []detection.Detection, tracking.Cycle) bool

func (f observerFunc) Observe(frame camera.Frame, dets []detection.Detection, cycle tracking.Cycle) bool {
	return f(frame, dets, cycle)
}

func target() []detection.Detection {
	return []detection.Detection{{X1: 380, Y1: 200, X2: 420, Y2: 240, Confidence: 0.9}}
}

func always(dets []detection.Detection) func(int) ([]detection.Detection, error) {
	return func(int) ([]detection.Detection, error) { return dets, nil }
}
