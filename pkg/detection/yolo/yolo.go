// Package yolo runs YOLO ONNX models through the OpenCV DNN module.
package yolo

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-gimbal/internal/log"
	"github.com/teslashibe/go-gimbal/pkg/camera"
	"github.com/teslashibe/go-gimbal/pkg/debug"
	"github.com/teslashibe/go-gimbal/pkg/detection"
)

// Detector detects objects in camera frames with a YOLOv5 or YOLOv8 model.
// Inference is rate limited by the configured interval; frames in between
// get the previous result.
type Detector struct {
	net      gocv.Net
	cfg      detection.Config
	mu       sync.Mutex
	throttle *detection.Throttle

	log *slog.Logger
}

// New loads the model for the configured backend
func New(cfg detection.Config) (*Detector, error) {
	if err := detection.CheckBackend(cfg.Backend); err != nil {
		return nil, err
	}

	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model file not found: %s: %w", cfg.ModelPath, err)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load YOLO model from %s", cfg.ModelPath)
	}

	switch cfg.Backend {
	case detection.BackendCUDA:
		net.SetPreferableBackend(gocv.NetBackendCUDA)
		net.SetPreferableTarget(gocv.NetTargetCUDA)
	default:
		net.SetPreferableBackend(gocv.NetBackendDefault)
		net.SetPreferableTarget(gocv.NetTargetCPU)
	}

	d := &Detector{
		net:      net,
		cfg:      cfg,
		throttle: detection.NewThrottle(cfg.Interval()),
		log:      log.Component("yolo"),
	}
	d.log.Info("model loaded", "path", cfg.ModelPath, "format", cfg.ModelFormat, "backend", cfg.Backend)
	return d, nil
}

// Detect returns the detections for the frame, or the cached result when the
// inference interval has not elapsed since the frame timestamp of the last run.
func (d *Detector) Detect(frame camera.Frame) ([]detection.Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.throttle.Do(frame.Timestamp, func() ([]detection.Detection, error) {
		if frame.Image == nil || frame.Image.Empty() {
			return nil, camera.ErrEmptyFrame
		}
		return d.infer(*frame.Image)
	})
}

func (d *Detector) infer(img gocv.Mat) ([]detection.Detection, error) {
	size := d.cfg.InputSize
	blob := gocv.BlobFromImage(img, 1.0/255.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")

	output := d.net.Forward("")
	defer output.Close()

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output tensor: %w", err)
	}

	dims := output.Size()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}

	scale := NewScale(size, image.Pt(img.Cols(), img.Rows()))
	minScore := float32(d.cfg.ConfidenceThreshold)

	var candidates []Candidate
	switch d.cfg.ModelFormat {
	case detection.FormatYOLOv8:
		candidates = DecodeV8(data, dims[1], dims[2], scale, minScore, d.cfg.Wants)
	default:
		candidates = DecodeV5(data, dims[1], dims[2], scale, minScore, d.cfg.Wants)
	}

	dets := suppress(candidates, minScore, float32(d.cfg.NMSThreshold))
	if len(dets) > 0 {
		debug.Log("yolo detections", "count", len(dets))
	}
	return dets, nil
}

// suppress runs non-maximum suppression and converts the survivors
func suppress(candidates []Candidate, minScore, nmsThreshold float32) []detection.Detection {
	if len(candidates) == 0 {
		return nil
	}

	boxes := make([]image.Rectangle, len(candidates))
	scores := make([]float32, len(candidates))
	for i, c := range candidates {
		boxes[i] = c.Box
		scores[i] = c.Score
	}

	indices := gocv.NMSBoxes(boxes, scores, minScore, nmsThreshold)

	dets := make([]detection.Detection, 0, len(indices))
	for _, idx := range indices {
		c := candidates[idx]
		dets = append(dets, detection.FromRect(c.Box, float64(c.Score), c.ClassID))
	}
	return dets
}

// Close releases the network
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}
