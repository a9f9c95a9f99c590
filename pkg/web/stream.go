package web

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-gimbal/pkg/camera"
	"github.com/teslashibe/go-gimbal/pkg/detection"
	"github.com/teslashibe/go-gimbal/pkg/gimbal"
	"github.com/teslashibe/go-gimbal/pkg/tracking"
)

// streamLimiter caps the camera stream frame rate on the frame clock
type streamLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

func newStreamLimiter(fps int) *streamLimiter {
	return &streamLimiter{interval: time.Second / time.Duration(fps)}
}

func (l *streamLimiter) allow(ts time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.last.IsZero() && ts.Sub(l.last) < l.interval {
		return false
	}
	l.last = ts
	return true
}

// Observe implements gimbal.FrameObserver: it sends an annotated JPEG to
// camera stream clients. The frame itself is not modified.
func (s *Server) Observe(frame camera.Frame, dets []detection.Detection, cycle tracking.Cycle) bool {
	if frame.Image == nil || frame.Image.Empty() || s.cameraHub.ClientCount() == 0 {
		return true
	}
	if !s.stream.allow(frame.Timestamp) {
		return true
	}

	img := frame.Image.Clone()
	defer img.Close()

	center := image.Pt(frame.Size.X/2, frame.Size.Y/2)
	camera.Annotate(&img, gimbal.NewOverlay(center, dets, cycle))

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		s.log.Warn("frame encode failed", "error", err)
		return true
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	s.cameraHub.BroadcastBinary(data)
	return true
}
