package gimbal

import (
	"fmt"
	"image"

	"github.com/teslashibe/go-gimbal/pkg/camera"
	"github.com/teslashibe/go-gimbal/pkg/detection"
	"github.com/teslashibe/go-gimbal/pkg/tracking"
)

// Observers fans a frame out to several observers. The loop stops when any
// of them returns false; all of them still see the frame.
type Observers []FrameObserver

// Observe implements FrameObserver
func (o Observers) Observe(frame camera.Frame, dets []detection.Detection, cycle tracking.Cycle) bool {
	keep := true
	for _, ob := range o {
		if !ob.Observe(frame, dets, cycle) {
			keep = false
		}
	}
	return keep
}

// NewOverlay describes a processed frame for drawing
func NewOverlay(center image.Point, dets []detection.Detection, cycle tracking.Cycle) camera.Overlay {
	boxes := make([]image.Rectangle, 0, len(dets))
	for _, d := range dets {
		boxes = append(boxes, d.Rect())
	}

	label := cycle.Mode.String()
	if cycle.Command != (tracking.Command{}) {
		label += fmt.Sprintf("  d(%.1f, %.1f)", cycle.Command.PanDelta, cycle.Command.TiltDelta)
	}

	return camera.Overlay{
		Boxes:  boxes,
		Target: cycle.Target,
		Center: center,
		Label:  label,
	}
}

// PreviewObserver draws every frame into a desktop window. Pressing q stops
// the loop.
type PreviewObserver struct {
	preview *camera.Preview
	center  image.Point
}

// NewPreviewObserver opens the preview window
func NewPreviewObserver(title string, center image.Point) *PreviewObserver {
	return &PreviewObserver{preview: camera.NewPreview(title), center: center}
}

// Observe implements FrameObserver
func (p *PreviewObserver) Observe(frame camera.Frame, dets []detection.Detection, cycle tracking.Cycle) bool {
	return p.preview.Show(frame, NewOverlay(p.center, dets, cycle))
}

// Close destroys the window
func (p *PreviewObserver) Close() error {
	return p.preview.Close()
}
