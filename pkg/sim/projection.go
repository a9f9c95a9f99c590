package sim

import (
	"image"

	"github.com/teslashibe/go-gimbal/pkg/camera"
	"github.com/teslashibe/go-gimbal/pkg/servo"
)

// Projection maps gimbal angles to frame pixels with a linear small-angle
// model: one degree is always the same number of pixels.
type Projection struct {
	FOVH   float64 // Horizontal field of view (degrees)
	FOVV   float64 // Vertical field of view (degrees)
	Width  int     // Frame width (pixels)
	Height int     // Frame height (pixels)
}

// NewProjection builds a projection from camera settings
func NewProjection(cfg camera.Config) Projection {
	return Projection{
		FOVH:   cfg.FOVHorizontalDeg,
		FOVV:   cfg.FOVVerticalDeg,
		Width:  cfg.Width,
		Height: cfg.Height,
	}
}

// WorldToFrame returns the pixel position of a target at (pan, tilt) degrees
// seen by a camera pointing at pose. Larger pan is to the right of the frame,
// larger tilt is towards the top.
func (p Projection) WorldToFrame(pan, tilt float64, pose servo.Pose) (float64, float64) {
	cx, cy := float64(p.Width/2), float64(p.Height/2)

	x := cx + (pan-pose.Pan)/p.FOVH*float64(p.Width)
	y := cy - (tilt-pose.Tilt)/p.FOVV*float64(p.Height)
	return x, y
}

// FrameToWorld is the inverse of WorldToFrame
func (p Projection) FrameToWorld(x, y float64, pose servo.Pose) (float64, float64) {
	cx, cy := float64(p.Width/2), float64(p.Height/2)

	pan := pose.Pan + (x-cx)/float64(p.Width)*p.FOVH
	tilt := pose.Tilt - (y-cy)/float64(p.Height)*p.FOVV
	return pan, tilt
}

// InFrame reports whether the pixel position lies inside the frame
func (p Projection) InFrame(x, y float64) bool {
	return x >= 0 && x < float64(p.Width) && y >= 0 && y < float64(p.Height)
}

// Center returns the frame center
func (p Projection) Center() image.Point {
	return image.Pt(p.Width/2, p.Height/2)
}
