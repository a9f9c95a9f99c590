// Package detection defines the object detections consumed by the gimbal
// control loop and the configuration shared by detection backends.
package detection

import "image"

// Detection represents one detected object in pixel coordinates.
// Boxes are expected to satisfy X1 < X2 and Y1 < Y2.
type Detection struct {
	X1, Y1, X2, Y2 int     // Bounding box corners (pixels)
	Confidence     float64 // Detection confidence (0-1)
	ClassID        int     // Model class id
}

// Width returns the box width in pixels (may be negative for malformed boxes)
func (d Detection) Width() int {
	return d.X2 - d.X1
}

// Height returns the box height in pixels (may be negative for malformed boxes)
func (d Detection) Height() int {
	return d.Y2 - d.Y1
}

// Area returns the area of the bounding box.
// Boxes with a non-positive width or height have zero area.
func (d Detection) Area() int {
	w, h := d.Width(), d.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Center returns the integer midpoint of the bounding box
func (d Detection) Center() image.Point {
	return image.Pt((d.X1+d.X2)/2, (d.Y1+d.Y2)/2)
}

// Rect returns the bounding box as an image.Rectangle
func (d Detection) Rect() image.Rectangle {
	return image.Rect(d.X1, d.Y1, d.X2, d.Y2)
}

// FromRect builds a detection from a rectangle
func FromRect(r image.Rectangle, confidence float64, classID int) Detection {
	return Detection{
		X1:         r.Min.X,
		Y1:         r.Min.Y,
		X2:         r.Max.X,
		Y2:         r.Max.Y,
		Confidence: confidence,
		ClassID:    classID,
	}
}
