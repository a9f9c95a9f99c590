package servo

import "fmt"

// Pose is the commanded gimbal orientation in degrees
type Pose struct {
	Pan  float64 `json:"pan"`
	Tilt float64 `json:"tilt"`
}

// Add returns a new Pose that is the sum of p and the deltas
func (p Pose) Add(panDelta, tiltDelta float64) Pose {
	return Pose{Pan: p.Pan + panDelta, Tilt: p.Tilt + tiltDelta}
}

// String formats the pose for logs
func (p Pose) String() string {
	return fmt.Sprintf("pan=%.2f tilt=%.2f", p.Pan, p.Tilt)
}

// Limits holds the mechanical range of both axes (degrees)
type Limits struct {
	PanMin  float64 `json:"pan_min"`
	PanMax  float64 `json:"pan_max"`
	TiltMin float64 `json:"tilt_min"`
	TiltMax float64 `json:"tilt_max"`
}

// Clamp returns p restricted to the limits
func (l Limits) Clamp(p Pose) Pose {
	return Pose{
		Pan:  clamp(p.Pan, l.PanMin, l.PanMax),
		Tilt: clamp(p.Tilt, l.TiltMin, l.TiltMax),
	}
}

// Center returns the midpoint of both ranges
func (l Limits) Center() Pose {
	return Pose{
		Pan:  (l.PanMin + l.PanMax) / 2,
		Tilt: (l.TiltMin + l.TiltMax) / 2,
	}
}

// Contains reports whether p lies within the limits
func (l Limits) Contains(p Pose) bool {
	return p.Pan >= l.PanMin && p.Pan <= l.PanMax &&
		p.Tilt >= l.TiltMin && p.Tilt <= l.TiltMax
}

// clamp restricts v to the range [min, max].
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
