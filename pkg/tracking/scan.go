package tracking

// Actuator is the minimal actuation interface needed by the control loop.
// ApplyDelta adds the deltas to the current pose and clamps it to the
// configured limits; a failed call must leave the pose unchanged.
type Actuator interface {
	ApplyDelta(panDelta, tiltDelta float64) error
	Pan() float64
	Tilt() float64
}

// ScanSweep drives the pan axis back and forth between two limits at a
// constant angular rate while no target is locked.
type ScanSweep struct {
	actuator Actuator

	PanMin float64 // Lower sweep bound (degrees)
	PanMax float64 // Upper sweep bound (degrees)
	Speed  float64 // Degrees per second

	direction int // +1 or -1
}

// NewScanSweep creates a sweep starting towards PanMax
func NewScanSweep(actuator Actuator, panMin, panMax, speed float64) *ScanSweep {
	return &ScanSweep{
		actuator:  actuator,
		PanMin:    panMin,
		PanMax:    panMax,
		Speed:     speed,
		direction: 1,
	}
}

// Update advances the sweep by dt seconds and issues a pan-only delta.
// The direction flips exactly at a bound and the target never overshoots it.
// Returns the pan delta issued.
func (s *ScanSweep) Update(dt float64) (float64, error) {
	if dt <= 0 {
		return 0, nil
	}

	current := s.actuator.Pan()
	next := current + float64(s.direction)*s.Speed*dt

	direction := s.direction
	if next >= s.PanMax {
		direction = -1
		next = s.PanMax
	} else if next <= s.PanMin {
		direction = 1
		next = s.PanMin
	}

	delta := next - current
	if err := s.actuator.ApplyDelta(delta, 0); err != nil {
		return 0, err
	}
	s.direction = direction

	return delta, nil
}

// Direction returns +1 when sweeping towards PanMax, -1 otherwise
func (s *ScanSweep) Direction() int {
	return s.direction
}

// SetDirection sets the sweep direction (any non-negative value means +1)
func (s *ScanSweep) SetDirection(d int) {
	if d < 0 {
		s.direction = -1
		return
	}
	s.direction = 1
}
