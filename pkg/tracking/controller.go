package tracking

import (
	"math"
)

// PDController implements proportional-derivative control for one gimbal axis.
// There is no integral term.
type PDController struct {
	// Gains
	Kp float64 // Proportional gain
	Kd float64 // Derivative gain

	// Limits
	MaxStep float64 // Maximum output per cycle (degrees)

	// Dead zone
	DeadZone float64 // Ignore errors smaller than this (normalized)

	// State
	lastError float64
}

// NewPDController creates a new PD controller for one axis
func NewPDController(gains Gains, deadZone, maxStep float64) *PDController {
	return &PDController{
		Kp:       gains.Kp,
		Kd:       gains.Kd,
		MaxStep:  maxStep,
		DeadZone: deadZone,
	}
}

// Compute converts a normalized error into a bounded angular delta (degrees).
// Inside the dead zone, or when dt <= 0, it returns 0 and keeps the previous
// error so the next derivative is not computed against a stale sample.
func (c *PDController) Compute(e, dt float64) float64 {
	if math.Abs(e) < c.DeadZone {
		return 0.0
	}
	if dt <= 0 {
		return 0.0
	}

	// PD control
	derivative := (e - c.lastError) / dt
	output := c.Kp*e + c.Kd*derivative

	c.lastError = e

	// Rate limit the output
	return clamp(output, -c.MaxStep, c.MaxStep)
}

// Reset clears the derivative memory
func (c *PDController) Reset() {
	c.lastError = 0
}

// LastError returns the error used by the last derivative update
func (c *PDController) LastError() float64 {
	return c.lastError
}

// SetGains replaces both gains
func (c *PDController) SetGains(g Gains) {
	c.Kp = g.Kp
	c.Kd = g.Kd
}

// Gains returns the current gains
func (c *PDController) Gains() Gains {
	return Gains{Kp: c.Kp, Kd: c.Kd}
}

// clamp limits a value to a range
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
