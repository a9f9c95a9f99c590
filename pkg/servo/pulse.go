package servo

// PulseMap converts servo angles into pulse widths.
// An angle of 0 maps to MinUS and TravelDeg maps to MaxUS.
type PulseMap struct {
	MinUS     float64 // Pulse width at 0 degrees (microseconds)
	MaxUS     float64 // Pulse width at full travel (microseconds)
	TravelDeg float64 // Mechanical travel (degrees)
}

// PulseUS returns the pulse width for angle in microseconds
func (m PulseMap) PulseUS(angle float64) float64 {
	return m.MinUS + angle/m.TravelDeg*(m.MaxUS-m.MinUS)
}

// QuarterUS returns the pulse width for angle in quarter-microseconds,
// the unit of a Maestro target
func (m PulseMap) QuarterUS(angle float64) uint16 {
	q := m.PulseUS(angle) * 4
	if q < 0 {
		return 0
	}
	return uint16(q + 0.5)
}
