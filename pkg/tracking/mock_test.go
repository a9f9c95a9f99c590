package tracking

import (
	"errors"
	"sync"
)

var errActuator = errors.New("actuator offline")

// mockActuator records deltas and clamps like a real servo sink
type mockActuator struct {
	mu sync.Mutex

	pan, tilt        float64
	panMin, panMax   float64
	tiltMin, tiltMax float64

	calls []Command
	fail  bool
}

func newMockActuator(pan, tilt float64) *mockActuator {
	return &mockActuator{
		pan:     pan,
		tilt:    tilt,
		panMin:  0,
		panMax:  270,
		tiltMin: 0,
		tiltMax: 270,
	}
}

func (m *mockActuator) ApplyDelta(panDelta, tiltDelta float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errActuator
	}
	m.calls = append(m.calls, Command{PanDelta: panDelta, TiltDelta: tiltDelta})
	m.pan = clamp(m.pan+panDelta, m.panMin, m.panMax)
	m.tilt = clamp(m.tilt+tiltDelta, m.tiltMin, m.tiltMax)
	return nil
}

func (m *mockActuator) Pan() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pan
}

func (m *mockActuator) Tilt() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tilt
}

func (m *mockActuator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockActuator) lastCall() Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return Command{}
	}
	return m.calls[len(m.calls)-1]
}
