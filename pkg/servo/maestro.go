package servo

import (
	"fmt"
	"io"
	"sync"

	"go.bug.st/serial"
)

// cmdSetTarget is the Maestro compact-protocol Set Target command
const cmdSetTarget = 0x84

// Maestro drives a Pololu Maestro servo controller over its command port
type Maestro struct {
	mu     sync.Mutex
	port   io.WriteCloser
	closed bool
}

// OpenMaestro opens the serial port at path
func OpenMaestro(path string, opts PortOptions) (*Maestro, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	return NewMaestro(port), nil
}

// NewMaestro wraps an already open port
func NewMaestro(port io.WriteCloser) *Maestro {
	return &Maestro{port: port}
}

// SetTargets writes one Set Target frame per channel in a single write
func (m *Maestro) SetTargets(targets ...Target) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrNotConnected
	}

	buf := make([]byte, 0, 4*len(targets))
	for _, t := range targets {
		buf = append(buf, encodeSetTarget(t)...)
	}

	n, err := m.port.Write(buf)
	if err != nil {
		return fmt.Errorf("maestro write: %w", err)
	}
	if n != len(buf) {
		return fmt.Errorf("maestro write: short write %d of %d bytes", n, len(buf))
	}
	return nil
}

// Close closes the serial port. Safe to call more than once.
func (m *Maestro) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	return m.port.Close()
}

// encodeSetTarget builds 0x84, channel, low 7 bits, high 7 bits
func encodeSetTarget(t Target) []byte {
	return []byte{
		cmdSetTarget,
		byte(t.Channel),
		byte(t.Value & 0x7f),
		byte((t.Value >> 7) & 0x7f),
	}
}
