package servo

import (
	"sync"
)

// Driver writes raw servo targets to hardware.
// A target of 0 turns the pulse train off.
type Driver interface {
	SetTargets(targets ...Target) error
	Close() error
}

// Target is a pulse width for one channel (quarter-microseconds)
type Target struct {
	Channel int
	Value   uint16
}

// SimDriver is an in-memory Driver used by the sim backend and in tests
type SimDriver struct {
	mu      sync.Mutex
	targets map[int]uint16
	writes  int
	closed  bool
	fail    error
}

// NewSimDriver creates an in-memory driver
func NewSimDriver() *SimDriver {
	return &SimDriver{targets: make(map[int]uint16)}
}

// SetTargets records the targets
func (d *SimDriver) SetTargets(targets ...Target) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrNotConnected
	}
	if d.fail != nil {
		return d.fail
	}
	for _, t := range targets {
		d.targets[t.Channel] = t.Value
	}
	d.writes++
	return nil
}

// Close marks the driver closed
func (d *SimDriver) Close() error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

// FailWith makes subsequent writes return err (nil clears it)
func (d *SimDriver) FailWith(err error) {
	d.mu.Lock()
	d.fail = err
	d.mu.Unlock()
}

// Target returns the last value written to channel
func (d *SimDriver) Target(channel int) uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.targets[channel]
}

// Writes returns the number of successful writes
func (d *SimDriver) Writes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes
}

// Closed reports whether Close was called
func (d *SimDriver) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}
