package camera

import (
	"image"
	"time"

	"gocv.io/x/gocv"
)

// Frame is one captured image with its timing
type Frame struct {
	Image     *gocv.Mat // nil for synthetic frames
	Timestamp time.Time
	DT        float64 // Seconds since the previous frame, 0 for the first
	Index     uint64
	Size      image.Point
}

// Close releases the image, if any. Safe on a zero Frame.
func (f *Frame) Close() error {
	if f.Image == nil {
		return nil
	}
	err := f.Image.Close()
	f.Image = nil
	return err
}

// Clock computes the time between consecutive frames
type Clock struct {
	last  time.Time
	count uint64
}

// Tick records a frame at now and returns its index and the seconds since
// the previous tick. The first tick returns dt = 0.
func (c *Clock) Tick(now time.Time) (uint64, float64) {
	var dt float64
	if c.count > 0 {
		dt = now.Sub(c.last).Seconds()
	}
	c.last = now
	c.count++
	return c.count, dt
}

// Reset forgets the previous tick
func (c *Clock) Reset() {
	c.last = time.Time{}
	c.count = 0
}
