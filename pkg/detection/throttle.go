package detection

import "time"

// Throttle rate-limits inference. Between allowed inference times it returns
// the previous result unchanged.
type Throttle struct {
	interval time.Duration

	last   time.Time
	hasRun bool
	cached []Detection
}

// NewThrottle creates a throttle allowing one inference per interval
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Do runs infer if the interval has elapsed since the last successful
// inference at ts, otherwise returns the cached detections.
// A failed inference leaves the cache and the schedule untouched.
func (t *Throttle) Do(ts time.Time, infer func() ([]Detection, error)) ([]Detection, error) {
	if t.hasRun && ts.Sub(t.last) < t.interval {
		return t.cached, nil
	}

	dets, err := infer()
	if err != nil {
		return nil, err
	}

	t.last = ts
	t.hasRun = true
	t.cached = dets
	return dets, nil
}

// Last returns the most recent inference result
func (t *Throttle) Last() []Detection {
	return t.cached
}

// Reset forgets the cached result so the next call infers
func (t *Throttle) Reset() {
	t.hasRun = false
	t.cached = nil
	t.last = time.Time{}
}
