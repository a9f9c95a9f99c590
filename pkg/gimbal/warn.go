package gimbal

import (
	"sync"
	"time"
)

// warnLimiter lets one warning per stage through every interval and counts
// the rest
type warnLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	now      func() time.Time
	stages   map[string]*stageWarnings
}

type stageWarnings struct {
	total      uint64
	suppressed uint64
	last       time.Time
	logged     bool
}

func newWarnLimiter(interval time.Duration, now func() time.Time) *warnLimiter {
	return &warnLimiter{
		interval: interval,
		now:      now,
		stages:   make(map[string]*stageWarnings),
	}
}

// allow records a failure of stage. ok is true when it should be logged;
// total and suppressed are the failure count and the number of failures
// swallowed since the previous logged line.
func (w *warnLimiter) allow(stage string) (total, suppressed uint64, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := w.stages[stage]
	if s == nil {
		s = &stageWarnings{}
		w.stages[stage] = s
	}
	s.total++

	now := w.now()
	if s.logged && now.Sub(s.last) < w.interval {
		s.suppressed++
		return s.total, s.suppressed, false
	}

	suppressed = s.suppressed
	s.suppressed = 0
	s.last = now
	s.logged = true
	return s.total, suppressed, true
}

// total returns the failure count of a stage
func (w *warnLimiter) total(stage string) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if s := w.stages[stage]; s != nil {
		return s.total
	}
	return 0
}
