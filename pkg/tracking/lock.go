package tracking

import (
	"image"
	"log/slog"

	"github.com/teslashibe/go-gimbal/internal/log"
	"github.com/teslashibe/go-gimbal/pkg/detection"
)

// LockState is the hysteresis state owned by TargetLock
type LockState struct {
	LockCounter int                  `json:"lock_counter"`
	LostCounter int                  `json:"lost_counter"`
	Locked      bool                 `json:"locked"`
	Target      *detection.Detection `json:"target,omitempty"`
}

// TargetLock selects the best detection per cycle and applies lock/lose
// hysteresis so a single spurious or missed frame does not toggle the mode.
type TargetLock struct {
	lockFrames int // Detection cycles needed to lock
	lostFrames int // Empty cycles tolerated while locked

	state LockState
	log   *slog.Logger
}

// NewTargetLock creates a target lock with the given thresholds
func NewTargetLock(lockFrames, lostFrames int) *TargetLock {
	return &TargetLock{
		lockFrames: lockFrames,
		lostFrames: lostFrames,
		log:        log.Component("lock"),
	}
}

// Update consumes one cycle of detections.
// Returns the center of the selected target (nil when there is none) and
// the lock flag after this cycle.
func (l *TargetLock) Update(dets []detection.Detection) (*image.Point, bool) {
	best, ok := SelectLargest(dets)
	if !ok {
		if l.state.Locked {
			l.state.LostCounter++
			if l.state.LostCounter > l.lostFrames {
				l.log.Info("target lost, unlocking", "lost_frames", l.state.LostCounter)
				l.Reset()
			}
		}
		return nil, l.state.Locked
	}

	if !l.state.Locked {
		l.state.LockCounter++
		if l.state.LockCounter >= l.lockFrames {
			l.state.Locked = true
			l.log.Info("target locked", "lock_frames", l.state.LockCounter, "area", best.Area())
		}
	} else {
		l.state.LostCounter = 0
	}

	l.state.Target = &best
	center := best.Center()
	return &center, l.state.Locked
}

// Reset unlocks, zeroes both counters and clears the current target
func (l *TargetLock) Reset() {
	l.state = LockState{}
}

// Locked returns the lock flag
func (l *TargetLock) Locked() bool {
	return l.state.Locked
}

// State returns a copy of the lock state
func (l *TargetLock) State() LockState {
	s := l.state
	if s.Target != nil {
		t := *s.Target
		s.Target = &t
	}
	return s
}

// Restore replaces the lock state, e.g. to roll back a failed cycle
func (l *TargetLock) Restore(s LockState) {
	l.state = s
}

// SelectLargest picks the detection with the strictly largest positive area.
// Ties keep the first one encountered. ok is false when no box has a positive area.
func SelectLargest(dets []detection.Detection) (best detection.Detection, ok bool) {
	maxArea := 0
	for _, d := range dets {
		if area := d.Area(); area > maxArea {
			maxArea = area
			best = d
			ok = true
		}
	}
	return best, ok
}
