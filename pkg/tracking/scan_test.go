package tracking

import (
	"math"
	"testing"
)

func TestScanSweep_StaysWithinBounds(t *testing.T) {
	act := newMockActuator(135, 90)
	s := NewScanSweep(act, 45, 225, 30)

	for i := 0; i < 500; i++ {
		dt := 0.01 + float64(i%7)*0.05
		if _, err := s.Update(dt); err != nil {
			t.Fatalf("Update: %v", err)
		}
		if p := act.Pan(); p < 45 || p > 225 {
			t.Fatalf("step %d: pan %v outside [45, 225]", i, p)
		}
		if act.lastCall().TiltDelta != 0 {
			t.Fatalf("scan must not move tilt")
		}
	}
}

func TestScanSweep_FlipsAtBoundary(t *testing.T) {
	tests := []struct {
		name      string
		start     float64
		direction int
		dt        float64
		wantPan   float64
		wantDir   int
	}{
		{"overshoot max", 220, 1, 1, 225, -1},
		{"exactly max", 195, 1, 1, 225, -1},
		{"overshoot min", 50, -1, 1, 45, 1},
		{"exactly min", 75, -1, 1, 45, 1},
		{"inside range", 100, 1, 1, 130, 1},
		{"inside range reverse", 100, -1, 0.5, 85, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			act := newMockActuator(tt.start, 90)
			s := NewScanSweep(act, 45, 225, 30)
			s.SetDirection(tt.direction)

			delta, err := s.Update(tt.dt)
			if err != nil {
				t.Fatalf("Update: %v", err)
			}
			if math.Abs(act.Pan()-tt.wantPan) > 1e-9 {
				t.Errorf("pan = %v, want %v", act.Pan(), tt.wantPan)
			}
			if math.Abs(delta-(tt.wantPan-tt.start)) > 1e-9 {
				t.Errorf("delta = %v, want %v", delta, tt.wantPan-tt.start)
			}
			if s.Direction() != tt.wantDir {
				t.Errorf("direction = %d, want %d", s.Direction(), tt.wantDir)
			}
		})
	}
}

func TestScanSweep_NonPositiveDt(t *testing.T) {
	act := newMockActuator(100, 90)
	s := NewScanSweep(act, 45, 225, 30)

	for _, dt := range []float64{0, -1} {
		delta, err := s.Update(dt)
		if err != nil || delta != 0 {
			t.Errorf("Update(%v) = %v, %v; want 0, nil", dt, delta, err)
		}
	}
	if act.callCount() != 0 {
		t.Errorf("expected no actuation for non-positive dt, got %d calls", act.callCount())
	}
}

func TestScanSweep_FailureKeepsDirection(t *testing.T) {
	act := newMockActuator(220, 90)
	s := NewScanSweep(act, 45, 225, 30)
	act.fail = true

	if _, err := s.Update(1); err == nil {
		t.Fatal("expected actuation error")
	}
	if s.Direction() != 1 {
		t.Errorf("direction should not flip on a failed step, got %d", s.Direction())
	}
	if act.Pan() != 220 {
		t.Errorf("pan should be unchanged, got %v", act.Pan())
	}
}

func TestScanSweep_FullSweep(t *testing.T) {
	act := newMockActuator(45, 90)
	s := NewScanSweep(act, 45, 225, 30)

	// 180 degrees at 30 deg/s is 6 seconds each way
	for i := 0; i < 6; i++ {
		s.Update(1)
	}
	if act.Pan() != 225 || s.Direction() != -1 {
		t.Fatalf("after 6s expected pan 225 heading down, got %v dir %d", act.Pan(), s.Direction())
	}
	for i := 0; i < 6; i++ {
		s.Update(1)
	}
	if act.Pan() != 45 || s.Direction() != 1 {
		t.Fatalf("after 12s expected pan 45 heading up, got %v dir %d", act.Pan(), s.Direction())
	}
}
