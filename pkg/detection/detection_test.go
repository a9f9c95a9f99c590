package detection

import (
	"errors"
	"image"
	"testing"
	"time"
)

func TestDetection_Center(t *testing.T) {
	tests := []struct {
		name   string
		det    Detection
		expect image.Point
	}{
		{
			name:   "even box",
			det:    Detection{X1: 100, Y1: 100, X2: 200, Y2: 300},
			expect: image.Pt(150, 200),
		},
		{
			name:   "odd sum truncates",
			det:    Detection{X1: 0, Y1: 0, X2: 5, Y2: 3},
			expect: image.Pt(2, 1),
		},
		{
			name:   "bottom right corner",
			det:    Detection{X1: 1200, Y1: 680, X2: 1280, Y2: 720},
			expect: image.Pt(1240, 700),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.det.Center()
			if got != tc.expect {
				t.Errorf("Center: got %v, want %v", got, tc.expect)
			}
		})
	}
}

func TestDetection_Area(t *testing.T) {
	tests := []struct {
		name   string
		det    Detection
		expect int
	}{
		{
			name:   "regular box",
			det:    Detection{X1: 10, Y1: 10, X2: 30, Y2: 20},
			expect: 200,
		},
		{
			name:   "zero width",
			det:    Detection{X1: 10, Y1: 10, X2: 10, Y2: 20},
			expect: 0,
		},
		{
			name:   "inverted box",
			det:    Detection{X1: 30, Y1: 20, X2: 10, Y2: 10},
			expect: 0,
		},
		{
			name:   "inverted width only",
			det:    Detection{X1: 30, Y1: 10, X2: 10, Y2: 20},
			expect: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.det.Area(); got != tc.expect {
				t.Errorf("Area: got %d, want %d", got, tc.expect)
			}
		})
	}
}

func TestFromRect(t *testing.T) {
	d := FromRect(image.Rect(1, 2, 3, 4), 0.8, 7)
	if d.X1 != 1 || d.Y1 != 2 || d.X2 != 3 || d.Y2 != 4 {
		t.Errorf("unexpected box %+v", d)
	}
	if d.Rect() != image.Rect(1, 2, 3, 4) {
		t.Errorf("Rect round trip: got %v", d.Rect())
	}
	if d.Confidence != 0.8 || d.ClassID != 7 {
		t.Errorf("unexpected metadata %+v", d)
	}
}

func TestCheckBackend(t *testing.T) {
	if err := CheckBackend(BackendCPU); err != nil {
		t.Errorf("cpu: unexpected error %v", err)
	}
	if err := CheckBackend(BackendCUDA); err != nil {
		t.Errorf("cuda: unexpected error %v", err)
	}
	if err := CheckBackend(BackendHailo); !errors.Is(err, ErrUnsupportedBackend) {
		t.Errorf("hailo: expected ErrUnsupportedBackend, got %v", err)
	}
	if err := CheckBackend("tpu"); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("tpu: expected ErrUnknownBackend, got %v", err)
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Errorf("default config invalid: %v", errs)
	}
	if cfg.Interval() != 100*time.Millisecond {
		t.Errorf("Interval: got %v, want 100ms", cfg.Interval())
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModelPath = ""
	cfg.ModelFormat = "ssd"
	cfg.ConfidenceThreshold = 1.5
	cfg.InputSize = 100
	cfg.InferenceInterval = -1

	errs := cfg.Validate()
	if len(errs) != 5 {
		t.Errorf("expected 5 validation errors, got %d: %v", len(errs), errs)
	}
}

func TestConfig_Wants(t *testing.T) {
	cfg := DefaultConfig()
	if !cfg.Wants(3) {
		t.Error("empty class filter should keep every class")
	}

	cfg.Classes = []int{0, 4}
	if !cfg.Wants(4) {
		t.Error("expected class 4 to be kept")
	}
	if cfg.Wants(3) {
		t.Error("expected class 3 to be dropped")
	}
}

func TestThrottle(t *testing.T) {
	th := NewThrottle(100 * time.Millisecond)
	calls := 0
	infer := func() ([]Detection, error) {
		calls++
		return []Detection{{X1: calls, Y1: 0, X2: calls + 10, Y2: 10}}, nil
	}

	start := time.Unix(1000, 0)

	dets, err := th.Do(start, infer)
	if err != nil || calls != 1 {
		t.Fatalf("first call should infer: calls=%d err=%v", calls, err)
	}
	if dets[0].X1 != 1 {
		t.Errorf("unexpected first result %+v", dets[0])
	}

	// Inside the interval: cached result, no inference
	dets, _ = th.Do(start.Add(50*time.Millisecond), infer)
	if calls != 1 {
		t.Errorf("expected cached result, inference ran %d times", calls)
	}
	if dets[0].X1 != 1 {
		t.Errorf("expected cached detection, got %+v", dets[0])
	}

	// Interval elapsed
	dets, _ = th.Do(start.Add(100*time.Millisecond), infer)
	if calls != 2 || dets[0].X1 != 2 {
		t.Errorf("expected fresh inference: calls=%d det=%+v", calls, dets[0])
	}
}

func TestThrottle_ErrorKeepsCache(t *testing.T) {
	th := NewThrottle(100 * time.Millisecond)
	start := time.Unix(1000, 0)

	th.Do(start, func() ([]Detection, error) {
		return []Detection{{X1: 0, Y1: 0, X2: 10, Y2: 10}}, nil
	})

	boom := errors.New("boom")
	_, err := th.Do(start.Add(200*time.Millisecond), func() ([]Detection, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected inference error, got %v", err)
	}
	if len(th.Last()) != 1 {
		t.Errorf("failed inference should keep the cache, got %v", th.Last())
	}

	// Next call retries immediately because the failure did not advance the schedule
	calls := 0
	th.Do(start.Add(210*time.Millisecond), func() ([]Detection, error) {
		calls++
		return nil, nil
	})
	if calls != 1 {
		t.Errorf("expected retry after failure, got %d calls", calls)
	}
}

func TestThrottle_ZeroInterval(t *testing.T) {
	th := NewThrottle(0)
	calls := 0
	ts := time.Unix(1000, 0)
	for i := 0; i < 3; i++ {
		th.Do(ts, func() ([]Detection, error) {
			calls++
			return nil, nil
		})
	}
	if calls != 3 {
		t.Errorf("zero interval should infer every call, got %d", calls)
	}
}
