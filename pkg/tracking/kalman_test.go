package tracking

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestKalman_FirstUpdateReturnsMeasurement(t *testing.T) {
	for _, noise := range []struct{ q, r float64 }{{0.01, 0.1}, {1, 1e-6}, {0, 5}} {
		kf := NewKalmanFilter(noise.q, noise.r)
		x, y := kf.Update(0.37, -0.81)
		if x != 0.37 || y != -0.81 {
			t.Errorf("q=%v r=%v: first update got (%v, %v), want raw measurement", noise.q, noise.r, x, y)
		}
		if vx, vy := kf.Velocity(); vx != 0 || vy != 0 {
			t.Errorf("first update should zero velocity, got (%v, %v)", vx, vy)
		}
	}
}

func TestKalman_FirstUpdateAfterReset(t *testing.T) {
	kf := NewKalmanFilter(0.01, 0.1)
	kf.Update(0.1, 0.1)
	kf.Predict(0.1)
	kf.Update(0.2, 0.2)

	kf.Reset()
	if kf.Initialized() {
		t.Fatal("Reset should clear initialization")
	}
	x, y := kf.Update(-0.5, 0.25)
	if x != -0.5 || y != 0.25 {
		t.Errorf("first update after reset got (%v, %v), want (-0.5, 0.25)", x, y)
	}
}

func TestKalman_PredictNoOpCases(t *testing.T) {
	kf := NewKalmanFilter(0.01, 0.1)

	// Uninitialized: nothing changes
	before := kf.Snapshot()
	kf.Predict(0.5)
	if kf.Snapshot() != before {
		t.Error("Predict before first measurement must be a no-op")
	}

	kf.Update(0.2, -0.1)
	kf.Predict(0.1)
	kf.Update(0.25, -0.12)

	for _, dt := range []float64{0, -0.2} {
		state := kf.Snapshot()
		cov := kf.Covariance()
		kf.Predict(dt)
		if kf.Snapshot() != state {
			t.Errorf("Predict(%v) changed the state", dt)
		}
		if !mat.Equal(cov, kf.Covariance()) {
			t.Errorf("Predict(%v) changed the covariance", dt)
		}
	}
}

func TestKalman_PredictMovesWithVelocity(t *testing.T) {
	kf := NewKalmanFilter(0.01, 0.1)
	kf.Update(0, 0)
	kf.Restore(KalmanState{
		X:           [4]float64{0.1, 0.2, 1.0, -2.0},
		P:           [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1},
		Initialized: true,
	})

	kf.Predict(0.5)
	x, y := kf.Position()
	if math.Abs(x-0.6) > 1e-12 || math.Abs(y-(-0.8)) > 1e-12 {
		t.Errorf("predicted position (%v, %v), want (0.6, -0.8)", x, y)
	}

	// P = F*I*F' + qI: P[0][0] = 1 + dt^2 + q
	p := kf.Covariance()
	if math.Abs(p.At(0, 0)-(1+0.25+0.01)) > 1e-12 {
		t.Errorf("P[0][0] = %v, want 1.26", p.At(0, 0))
	}
	if math.Abs(p.At(0, 2)-0.5) > 1e-12 {
		t.Errorf("P[0][2] = %v, want 0.5", p.At(0, 2))
	}
}

func TestKalman_UpdateMovesTowardsMeasurement(t *testing.T) {
	kf := NewKalmanFilter(0.01, 0.1)
	kf.Update(0, 0)
	kf.Predict(0.1)

	x, y := kf.Update(1, -1)
	if x <= 0 || x >= 1 {
		t.Errorf("filtered x %v should lie strictly between prior and measurement", x)
	}
	if y >= 0 || y <= -1 {
		t.Errorf("filtered y %v should lie strictly between prior and measurement", y)
	}
}

func TestKalman_CovarianceSymmetric(t *testing.T) {
	kf := NewKalmanFilter(0.001, 0.05)
	rng := rand.New(rand.NewSource(3))

	kf.Update(0, 0)
	for i := 0; i < 500; i++ {
		kf.Predict(0.01 + rng.Float64()*0.1)
		kf.Update(rng.NormFloat64()*0.3, rng.NormFloat64()*0.3)

		p := kf.Covariance()
		for r := 0; r < 4; r++ {
			for c := r + 1; c < 4; c++ {
				if p.At(r, c) != p.At(c, r) {
					t.Fatalf("step %d: P[%d][%d]=%v != P[%d][%d]=%v", i, r, c, p.At(r, c), c, r, p.At(c, r))
				}
			}
		}
	}
}

func TestKalman_VelocityConverges(t *testing.T) {
	const (
		dt    = 0.05
		steps = 200
		sigma = 0.005
	)
	trueVX, trueVY := 0.2, -0.1

	kf := NewKalmanFilter(1e-4, 1e-2)
	rng := rand.New(rand.NewSource(42))

	for k := 0; k < steps; k++ {
		tm := float64(k) * dt
		mx := -0.5 + trueVX*tm + rng.NormFloat64()*sigma
		my := 0.3 + trueVY*tm + rng.NormFloat64()*sigma
		kf.Predict(dt)
		kf.Update(mx, my)
	}

	vx, vy := kf.Velocity()
	if math.Abs(vx-trueVX) > 0.02 {
		t.Errorf("vx = %v, want %v ± 0.02", vx, trueVX)
	}
	if math.Abs(vy-trueVY) > 0.02 {
		t.Errorf("vy = %v, want %v ± 0.02", vy, trueVY)
	}
}

func TestKalman_ResetRestoresIdentity(t *testing.T) {
	kf := NewKalmanFilter(0.01, 0.1)
	kf.Update(0.3, 0.3)
	kf.Predict(0.2)
	kf.Update(0.4, 0.2)

	kf.Reset()

	if x, y := kf.Position(); x != 0 || y != 0 {
		t.Errorf("position after reset (%v, %v), want zeros", x, y)
	}
	if !mat.Equal(kf.Covariance(), identity(4)) {
		t.Error("covariance after reset should be identity")
	}
}

func TestKalman_SnapshotRestore(t *testing.T) {
	kf := NewKalmanFilter(0.01, 0.1)
	kf.Update(0.3, 0.3)
	kf.Predict(0.2)
	kf.Update(0.4, 0.2)

	saved := kf.Snapshot()
	kf.Predict(0.2)
	kf.Update(0.9, 0.9)
	kf.Restore(saved)

	if kf.Snapshot() != saved {
		t.Error("Restore should bring back the exact snapshot")
	}
}
