package tracking

import (
	"gonum.org/v1/gonum/mat"
)

// KalmanState is a copy of the filter state, used to roll back a failed cycle
type KalmanState struct {
	X           [4]float64
	P           [16]float64
	Initialized bool
}

// KalmanFilter implements a constant-velocity filter over the normalized
// target error. State vector is [x, y, vx, vy].
type KalmanFilter struct {
	x *mat.VecDense // State
	p *mat.Dense    // Covariance (4x4)
	q *mat.Dense    // Process noise q*I4
	h *mat.Dense    // Measurement matrix (2x4)
	r *mat.Dense    // Measurement noise r*I2

	initialized bool
}

// NewKalmanFilter creates a filter with scalar process and measurement noise
func NewKalmanFilter(processNoise, measurementNoise float64) *KalmanFilter {
	q := identity(4)
	q.Scale(processNoise, q)
	r := identity(2)
	r.Scale(measurementNoise, r)

	return &KalmanFilter{
		x: mat.NewVecDense(4, nil),
		p: identity(4),
		q: q,
		h: mat.NewDense(2, 4, []float64{
			1, 0, 0, 0,
			0, 1, 0, 0,
		}),
		r: r,
	}
}

// Predict advances the state by dt seconds.
// No-op until the first measurement arrives or when dt <= 0.
func (kf *KalmanFilter) Predict(dt float64) {
	if !kf.initialized || dt <= 0 {
		return
	}

	f := mat.NewDense(4, 4, []float64{
		1, 0, dt, 0,
		0, 1, 0, dt,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})

	// x = F * x
	var x mat.VecDense
	x.MulVec(f, kf.x)
	kf.x.CopyVec(&x)

	// P = F * P * F' + Q
	var fp, p mat.Dense
	fp.Mul(f, kf.p)
	p.Mul(&fp, f.T())
	p.Add(&p, kf.q)
	kf.p = &p
}

// Update corrects the state with a measurement and returns the filtered
// position. The first measurement after a reset seeds the state and is
// returned unchanged.
func (kf *KalmanFilter) Update(measX, measY float64) (float64, float64) {
	if !kf.initialized {
		kf.x.SetVec(0, measX)
		kf.x.SetVec(1, measY)
		kf.x.SetVec(2, 0)
		kf.x.SetVec(3, 0)
		kf.initialized = true
		return measX, measY
	}

	z := mat.NewVecDense(2, []float64{measX, measY})

	// Innovation y = z - H*x
	var hx, y mat.VecDense
	hx.MulVec(kf.h, kf.x)
	y.SubVec(z, &hx)

	// S = H*P*H' + R
	var pht, s mat.Dense
	pht.Mul(kf.p, kf.h.T())
	s.Mul(kf.h, &pht)
	s.Add(&s, kf.r)

	var sInv mat.Dense
	if err := sInv.Inverse(&s); err != nil {
		// S is r*I2 plus a PSD term, so this only happens with r == 0
		return kf.x.AtVec(0), kf.x.AtVec(1)
	}

	// K = P*H'*inv(S)
	var k mat.Dense
	k.Mul(&pht, &sInv)

	// x = x + K*y
	var ky mat.VecDense
	ky.MulVec(&k, &y)
	kf.x.AddVec(kf.x, &ky)

	// P = (I - K*H) * P, then symmetrize to stop round-off drift
	var kh, ikh, p, sym mat.Dense
	kh.Mul(&k, kf.h)
	ikh.Sub(identity(4), &kh)
	p.Mul(&ikh, kf.p)
	sym.Add(&p, p.T())
	sym.Scale(0.5, &sym)
	kf.p = &sym

	return kf.x.AtVec(0), kf.x.AtVec(1)
}

// Reset zeroes the state, resets covariance to identity and clears initialization
func (kf *KalmanFilter) Reset() {
	kf.x.Zero()
	kf.p = identity(4)
	kf.initialized = false
}

// Initialized reports whether a measurement has seeded the filter
func (kf *KalmanFilter) Initialized() bool {
	return kf.initialized
}

// Position returns the current position estimate
func (kf *KalmanFilter) Position() (float64, float64) {
	return kf.x.AtVec(0), kf.x.AtVec(1)
}

// Velocity returns the current velocity estimate (normalized units per second)
func (kf *KalmanFilter) Velocity() (float64, float64) {
	return kf.x.AtVec(2), kf.x.AtVec(3)
}

// Covariance returns a copy of the covariance matrix
func (kf *KalmanFilter) Covariance() *mat.Dense {
	return mat.DenseCopyOf(kf.p)
}

// Snapshot copies the full filter state
func (kf *KalmanFilter) Snapshot() KalmanState {
	var s KalmanState
	for i := 0; i < 4; i++ {
		s.X[i] = kf.x.AtVec(i)
		for j := 0; j < 4; j++ {
			s.P[i*4+j] = kf.p.At(i, j)
		}
	}
	s.Initialized = kf.initialized
	return s
}

// Restore replaces the filter state with a snapshot
func (kf *KalmanFilter) Restore(s KalmanState) {
	for i := 0; i < 4; i++ {
		kf.x.SetVec(i, s.X[i])
	}
	p := make([]float64, 16)
	copy(p, s.P[:])
	kf.p = mat.NewDense(4, 4, p)
	kf.initialized = s.Initialized
}

// identity returns an n x n identity matrix
func identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}
