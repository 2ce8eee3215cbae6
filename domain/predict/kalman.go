package predict

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
)

// initialVelocityVar is the velocity prior, (1000 px/s)^2, so the first few
// measurements set the velocity instead of the zero initial guess.
const initialVelocityVar = 1000 * 1000

// Kalman is a constant-velocity filter over the state [x y vx vy].
type Kalman struct {
	opts Options
	q, r float64

	x    *mat.VecDense // state
	p    *mat.Dense    // covariance
	h    *mat.Dense    // observation model [I 0]
	last time.Time
	init bool
}

// NewKalman returns a filter that initializes on its first update.
func NewKalman(opts Options) *Kalman {
	opts = opts.withDefaults(KindKalman)
	k := &Kalman{
		opts: opts,
		q:    opts.ProcessNoise,
		r:    opts.MeasurementNoise,
		h: mat.NewDense(2, 4, []float64{
			1, 0, 0, 0,
			0, 1, 0, 0,
		}),
	}
	k.Reset()
	return k
}

func (k *Kalman) Kind() Kind { return KindKalman }

// Reset drops the state; the next update re-initializes at the measurement.
func (k *Kalman) Reset() {
	k.x = mat.NewVecDense(4, nil)
	k.p = mat.NewDense(4, 4, []float64{
		k.r, 0, 0, 0,
		0, k.r, 0, 0,
		0, 0, initialVelocityVar, 0,
		0, 0, 0, initialVelocityVar,
	})
	k.last = time.Time{}
	k.init = false
}

// Update predicts forward by the time since the previous update, corrects with (x, y)
// and returns the corrected position.
func (k *Kalman) Update(x, y float64, t time.Time) (float64, float64) {
	if !k.init {
		k.Reset()
		k.x.SetVec(0, x)
		k.x.SetVec(1, y)
		k.last = t
		k.init = true
		return x, y
	}
	dt := t.Sub(k.last)
	k.last = t
	if dt < 0 {
		dt = 0
	}
	if dt > k.opts.MaxDt {
		dt = k.opts.MaxDt
	}
	k.predict(dt.Seconds())
	k.correct(x, y)

	if !k.finite() {
		k.Reset()
		return x, y
	}
	ox, oy := k.x.AtVec(0), k.x.AtVec(1)
	if !k.opts.Axes.smoothX() {
		ox = x
	}
	if !k.opts.Axes.smoothY() {
		oy = y
	}
	return ox, oy
}

// State returns the current [x y vx vy] estimate.
func (k *Kalman) State() (x, y, vx, vy float64) {
	return k.x.AtVec(0), k.x.AtVec(1), k.x.AtVec(2), k.x.AtVec(3)
}

func (k *Kalman) predict(dt float64) {
	f := mat.NewDense(4, 4, []float64{
		1, 0, dt, 0,
		0, 1, 0, dt,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
	var nx mat.VecDense
	nx.MulVec(f, k.x)
	k.x = &nx

	var fp, fpf mat.Dense
	fp.Mul(f, k.p)
	fpf.Mul(&fp, f.T())
	for i := 0; i < 4; i++ {
		fpf.Set(i, i, fpf.At(i, i)+k.q*dt)
	}
	k.p = &fpf
}

func (k *Kalman) correct(zx, zy float64) {
	z := mat.NewVecDense(2, []float64{zx, zy})

	var hx, innov mat.VecDense
	hx.MulVec(k.h, k.x)
	innov.SubVec(z, &hx)

	var ph, s mat.Dense
	ph.Mul(k.p, k.h.T())
	s.Mul(k.h, &ph)
	s.Set(0, 0, s.At(0, 0)+k.r)
	s.Set(1, 1, s.At(1, 1)+k.r)

	var sInv mat.Dense
	if err := sInv.Inverse(&s); err != nil {
		return
	}
	var gain mat.Dense
	gain.Mul(&ph, &sInv)

	var dx mat.VecDense
	dx.MulVec(&gain, &innov)
	k.x.AddVec(k.x, &dx)

	var kh, ikh, np mat.Dense
	kh.Mul(&gain, k.h)
	ikh.Sub(eye4, &kh)
	np.Mul(&ikh, k.p)
	k.p = &np
}

func (k *Kalman) finite() bool {
	for i := 0; i < 4; i++ {
		if v := k.x.AtVec(i); math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
		if v := k.p.At(i, i); math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

var eye4 = mat.NewDiagDense(4, []float64{1, 1, 1, 1})
