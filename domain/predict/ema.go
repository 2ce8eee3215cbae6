package predict

import (
	"math"
	"time"
)

// EMA is an exponential moving average whose weight depends on the time elapsed
// since the previous sample: alpha = 1 - exp(-dt/tau).
type EMA struct {
	axes Axis
	tau  float64
	x, y float64
	last time.Time
	init bool
}

// NewEMA returns an empty EMA predictor.
func NewEMA(opts Options) *EMA {
	opts = opts.withDefaults(KindEMA)
	return &EMA{axes: opts.Axes, tau: opts.Tau.Seconds()}
}

func (e *EMA) Kind() Kind { return KindEMA }

func (e *EMA) Reset() {
	e.x, e.y, e.last, e.init = 0, 0, time.Time{}, false
}

func (e *EMA) Update(x, y float64, t time.Time) (float64, float64) {
	if !e.init {
		e.x, e.y, e.last, e.init = x, y, t, true
		return x, y
	}
	dt := t.Sub(e.last).Seconds()
	e.last = t
	if dt < 0 {
		dt = 0
	}
	alpha := 1 - math.Exp(-dt/e.tau)
	e.x += alpha * (x - e.x)
	e.y += alpha * (y - e.y)

	ox, oy := x, y
	if e.axes.smoothX() {
		ox = e.x
	}
	if e.axes.smoothY() {
		oy = e.y
	}
	return ox, oy
}
