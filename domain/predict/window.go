package predict

import "time"

// deltas is a fixed FIFO of the most recent frame-to-frame deltas.
type deltas struct {
	buf  [windowSize]float64
	n    int
	next int
}

func (d *deltas) push(v float64) {
	d.buf[d.next] = v
	d.next = (d.next + 1) % windowSize
	if d.n < windowSize {
		d.n++
	}
}

func (d *deltas) mean() float64 {
	if d.n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < d.n; i++ {
		sum += d.buf[i]
	}
	return sum / float64(d.n)
}

// DeltaWindow averages the last five frame-to-frame deltas per axis. The output on a
// smoothed axis is the previous output plus the mean delta.
type DeltaWindow struct {
	axes         Axis
	dx, dy       deltas
	prevX, prevY float64
	outX, outY   float64
	init         bool
}

// NewDeltaWindow returns an empty window predictor.
func NewDeltaWindow(opts Options) *DeltaWindow {
	return &DeltaWindow{axes: opts.withDefaults(KindWindow).Axes}
}

func (w *DeltaWindow) Kind() Kind { return KindWindow }

func (w *DeltaWindow) Reset() {
	axes := w.axes
	*w = DeltaWindow{axes: axes}
}

func (w *DeltaWindow) Update(x, y float64, _ time.Time) (float64, float64) {
	if !w.init {
		w.prevX, w.prevY, w.outX, w.outY = x, y, x, y
		w.init = true
		return x, y
	}
	w.dx.push(x - w.prevX)
	w.dy.push(y - w.prevY)
	w.prevX, w.prevY = x, y
	w.outX += w.dx.mean()
	w.outY += w.dy.mean()

	ox, oy := x, y
	if w.axes.smoothX() {
		ox = w.outX
	}
	if w.axes.smoothY() {
		oy = w.outY
	}
	return ox, oy
}

// Deltas returns the retained x and y deltas, oldest first.
func (w *DeltaWindow) Deltas() (xs, ys []float64) {
	return w.dx.ordered(), w.dy.ordered()
}

func (d *deltas) ordered() []float64 {
	out := make([]float64, 0, d.n)
	start := 0
	if d.n == windowSize {
		start = d.next
	}
	for i := 0; i < d.n; i++ {
		out = append(out, d.buf[(start+i)%windowSize])
	}
	return out
}
