package predict

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func at(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

func TestDeltaWindow_KeepsLastFiveDeltas(t *testing.T) {
	w := NewDeltaWindow(Options{})
	xs := []float64{0, 1, 3, 6, 10, 15, 21}
	for i, x := range xs {
		w.Update(x, 0, at(i))
	}
	dx, dy := w.Deltas()
	assert.Equal(t, []float64{2, 3, 4, 5, 6}, dx, "sixth delta evicts the first")
	assert.Len(t, dy, 5)
}

func TestDeltaWindow_OutputIsPreviousPlusMean(t *testing.T) {
	w := NewDeltaWindow(Options{})
	x, y := w.Update(100, 50, at(0))
	assert.Equal(t, 100.0, x)
	assert.Equal(t, 50.0, y)

	x, y = w.Update(110, 70, at(1))
	assert.Equal(t, 110.0, x)
	assert.Equal(t, 70.0, y, "y passes through by default")

	x, _ = w.Update(130, 90, at(2))
	assert.Equal(t, 110.0+15.0, x)
}

func TestDeltaWindow_BothAxes(t *testing.T) {
	w := NewDeltaWindow(Options{Axes: AxisBoth})
	w.Update(0, 0, at(0))
	w.Update(10, 10, at(1))
	_, y := w.Update(30, 30, at(2))
	assert.Equal(t, 25.0, y)
}

func TestEMA_AlphaFromElapsedTime(t *testing.T) {
	e := NewEMA(Options{Tau: 50 * time.Millisecond})
	x, _ := e.Update(0, 0, at(0))
	assert.Equal(t, 0.0, x)

	x, y := e.Update(100, 40, at(50))
	assert.InDelta(t, 100*(1-math.Exp(-1)), x, 1e-9)
	assert.Equal(t, 40.0, y)

	// no elapsed time, no movement
	x2, _ := e.Update(1000, 0, at(50))
	assert.InDelta(t, x, x2, 1e-9)
}

func TestEMA_ConvergesToConstantInput(t *testing.T) {
	e := NewEMA(Options{})
	var x float64
	for i := 0; i < 100; i++ {
		x, _ = e.Update(200, 0, at(i*16))
	}
	assert.InDelta(t, 200, x, 1e-6)
}

func TestKalman_FirstUpdatePassesThrough(t *testing.T) {
	k := NewKalman(Options{})
	x, y := k.Update(12, 34, at(0))
	assert.Equal(t, 12.0, x)
	assert.Equal(t, 34.0, y)
}

func TestKalman_TracksConstantVelocity(t *testing.T) {
	k := NewKalman(Options{})
	var x, y float64
	for i := 0; i <= 120; i++ {
		tx, ty := 100+float64(i)*2, 300-float64(i)
		x, y = k.Update(tx, ty, at(i*10))
	}
	assert.InDelta(t, 100+240.0, x, 5)
	assert.InDelta(t, 300-120.0, y, 5)
	_, _, vx, vy := k.State()
	assert.InDelta(t, 200, vx, 50, "pixels per second")
	assert.InDelta(t, -100, vy, 50)
}

func TestKalman_PicksUpVelocityWithinFewSamples(t *testing.T) {
	k := NewKalman(Options{})
	for i := 0; i <= 10; i++ {
		k.Update(float64(i)*5, 50, at(i*10))
	}
	_, _, vx, vy := k.State()
	assert.InDelta(t, 500, vx, 50, "pixels per second")
	assert.InDelta(t, 0, vy, 5)
}

func TestKalman_SmoothsNoise(t *testing.T) {
	k := NewKalman(Options{})
	var maxDev float64
	for i := 0; i < 200; i++ {
		noise := 5.0
		if i%2 == 0 {
			noise = -5
		}
		x, _ := k.Update(500+noise, 500, at(i*10))
		if i > 50 {
			maxDev = math.Max(maxDev, math.Abs(x-500))
		}
	}
	assert.Less(t, maxDev, 5.0)
}

func TestKalman_RecoversFromNaN(t *testing.T) {
	k := NewKalman(Options{})
	k.Update(1, 1, at(0))
	x, y := k.Update(math.NaN(), 2, at(10))
	assert.True(t, math.IsNaN(x))
	assert.Equal(t, 2.0, y)
	x, y = k.Update(5, 6, at(20))
	assert.False(t, math.IsNaN(x))
	assert.False(t, math.IsNaN(y))
}

func TestKalman_XAxisOnly(t *testing.T) {
	k := NewKalman(Options{Axes: AxisX})
	k.Update(0, 0, at(0))
	_, y := k.Update(0, 17, at(10))
	assert.Equal(t, 17.0, y)
}

func TestSwitcher_ReplacesOnChangeOnly(t *testing.T) {
	var s Switcher
	a := s.Ensure(KindWindow, Options{})
	a.Update(0, 0, at(0))
	a.Update(10, 0, at(1))
	assert.Same(t, a, s.Ensure(KindWindow, Options{}))

	b := s.Ensure(KindEMA, Options{})
	require.NotSame(t, a, b)
	assert.Equal(t, KindEMA, b.Kind())
	x, _ := b.Update(500, 0, at(2))
	assert.Equal(t, 500.0, x, "fresh strategy starts from the measurement")

	c := s.Ensure(KindWindow, Options{})
	x, _ = c.Update(42, 0, at(3))
	assert.Equal(t, 42.0, x, "switching back does not resurrect old window state")

	d := s.Ensure(KindWindow, Options{Axes: AxisBoth})
	assert.NotSame(t, c, d)
}

func TestNew_UnknownKindIsKalman(t *testing.T) {
	assert.Equal(t, KindKalman, New(Kind("bogus"), Options{}).Kind())
}
