// Package predict stabilizes a stream of target positions.
package predict

import (
	"time"
)

// Kind names a prediction strategy.
type Kind string

const (
	KindKalman Kind = "kalman"
	KindWindow Kind = "window"
	KindEMA    Kind = "ema"
)

// Axis selects which coordinates a strategy smooths; the rest pass through.
type Axis string

const (
	AxisDefault Axis = ""
	AxisX       Axis = "x"
	AxisY       Axis = "y"
	AxisBoth    Axis = "both"
)

func (a Axis) smoothX() bool { return a == AxisX || a == AxisBoth }
func (a Axis) smoothY() bool { return a == AxisY || a == AxisBoth }

// Predictor turns a raw position sample into a stabilized one. Implementations keep
// state between calls and are not safe for concurrent use.
type Predictor interface {
	Update(x, y float64, t time.Time) (float64, float64)
	Reset()
	Kind() Kind
}

// Options tune the strategies. Zero values take the defaults below.
type Options struct {
	Axes Axis
	// EMA time constant.
	Tau time.Duration
	// Kalman process and measurement noise, in pixel units.
	ProcessNoise     float64
	MeasurementNoise float64
	// Upper bound on the Kalman prediction step.
	MaxDt time.Duration
}

const (
	DefaultTau              = 50 * time.Millisecond
	DefaultProcessNoise     = 50
	DefaultMeasurementNoise = 4
	DefaultMaxDt            = 250 * time.Millisecond
	windowSize              = 5
)

// withDefaults fills zero fields; the axis default depends on kind.
func (o Options) withDefaults(kind Kind) Options {
	if o.Axes == AxisDefault {
		if kind == KindKalman {
			o.Axes = AxisBoth
		} else {
			o.Axes = AxisX
		}
	}
	if o.Tau <= 0 {
		o.Tau = DefaultTau
	}
	if o.ProcessNoise <= 0 {
		o.ProcessNoise = DefaultProcessNoise
	}
	if o.MeasurementNoise <= 0 {
		o.MeasurementNoise = DefaultMeasurementNoise
	}
	if o.MaxDt <= 0 {
		o.MaxDt = DefaultMaxDt
	}
	return o
}

// New builds a predictor with fresh state. Unknown kinds fall back to Kalman.
func New(kind Kind, opts Options) Predictor {
	switch kind {
	case KindWindow:
		return NewDeltaWindow(opts)
	case KindEMA:
		return NewEMA(opts)
	default:
		return NewKalman(opts)
	}
}

// Switcher holds the single active predictor.
type Switcher struct {
	cur  Predictor
	kind Kind
	opts Options
}

// Ensure returns the active predictor for kind and opts. A change of either replaces
// the predictor wholesale so no state carries over between strategies.
func (s *Switcher) Ensure(kind Kind, opts Options) Predictor {
	if s.cur == nil || s.kind != kind || s.opts != opts {
		s.cur = New(kind, opts)
		s.kind, s.opts = kind, opts
	}
	return s.cur
}

// Reset clears the active predictor's state, if any.
func (s *Switcher) Reset() {
	if s.cur != nil {
		s.cur.Reset()
	}
}
