package capture

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const statsLogInterval = 5 * time.Second

// Stats summarises capture behaviour for instrumentation.
type Stats struct {
	Backend           string
	Captures          uint64
	Skipped           uint64
	Failures          uint64
	Reinitializations uint64
	AvgCapture        time.Duration
	LastErrorClass    ErrorClass
}

// Router owns the active capture backend and implements the loop's acquire contract:
// it returns a buffer or nil, never an error. Failures are logged and counted.
type Router struct {
	logger *slog.Logger

	newDXGI    func(logger *slog.Logger, timeout, backoff time.Duration) (*Session, error)
	newGeneric func() Source

	mu       sync.Mutex
	active   Source
	want     string
	fellBack bool
	timeout  time.Duration
	backoff  time.Duration

	onFailure func(class ErrorClass, teardown bool)

	backend      atomic.Pointer[string]
	captures     atomic.Uint64
	skipped      atomic.Uint64
	failures     atomic.Uint64
	reinits      atomic.Uint64
	captureNanos atomic.Uint64
	lastClass    atomic.Int32
	lastLog      time.Time
}

// NewRouter returns a router with no backend selected; the first Configure call picks one.
func NewRouter(logger *slog.Logger) *Router {
	if logger != nil {
		logger = logger.With("component", "capture")
	}
	return &Router{logger: logger, newDXGI: NewDXGISource, newGeneric: NewScreenshotSource}
}

// OnFailure registers a hook called for every capture failure with its class and
// whether the backend was torn down.
func (r *Router) OnFailure(fn func(class ErrorClass, teardown bool)) {
	r.mu.Lock()
	r.onFailure = fn
	r.mu.Unlock()
}

// Configure selects backend ("dxgi" or "screenshot") with the given frame wait timeout
// and teardown backoff. A changed backend closes the previous one before the next is
// opened. When the GPU backend cannot start, the generic backend is used instead and
// the fallback is logged once per configured choice.
func (r *Router) Configure(backend string, timeout, backoff time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeout, r.backoff = timeout, backoff
	if backend == r.want && r.active != nil {
		if s, ok := r.active.(*Session); ok {
			s.SetTiming(timeout, backoff)
		}
		return
	}
	r.closeActiveLocked()
	r.want = backend
	r.fellBack = false

	if backend == BackendDXGI {
		s, err := r.newDXGI(r.logger, timeout, backoff)
		if err == nil {
			s.onFail = r.reportSession
			r.setActiveLocked(s)
			return
		}
		r.fellBack = true
		if r.logger != nil {
			r.logger.Warn("gpu capture unavailable; falling back", "fallback", BackendScreenshot, "error", err)
		}
	}
	r.setActiveLocked(r.newGeneric())
}

func (r *Router) setActiveLocked(src Source) {
	r.active = src
	name := src.Name()
	r.backend.Store(&name)
	if r.logger != nil {
		r.logger.Info("capture backend active", "backend", name)
	}
}

func (r *Router) closeActiveLocked() {
	if r.active == nil {
		return
	}
	if err := r.active.Close(); err != nil && r.logger != nil {
		r.logger.Warn("capture backend close", "backend", r.active.Name(), "error", err)
	}
	r.active = nil
}

// Acquire grabs region from the active backend. It returns nil when no frame is
// available this cycle for any reason.
func (r *Router) Acquire(ctx context.Context, region image.Rectangle) *Buffer {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		r.skipped.Add(1)
		return nil
	}
	start := time.Now()
	buf, err := r.active.Acquire(ctx, region)
	if err != nil {
		class := Classify(err)
		r.report(class, false)
		if r.logger != nil && class != ClassTransient {
			r.logger.Error("capture", "backend", r.active.Name(), "region", region, "error", err)
		}
	}
	if buf == nil {
		r.skipped.Add(1)
		return nil
	}
	r.captureNanos.Add(uint64(time.Since(start).Nanoseconds()))
	r.captures.Add(1)
	if time.Since(r.lastLog) >= statsLogInterval {
		r.lastLog = time.Now()
		r.logStats()
	}
	return buf
}

// reportSession counts a session failure; anything but a transient one tore the
// session down.
func (r *Router) reportSession(class ErrorClass) {
	teardown := class != ClassTransient
	if teardown {
		r.reinits.Add(1)
	}
	r.report(class, teardown)
}

func (r *Router) report(class ErrorClass, teardown bool) {
	r.failures.Add(1)
	r.lastClass.Store(int32(class))
	if r.onFailure != nil {
		r.onFailure(class, teardown)
	}
}

// Backend returns the name of the active backend, or "" before Configure.
func (r *Router) Backend() string {
	if p := r.backend.Load(); p != nil {
		return *p
	}
	return ""
}

// FellBack reports whether the configured GPU backend was replaced by the generic one.
func (r *Router) FellBack() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fellBack
}

// Stats returns a snapshot of the capture counters.
func (r *Router) Stats() Stats {
	captures := r.captures.Load()
	total := r.captureNanos.Load()
	var avg time.Duration
	if captures > 0 {
		avg = time.Duration(total / captures)
	}
	return Stats{
		Backend:           r.Backend(),
		Captures:          captures,
		Skipped:           r.skipped.Load(),
		Failures:          r.failures.Load(),
		Reinitializations: r.reinits.Load(),
		AvgCapture:        avg,
		LastErrorClass:    ErrorClass(r.lastClass.Load()),
	}
}

func (r *Router) logStats() {
	if r.logger == nil {
		return
	}
	captures := r.captures.Load()
	var avg time.Duration
	if captures > 0 {
		avg = time.Duration(r.captureNanos.Load() / captures)
	}
	r.logger.Debug("capture.stats",
		"backend", r.Backend(),
		"captures", captures,
		"skipped", r.skipped.Load(),
		"failures", r.failures.Load(),
		"avg_capture", avg,
	)
}

// Close releases the active backend.
func (r *Router) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closeActiveLocked()
	r.want = ""
	return nil
}
