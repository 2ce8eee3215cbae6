package capture

import (
	"context"
	"image"
	"log/slog"
	"sync/atomic"
	"time"
)

// SessionState is the lifecycle state of GPU capture resources.
type SessionState int

const (
	StateUninitialized SessionState = iota
	StateReady
	StateLost
)

func (s SessionState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateLost:
		return "lost"
	default:
		return "unknown"
	}
}

// device is the resource set a Session drives. open creates the device, context and
// duplication handle; grab copies region into dst within timeout; teardown releases
// everything open created (including staging resources) and must be idempotent.
type device interface {
	open() error
	grab(region image.Rectangle, dst *Buffer, timeout time.Duration) error
	teardown()
}

// Session wraps a device with the Uninitialized -> Ready -> Lost -> Uninitialized state
// machine. Errors never leave Acquire; a failed cycle yields (nil, nil).
type Session struct {
	name    string
	dev     device
	logger  *slog.Logger
	timeout time.Duration
	backoff time.Duration
	sleep   func(ctx context.Context, d time.Duration)
	onFail  func(ErrorClass)

	state   SessionState
	buf     Buffer
	reinits atomic.Uint64
	lastErr atomic.Pointer[ErrorClass]
}

func newSession(name string, dev device, logger *slog.Logger, timeout, backoff time.Duration) *Session {
	return &Session{name: name, dev: dev, logger: logger, timeout: timeout, backoff: backoff, sleep: sleepCtx}
}

// Name implements Source.
func (s *Session) Name() string { return s.name }

// State returns the current lifecycle state.
func (s *Session) State() SessionState { return s.state }

// Reinitializations returns how many full teardowns have happened.
func (s *Session) Reinitializations() uint64 { return s.reinits.Load() }

// LastErrorClass returns the class of the most recent failure.
func (s *Session) LastErrorClass() ErrorClass {
	if c := s.lastErr.Load(); c != nil {
		return *c
	}
	return ClassNone
}

// SetTiming updates the frame wait timeout and the post-teardown backoff.
func (s *Session) SetTiming(timeout, backoff time.Duration) {
	s.timeout, s.backoff = timeout, backoff
}

// Acquire implements Source.
func (s *Session) Acquire(ctx context.Context, region image.Rectangle) (*Buffer, error) {
	if region.Empty() {
		return nil, nil
	}
	if s.state != StateReady {
		if err := s.dev.open(); err != nil {
			s.fail(ctx, Classify(err), err)
			return nil, nil
		}
		s.state = StateReady
		if s.logger != nil {
			s.logger.Debug("capture session ready", "backend", s.name)
		}
	}
	err := s.dev.grab(region, &s.buf, s.timeout)
	if err == nil {
		return &s.buf, nil
	}
	s.fail(ctx, Classify(err), err)
	return nil, nil
}

// fail applies the transition for class. Transient errors leave the session Ready.
func (s *Session) fail(ctx context.Context, class ErrorClass, err error) {
	s.lastErr.Store(&class)
	if s.onFail != nil {
		s.onFail(class)
	}
	if class == ClassTransient {
		if s.logger != nil {
			s.logger.Debug("capture transient", "backend", s.name, "error", err)
		}
		return
	}
	s.state = StateLost
	if s.logger != nil {
		s.logger.Warn("capture lost; reinitializing", "backend", s.name, "class", class.String(), "error", err)
	}
	s.dev.teardown()
	s.buf.release()
	s.state = StateUninitialized
	s.reinits.Add(1)
	if s.backoff > 0 {
		s.sleep(ctx, s.backoff)
	}
}

// Close implements Source.
func (s *Session) Close() error {
	s.dev.teardown()
	s.buf.release()
	s.state = StateUninitialized
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
