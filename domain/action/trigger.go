// Package action performs the auxiliary mouse action fired for a selected target.
package action

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultCooldown is the minimum spacing between two trigger clicks.
	DefaultCooldown = 100 * time.Millisecond
	clickHold       = 20 * time.Millisecond
)

// Trigger clicks the primary mouse button. Fire returns immediately; the press
// and release run on their own goroutine and overlapping fires are dropped.
type Trigger struct {
	logger   *slog.Logger
	cooldown time.Duration
	press    func(down bool) error
	now      func() time.Time

	busy  atomic.Bool
	mu    sync.Mutex
	last  time.Time
	wg    sync.WaitGroup
	fired atomic.Uint64
}

// NewTrigger returns a trigger using the OS mouse.
func NewTrigger(logger *slog.Logger, cooldown time.Duration) *Trigger {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if logger != nil {
		logger = logger.With("component", "trigger")
	}
	return &Trigger{logger: logger, cooldown: cooldown, press: leftButton, now: time.Now}
}

// Fire clicks unless a click is in flight or the cooldown has not elapsed.
func (t *Trigger) Fire(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	t.mu.Lock()
	now := t.now()
	if !t.last.IsZero() && now.Sub(t.last) < t.cooldown {
		t.mu.Unlock()
		return
	}
	if !t.busy.CompareAndSwap(false, true) {
		t.mu.Unlock()
		return
	}
	t.last = now
	t.mu.Unlock()

	t.fired.Add(1)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer t.busy.Store(false)
		t.click(ctx)
	}()
}

func (t *Trigger) click(ctx context.Context) {
	if err := t.press(true); err != nil {
		if t.logger != nil {
			t.logger.Warn("trigger press failed", "error", err)
		}
		return
	}
	timer := time.NewTimer(clickHold)
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
	timer.Stop()
	// Always release so the button is never left held.
	if err := t.press(false); err != nil && t.logger != nil {
		t.logger.Warn("trigger release failed", "error", err)
	}
}

// Fired returns the number of clicks started.
func (t *Trigger) Fired() uint64 { return t.fired.Load() }

// Wait blocks until in-flight clicks finish.
func (t *Trigger) Wait() { t.wg.Wait() }
