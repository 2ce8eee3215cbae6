package app

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/soocke/pixel-tracker-go/domain/loop"
)

// LogPublisher reports loop output through the logger. Target and overlay lines are
// throttled to one per interval.
type LogPublisher struct {
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	last    time.Time
	tracked bool
}

var _ loop.Publisher = (*LogPublisher)(nil)

// NewLogPublisher returns a publisher logging at debug level.
func NewLogPublisher(logger *slog.Logger, interval time.Duration) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &LogPublisher{logger: logger.With("component", "publisher"), interval: interval, now: time.Now}
}

func (p *LogPublisher) due() bool {
	now := p.now()
	if now.Sub(p.last) < p.interval {
		return false
	}
	p.last = now
	return true
}

func (p *LogPublisher) ClearOverlay() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tracked {
		p.tracked = false
		p.logger.Debug("target lost")
	}
}

func (p *LogPublisher) Overlay(o loop.OverlayState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tracked = true
	if p.due() {
		p.logger.Debug("overlay", "box", o.Box.String(), "confidence", o.Confidence)
	}
}

func (p *LogPublisher) Target(x, y int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tracked = true
	if p.due() {
		p.logger.Debug("target", "x", x, "y", y)
	}
}

func (p *LogPublisher) FPS(fps float64) {
	p.logger.Debug("fps", "fps", fps)
}

func (p *LogPublisher) FOV(image.Point, int) {}

// Headless runs without a window until the context is cancelled.
type Headless struct {
	pub *LogPublisher
}

// NewHeadless returns a frontend publishing to logger.
func NewHeadless(logger *slog.Logger) *Headless {
	return &Headless{pub: NewLogPublisher(logger, time.Second)}
}

func (h *Headless) Publisher() loop.Publisher { return h.pub }

func (h *Headless) Run(ctx context.Context, c *Container) error {
	c.Logger.Info("running headless", "capture", c.CaptureBackend(), "inference", c.InferenceBackend())
	<-ctx.Done()
	return nil
}
