package presenter

import (
	"image"
	"sync"

	"github.com/soocke/pixel-tracker-go/domain/loop"
	"github.com/soocke/pixel-tracker-go/ui/model"
)

// Publisher hands detection loop output to the UI thread. The loop side only merges
// into a pending Status and signals a one-slot channel, so it never blocks; the UI
// tick drains the latest Status and older intermediate states are dropped.
type Publisher struct {
	mu      sync.Mutex
	pending model.Status
	notify  chan struct{}
}

var _ loop.Publisher = (*Publisher)(nil)

// NewPublisher returns an empty publisher.
func NewPublisher() *Publisher {
	return &Publisher{notify: make(chan struct{}, 1)}
}

func (p *Publisher) update(fn func(*model.Status)) {
	p.mu.Lock()
	fn(&p.pending)
	p.pending.Seq++
	p.mu.Unlock()
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// ClearOverlay implements loop.Publisher.
func (p *Publisher) ClearOverlay() {
	p.update(func(s *model.Status) {
		s.HasTarget = false
		s.Box = image.Rectangle{}
		s.Confidence = 0
	})
}

// Overlay implements loop.Publisher.
func (p *Publisher) Overlay(o loop.OverlayState) {
	p.update(func(s *model.Status) {
		s.HasTarget = true
		s.Box = o.Box
		s.Confidence = o.Confidence
		s.ShowConfidence = o.ShowConfidence
		s.Tracer = o.Tracer
		s.Opacity = o.Opacity
	})
}

// Target implements loop.Publisher.
func (p *Publisher) Target(x, y int) {
	p.update(func(s *model.Status) {
		s.Aim = image.Pt(x, y)
		s.AimSeen = true
	})
}

// FPS implements loop.Publisher.
func (p *Publisher) FPS(fps float64) {
	p.update(func(s *model.Status) { s.FPS = fps })
}

// FOV implements loop.Publisher.
func (p *Publisher) FOV(center image.Point, size int) {
	p.update(func(s *model.Status) {
		s.FOVCenter = center
		s.FOVSize = size
	})
}

// Drain returns the latest Status if anything changed since the last drain.
func (p *Publisher) Drain() (model.Status, bool) {
	select {
	case <-p.notify:
	default:
		return model.Status{}, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending, true
}
