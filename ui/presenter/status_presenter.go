package presenter

import (
	"fmt"
	"time"

	"github.com/soocke/pixel-tracker-go/ui/model"
)

// StatusView displays loop status.
type StatusView interface {
	SetFPS(text string)
	SetTarget(text string)
	SetBackends(capture, inference string)
	SetLock(current, total time.Duration)
}

// BackendInfo reports the active capture and inference backends.
type BackendInfo interface {
	CaptureBackend() string
	InferenceBackend() string
}

// StatusPresenter formats published loop status for the view.
type StatusPresenter struct {
	pub  *Publisher
	view StatusView
	lock *model.LockModel
	info BackendInfo

	last     model.Status
	capture  string
	infer    string
	sawFirst bool
}

// NewStatusPresenter returns a presenter draining pub into view.
func NewStatusPresenter(pub *Publisher, view StatusView, lock *model.LockModel, info BackendInfo) *StatusPresenter {
	return &StatusPresenter{pub: pub, view: view, lock: lock, info: info}
}

// Last returns the most recently drained status.
func (p *StatusPresenter) Last() model.Status {
	if p == nil {
		return model.Status{}
	}
	return p.last
}

// Tick drains pending status and pushes changes to the view. Call on the UI thread.
func (p *StatusPresenter) Tick(now time.Time) {
	if p == nil || p.pub == nil || p.view == nil {
		return
	}
	if s, ok := p.pub.Drain(); ok {
		if !p.sawFirst || s.FPS != p.last.FPS {
			p.view.SetFPS(FormatFPS(s.FPS))
		}
		p.view.SetTarget(FormatTarget(s))
		p.last = s
		p.sawFirst = true
	}
	p.lock.OnTick(p.last.HasTarget, now)
	p.view.SetLock(p.lock.Values())

	if p.info != nil {
		c, i := p.info.CaptureBackend(), p.info.InferenceBackend()
		if c != p.capture || i != p.infer {
			p.capture, p.infer = c, i
			p.view.SetBackends(c, i)
		}
	}
}

// FormatFPS renders the FPS label.
func FormatFPS(fps float64) string {
	if fps <= 0 {
		return "FPS: --"
	}
	return fmt.Sprintf("FPS: %.2f", fps)
}

// FormatTarget renders the target label.
func FormatTarget(s model.Status) string {
	if !s.HasTarget {
		if s.AimSeen {
			return fmt.Sprintf("Target: <searching> last (%d,%d)", s.Aim.X, s.Aim.Y)
		}
		return "Target: <searching>"
	}
	c := s.Box.Min.Add(s.Box.Max).Div(2)
	text := fmt.Sprintf("Target: (%d,%d)", c.X, c.Y)
	if s.ShowConfidence {
		text += fmt.Sprintf(" %.2f%%", float64(s.Confidence)*100)
	}
	return text
}
