package presenter

import (
	"log/slog"
	"strings"
	"time"

	"github.com/soocke/pixel-tracker-go/domain/input"
)

// FocusView shows the foreground window title.
type FocusView interface {
	SetFocus(title string)
}

// FocusPresenter polls the foreground window title from the UI tick and reports
// changes, so the user can tell whether the game window holds focus.
type FocusPresenter struct {
	view       FocusView
	logger     *slog.Logger
	Foreground func() (string, error)
	interval   time.Duration
	next       time.Time
	lastTitle  string
	errLogged  bool
}

// NewFocusPresenter constructs a focus presenter; fg defaults to the OS query.
func NewFocusPresenter(view FocusView, logger *slog.Logger, fg func() (string, error)) *FocusPresenter {
	if fg == nil {
		fg = input.ForegroundWindowTitle
	}
	return &FocusPresenter{view: view, logger: logger, Foreground: fg, interval: 250 * time.Millisecond}
}

// Tick polls at most once per interval and updates the view on change.
func (p *FocusPresenter) Tick(now time.Time) {
	if p == nil || p.view == nil || p.Foreground == nil {
		return
	}
	if now.Before(p.next) {
		return
	}
	p.next = now.Add(p.interval)
	title, err := p.Foreground()
	if err != nil {
		if !p.errLogged && p.logger != nil {
			p.logger.Debug("foreground title unavailable", "error", err)
		}
		p.errLogged = true
		return
	}
	title = strings.TrimSpace(title)
	if title == p.lastTitle {
		return
	}
	p.lastTitle = title
	if title == "" {
		title = "<none>"
	}
	p.view.SetFocus(title)
}
