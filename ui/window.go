// Package ui hosts the Tk status window frontend.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/soocke/pixel-tracker-go/app"
	"github.com/soocke/pixel-tracker-go/config"
	"github.com/soocke/pixel-tracker-go/domain/loop"
	"github.com/soocke/pixel-tracker-go/ui/model"
	"github.com/soocke/pixel-tracker-go/ui/presenter"
	"github.com/soocke/pixel-tracker-go/ui/theme"
	"github.com/soocke/pixel-tracker-go/ui/view"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

const tick = 100 * time.Millisecond

// window is the Tk frontend. Run must be called on the main goroutine.
type window struct {
	title   string
	width   int
	height  int
	cfgPath string
	dark    bool
	logger  *slog.Logger
	pub     *presenter.Publisher

	ctx     context.Context
	loop    *presenter.Loop
	afterID string
	closed  bool
}

var _ app.Frontend = (*window)(nil)

// NewWindow returns an unbuilt window. cfgPath receives saved edits; empty disables saving.
func NewWindow(title string, width, height int, cfgPath string, dark bool, logger *slog.Logger) *window {
	if logger == nil {
		logger = slog.Default()
	}
	return &window{
		title:   title,
		width:   width,
		height:  height,
		cfgPath: cfgPath,
		dark:    dark,
		logger:  logger.With("component", "ui"),
		pub:     presenter.NewPublisher(),
	}
}

// Publisher returns the channel the loop publishes status through.
func (w *window) Publisher() loop.Publisher { return w.pub }

// Run builds the window and blocks in the Tk event loop until the window is closed
// or ctx is done.
func (w *window) Run(ctx context.Context, c *app.Container) error {
	w.ctx = ctx
	App.WmTitle(w.title)
	WmProtocol(App, "WM_DELETE_WINDOW", w.exit)
	WmGeometry(App, fmt.Sprintf("%dx%d+100+100", w.width, w.height))
	theme.SetDark(w.dark)

	rv := view.NewRootView(c.Config, w.cfgPath, w.logger)
	toggles := presenter.NewTogglePresenter(c.Config, rv, w.save, w.logger)
	rv.Build(func(f model.Feature) { toggles.Toggle(f) }, w.exit)
	toggles.Sync()

	status := presenter.NewStatusPresenter(w.pub, rv, model.NewLockModel(), c)
	focus := presenter.NewFocusPresenter(rv, w.logger, nil)
	w.loop = presenter.NewLoop(status, focus, w.schedule)

	w.schedule()
	App.Wait()
	return nil
}

func (w *window) save(s *config.Snapshot) error {
	if w.cfgPath == "" {
		return nil
	}
	return s.Save(w.cfgPath)
}

func (w *window) update() {
	if w.ctx != nil && w.ctx.Err() != nil {
		w.exit()
		return
	}
	w.loop.Tick()
}

func (w *window) schedule() {
	// TclAfter keeps the update on Tk's event loop thread.
	w.afterID = TclAfter(tick, w.update)
}

func (w *window) exit() {
	if w.closed {
		return
	}
	w.closed = true
	if w.afterID != "" {
		TclAfterCancel(w.afterID)
	}
	Destroy(App)
}
