package view

import (
	"log/slog"
	"time"

	"github.com/soocke/pixel-tracker-go/config"
	"github.com/soocke/pixel-tracker-go/ui/model"
	"github.com/soocke/pixel-tracker-go/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// RootView composes the status window layout and wires UI callbacks.
// It owns the subviews and implements the presenter view contracts.
type RootView struct {
	store   *config.Store
	cfgPath string
	logger  *slog.Logger

	Lock        LockStats
	ConfigPanel ConfigPanel

	fpsLabel     *LabelWidget
	targetLabel  *LabelWidget
	backendLabel *LabelWidget
	focusLabel   *LabelWidget
	toggles      map[model.Feature]*TButtonWidget
}

func NewRootView(store *config.Store, cfgPath string, logger *slog.Logger) *RootView {
	return &RootView{store: store, cfgPath: cfgPath, logger: logger, toggles: make(map[model.Feature]*TButtonWidget)}
}

// Build constructs the layout. onToggle is invoked with the feature whose button
// was pressed; onExit closes the application.
func (rv *RootView) Build(onToggle func(model.Feature), onExit func()) {
	if rv == nil {
		return
	}
	// Row 0: FPS, lock stats, exit
	rv.fpsLabel = Label(Txt("FPS: --"), Foreground(theme.CurrentPalette().Primary), Width(14), Anchor("w"))
	Grid(rv.fpsLabel, Row(0), Column(0), Sticky("w"), Padx("0.4m"), Pady("0.3m"))
	rv.Lock = NewLockStats(nil, 0, 1)
	exitBtn := TButton(Txt("Exit"), Style(theme.StyleDangerButton), Command(onExit))
	Grid(exitBtn, Row(0), Column(3), Sticky("ne"), Padx("0.3m"), Pady("0.3m"))

	// Row 1-3: status lines
	rv.targetLabel = Label(Txt("Target: <searching>"), Borderwidth(1), Relief("ridge"), Anchor("w"))
	Grid(rv.targetLabel, Row(1), Column(0), Columnspan(4), Sticky("we"), Padx("0.4m"), Pady("0.2m"))
	rv.backendLabel = Label(Txt("Capture: - | Inference: -"), Anchor("w"))
	Grid(rv.backendLabel, Row(2), Column(0), Columnspan(4), Sticky("we"), Padx("0.4m"), Pady("0.2m"))
	rv.focusLabel = Label(Txt("Focus: <none>"), Anchor("w"))
	Grid(rv.focusLabel, Row(3), Column(0), Columnspan(4), Sticky("we"), Padx("0.4m"), Pady("0.2m"))

	// Toggles
	btnFrame := Frame()
	Grid(btnFrame, Row(4), Column(0), Columnspan(4), Sticky("we"), Padx("0.3m"), Pady("0.3m"))
	for i, f := range model.Features {
		f := f
		btn := TButton(Txt(toggleText(f, false)), Style(theme.StyleToggleButton), Command(func() { onToggle(f) }))
		Grid(btn, In(btnFrame), Row(i/3), Column(i%3), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
		rv.toggles[f] = btn
	}

	// Config panel rows
	rv.ConfigPanel = NewConfigPanel(rv.store, rv.cfgPath, rv.logger)
	rv.ConfigPanel.Build(5)
}

// SetFPS implements presenter.StatusView.
func (rv *RootView) SetFPS(text string) { rv.configure(rv.fpsLabel, text) }

// SetTarget implements presenter.StatusView.
func (rv *RootView) SetTarget(text string) { rv.configure(rv.targetLabel, text) }

// SetBackends implements presenter.StatusView.
func (rv *RootView) SetBackends(capture, inference string) {
	if inference == "" {
		inference = "<not ready>"
	}
	rv.configure(rv.backendLabel, "Capture: "+capture+" | Inference: "+inference)
}

// SetLock implements presenter.StatusView.
func (rv *RootView) SetLock(current, total time.Duration) {
	if rv != nil && rv.Lock != nil {
		rv.Lock.SetLock(current, total)
	}
}

// SetFocus implements presenter.FocusView.
func (rv *RootView) SetFocus(title string) { rv.configure(rv.focusLabel, "Focus: "+title) }

// SetToggle implements presenter.ToggleView.
func (rv *RootView) SetToggle(f model.Feature, on bool) {
	if rv == nil {
		return
	}
	if btn := rv.toggles[f]; btn != nil {
		style := theme.StyleToggleButton
		if on {
			style = theme.StylePrimaryButton
		}
		btn.Configure(Txt(toggleText(f, on)), Style(style))
	}
}

func (rv *RootView) configure(lbl *LabelWidget, text string) {
	if rv == nil || lbl == nil {
		return
	}
	// Widgets may already be destroyed while the window closes.
	defer func() { _ = recover() }()
	lbl.Configure(Txt(text))
}

func toggleText(f model.Feature, on bool) string {
	if on {
		return f.Label() + ": ON"
	}
	return f.Label() + ": OFF"
}
