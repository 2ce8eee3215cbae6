package view

import (
	"log/slog"
	"strings"

	"github.com/soocke/pixel-tracker-go/config"
	"github.com/soocke/pixel-tracker-go/ui/model"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// ConfigPanel encapsulates the configuration form widgets and apply logic.
// ApplyChanges publishes a new snapshot to the store and persists it.
type ConfigPanel interface {
	Build(startRow int) (endRow int) // constructs widgets starting at startRow, returns next free row
	Refresh()                        // reloads widget text from the current snapshot
	ApplyChanges()
}

type configPanel struct {
	store    *config.Store
	cfgPath  string
	logger   *slog.Logger
	applyBtn *ButtonWidget
	widgets  map[string]*TextWidget // keyed by model.ConfigField ID
}

// NewConfigPanel creates the view bound to store.
func NewConfigPanel(store *config.Store, cfgPath string, logger *slog.Logger) ConfigPanel {
	return &configPanel{store: store, cfgPath: cfgPath, logger: logger, widgets: make(map[string]*TextWidget)}
}

func (v *configPanel) Build(startRow int) (row int) {
	row = startRow
	for _, f := range model.ConfigFields {
		lbl := Label(Txt(f.Label), Anchor("w"))
		Grid(lbl, Row(row), Column(0), Columnspan(2), Sticky("w"), Padx("0.4m"), Pady("0.15m"))
		w := Text(Height(1), Width(16))
		Grid(w, Row(row), Column(2), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
		v.widgets[f.ID] = w
		row++
	}
	v.Refresh()
	v.applyBtn = Button(Txt("Apply Changes"), Command(func() { v.ApplyChanges() }))
	Grid(v.applyBtn, Row(row), Column(0), Columnspan(4), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	row++
	return row
}

func (v *configPanel) Refresh() {
	snap := v.store.Load()
	for _, f := range model.ConfigFields {
		if w := v.widgets[f.ID]; w != nil {
			w.Delete("1.0", END)
			w.Insert("1.0", f.Get(snap))
		}
	}
}

func (v *configPanel) text(w *TextWidget) string {
	if w == nil {
		return ""
	}
	return strings.Join(w.Get("1.0", END), "")
}

func (v *configPanel) ApplyChanges() {
	if v.store == nil {
		return
	}
	values := make(map[string]string, len(v.widgets))
	for id, w := range v.widgets {
		values[id] = v.text(w)
	}
	next, invalid := model.ApplyFields(v.store.Load(), values)
	if len(invalid) > 0 && v.logger != nil {
		v.logger.Warn("ignored invalid config values", "fields", invalid)
	}
	snap := v.store.Publish(next)
	// Validation may have clamped values; show what is in effect.
	v.Refresh()
	if v.cfgPath == "" {
		return
	}
	if err := snap.Save(v.cfgPath); err != nil {
		if v.logger != nil {
			v.logger.Error("config save failed", "error", err)
		}
	} else if v.logger != nil {
		v.logger.Info("config saved", "path", v.cfgPath, "version", snap.Version)
	}
}
