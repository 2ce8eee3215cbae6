package presenter

import (
	"log/slog"

	"github.com/soocke/pixel-tracker-go/config"
	"github.com/soocke/pixel-tracker-go/ui/model"
)

// ToggleView reflects the on/off state of a feature.
type ToggleView interface {
	SetToggle(f model.Feature, on bool)
}

// TogglePresenter flips feature toggles by publishing new configuration snapshots.
type TogglePresenter struct {
	store  *config.Store
	view   ToggleView
	save   func(*config.Snapshot) error
	logger *slog.Logger
}

// NewTogglePresenter returns a presenter writing to store. save persists the new
// snapshot and may be nil.
func NewTogglePresenter(store *config.Store, view ToggleView, save func(*config.Snapshot) error, logger *slog.Logger) *TogglePresenter {
	return &TogglePresenter{store: store, view: view, save: save, logger: logger}
}

// Sync pushes the current toggle states to the view.
func (p *TogglePresenter) Sync() {
	if p == nil || p.store == nil || p.view == nil {
		return
	}
	snap := p.store.Load()
	for _, f := range model.Features {
		p.view.SetToggle(f, *field(snap, f))
	}
}

// Toggle flips f and returns its new state.
func (p *TogglePresenter) Toggle(f model.Feature) bool {
	if p == nil || p.store == nil {
		return false
	}
	var on bool
	snap := p.store.Update(func(s *config.Snapshot) {
		ptr := field(s, f)
		*ptr = !*ptr
		on = *ptr
	})
	if p.view != nil {
		p.view.SetToggle(f, on)
	}
	if p.logger != nil {
		p.logger.Info("feature toggled", "feature", string(f), "on", on, "version", snap.Version)
	}
	if p.save != nil {
		if err := p.save(snap); err != nil && p.logger != nil {
			p.logger.Error("config save failed", "error", err)
		}
	}
	return on
}

func field(s *config.Snapshot, f model.Feature) *bool {
	switch f {
	case model.FeatureOverlay:
		return &s.ShowOverlay
	case model.FeaturePredictions:
		return &s.Predictions
	case model.FeatureConstantTracking:
		return &s.ConstantTracking
	case model.FeatureAutoTrigger:
		return &s.AutoTrigger
	default:
		return &s.AimAssist
	}
}
