package app

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/soocke/pixel-tracker-go/config"
	"github.com/soocke/pixel-tracker-go/domain/inference"
)

const modelPollInterval = 500 * time.Millisecond

type modelLoader interface {
	Load(ctx context.Context, path string, backends []inference.Backend) error
	Ready() bool
}

type modelKey struct {
	path     string
	backends []string
}

func keyOf(s *config.Snapshot) modelKey {
	return modelKey{path: s.ModelPath, backends: slices.Clone(s.Backends)}
}

func (k modelKey) equal(o modelKey) bool {
	return k.path == o.path && slices.Equal(k.backends, o.backends)
}

// loadModel loads the configured model. A failure leaves the engine unready; the
// loop keeps capturing and publishes nothing.
func loadModel(ctx context.Context, eng modelLoader, s *config.Snapshot, ready func(bool), logger *slog.Logger) {
	if s.ModelPath == "" {
		logger.Warn("no model configured; detection disabled")
		ready(eng.Ready())
		return
	}
	err := eng.Load(ctx, s.ModelPath, inference.ParseChain(s.Backends))
	if err != nil {
		logger.Error("model load failed", "model", s.ModelPath, "error", err)
	} else {
		logger.Info("model loaded", "model", s.ModelPath)
	}
	ready(eng.Ready())
}

// watchModel reloads the model whenever the configured path or backend chain changes.
func watchModel(ctx context.Context, store *config.Store, eng modelLoader, ready func(bool), logger *slog.Logger, interval time.Duration) {
	if interval <= 0 {
		interval = modelPollInterval
	}
	last := keyOf(store.Load())
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		s := store.Load()
		k := keyOf(s)
		if k.equal(last) {
			continue
		}
		last = k
		logger.Info("model settings changed; reloading", "model", s.ModelPath, "backends", s.Backends)
		loadModel(ctx, eng, s, ready, logger)
	}
}
