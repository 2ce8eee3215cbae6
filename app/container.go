// Package app assembles the detection services and runs them alongside a frontend.
package app

import (
	"fmt"
	"log/slog"

	"github.com/soocke/pixel-tracker-go/config"
	"github.com/soocke/pixel-tracker-go/debug"
	"github.com/soocke/pixel-tracker-go/domain/action"
	"github.com/soocke/pixel-tracker-go/domain/capture"
	"github.com/soocke/pixel-tracker-go/domain/dataset"
	"github.com/soocke/pixel-tracker-go/domain/inference"
	"github.com/soocke/pixel-tracker-go/domain/input"
	"github.com/soocke/pixel-tracker-go/domain/loop"
	"github.com/soocke/pixel-tracker-go/metrics"
)

// Container holds every long-lived service of one run.
type Container struct {
	Config   *config.Store
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Frames   *capture.Router
	Engine   *inference.Engine
	Recorder *dataset.Collector
	Keys     *input.Bindings
	Trigger  *action.Trigger
	Loop     *loop.Loop
	Monitor  *debug.Monitor
}

// BuildContainer constructs all services from the current configuration. Nothing is
// started; the model is not loaded.
func BuildContainer(store *config.Store, logger *slog.Logger, pub loop.Publisher) (*Container, error) {
	if store == nil {
		return nil, fmt.Errorf("build container: nil config store")
	}
	if logger == nil {
		logger = slog.Default()
	}
	snap := store.Load()
	c := &Container{Config: store, Logger: logger}

	m, err := metrics.New()
	if err != nil {
		return nil, err
	}
	c.Metrics = m

	c.Frames = capture.NewRouter(logger)
	c.Frames.OnFailure(func(class capture.ErrorClass, teardown bool) {
		m.Loop.CaptureFailure(class.String(), teardown)
	})
	c.Engine = inference.NewEngine(logger, inference.Options{
		Size:            snap.ModelSize,
		Slots:           snap.ModelSlots,
		OnnxLibraryPath: snap.OnnxLibraryPath,
	})
	c.Recorder = dataset.NewCollector(snap.DatasetDir, logger)
	c.Keys = input.NewBindings()
	c.Trigger = action.NewTrigger(logger, action.DefaultCooldown)

	c.Loop, err = loop.New(loop.Deps{
		Config:    store,
		Frames:    c.Frames,
		Engine:    c.Engine,
		Publisher: pub,
		Trigger:   c.Trigger,
		Keys:      c.Keys,
		Recorder:  c.Recorder,
		Metrics:   m.Loop,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build loop: %w", err)
	}
	c.Monitor = debug.NewMonitor(logger, 0, c.debugAttrs)
	return c, nil
}

// CaptureBackend names the active capture backend.
func (c *Container) CaptureBackend() string {
	if b := c.Frames.Backend(); b != "" {
		return b
	}
	return "none"
}

// InferenceBackend names the backend the model runs on, or "none" when unloaded.
func (c *Container) InferenceBackend() string {
	if !c.Engine.Ready() {
		return "none"
	}
	return string(c.Engine.Backend())
}

func (c *Container) debugAttrs() []any {
	st := c.Frames.Stats()
	return []any{
		"cycles", c.Loop.Cycles(),
		"detections", c.Loop.Detections(),
		"capture_backend", st.Backend,
		"captures", st.Captures,
		"capture_failures", st.Failures,
		"capture_reinits", st.Reinitializations,
		"capture_avg", st.AvgCapture,
		"inference_backend", c.InferenceBackend(),
		"triggers", c.Trigger.Fired(),
		"saved_frames", c.Recorder.Saved(),
	}
}
