package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/soocke/pixel-tracker-go/config"
	"github.com/soocke/pixel-tracker-go/domain/loop"
)

// Frontend presents loop output. Run blocks on the calling goroutine until the user
// exits or ctx is done.
type Frontend interface {
	Publisher() loop.Publisher
	Run(ctx context.Context, c *Container) error
}

// Options configure Run.
type Options struct {
	Store    *config.Store
	Loader   *config.Loader // optional; enables file watching
	Frontend Frontend
	Logger   *slog.Logger
}

// Run builds the services, loads the model, starts the loop and blocks in the
// frontend. On return the loop is stopped within the configured timeout and capture
// and inference resources are released.
func Run(ctx context.Context, opts Options) error {
	if opts.Frontend == nil {
		return errors.New("run: nil frontend")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c, err := BuildContainer(opts.Store, logger, opts.Frontend.Publisher())
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	snap := opts.Store.Load()
	loadModel(ctx, c.Engine, snap, c.Metrics.Loop.SetInferenceReady, logger)

	g, gctx := errgroup.WithContext(ctx)
	if snap.MetricsAddr != "" {
		g.Go(func() error { return c.Metrics.Serve(gctx, snap.MetricsAddr, logger) })
	}
	if snap.Debug {
		c.Monitor.Start(gctx)
	}
	if opts.Loader != nil {
		opts.Loader.Watch(opts.Store, logger)
	}
	g.Go(func() error {
		watchModel(gctx, opts.Store, c.Engine, c.Metrics.Loop.SetInferenceReady, logger, modelPollInterval)
		return nil
	})

	c.Loop.Start(gctx)
	logger.Info("detection loop started", "capture", snap.CaptureBackend, "model", snap.ModelPath)

	ferr := opts.Frontend.Run(gctx, c)
	cancel()

	timeout := opts.Store.Load().StopTimeout()
	if !c.Loop.Stop(timeout) {
		logger.Warn("detection loop did not stop in time; resources released anyway", "timeout", timeout)
	}
	c.Trigger.Wait()
	c.Monitor.Wait()
	gerr := g.Wait()
	if ferr != nil {
		ferr = fmt.Errorf("frontend: %w", ferr)
	}
	return errors.Join(ferr, gerr)
}
