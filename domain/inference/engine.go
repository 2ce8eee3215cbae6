// Package inference loads a detection model on the first working backend of an
// ordered fallback chain and runs single forward passes.
package inference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/soocke/pixel-tracker-go/domain/tensor"
)

var (
	// ErrNotReady is returned by Run before a model is loaded or after every backend failed.
	ErrNotReady = errors.New("inference: engine not ready")
	// ErrBusy is returned by Run while another forward pass is in flight.
	ErrBusy = errors.New("inference: forward pass already in flight")
	// ErrNoBackend reports that every backend in the chain failed to load the model.
	ErrNoBackend = errors.New("inference: no backend could load the model")
	// ErrIncompatible reports a backend that cannot run this model format.
	ErrIncompatible = errors.New("inference: backend does not support model format")
)

// Backend names an execution backend.
type Backend string

const (
	BackendCUDA     Backend = "cuda"
	BackendDirectML Backend = "directml"
	BackendCPU      Backend = "cpu"
	BackendXNNPACK  Backend = "xnnpack"
	BackendTFLite   Backend = "tflite"
)

// Format returns the model file extension the backend runs.
func (b Backend) Format() string {
	switch b {
	case BackendXNNPACK, BackendTFLite:
		return ".tflite"
	default:
		return ".onnx"
	}
}

// DefaultChain returns the fallback order for a model file.
func DefaultChain(path string) []Backend {
	if strings.EqualFold(filepath.Ext(path), ".tflite") {
		return []Backend{BackendXNNPACK, BackendTFLite}
	}
	return []Backend{BackendCUDA, BackendDirectML, BackendCPU}
}

// ParseChain converts configured backend names, dropping unknown ones. An empty
// result means DefaultChain.
func ParseChain(names []string) []Backend {
	var out []Backend
	for _, n := range names {
		switch b := Backend(strings.ToLower(strings.TrimSpace(n))); b {
		case BackendCUDA, BackendDirectML, BackendCPU, BackendXNNPACK, BackendTFLite:
			out = append(out, b)
		}
	}
	return out
}

// Options configure model loading.
type Options struct {
	Size  int
	Slots int
	// Path to the onnxruntime shared library; empty uses the platform default name.
	OnnxLibraryPath string
	Threads         int
}

// runner is one model loaded on one backend. Run's result is valid until the next Run.
type runner interface {
	Run(input []float32) ([]float32, error)
	InputShape() []int64
	OutputShape() []int64
	Layout() tensor.Layout
	Close() error
}

type openFunc func(path string, b Backend, opts Options) (runner, error)

// Engine owns at most one loaded model.
type Engine struct {
	logger *slog.Logger
	opts   Options
	open   openFunc

	mu      sync.Mutex // held for a forward pass or a model swap
	cur     runner
	backend atomic.Pointer[Backend]
	ready   atomic.Bool
}

// NewEngine returns an unready engine.
func NewEngine(logger *slog.Logger, opts Options) *Engine {
	if logger != nil {
		logger = logger.With("component", "inference")
	}
	return &Engine{logger: logger, opts: opts, open: openRunner}
}

func openRunner(path string, b Backend, opts Options) (runner, error) {
	if b.Format() == ".tflite" {
		return openTFLite(path, b, opts)
	}
	return openONNX(path, b, opts)
}

// Load tries backends in order and keeps the first that loads path. Each failure is
// logged with a remediation hint. A declared output shape that does not match
// (1, 5, Slots) is logged but the model stays loaded. When every backend fails the
// engine is left unready and the returned error wraps ErrNoBackend.
func (e *Engine) Load(ctx context.Context, path string, backends []Backend) error {
	if len(backends) == 0 {
		backends = DefaultChain(path)
	}
	ext := strings.ToLower(filepath.Ext(path))
	var errs []error
	for _, b := range backends {
		if err := ctx.Err(); err != nil {
			return err
		}
		if b.Format() != ext {
			e.debug("backend skipped", "backend", b, "model", path, "reason", ErrIncompatible)
			continue
		}
		r, err := e.open(path, b, e.opts)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", b, err))
			if e.logger != nil {
				e.logger.Warn("model load failed; trying next backend", "backend", b, "model", path, "error", err, "hint", hintFor(b, err))
			}
			continue
		}
		if err := tensor.ValidateShape(r.OutputShape(), e.opts.Slots); err != nil && e.logger != nil {
			e.logger.Warn("model output shape does not match contract; detections will be unusable", "model", path, "shape", r.OutputShape(), "error", err)
		}
		if err := tensor.ValidateInputShape(r.InputShape(), e.opts.Size, r.Layout()); err != nil && e.logger != nil {
			e.logger.Warn("model input shape does not match capture size", "model", path, "shape", r.InputShape(), "error", err)
		}
		e.swap(r, b)
		if e.logger != nil {
			e.logger.Info("model loaded", "backend", b, "model", path, "layout", r.Layout().String())
		}
		return nil
	}
	e.swap(nil, "")
	err := fmt.Errorf("%w: %s", ErrNoBackend, errors.Join(errs...))
	if len(errs) == 0 {
		err = fmt.Errorf("%w: no backend in %v supports %q", ErrNoBackend, backends, ext)
	}
	if e.logger != nil {
		e.logger.Error("inference disabled", "model", path, "error", err)
	}
	return err
}

// swap installs r, waiting for any in-flight pass, and closes the previous runner.
func (e *Engine) swap(r runner, b Backend) {
	e.mu.Lock()
	old := e.cur
	e.cur = r
	e.ready.Store(r != nil)
	e.backend.Store(&b)
	e.mu.Unlock()
	if old != nil {
		if err := old.Close(); err != nil && e.logger != nil {
			e.logger.Warn("closing previous model", "error", err)
		}
	}
}

// Run performs one forward pass. It never blocks on another pass: a concurrent call
// returns ErrBusy. The result is valid until the next Run.
func (e *Engine) Run(input []float32) ([]float32, error) {
	if !e.mu.TryLock() {
		return nil, ErrBusy
	}
	defer e.mu.Unlock()
	if e.cur == nil {
		return nil, ErrNotReady
	}
	return e.cur.Run(input)
}

// Ready reports whether a model is loaded.
func (e *Engine) Ready() bool { return e.ready.Load() }

// Backend returns the backend of the loaded model, or "".
func (e *Engine) Backend() Backend {
	if b := e.backend.Load(); b != nil {
		return *b
	}
	return ""
}

// InputLayout returns the tensor layout the loaded model expects.
func (e *Engine) InputLayout() tensor.Layout {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cur == nil {
		return tensor.NCHW
	}
	return e.cur.Layout()
}

// Close unloads the model.
func (e *Engine) Close() error {
	e.swap(nil, "")
	return nil
}

func (e *Engine) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
