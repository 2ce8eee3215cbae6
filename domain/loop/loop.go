// Package loop runs the detection cycle: capture, encode, infer, decode, select,
// predict and publish, strictly sequentially on one goroutine.
package loop

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soocke/pixel-tracker-go/config"
	"github.com/soocke/pixel-tracker-go/domain/capture"
	"github.com/soocke/pixel-tracker-go/domain/dataset"
	"github.com/soocke/pixel-tracker-go/domain/inference"
	"github.com/soocke/pixel-tracker-go/domain/input"
	"github.com/soocke/pixel-tracker-go/domain/predict"
	"github.com/soocke/pixel-tracker-go/domain/selector"
	"github.com/soocke/pixel-tracker-go/domain/tensor"
	"github.com/soocke/pixel-tracker-go/metrics"
)

const defaultPause = time.Millisecond

// OverlayState is the geometry the overlay renders for the selected detection.
type OverlayState struct {
	Box            image.Rectangle // screen space
	Confidence     float32
	ShowConfidence bool
	Tracer         bool
	Opacity        float64
}

// Publisher receives the loop's outputs. Implementations must not block: they are
// called on the loop goroutine and hand results to their own thread.
type Publisher interface {
	ClearOverlay()
	Overlay(OverlayState)
	Target(x, y int)
	FPS(fps float64)
	// FOV center and size are in DPI-independent units.
	FOV(center image.Point, size int)
}

// TriggerAction fires the configured auxiliary action for a selected target.
type TriggerAction interface {
	Fire(ctx context.Context)
}

// ActivationSource reports whether an aim key is held.
type ActivationSource interface {
	AimKeyHeld() bool
}

// keyBinder is implemented by activation sources that follow the configured keys.
type keyBinder interface {
	Set(primary, secondary string)
}

// FrameSource is the capture side of the loop; *capture.Router satisfies it.
type FrameSource interface {
	Configure(backend string, timeout, backoff time.Duration)
	Acquire(ctx context.Context, region image.Rectangle) *capture.Buffer
	Close() error
}

// Inferencer runs the model; *inference.Engine satisfies it.
type Inferencer interface {
	Run(input []float32) ([]float32, error)
	Ready() bool
	InputLayout() tensor.Layout
	Close() error
}

// Recorder persists frames for training; *dataset.Collector satisfies it.
type Recorder interface {
	Save(frame *capture.Buffer, det *tensor.Detection, s dataset.Settings) (string, error)
}

// Display reports the screen rectangle, cursor position and DPI scale.
type Display interface {
	Screen() image.Rectangle
	Cursor() (image.Point, bool)
	Scale() (x, y float64)
}

type systemDisplay struct{}

func (systemDisplay) Screen() image.Rectangle     { return input.Screen() }
func (systemDisplay) Cursor() (image.Point, bool) { return input.Cursor() }
func (systemDisplay) Scale() (float64, float64)   { return input.Scale() }

// Deps are the collaborators of a Loop. Config, Frames, Engine and Publisher are
// required; the rest are optional.
type Deps struct {
	Config    *config.Store
	Frames    FrameSource
	Engine    Inferencer
	Publisher Publisher
	Trigger   TriggerAction
	Keys      ActivationSource
	Recorder  Recorder
	Display   Display
	Metrics   *metrics.LoopMetrics
	Logger    *slog.Logger
}

// Loop owns the detection goroutine. Everything below the lifecycle fields is only
// touched by that goroutine.
type Loop struct {
	cfg      *config.Store
	frames   FrameSource
	engine   Inferencer
	pub      Publisher
	trigger  TriggerAction
	keys     ActivationSource
	recorder Recorder
	display  Display
	metrics  *metrics.LoopMetrics
	logger   *slog.Logger
	pause    time.Duration
	now      func() time.Time
	// Model input geometry, fixed for the engine's lifetime.
	size  int
	slots int

	mu      sync.Mutex
	running atomic.Bool
	stop    atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
	cycles  atomic.Uint64
	detects atomic.Uint64

	version    uint64
	encoder    tensor.Encoder
	decoder    tensor.Decoder
	input      []float32
	dets       []tensor.Detection
	frameTimes FrameTimes
	latency    LatencyBatch
	predictor  predict.Switcher
	lastCycle  time.Duration
	lastFPS    uint64
}

// New builds a Loop from deps.
func New(deps Deps) (*Loop, error) {
	if deps.Config == nil || deps.Frames == nil || deps.Engine == nil || deps.Publisher == nil {
		return nil, errors.New("loop: config, frames, engine and publisher are required")
	}
	l := &Loop{
		cfg:      deps.Config,
		frames:   deps.Frames,
		engine:   deps.Engine,
		pub:      deps.Publisher,
		trigger:  deps.Trigger,
		keys:     deps.Keys,
		recorder: deps.Recorder,
		display:  deps.Display,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		pause:    defaultPause,
		now:      time.Now,
		latency:  LatencyBatch{Size: latencyBatch},
	}
	initial := deps.Config.Load()
	l.size, l.slots = initial.ModelSize, initial.ModelSlots
	if l.display == nil {
		l.display = systemDisplay{}
	}
	if l.logger != nil {
		l.logger = l.logger.With("component", "loop")
	}
	return l, nil
}

// Running reports whether the loop goroutine is active.
func (l *Loop) Running() bool { return l.running.Load() }

// Cycles returns the number of completed iterations.
func (l *Loop) Cycles() uint64 { return l.cycles.Load() }

// Detections returns the number of iterations that ran the full pipeline.
func (l *Loop) Detections() uint64 { return l.detects.Load() }

// Start launches the loop goroutine. It is a no-op while already running.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running.Load() {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})
	l.stop.Store(false)
	l.running.Store(true)
	go l.run(ctx, l.done)
}

// Stop signals the loop, waits up to timeout for it to exit and then releases the
// capture and inference resources either way. It reports whether the goroutine exited
// in time; an abandoned goroutine keeps its OS thread until the process exits.
func (l *Loop) Stop(timeout time.Duration) bool {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()
	if cancel == nil {
		return true
	}
	l.stop.Store(true)
	cancel()

	exited := true
	timer := time.NewTimer(timeout)
	select {
	case <-done:
	case <-timer.C:
		exited = false
		if l.logger != nil {
			l.logger.Warn("detection loop did not stop in time", "timeout", timeout)
		}
	}
	timer.Stop()

	if err := l.frames.Close(); err != nil && l.logger != nil {
		l.logger.Warn("close capture", "error", err)
	}
	if err := l.engine.Close(); err != nil && l.logger != nil {
		l.logger.Warn("close inference", "error", err)
	}
	return exited
}

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	// The capture device is bound to the thread that created it.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(done)
	defer l.running.Store(false)

	if l.logger != nil {
		l.logger.Info("detection loop started")
	}
	prev := l.now()
	for !l.stop.Load() && ctx.Err() == nil {
		start := l.now()
		l.lastCycle = start.Sub(prev)
		prev = start

		l.safeCycle(ctx)
		l.cycles.Add(1)

		if !sleep(ctx, l.pause) {
			break
		}
	}
	if l.logger != nil {
		l.logger.Info("detection loop stopped", "cycles", l.cycles.Load())
	}
}

func (l *Loop) safeCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil && l.logger != nil {
			l.logger.Error("detection cycle panicked", "panic", fmt.Sprint(r))
		}
	}()
	l.cycle(ctx)
}

// cycle runs one iteration. It reports whether the full pipeline ran.
func (l *Loop) cycle(ctx context.Context) bool {
	start := l.now()
	snap := l.cfg.Load()
	l.apply(snap)

	if snap.ShowFPS && l.lastCycle > 0 {
		l.frameTimes.Add(l.lastCycle)
		if n := l.frameTimes.Added(); n-l.lastFPS >= fpsPublishN {
			l.lastFPS = n
			fps := l.frameTimes.FPS()
			l.pub.FPS(fps)
			if l.metrics != nil {
				l.metrics.SetFPS(fps)
			}
		}
	}

	ref, mouse := l.reference(snap)
	region := capture.RegionAround(ref, l.size, l.display.Screen())
	if mouse && snap.FOVEnabled {
		l.publishFOV(ref, snap.FOVSize)
	}

	held := l.keys != nil && l.keys.AimKeyHeld()
	shouldProcess := snap.AimAssist || snap.ShowOverlay || snap.AutoTrigger
	shouldPredict := snap.ShowOverlay || snap.ConstantTracking || held
	if !shouldProcess || !shouldPredict {
		return false
	}

	det, frame, ok := l.detect(ctx, snap, region)
	if frame != nil && len(l.dets) > 0 {
		l.record(frame, det, ok, snap)
	}
	if l.metrics != nil && frame != nil {
		l.metrics.Detection(ok)
	}
	if !ok {
		l.pub.ClearOverlay()
		return false
	}

	if snap.AutoTrigger && (held || snap.ConstantTracking) && l.trigger != nil {
		l.trigger.Fire(ctx)
	}
	if snap.ShowOverlay {
		l.pub.Overlay(OverlayState{
			Box:            screenBox(det, region),
			Confidence:     det.Confidence,
			ShowConfidence: snap.ShowConfidence,
			Tracer:         snap.ShowTracers,
			Opacity:        snap.OverlayOpacity,
		})
	}
	if snap.AimAssist && (snap.ConstantTracking || held) {
		aim := AimPoint(det, region, snap)
		x, y := aim.X, aim.Y
		if snap.Predictions {
			p := l.predictor.Ensure(predict.Kind(snap.PredictionMethod), predictOptions(snap))
			px, py := p.Update(float64(x), float64(y), l.now())
			x, y = int(px), int(py)
		}
		l.pub.Target(x, y)
	}

	elapsed := l.now().Sub(start)
	l.detects.Add(1)
	if l.metrics != nil {
		l.metrics.ObserveStage(metrics.StageTotal, elapsed)
	}
	if avg, full := l.latency.Add(elapsed); full && snap.Debug && l.logger != nil {
		l.logger.Info("average detection cycle latency", "cycles", latencyBatch, "avg", avg)
	}
	return true
}

// detect runs capture through selection. frame is non-nil whenever a frame was captured.
// l.dets holds this cycle's candidates afterwards and is empty when inference did not run.
func (l *Loop) detect(ctx context.Context, snap *config.Snapshot, region image.Rectangle) (tensor.Detection, *capture.Buffer, bool) {
	l.dets = l.dets[:0]
	t0 := l.now()
	frame := l.frames.Acquire(ctx, region)
	l.observe(metrics.StageCapture, t0)
	if frame == nil || !l.engine.Ready() {
		return tensor.Detection{}, frame, false
	}

	t0 = l.now()
	l.encoder.Layout = l.engine.InputLayout()
	in, err := l.encoder.Encode(frame, l.input)
	l.observe(metrics.StageEncode, t0)
	if err != nil {
		if l.logger != nil {
			l.logger.Warn("encode frame", "error", err)
		}
		return tensor.Detection{}, frame, false
	}
	l.input = in

	t0 = l.now()
	out, err := l.engine.Run(in)
	l.observe(metrics.StageInfer, t0)
	if err != nil {
		if !errors.Is(err, inference.ErrNotReady) && !errors.Is(err, inference.ErrBusy) && l.logger != nil {
			l.logger.Warn("inference", "error", err)
		}
		return tensor.Detection{}, frame, false
	}

	t0 = l.now()
	l.dets = l.decoder.Decode(l.dets[:0], out, tensor.DecodeParams{
		MinConfidence: snap.Confidence(),
		FOV:           float32(snap.FOVSize),
		RegionW:       region.Dx(),
		RegionH:       region.Dy(),
	})
	half := float32(l.size) / 2
	det, ok := selector.Nearest(l.dets, half, half)
	l.observe(metrics.StageDecode, t0)
	return det, frame, ok
}

func (l *Loop) record(frame *capture.Buffer, det tensor.Detection, ok bool, snap *config.Snapshot) {
	if l.recorder == nil {
		return
	}
	var dp *tensor.Detection
	if ok {
		dp = &det
	}
	_, err := l.recorder.Save(frame, dp, dataset.Settings{
		CollectData:      snap.CollectData,
		ConstantTracking: snap.ConstantTracking,
		AutoLabel:        snap.AutoLabel,
	})
	if err != nil && l.logger != nil {
		l.logger.Warn("save training sample", "error", err)
	}
}

// apply reconfigures loop-owned components when a new snapshot version appears.
func (l *Loop) apply(snap *config.Snapshot) {
	if snap.Version == l.version && l.version != 0 {
		return
	}
	l.version = snap.Version
	l.frames.Configure(snap.CaptureBackend, snap.CaptureTimeout(), snap.CaptureBackoff())
	workers := snap.EncodeWorkers
	if workers <= 0 {
		workers = tensor.DefaultWorkers()
	}
	l.encoder = tensor.Encoder{Size: l.size, Layout: l.engine.InputLayout(), Workers: workers}
	l.decoder = tensor.Decoder{Size: l.size, Slots: l.slots}
	if (snap.ModelSize != l.size || snap.ModelSlots != l.slots) && l.logger != nil {
		l.logger.Warn("model size and slots take effect on restart",
			"model_size", snap.ModelSize, "model_slots", snap.ModelSlots, "active_size", l.size, "active_slots", l.slots)
	}
	if !snap.Predictions {
		l.predictor.Reset()
	}
	if b, ok := l.keys.(keyBinder); ok {
		b.Set(snap.AimKey, snap.SecondAimKey)
	}
	if l.logger != nil {
		l.logger.Debug("configuration applied", "version", snap.Version, "backend", snap.CaptureBackend, "model_size", l.size)
	}
}

// publishFOV reports the FOV overlay in DPI-independent units.
func (l *Loop) publishFOV(ref image.Point, size float64) {
	sx, sy := l.display.Scale()
	if sx <= 0 {
		sx = 1
	}
	if sy <= 0 {
		sy = 1
	}
	center := image.Pt(int(float64(ref.X)/sx), int(float64(ref.Y)/sy))
	l.pub.FOV(center, int(size/sx))
}

// reference returns the point the capture region is centered on and whether it
// follows the cursor.
func (l *Loop) reference(snap *config.Snapshot) (image.Point, bool) {
	screen := l.display.Screen()
	center := image.Pt(screen.Min.X+screen.Dx()/2, screen.Min.Y+screen.Dy()/2)
	if snap.DetectionArea != config.AreaMouse {
		return center, false
	}
	if p, ok := l.display.Cursor(); ok {
		return p, true
	}
	return center, false
}

func (l *Loop) observe(stage string, since time.Time) {
	if l.metrics != nil {
		l.metrics.ObserveStage(stage, l.now().Sub(since))
	}
}

func predictOptions(s *config.Snapshot) predict.Options {
	return predict.Options{
		Axes:             predict.Axis(s.PredictionAxes),
		Tau:              time.Duration(s.EMATauMs * float64(time.Millisecond)),
		ProcessNoise:     s.KalmanProcessNoise,
		MeasurementNoise: s.KalmanMeasurementNoise,
	}
}

// sleep waits d or until ctx is done; it reports false when ctx ended.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
