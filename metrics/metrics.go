// Package metrics provides Prometheus metrics for the detection loop.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline stages observed per cycle.
const (
	StageCapture = "capture"
	StageEncode  = "encode"
	StageInfer   = "infer"
	StageDecode  = "decode"
	StageTotal   = "total"
)

// LoopMetrics contains all metrics related to the detection loop.
type LoopMetrics struct {
	CycleDuration   *prometheus.HistogramVec
	FPS             prometheus.Gauge
	CaptureFailures *prometheus.CounterVec
	CaptureReinit   prometheus.Counter
	Detections      *prometheus.CounterVec
	InferenceReady  prometheus.Gauge
}

// NewLoopMetrics creates the loop metrics and registers them on registry.
func NewLoopMetrics(registry *prometheus.Registry) (*LoopMetrics, error) {
	m := &LoopMetrics{
		CycleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pixeltracker_cycle_duration_seconds",
				Help:    "Time spent in each detection loop stage",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~1.6s
			},
			[]string{"stage"},
		),
		FPS: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pixeltracker_fps",
			Help: "Rolling detection loop iterations per second",
		}),
		CaptureFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pixeltracker_capture_failures_total",
				Help: "Capture failures partitioned by error class",
			},
			[]string{"class"},
		),
		CaptureReinit: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixeltracker_capture_reinit_total",
			Help: "Full capture device teardowns",
		}),
		Detections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pixeltracker_detections_total",
				Help: "Detecting cycles partitioned by whether a target was selected",
			},
			[]string{"selected"},
		),
		InferenceReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pixeltracker_inference_ready",
			Help: "Whether a model is loaded (1) or not (0)",
		}),
	}
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register loop metrics: %w", err)
	}
	return m, nil
}

// ObserveStage records the duration of one stage.
func (m *LoopMetrics) ObserveStage(stage string, d time.Duration) {
	m.CycleDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// SetFPS sets the rolling FPS estimate.
func (m *LoopMetrics) SetFPS(fps float64) { m.FPS.Set(fps) }

// CaptureFailure counts a capture failure of the given class and, when the
// failure tore the capture device down, a re-initialization.
func (m *LoopMetrics) CaptureFailure(class string, teardown bool) {
	m.CaptureFailures.WithLabelValues(class).Inc()
	if teardown {
		m.CaptureReinit.Inc()
	}
}

// Detection counts a detecting cycle.
func (m *LoopMetrics) Detection(selected bool) {
	if selected {
		m.Detections.WithLabelValues("true").Inc()
		return
	}
	m.Detections.WithLabelValues("false").Inc()
}

// SetInferenceReady reflects the engine state.
func (m *LoopMetrics) SetInferenceReady(ready bool) {
	if ready {
		m.InferenceReady.Set(1)
		return
	}
	m.InferenceReady.Set(0)
}

// Describe implements the prometheus.Collector interface.
func (m *LoopMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.CycleDuration.Describe(ch)
	ch <- m.FPS.Desc()
	m.CaptureFailures.Describe(ch)
	ch <- m.CaptureReinit.Desc()
	m.Detections.Describe(ch)
	ch <- m.InferenceReady.Desc()
}

// Collect implements the prometheus.Collector interface.
func (m *LoopMetrics) Collect(ch chan<- prometheus.Metric) {
	m.CycleDuration.Collect(ch)
	ch <- m.FPS
	m.CaptureFailures.Collect(ch)
	ch <- m.CaptureReinit
	m.Detections.Collect(ch)
	ch <- m.InferenceReady
}

// Metrics holds the registry and every collector of the application.
type Metrics struct {
	registry *prometheus.Registry
	Loop     *LoopMetrics
}

// New creates a registry with the loop metrics and Go runtime collectors.
func New() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	loop, err := NewLoopMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create loop metrics: %w", err)
	}
	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("failed to register go collector: %w", err)
	}
	return &Metrics{registry: registry, Loop: loop}, nil
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns the /metrics HTTP handler.
func (m *Metrics) Handler(logger *slog.Logger) http.Handler {
	opts := promhttp.HandlerOpts{ErrorHandling: promhttp.HTTPErrorOnError}
	if logger != nil {
		opts.ErrorLog = slog.NewLogLogger(logger.Handler(), slog.LevelError)
	}
	return promhttp.HandlerFor(m.registry, opts)
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler(logger))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if logger != nil {
		logger.Info("metrics endpoint listening", "addr", addr)
	}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
