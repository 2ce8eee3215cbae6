package config

import (
	"strings"
	"time"
)

// Capture backends.
const (
	BackendDXGI       = "dxgi"
	BackendScreenshot = "screenshot"
)

// Detection area reference modes.
const (
	AreaMouse  = "mouse"
	AreaCenter = "center"
)

// Vertical alignment modes used when the Y percentage adjustment is off.
const (
	AlignTop    = "top"
	AlignCenter = "center"
	AlignBottom = "bottom"
)

// Prediction methods.
const (
	PredictKalman = "kalman"
	PredictWindow = "window"
	PredictEMA    = "ema"
)

// Snapshot holds every value the detection loop reads during a cycle.
// A Snapshot is treated as immutable once published through a Store; writers
// copy, mutate and publish a new one.
type Snapshot struct {
	Version uint64 `mapstructure:"-" json:"-"`

	Debug bool `mapstructure:"debug" json:"debug"`

	// Capture
	CaptureBackend   string `mapstructure:"capture_backend" json:"capture_backend"`
	CaptureTimeoutMs int    `mapstructure:"capture_timeout_ms" json:"capture_timeout_ms"`
	CaptureBackoffMs int    `mapstructure:"capture_backoff_ms" json:"capture_backoff_ms"`
	DetectionArea    string `mapstructure:"detection_area" json:"detection_area"`

	// Model
	ModelPath       string   `mapstructure:"model_path" json:"model_path"`
	Backends        []string `mapstructure:"backends" json:"backends"`
	ModelSize       int      `mapstructure:"model_size" json:"model_size"`
	ModelSlots      int      `mapstructure:"model_slots" json:"model_slots"`
	OnnxLibraryPath string   `mapstructure:"onnx_library_path" json:"onnx_library_path"`
	EncodeWorkers   int      `mapstructure:"encode_workers" json:"encode_workers"`

	// Detection filter
	MinConfidence float64 `mapstructure:"min_confidence" json:"min_confidence"` // percent 1..100
	FOVEnabled    bool    `mapstructure:"fov_enabled" json:"fov_enabled"`
	FOVSize       float64 `mapstructure:"fov_size" json:"fov_size"`

	// Aim point
	XOffset        float64 `mapstructure:"x_offset" json:"x_offset"`
	YOffset        float64 `mapstructure:"y_offset" json:"y_offset"`
	XOffsetPercent float64 `mapstructure:"x_offset_percent" json:"x_offset_percent"`
	YOffsetPercent float64 `mapstructure:"y_offset_percent" json:"y_offset_percent"`
	XPercentAdjust bool    `mapstructure:"x_percent_adjust" json:"x_percent_adjust"`
	YPercentAdjust bool    `mapstructure:"y_percent_adjust" json:"y_percent_adjust"`
	Alignment      string  `mapstructure:"alignment" json:"alignment"`

	// Prediction
	Predictions            bool    `mapstructure:"predictions" json:"predictions"`
	PredictionMethod       string  `mapstructure:"prediction_method" json:"prediction_method"`
	PredictionAxes         string  `mapstructure:"prediction_axes" json:"prediction_axes"` // "" = method default
	EMATauMs               float64 `mapstructure:"ema_tau_ms" json:"ema_tau_ms"`
	KalmanProcessNoise     float64 `mapstructure:"kalman_process_noise" json:"kalman_process_noise"`
	KalmanMeasurementNoise float64 `mapstructure:"kalman_measurement_noise" json:"kalman_measurement_noise"`

	// Feature toggles
	AimAssist        bool    `mapstructure:"aim_assist" json:"aim_assist"`
	ShowOverlay      bool    `mapstructure:"show_overlay" json:"show_overlay"`
	ShowConfidence   bool    `mapstructure:"show_confidence" json:"show_confidence"`
	ShowTracers      bool    `mapstructure:"show_tracers" json:"show_tracers"`
	OverlayOpacity   float64 `mapstructure:"overlay_opacity" json:"overlay_opacity"`
	AutoTrigger      bool    `mapstructure:"auto_trigger" json:"auto_trigger"`
	ConstantTracking bool    `mapstructure:"constant_tracking" json:"constant_tracking"`
	ShowFPS          bool    `mapstructure:"show_fps" json:"show_fps"`
	AimKey           string  `mapstructure:"aim_key" json:"aim_key"`
	SecondAimKey     string  `mapstructure:"second_aim_key" json:"second_aim_key"`

	// Training data
	CollectData bool   `mapstructure:"collect_data" json:"collect_data"`
	AutoLabel   bool   `mapstructure:"auto_label" json:"auto_label"`
	DatasetDir  string `mapstructure:"dataset_dir" json:"dataset_dir"`

	// Observability / lifecycle
	MetricsAddr   string `mapstructure:"metrics_addr" json:"metrics_addr"`
	StopTimeoutMs int    `mapstructure:"stop_timeout_ms" json:"stop_timeout_ms"`
}

// DefaultSnapshot returns a Snapshot populated with standard defaults.
func DefaultSnapshot() *Snapshot {
	return &Snapshot{
		Debug:                  false,
		CaptureBackend:         BackendDXGI,
		CaptureTimeoutMs:       500,
		CaptureBackoffMs:       100,
		DetectionArea:          AreaCenter,
		ModelPath:              "models/model.onnx",
		Backends:               nil,
		ModelSize:              640,
		ModelSlots:             8400,
		OnnxLibraryPath:        "",
		EncodeWorkers:          0,
		MinConfidence:          45,
		FOVEnabled:             false,
		FOVSize:                640,
		XOffset:                0,
		YOffset:                0,
		XOffsetPercent:         50,
		YOffsetPercent:         50,
		XPercentAdjust:         false,
		YPercentAdjust:         false,
		Alignment:              AlignCenter,
		Predictions:            false,
		PredictionMethod:       PredictKalman,
		PredictionAxes:         "",
		EMATauMs:               50,
		KalmanProcessNoise:     50,
		KalmanMeasurementNoise: 4,
		AimAssist:              false,
		ShowOverlay:            false,
		ShowConfidence:         true,
		ShowTracers:            false,
		OverlayOpacity:         1,
		AutoTrigger:            false,
		ConstantTracking:       false,
		ShowFPS:                true,
		AimKey:                 "RBUTTON",
		SecondAimKey:           "",
		CollectData:            false,
		AutoLabel:              false,
		DatasetDir:             "bin",
		MetricsAddr:            "",
		StopTimeoutMs:          1000,
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Snapshot) Validate() error {
	c.CaptureBackend = strings.ToLower(strings.TrimSpace(c.CaptureBackend))
	if c.CaptureBackend != BackendDXGI && c.CaptureBackend != BackendScreenshot {
		c.CaptureBackend = BackendDXGI
	}
	if c.CaptureTimeoutMs <= 0 {
		c.CaptureTimeoutMs = 500
	}
	if c.CaptureBackoffMs < 0 {
		c.CaptureBackoffMs = 100
	}
	c.DetectionArea = strings.ToLower(strings.TrimSpace(c.DetectionArea))
	if c.DetectionArea != AreaMouse && c.DetectionArea != AreaCenter {
		c.DetectionArea = AreaCenter
	}
	if c.ModelSize <= 0 {
		c.ModelSize = 640
	}
	if c.ModelSlots <= 0 {
		c.ModelSlots = 8400
	}
	if c.EncodeWorkers < 0 {
		c.EncodeWorkers = 0
	}
	if c.MinConfidence < 1 || c.MinConfidence > 100 {
		c.MinConfidence = 45
	}
	if c.FOVSize <= 0 || c.FOVSize > float64(c.ModelSize) {
		c.FOVSize = float64(c.ModelSize)
	}
	c.XOffsetPercent = clamp(c.XOffsetPercent, 0, 100)
	c.YOffsetPercent = clamp(c.YOffsetPercent, 0, 100)
	c.Alignment = strings.ToLower(strings.TrimSpace(c.Alignment))
	switch c.Alignment {
	case AlignTop, AlignCenter, AlignBottom:
	default:
		c.Alignment = AlignCenter
	}
	c.PredictionMethod = strings.ToLower(strings.TrimSpace(c.PredictionMethod))
	switch c.PredictionMethod {
	case PredictKalman, PredictWindow, PredictEMA:
	default:
		c.PredictionMethod = PredictKalman
	}
	c.PredictionAxes = strings.ToLower(strings.TrimSpace(c.PredictionAxes))
	switch c.PredictionAxes {
	case "", "x", "y", "both":
	default:
		c.PredictionAxes = ""
	}
	if c.EMATauMs <= 0 {
		c.EMATauMs = 50
	}
	if c.KalmanProcessNoise <= 0 {
		c.KalmanProcessNoise = 50
	}
	if c.KalmanMeasurementNoise <= 0 {
		c.KalmanMeasurementNoise = 4
	}
	c.OverlayOpacity = clamp(c.OverlayOpacity, 0, 1)
	if c.DatasetDir == "" {
		c.DatasetDir = "bin"
	}
	if c.StopTimeoutMs <= 0 {
		c.StopTimeoutMs = 1000
	}
	return nil
}

// CaptureTimeout returns the frame wait timeout.
func (c *Snapshot) CaptureTimeout() time.Duration {
	return time.Duration(c.CaptureTimeoutMs) * time.Millisecond
}

// CaptureBackoff returns the pause applied after a capture device teardown.
func (c *Snapshot) CaptureBackoff() time.Duration {
	return time.Duration(c.CaptureBackoffMs) * time.Millisecond
}

// StopTimeout returns how long shutdown waits for the loop goroutine.
func (c *Snapshot) StopTimeout() time.Duration {
	return time.Duration(c.StopTimeoutMs) * time.Millisecond
}

// Confidence returns MinConfidence as a fraction in (0, 1].
func (c *Snapshot) Confidence() float32 { return float32(c.MinConfidence / 100) }

// Clone returns a deep copy safe for mutation.
func (c *Snapshot) Clone() *Snapshot {
	if c == nil {
		return DefaultSnapshot()
	}
	out := *c
	if c.Backends != nil {
		out.Backends = append([]string(nil), c.Backends...)
	}
	return &out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
