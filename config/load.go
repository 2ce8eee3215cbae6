package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides (PIXEL_TRACKER_MODEL_PATH, ...).
const EnvPrefix = "PIXEL_TRACKER"

// Loader reads snapshots from a config file with environment overrides.
type Loader struct {
	v    *viper.Viper
	path string
}

// NewLoader returns a Loader for path. An empty path means defaults plus environment.
func NewLoader(path string) *Loader {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, val := range DefaultSnapshot().settings() {
		v.SetDefault(k, val)
	}
	if path != "" {
		v.SetConfigFile(path)
	}
	return &Loader{v: v, path: path}
}

// Load attempts to read configuration from the loader's file. If the file does not
// exist it returns the defaults. On parse error it returns defaults with the error.
func (l *Loader) Load() (*Snapshot, error) {
	if l.path != "" {
		if err := l.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return DefaultSnapshot(), fmt.Errorf("read config %s: %w", l.path, err)
			}
		}
	}
	cfg := DefaultSnapshot()
	if err := l.v.Unmarshal(cfg); err != nil {
		return DefaultSnapshot(), fmt.Errorf("decode config: %w", err)
	}
	_ = cfg.Validate()
	return cfg, nil
}

// Watch publishes a freshly loaded snapshot into store whenever the config file changes.
// Runtime-only fields written through Store.Update are overwritten by the file contents.
func (l *Loader) Watch(store *Store, logger *slog.Logger) {
	if l.path == "" || store == nil {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := l.Load()
		if err != nil {
			if logger != nil {
				logger.Error("config reload", "path", e.Name, "error", err)
			}
			return
		}
		next := store.Publish(cfg)
		if logger != nil {
			logger.Info("config reloaded", "path", e.Name, "version", next.Version)
		}
	})
	l.v.WatchConfig()
}

// Save writes the configuration to the given path. The format follows the file extension
// (yaml, json, toml); parent directories are created as needed.
func (c *Snapshot) Save(path string) error {
	clone := c.Clone()
	_ = clone.Validate()
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	v := viper.New()
	for k, val := range clone.settings() {
		v.Set(k, val)
	}
	return v.WriteConfigAs(path)
}

// settings flattens the snapshot into viper keys. Keys match the mapstructure tags.
func (c *Snapshot) settings() map[string]any {
	backends := c.Backends
	if backends == nil {
		backends = []string{}
	}
	return map[string]any{
		"debug":                    c.Debug,
		"capture_backend":          c.CaptureBackend,
		"capture_timeout_ms":       c.CaptureTimeoutMs,
		"capture_backoff_ms":       c.CaptureBackoffMs,
		"detection_area":           c.DetectionArea,
		"model_path":               c.ModelPath,
		"backends":                 backends,
		"model_size":               c.ModelSize,
		"model_slots":              c.ModelSlots,
		"onnx_library_path":        c.OnnxLibraryPath,
		"encode_workers":           c.EncodeWorkers,
		"min_confidence":           c.MinConfidence,
		"fov_enabled":              c.FOVEnabled,
		"fov_size":                 c.FOVSize,
		"x_offset":                 c.XOffset,
		"y_offset":                 c.YOffset,
		"x_offset_percent":         c.XOffsetPercent,
		"y_offset_percent":         c.YOffsetPercent,
		"x_percent_adjust":         c.XPercentAdjust,
		"y_percent_adjust":         c.YPercentAdjust,
		"alignment":                c.Alignment,
		"predictions":              c.Predictions,
		"prediction_method":        c.PredictionMethod,
		"prediction_axes":          c.PredictionAxes,
		"ema_tau_ms":               c.EMATauMs,
		"kalman_process_noise":     c.KalmanProcessNoise,
		"kalman_measurement_noise": c.KalmanMeasurementNoise,
		"aim_assist":               c.AimAssist,
		"show_overlay":             c.ShowOverlay,
		"show_confidence":          c.ShowConfidence,
		"show_tracers":             c.ShowTracers,
		"overlay_opacity":          c.OverlayOpacity,
		"auto_trigger":             c.AutoTrigger,
		"constant_tracking":        c.ConstantTracking,
		"show_fps":                 c.ShowFPS,
		"aim_key":                  c.AimKey,
		"second_aim_key":           c.SecondAimKey,
		"collect_data":             c.CollectData,
		"auto_label":               c.AutoLabel,
		"dataset_dir":              c.DatasetDir,
		"metrics_addr":             c.MetricsAddr,
		"stop_timeout_ms":          c.StopTimeoutMs,
	}
}
