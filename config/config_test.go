package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ClampsOutOfRange(t *testing.T) {
	c := DefaultSnapshot()
	c.CaptureBackend = "GDI"
	c.DetectionArea = "Closest to Mouse"
	c.MinConfidence = 0
	c.FOVSize = 9000
	c.XOffsetPercent = 150
	c.YOffsetPercent = -3
	c.Alignment = "Middle"
	c.PredictionMethod = "magic"
	c.OverlayOpacity = 2
	require.NoError(t, c.Validate())

	assert.Equal(t, BackendDXGI, c.CaptureBackend)
	assert.Equal(t, AreaCenter, c.DetectionArea)
	assert.Equal(t, 45.0, c.MinConfidence)
	assert.Equal(t, 640.0, c.FOVSize)
	assert.Equal(t, 100.0, c.XOffsetPercent)
	assert.Equal(t, 0.0, c.YOffsetPercent)
	assert.Equal(t, AlignCenter, c.Alignment)
	assert.Equal(t, PredictKalman, c.PredictionMethod)
	assert.Equal(t, 1.0, c.OverlayOpacity)
}

func TestValidate_NormalizesCase(t *testing.T) {
	c := DefaultSnapshot()
	c.CaptureBackend = " Screenshot "
	c.Alignment = "BOTTOM"
	c.PredictionMethod = "EMA"
	require.NoError(t, c.Validate())
	assert.Equal(t, BackendScreenshot, c.CaptureBackend)
	assert.Equal(t, AlignBottom, c.Alignment)
	assert.Equal(t, PredictEMA, c.PredictionMethod)
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := NewLoader(filepath.Join(t.TempDir(), "missing.yaml")).Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultSnapshot().ModelSize, cfg.ModelSize)
	assert.Equal(t, DefaultSnapshot().CaptureBackend, cfg.CaptureBackend)
}

func TestSaveLoad_RoundTripsEditedValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "tracker.yaml")
	c := DefaultSnapshot()
	c.ModelPath = "models/custom.onnx"
	c.Backends = []string{"directml", "cpu"}
	c.FOVEnabled = true
	c.FOVSize = 320
	c.Alignment = AlignTop
	require.NoError(t, c.Save(path))

	got, err := NewLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "models/custom.onnx", got.ModelPath)
	assert.Equal(t, []string{"directml", "cpu"}, got.Backends)
	assert.True(t, got.FOVEnabled)
	assert.Equal(t, 320.0, got.FOVSize)
	assert.Equal(t, AlignTop, got.Alignment)
}

func TestLoad_BadFileReturnsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model_size: [\n"), 0o644))
	cfg, err := NewLoader(path).Load()
	require.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, 640, cfg.ModelSize)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("PIXEL_TRACKER_MODEL_SIZE", "320")
	cfg, err := NewLoader("").Load()
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.ModelSize)
}

func TestStore_VersionsIncreaseAndSnapshotsAreCopies(t *testing.T) {
	s := NewStore(nil)
	first := s.Load()
	assert.Equal(t, uint64(1), first.Version)

	second := s.Update(func(c *Snapshot) { c.AimAssist = true })
	assert.Equal(t, uint64(2), second.Version)
	assert.True(t, s.Load().AimAssist)
	assert.False(t, first.AimAssist, "published snapshot must not be mutated")

	in := DefaultSnapshot()
	in.Backends = []string{"cpu"}
	third := s.Publish(in)
	in.Backends[0] = "cuda"
	assert.Equal(t, uint64(3), third.Version)
	assert.Equal(t, []string{"cpu"}, s.Load().Backends)
}

func TestStore_ConcurrentReaders(t *testing.T) {
	s := NewStore(nil)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var last uint64
			for j := 0; j < 1000; j++ {
				v := s.Load().Version
				if v < last {
					t.Errorf("version went backwards: %d -> %d", last, v)
					return
				}
				last = v
			}
		}()
	}
	for j := 0; j < 200; j++ {
		s.Update(func(c *Snapshot) { c.ShowFPS = !c.ShowFPS })
	}
	wg.Wait()
	assert.Equal(t, uint64(201), s.Load().Version)
}
