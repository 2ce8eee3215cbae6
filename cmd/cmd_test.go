package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/pixel-tracker-go/config"
	"github.com/soocke/pixel-tracker-go/domain/inference"
	"github.com/soocke/pixel-tracker-go/domain/tensor"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		cfgFile = defaultConfigPath
		debug = false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestInitConfig_WritesDefaultsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "tracker.yaml")

	out, err := execute(t, "init-config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	loaded, err := config.NewLoader(path).Load()
	require.NoError(t, err)
	want := config.DefaultSnapshot()
	assert.Equal(t, want.ModelSize, loaded.ModelSize)
	assert.Equal(t, want.CaptureBackend, loaded.CaptureBackend)

	_, err = execute(t, "init-config", path)
	assert.ErrorContains(t, err, "exists")

	_, err = execute(t, "init-config", "--force", path)
	assert.NoError(t, err)
}

func TestInspectModel_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.onnx")
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "none.yaml"), "inspect-model", missing)
	assert.Error(t, err)
	_, statErr := os.Stat(missing)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestPrintModelInfo(t *testing.T) {
	var buf bytes.Buffer
	printModelInfo(&buf, inference.ModelInfo{
		Path:        "m.onnx",
		Backend:     inference.BackendCPU,
		InputShape:  []int64{1, 3, 320, 320},
		OutputShape: []int64{1, 84, 2100},
		Layout:      tensor.NCHW,
		OutputErr:   tensor.ErrShapeMismatch,
	})
	out := buf.String()
	assert.Contains(t, out, "input:   [1 3 320 320]  ok")
	assert.Contains(t, out, "output:  [1 84 2100]  MISMATCH")
}
