package inference

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/soocke/pixel-tracker-go/domain/tensor"
)

// ModelInfo describes a model's declared tensors and whether they fit the contract.
type ModelInfo struct {
	Path        string
	Backend     Backend
	InputShape  []int64
	OutputShape []int64
	Layout      tensor.Layout
	InputErr    error
	OutputErr   error
}

// Compatible reports whether both shapes match the contract.
func (m ModelInfo) Compatible() bool { return m.InputErr == nil && m.OutputErr == nil }

// Inspect loads path on the plain CPU backend for its format, reads the declared
// shapes and unloads it.
func Inspect(path string, opts Options) (ModelInfo, error) {
	return inspect(path, opts, openRunner)
}

func inspect(path string, opts Options, open openFunc) (ModelInfo, error) {
	b := BackendCPU
	if strings.ToLower(filepath.Ext(path)) == ".tflite" {
		b = BackendTFLite
	}
	r, err := open(path, b, opts)
	if err != nil {
		return ModelInfo{}, fmt.Errorf("open %s on %s: %w (%s)", path, b, err, hintFor(b, err))
	}
	defer r.Close()
	info := ModelInfo{
		Path:        path,
		Backend:     b,
		InputShape:  r.InputShape(),
		OutputShape: r.OutputShape(),
		Layout:      r.Layout(),
	}
	info.InputErr = tensor.ValidateInputShape(info.InputShape, opts.Size, info.Layout)
	info.OutputErr = tensor.ValidateShape(info.OutputShape, opts.Slots)
	return info, nil
}
