package inference

import (
	"errors"
	"io/fs"
	"strings"
)

// hintFor returns a remediation message for a backend load failure.
func hintFor(b Backend, err error) string {
	if errors.Is(err, fs.ErrNotExist) {
		return "model file not found; check model_path"
	}
	msg := strings.ToLower(err.Error())
	switch b {
	case BackendCUDA:
		if strings.Contains(msg, "cudnn") {
			return "cuDNN is missing or does not match the CUDA toolkit; install the cuDNN build for your CUDA version"
		}
		return "CUDA provider unavailable; install the CUDA toolkit and an onnxruntime-gpu build, or use directml/cpu"
	case BackendDirectML:
		return "DirectML provider unavailable; requires Windows 10+ with a DirectX 12 GPU and an onnxruntime DirectML build"
	case BackendCPU:
		if strings.Contains(msg, "shared library") || strings.Contains(msg, "dll") || strings.Contains(msg, ".so") {
			return "onnxruntime shared library not found; set onnx_library_path"
		}
		return "onnxruntime could not open the model; confirm it is a valid .onnx export"
	case BackendXNNPACK:
		return "XNNPACK delegate unavailable; the tflite C library may be built without it (falls back to plain tflite)"
	case BackendTFLite:
		return "tensorflowlite_c library not found or model invalid; install libtensorflowlite_c for your platform"
	}
	return ""
}
