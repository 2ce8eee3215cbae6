package inference

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/soocke/pixel-tracker-go/domain/tensor"
)

var ortInit sync.Mutex

// initORT loads the onnxruntime shared library once per process.
func initORT(libPath string) error {
	ortInit.Lock()
	defer ortInit.Unlock()
	if ort.IsInitialized() {
		return nil
	}
	if libPath == "" {
		libPath = defaultORTLibrary()
	}
	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("load onnxruntime shared library %q: %w", libPath, err)
	}
	return nil
}

func defaultORTLibrary() string {
	switch runtime.GOOS {
	case "windows":
		return "onnxruntime.dll"
	case "darwin":
		return "libonnxruntime.dylib"
	default:
		return "libonnxruntime.so"
	}
}

type onnxRunner struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	inDims  []int64
	outDims []int64
}

func openONNX(path string, b Backend, opts Options) (runner, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	if err := initORT(opts.OnnxLibraryPath); err != nil {
		return nil, err
	}
	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("read model io: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, errors.New("model declares no inputs or outputs")
	}

	so, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	defer so.Destroy()
	if opts.Threads > 0 {
		if err := so.SetIntraOpNumThreads(opts.Threads); err != nil {
			return nil, fmt.Errorf("intra-op threads: %w", err)
		}
	}
	switch b {
	case BackendCUDA:
		cuda, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return nil, fmt.Errorf("cuda provider options: %w", err)
		}
		defer cuda.Destroy()
		if err := cuda.Update(map[string]string{"device_id": "0"}); err != nil {
			return nil, fmt.Errorf("cuda provider options: %w", err)
		}
		if err := so.AppendExecutionProviderCUDA(cuda); err != nil {
			return nil, fmt.Errorf("append cuda provider: %w", err)
		}
	case BackendDirectML:
		if err := so.AppendExecutionProviderDirectML(0); err != nil {
			return nil, fmt.Errorf("append directml provider: %w", err)
		}
	}

	size := int64(opts.Size)
	inDims := resolveDims(inputs[0].Dimensions, []int64{1, 3, size, size})
	outDims := resolveDims(outputs[0].Dimensions, []int64{1, tensor.OutputRows, int64(opts.Slots)})

	in, err := ort.NewEmptyTensor[float32](ort.NewShape(inDims...))
	if err != nil {
		return nil, fmt.Errorf("input tensor: %w", err)
	}
	out, err := ort.NewEmptyTensor[float32](ort.NewShape(outDims...))
	if err != nil {
		in.Destroy()
		return nil, fmt.Errorf("output tensor: %w", err)
	}
	session, err := ort.NewAdvancedSession(path,
		[]string{inputs[0].Name}, []string{outputs[0].Name},
		[]ort.Value{in}, []ort.Value{out}, so)
	if err != nil {
		in.Destroy()
		out.Destroy()
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &onnxRunner{
		session: session,
		input:   in,
		output:  out,
		inDims:  []int64(inputs[0].Dimensions),
		outDims: []int64(outputs[0].Dimensions),
	}, nil
}

// resolveDims replaces dynamic (<= 0) dimensions with the contract's value.
func resolveDims(declared ort.Shape, contract []int64) []int64 {
	if len(declared) != len(contract) {
		return contract
	}
	out := make([]int64, len(declared))
	for i, d := range declared {
		if d <= 0 {
			d = contract[i]
		}
		out[i] = d
	}
	return out
}

func (r *onnxRunner) Run(input []float32) ([]float32, error) {
	dst := r.input.GetData()
	if len(input) != len(dst) {
		return nil, fmt.Errorf("input length %d, model expects %d", len(input), len(dst))
	}
	copy(dst, input)
	if err := r.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}
	return r.output.GetData(), nil
}

func (r *onnxRunner) InputShape() []int64   { return r.inDims }
func (r *onnxRunner) OutputShape() []int64  { return r.outDims }
func (r *onnxRunner) Layout() tensor.Layout { return tensor.NCHW }

func (r *onnxRunner) Close() error {
	return errors.Join(r.session.Destroy(), r.input.Destroy(), r.output.Destroy())
}
