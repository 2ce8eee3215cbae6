package inference

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	tflite "github.com/tphakala/go-tflite"
	"github.com/tphakala/go-tflite/delegates"
	"github.com/tphakala/go-tflite/delegates/xnnpack"

	"github.com/soocke/pixel-tracker-go/domain/tensor"
)

type tfliteRunner struct {
	model    *tflite.Model
	options  *tflite.InterpreterOptions
	delegate delegates.Delegater
	interp   *tflite.Interpreter
	inDims   []int64
	outDims  []int64
	layout   tensor.Layout
	lastErr  string
}

func openTFLite(path string, b Backend, opts Options) (runner, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	model := tflite.NewModelFromFile(path)
	if model == nil {
		return nil, errors.New("cannot load TensorFlow Lite model")
	}
	r := &tfliteRunner{model: model}

	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	r.options = tflite.NewInterpreterOptions()
	if b == BackendXNNPACK {
		d := xnnpack.New(xnnpack.DelegateOptions{NumThreads: int32(max(1, threads-1))})
		if d == nil {
			r.Close()
			return nil, errors.New("cannot create XNNPACK delegate")
		}
		r.delegate = d
		r.options.AddDelegate(d)
		r.options.SetNumThread(1)
	} else {
		r.options.SetNumThread(threads)
	}
	r.options.SetErrorReporter(func(msg string, _ any) {
		r.lastErr = msg
	}, nil)

	r.interp = tflite.NewInterpreter(model, r.options)
	if r.interp == nil {
		r.Close()
		return nil, errors.New("cannot create interpreter")
	}
	if status := r.interp.AllocateTensors(); status != tflite.OK {
		msg := r.lastErr
		r.Close()
		return nil, fmt.Errorf("tensor allocation failed: %v %s", status, msg)
	}

	in := r.interp.GetInputTensor(0)
	out := r.interp.GetOutputTensor(0)
	if in == nil || out == nil {
		r.Close()
		return nil, errors.New("model has no input or output tensor")
	}
	r.inDims = tensorDims(in)
	r.outDims = tensorDims(out)
	r.layout = tensor.NCHW
	if n := len(r.inDims); n == 4 && r.inDims[n-1] == 3 {
		r.layout = tensor.NHWC
	}
	return r, nil
}

func tensorDims(t *tflite.Tensor) []int64 {
	dims := make([]int64, t.NumDims())
	for i := range dims {
		dims[i] = int64(t.Dim(i))
	}
	return dims
}

func (r *tfliteRunner) Run(input []float32) ([]float32, error) {
	in := r.interp.GetInputTensor(0)
	dst := in.Float32s()
	if len(input) != len(dst) {
		return nil, fmt.Errorf("input length %d, model expects %d", len(input), len(dst))
	}
	copy(dst, input)
	if status := r.interp.Invoke(); status != tflite.OK {
		return nil, fmt.Errorf("tensor invoke failed: %v %s", status, r.lastErr)
	}
	return r.interp.GetOutputTensor(0).Float32s(), nil
}

func (r *tfliteRunner) InputShape() []int64   { return r.inDims }
func (r *tfliteRunner) OutputShape() []int64  { return r.outDims }
func (r *tfliteRunner) Layout() tensor.Layout { return r.layout }

func (r *tfliteRunner) Close() error {
	if r.interp != nil {
		r.interp.Delete()
		r.interp = nil
	}
	if r.delegate != nil {
		r.delegate.Delete()
		r.delegate = nil
	}
	if r.options != nil {
		r.options.Delete()
		r.options = nil
	}
	if r.model != nil {
		r.model.Delete()
		r.model = nil
	}
	return nil
}
