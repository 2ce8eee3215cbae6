package inference

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/pixel-tracker-go/domain/tensor"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeRunner struct {
	out     []int64
	closed  int
	block   chan struct{}
	started chan struct{}
}

func (f *fakeRunner) Run(input []float32) ([]float32, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	return append([]float32(nil), input...), nil
}
func (f *fakeRunner) InputShape() []int64 { return []int64{1, 3, 640, 640} }
func (f *fakeRunner) OutputShape() []int64 {
	if f.out != nil {
		return f.out
	}
	return []int64{1, 5, 8400}
}
func (f *fakeRunner) Layout() tensor.Layout { return tensor.NCHW }
func (f *fakeRunner) Close() error          { f.closed++; return nil }

var _ runner = (*fakeRunner)(nil)

func newTestEngine(open openFunc) *Engine {
	e := NewEngine(discardLogger, Options{Size: 640, Slots: 8400})
	e.open = open
	return e
}

func TestEngine_FallsBackInOrder(t *testing.T) {
	var tried []Backend
	e := newTestEngine(func(_ string, b Backend, _ Options) (runner, error) {
		tried = append(tried, b)
		if b == BackendCPU {
			return &fakeRunner{}, nil
		}
		return nil, fmt.Errorf("%s provider missing", b)
	})
	require.NoError(t, e.Load(context.Background(), "model.onnx", nil))
	assert.Equal(t, []Backend{BackendCUDA, BackendDirectML, BackendCPU}, tried)
	assert.True(t, e.Ready())
	assert.Equal(t, BackendCPU, e.Backend())

	out, err := e.Run([]float32{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, out)
}

func TestEngine_AllBackendsFailLeavesUnready(t *testing.T) {
	e := newTestEngine(func(string, Backend, Options) (runner, error) { return nil, errors.New("nope") })
	err := e.Load(context.Background(), "model.onnx", nil)
	require.ErrorIs(t, err, ErrNoBackend)
	assert.False(t, e.Ready())

	out, err := e.Run(make([]float32, 3))
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestEngine_SkipsIncompatibleBackends(t *testing.T) {
	var tried []Backend
	e := newTestEngine(func(_ string, b Backend, _ Options) (runner, error) {
		tried = append(tried, b)
		return &fakeRunner{}, nil
	})
	require.NoError(t, e.Load(context.Background(), "model.tflite", []Backend{BackendCUDA, BackendTFLite}))
	assert.Equal(t, []Backend{BackendTFLite}, tried)

	err := e.Load(context.Background(), "model.tflite", []Backend{BackendCPU})
	assert.ErrorIs(t, err, ErrNoBackend)
}

func TestEngine_ShapeMismatchStaysLoaded(t *testing.T) {
	e := newTestEngine(func(string, Backend, Options) (runner, error) {
		return &fakeRunner{out: []int64{1, 84, 8400}}, nil
	})
	require.NoError(t, e.Load(context.Background(), "yolo.onnx", []Backend{BackendCPU}))
	assert.True(t, e.Ready())
}

func TestEngine_ReloadClosesPrevious(t *testing.T) {
	first := &fakeRunner{}
	runners := []*fakeRunner{first, {}}
	e := newTestEngine(func(string, Backend, Options) (runner, error) {
		r := runners[0]
		runners = runners[1:]
		return r, nil
	})
	require.NoError(t, e.Load(context.Background(), "a.onnx", []Backend{BackendCPU}))
	require.NoError(t, e.Load(context.Background(), "b.onnx", []Backend{BackendCPU}))
	assert.Equal(t, 1, first.closed)
	require.NoError(t, e.Close())
	assert.False(t, e.Ready())
}

func TestEngine_ConcurrentRunIsBusy(t *testing.T) {
	r := &fakeRunner{block: make(chan struct{}), started: make(chan struct{})}
	e := newTestEngine(func(string, Backend, Options) (runner, error) { return r, nil })
	require.NoError(t, e.Load(context.Background(), "m.onnx", []Backend{BackendCPU}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := e.Run([]float32{1})
		assert.NoError(t, err)
	}()
	<-r.started
	_, err := e.Run([]float32{1})
	assert.ErrorIs(t, err, ErrBusy)
	close(r.block)
	wg.Wait()
}

func TestEngine_LoadHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := newTestEngine(func(string, Backend, Options) (runner, error) { return &fakeRunner{}, nil })
	assert.ErrorIs(t, e.Load(ctx, "m.onnx", nil), context.Canceled)
}

func TestParseChainAndDefaults(t *testing.T) {
	assert.Equal(t, []Backend{BackendDirectML, BackendCPU}, ParseChain([]string{" DirectML", "bogus", "cpu"}))
	assert.Empty(t, ParseChain(nil))
	assert.Equal(t, []Backend{BackendXNNPACK, BackendTFLite}, DefaultChain("/m/Model.TFLITE"))
	assert.Equal(t, []Backend{BackendCUDA, BackendDirectML, BackendCPU}, DefaultChain("m.onnx"))
}

func TestHintFor(t *testing.T) {
	assert.Contains(t, hintFor(BackendCUDA, errors.New("could not load cudnn64_9.dll")), "cuDNN")
	assert.Contains(t, hintFor(BackendCPU, fmt.Errorf("stat: %w", fs.ErrNotExist)), "model_path")
	assert.Contains(t, hintFor(BackendCPU, errors.New("load onnxruntime shared library")), "onnx_library_path")
	assert.NotEmpty(t, hintFor(BackendTFLite, errors.New("x")))
}
