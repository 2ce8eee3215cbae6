package tensor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/pixel-tracker-go/domain/capture"
)

// output builds a (1, 5, n) row-major tensor from per-slot tuples.
func output(n int, slots ...[5]float32) []float32 {
	out := make([]float32, OutputRows*n)
	for i, s := range slots {
		for r := 0; r < OutputRows; r++ {
			out[r*n+i] = s[r]
		}
	}
	return out
}

func TestDecode_ThresholdAndBox(t *testing.T) {
	d := Decoder{Size: 640, Slots: 4}
	out := output(4,
		[5]float32{320, 320, 40, 80, 0.9},
		[5]float32{100, 100, 10, 10, 0.2},
		[5]float32{200, 300, 20, 20, 0.45},
	)
	dets := d.Decode(nil, out, DecodeParams{MinConfidence: 0.45, RegionW: 640, RegionH: 640})
	require.Len(t, dets, 2)
	assert.Equal(t, Detection{X: 300, Y: 280, W: 40, H: 80, CenterX: 320, CenterY: 320, Confidence: 0.9, NormX: 0.5, NormY: 0.5}, dets[0])
	assert.InDelta(t, 200.0/640, dets[1].NormX, 1e-6)
	assert.InDelta(t, 300.0/640, dets[1].NormY, 1e-6)
}

func TestDecode_FOVRejectsBoxesCrossingEdge(t *testing.T) {
	d := Decoder{Size: 640, Slots: 3}
	out := output(3,
		[5]float32{320, 320, 100, 100, 1},
		[5]float32{170, 320, 50, 50, 1}, // xmin 145 < fovMin 160
		[5]float32{190, 320, 50, 50, 1}, // xmin 165
	)
	p := DecodeParams{MinConfidence: 0.5, FOV: 320}
	dets := d.Decode(nil, out, p)
	require.Len(t, dets, 2)
	assert.Equal(t, float32(320), dets[0].CenterX)
	assert.Equal(t, float32(190), dets[1].CenterX)

	p.FOV = 640
	assert.Len(t, d.Decode(nil, out, p), 3)
	p.FOV = 0
	assert.Len(t, d.Decode(nil, out, p), 3)
}

func TestDecode_FOVAppliesWithoutOverlayToggle(t *testing.T) {
	d := Decoder{Size: 640, Slots: 1}
	out := output(1, [5]float32{40, 40, 20, 20, 0.9})
	assert.Empty(t, d.Decode(nil, out, DecodeParams{MinConfidence: 0.5, FOV: 200}))
}

func TestDecode_EmitsOnlyInsideFOVAboveThreshold(t *testing.T) {
	const n, size, fov = 64, 640, 200
	out := make([]float32, OutputRows*n)
	for i := 0; i < n; i++ {
		out[rowCX*n+i] = float32(i * 10)
		out[rowCY*n+i] = float32(640 - i*10)
		out[rowW*n+i] = float32(i % 7 * 5)
		out[rowH*n+i] = float32(i % 5 * 6)
		out[rowObj*n+i] = float32(i%10) / 10
	}
	dets := Decoder{Size: size, Slots: n}.Decode(nil, out, DecodeParams{MinConfidence: 0.3, FOV: fov})
	lo, hi := float32(size-fov)/2, float32(size+fov)/2
	for _, d := range dets {
		assert.GreaterOrEqual(t, d.Confidence, float32(0.3))
		assert.GreaterOrEqual(t, d.X, lo)
		assert.GreaterOrEqual(t, d.Y, lo)
		assert.LessOrEqual(t, d.Right(), hi)
		assert.LessOrEqual(t, d.Bottom(), hi)
	}
}

func TestDecode_ShortOutputYieldsNothing(t *testing.T) {
	d := Decoder{Size: 640, Slots: 8400}
	assert.Empty(t, d.Decode(nil, make([]float32, 10), DecodeParams{}))
}

func TestDecode_AppendsToDst(t *testing.T) {
	d := Decoder{Size: 10, Slots: 1}
	dst := make([]Detection, 0, 4)
	dst = d.Decode(dst, output(1, [5]float32{5, 5, 2, 2, 1}), DecodeParams{})
	dst = d.Decode(dst[:0], output(1, [5]float32{5, 5, 2, 2, 1}), DecodeParams{})
	assert.Len(t, dst, 1)
}

func TestValidateShape(t *testing.T) {
	assert.NoError(t, ValidateShape([]int64{1, 5, 8400}, 8400))
	assert.NoError(t, ValidateShape([]int64{-1, 5, -1}, 8400))
	assert.True(t, errors.Is(ValidateShape([]int64{1, 84, 8400}, 8400), ErrShapeMismatch))
	assert.True(t, errors.Is(ValidateShape([]int64{1, 5, 2100}, 8400), ErrShapeMismatch))
	assert.True(t, errors.Is(ValidateShape([]int64{5, 8400}, 8400), ErrShapeMismatch))

	assert.NoError(t, ValidateInputShape([]int64{1, 3, 640, 640}, 640, NCHW))
	assert.NoError(t, ValidateInputShape([]int64{1, 320, 320, 3}, 320, NHWC))
	assert.Error(t, ValidateInputShape([]int64{1, 3, 320, 320}, 640, NCHW))
}

func solid(w, h, stride int, f capture.PixelFormat, px []byte) *capture.Buffer {
	b := &capture.Buffer{Pix: make([]byte, stride*h), Width: w, Height: h, Stride: stride, Format: f}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			copy(b.Pix[y*stride+x*len(px):], px)
		}
		for x := w * len(px); x < stride; x++ {
			b.Pix[y*stride+x] = 0xFF
		}
	}
	return b
}

func TestEncode_SolidColorRoundTrip(t *testing.T) {
	const s = 8
	// BGRA blue=10 green=20 red=30
	buf := solid(s, s, s*4+12, capture.FormatBGRA, []byte{10, 20, 30, 255})
	for _, workers := range []int{1, 3, 16} {
		enc := Encoder{Size: s, Workers: workers}
		out, err := enc.Encode(buf, nil)
		require.NoError(t, err)
		require.Len(t, out, 3*s*s)
		for i := 0; i < s*s; i++ {
			assert.InDelta(t, 30.0/255, out[i], 1e-6)
			assert.InDelta(t, 20.0/255, out[s*s+i], 1e-6)
			assert.InDelta(t, 10.0/255, out[2*s*s+i], 1e-6)
		}
	}
}

func TestEncode_RGBAAndNHWC(t *testing.T) {
	buf := solid(2, 2, 8, capture.FormatRGBA, []byte{255, 0, 51, 255})
	out, err := Encoder{Size: 2, Layout: NHWC, Workers: 1}.Encode(buf, nil)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		assert.InDelta(t, 1.0, out[i*3], 1e-6)
		assert.InDelta(t, 0.0, out[i*3+1], 1e-6)
		assert.InDelta(t, 0.2, out[i*3+2], 1e-6)
	}
}

func TestEncode_BGRPadding(t *testing.T) {
	buf := solid(3, 2, 12, capture.FormatBGR, []byte{0, 0, 255})
	out, err := Encoder{Size: 3, Workers: 2}.Encode(buf, nil)
	require.NoError(t, err)
	for i := 0; i < 6; i++ {
		assert.InDelta(t, 1.0, out[i], 1e-6, "red plane")
		assert.Zero(t, out[9+i], "green plane")
	}
}

func TestEncode_SmallFrameIsLetterboxed(t *testing.T) {
	buf := solid(2, 1, 8, capture.FormatRGBA, []byte{255, 255, 255, 255})
	dst := make([]float32, 3*4*4)
	for i := range dst {
		dst[i] = 9
	}
	out, err := Encoder{Size: 4, Workers: 1}.Encode(buf, dst)
	require.NoError(t, err)
	assert.Equal(t, float32(1), out[0])
	assert.Equal(t, float32(1), out[1])
	assert.Zero(t, out[2])
	assert.Zero(t, out[4])
	assert.Zero(t, out[16+15])
}

func TestEncode_LargeFrameIsCropped(t *testing.T) {
	buf := solid(6, 6, 24, capture.FormatRGBA, []byte{255, 255, 255, 255})
	out, err := Encoder{Size: 4, Workers: 4}.Encode(buf, nil)
	require.NoError(t, err)
	assert.Len(t, out, 48)
	for _, v := range out {
		assert.Equal(t, float32(1), v)
	}
}

func TestEncode_RejectsMalformedBuffer(t *testing.T) {
	_, err := Encoder{Size: 4}.Encode(&capture.Buffer{Pix: make([]byte, 4), Width: 2, Height: 2, Stride: 8, Format: capture.FormatRGBA}, nil)
	assert.ErrorIs(t, err, ErrBadBuffer)
	_, err = Encoder{Size: 4}.Encode(nil, nil)
	assert.ErrorIs(t, err, ErrBadBuffer)
}

func BenchmarkEncode640(b *testing.B) {
	buf := solid(640, 640, 640*4, capture.FormatBGRA, []byte{1, 2, 3, 4})
	enc := Encoder{Size: 640}
	dst := make([]float32, enc.Len())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dst, _ = enc.Encode(buf, dst)
	}
}
