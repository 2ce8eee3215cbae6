package tensor

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/klauspost/cpuid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/soocke/pixel-tracker-go/domain/capture"
)

// Layout is the memory order of the encoded input tensor.
type Layout int

const (
	// NCHW stores each channel as one contiguous Size*Size plane (R, G, B).
	NCHW Layout = iota
	// NHWC interleaves channels per pixel.
	NHWC
)

func (l Layout) String() string {
	if l == NHWC {
		return "nhwc"
	}
	return "nchw"
}

const inv255 = float32(1.0 / 255.0)

// ErrBadBuffer reports a pixel buffer whose geometry does not match its backing slice.
var ErrBadBuffer = errors.New("tensor: malformed pixel buffer")

// DefaultWorkers returns the number of row bands to encode in parallel: the
// physical core count, capped to what the runtime will schedule.
func DefaultWorkers() int {
	n := cpuid.CPU.PhysicalCores
	if n <= 0 {
		n = cpuid.CPU.LogicalCores
	}
	if procs := runtime.GOMAXPROCS(0); n <= 0 || n > procs {
		n = procs
	}
	return n
}

// Encoder converts a captured frame into a Size x Size float tensor with values in
// [0,1] and channels in R, G, B order.
type Encoder struct {
	Size    int
	Layout  Layout
	Workers int
}

// Len returns the number of floats in one encoded tensor.
func (e Encoder) Len() int { return 3 * e.Size * e.Size }

// Encode writes buf into dst, growing it when it is too small, and returns it. Pixels
// beyond Size are cropped; a smaller frame is anchored top-left and the rest is zero.
// Row padding in buf is skipped.
func (e Encoder) Encode(buf *capture.Buffer, dst []float32) ([]float32, error) {
	if buf == nil || buf.Width <= 0 || buf.Height <= 0 {
		return dst, fmt.Errorf("%w: empty", ErrBadBuffer)
	}
	bpp := buf.Format.BytesPerPixel()
	if buf.Stride < buf.Width*bpp || len(buf.Pix) < buf.Stride*(buf.Height-1)+buf.Width*bpp {
		return dst, fmt.Errorf("%w: %dx%d stride=%d len=%d", ErrBadBuffer, buf.Width, buf.Height, buf.Stride, len(buf.Pix))
	}
	n := e.Len()
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]

	w, h := min(buf.Width, e.Size), min(buf.Height, e.Size)
	if w < e.Size || h < e.Size {
		clear(dst)
	}

	workers := e.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	if workers > h {
		workers = h
	}
	if workers <= 1 {
		e.encodeRows(buf, dst, w, 0, h)
		return dst, nil
	}

	var g errgroup.Group
	g.SetLimit(workers)
	band := (h + workers - 1) / workers
	for y0 := 0; y0 < h; y0 += band {
		y1 := min(y0+band, h)
		g.Go(func() error {
			e.encodeRows(buf, dst, w, y0, y1)
			return nil
		})
	}
	return dst, g.Wait()
}

// encodeRows converts rows [y0, y1) of the first w columns.
func (e Encoder) encodeRows(buf *capture.Buffer, dst []float32, w, y0, y1 int) {
	ri, gi, bi := channelOffsets(buf.Format)
	bpp := buf.Format.BytesPerPixel()
	s := e.Size
	plane := s * s
	for y := y0; y < y1; y++ {
		row := buf.Pix[y*buf.Stride : y*buf.Stride+w*bpp]
		base := y * s
		if e.Layout == NHWC {
			out := dst[base*3 : (base+w)*3]
			for x := 0; x < w; x++ {
				p := row[x*bpp : x*bpp+3]
				out[x*3] = float32(p[ri]) * inv255
				out[x*3+1] = float32(p[gi]) * inv255
				out[x*3+2] = float32(p[bi]) * inv255
			}
			continue
		}
		rs := dst[base : base+w]
		gs := dst[plane+base : plane+base+w]
		bs := dst[2*plane+base : 2*plane+base+w]
		for x := 0; x < w; x++ {
			p := row[x*bpp : x*bpp+3]
			rs[x] = float32(p[ri]) * inv255
			gs[x] = float32(p[gi]) * inv255
			bs[x] = float32(p[bi]) * inv255
		}
	}
}

func channelOffsets(f capture.PixelFormat) (r, g, b int) {
	if f == capture.FormatRGBA {
		return 0, 1, 2
	}
	return 2, 1, 0
}
