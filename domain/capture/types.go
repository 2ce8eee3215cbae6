package capture

import (
	"context"
	"image"
)

// PixelFormat describes the byte order of one pixel in a Buffer.
type PixelFormat int

const (
	FormatBGRA PixelFormat = iota // 4 bytes, desktop duplication surfaces
	FormatRGBA                    // 4 bytes, image.RGBA
	FormatBGR                     // 3 bytes, 24-bit DIBs
)

// BytesPerPixel returns the pixel size of f.
func (f PixelFormat) BytesPerPixel() int {
	if f == FormatBGR {
		return 3
	}
	return 4
}

func (f PixelFormat) String() string {
	switch f {
	case FormatBGRA:
		return "bgra"
	case FormatRGBA:
		return "rgba"
	case FormatBGR:
		return "bgr"
	default:
		return "unknown"
	}
}

// Buffer is a CPU-side pixel buffer. Rows are Stride bytes apart; Stride may exceed
// Width*BytesPerPixel when rows carry padding.
type Buffer struct {
	Pix    []byte
	Width  int
	Height int
	Stride int
	Format PixelFormat
}

// Bounds returns the buffer rectangle anchored at the origin.
func (b *Buffer) Bounds() image.Rectangle { return image.Rect(0, 0, b.Width, b.Height) }

// ensure resizes b for a w x h frame, reusing the backing slice when it is already large
// enough. It reports whether the dimensions changed.
func (b *Buffer) ensure(w, h int, format PixelFormat) bool {
	stride := w * format.BytesPerPixel()
	needed := stride * h
	changed := b.Width != w || b.Height != h || b.Format != format
	if cap(b.Pix) < needed {
		b.Pix = make([]byte, needed)
	} else {
		b.Pix = b.Pix[:needed]
	}
	b.Width, b.Height, b.Stride, b.Format = w, h, stride, format
	return changed
}

// release drops the backing storage.
func (b *Buffer) release() {
	b.Pix = nil
	b.Width, b.Height, b.Stride = 0, 0, 0
}

// Source acquires a rectangular screen region.
//
// Acquire returns (nil, nil) when no new frame is available this cycle. The returned
// buffer is owned by the source and stays valid until the next Acquire or Close.
// Sources are not safe for concurrent use.
type Source interface {
	Acquire(ctx context.Context, region image.Rectangle) (*Buffer, error)
	Close() error
	Name() string
}
