package capture

import (
	"context"
	"fmt"
	"image"

	"github.com/vova616/screenshot"
)

// BackendScreenshot names the generic pixel-copy backend.
const BackendScreenshot = "screenshot"

type grabFunc func(image.Rectangle) (*image.RGBA, error)

// screenshotSource copies screen pixels through the platform's generic screen API.
// It owns its buffer and drops it whenever the region dimensions change.
type screenshotSource struct {
	grab grabFunc
	buf  Buffer
}

// NewScreenshotSource returns the generic pixel-copy backend.
func NewScreenshotSource() Source {
	return &screenshotSource{grab: screenshot.CaptureRect}
}

func (s *screenshotSource) Name() string { return BackendScreenshot }

func (s *screenshotSource) Acquire(ctx context.Context, region image.Rectangle) (*Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if region.Empty() {
		return nil, ErrEmptyRegion
	}
	img, err := s.grab(region)
	if err != nil {
		return nil, fmt.Errorf("capture rect %v: %w", region, err)
	}
	if img == nil {
		return nil, nil
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()
	if w != s.buf.Width || h != s.buf.Height {
		s.buf.release()
	}
	s.buf.ensure(w, h, FormatRGBA)
	if copyRows(s.buf.Pix, s.buf.Stride, img.Pix, img.Stride, w*4, h) != h {
		return nil, fmt.Errorf("capture rect %v: short pixel buffer", region)
	}
	return &s.buf, nil
}

func (s *screenshotSource) Close() error {
	s.buf.release()
	return nil
}

// ScreenBounds returns the primary screen rectangle reported by the generic backend.
func ScreenBounds() (image.Rectangle, error) {
	return screenshot.ScreenRect()
}
