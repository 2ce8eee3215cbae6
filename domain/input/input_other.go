//go:build !windows

package input

import (
	"errors"
	"image"

	"github.com/vova616/screenshot"
)

// Screen returns the primary screen rectangle, or an empty one when no display is
// reachable.
func Screen() image.Rectangle {
	r, err := screenshot.ScreenRect()
	if err != nil {
		return image.Rectangle{}
	}
	return r
}

// Cursor is unavailable here; callers fall back to the screen center.
func Cursor() (image.Point, bool) { return image.Point{}, false }

// Scale reports no scaling.
func Scale() (float64, float64) { return 1, 1 }

// KeyHeld always reports false.
func KeyHeld(uint16) bool { return false }

// ForegroundWindowTitle is not supported on this platform.
func ForegroundWindowTitle() (string, error) {
	return "", errors.New("foreground window title not supported on this platform")
}
