//go:build windows

package input

import (
	"errors"
	"image"
	"strings"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procGetSystemMetrics    = user32.NewProc("GetSystemMetrics")
	procGetCursorPos        = user32.NewProc("GetCursorPos")
	procGetAsyncKeyState    = user32.NewProc("GetAsyncKeyState")
	procGetDpiForSystem     = user32.NewProc("GetDpiForSystem")
	procGetForegroundWindow = user32.NewProc("GetForegroundWindow")
	procGetWindowTextW      = user32.NewProc("GetWindowTextW")
)

const (
	smCXScreen = 0
	smCYScreen = 1
)

// Screen returns the primary screen rectangle.
func Screen() image.Rectangle {
	w, _, _ := procGetSystemMetrics.Call(smCXScreen)
	h, _, _ := procGetSystemMetrics.Call(smCYScreen)
	return image.Rect(0, 0, int(int32(w)), int(int32(h)))
}

// Cursor returns the cursor position in screen coordinates.
func Cursor() (image.Point, bool) {
	var pt struct{ X, Y int32 }
	r, _, _ := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt)))
	if r == 0 {
		return image.Point{}, false
	}
	return image.Pt(int(pt.X), int(pt.Y)), true
}

// Scale returns the system DPI scale relative to 96 DPI.
func Scale() (float64, float64) {
	if procGetDpiForSystem.Find() != nil {
		return 1, 1
	}
	dpi, _, _ := procGetDpiForSystem.Call()
	if dpi == 0 {
		return 1, 1
	}
	s := float64(dpi) / 96
	return s, s
}

// KeyHeld reports whether the virtual key is currently down.
func KeyHeld(vk uint16) bool {
	r, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
	return uint16(r)&0x8000 != 0
}

// ForegroundWindowTitle returns the title of the current foreground window.
func ForegroundWindowTitle() (string, error) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return "", errors.New("no foreground window")
	}
	buf := make([]uint16, 256)
	r, _, _ := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if r == 0 {
		return "", nil
	}
	end := int(r)
	for i, v := range buf[:end] {
		if v == 0 {
			end = i
			break
		}
	}
	return strings.TrimSpace(string(utf16.Decode(buf[:end]))), nil
}
