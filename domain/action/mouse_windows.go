//go:build windows

package action

import (
	"golang.org/x/sys/windows"
)

var (
	user32        = windows.NewLazySystemDLL("user32.dll")
	procMouseEvnt = user32.NewProc("mouse_event")
)

const (
	mouseEventLeftDown = 0x0002
	mouseEventLeftUp   = 0x0004
)

// leftButton presses or releases the left mouse button.
func leftButton(down bool) error {
	flag := uintptr(mouseEventLeftUp)
	if down {
		flag = mouseEventLeftDown
	}
	if err := procMouseEvnt.Find(); err != nil {
		return err
	}
	_, _, _ = procMouseEvnt.Call(flag, 0, 0, 0, 0)
	return nil
}
