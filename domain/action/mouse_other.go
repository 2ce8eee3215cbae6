//go:build !windows

package action

import "errors"

var errUnsupported = errors.New("mouse input is only supported on windows")

func leftButton(bool) error { return errUnsupported }
