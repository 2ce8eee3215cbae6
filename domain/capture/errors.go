package capture

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupported reports a backend that cannot run on this platform.
	ErrUnsupported = errors.New("capture: backend not supported on this platform")
	// ErrTimeout reports that no new frame arrived within the wait timeout.
	ErrTimeout = errors.New("capture: frame wait timed out")
	// ErrEmptyRegion reports a region with no pixels after clamping.
	ErrEmptyRegion = errors.New("capture: empty region")
)

// HRESULT is a COM/DXGI status code.
type HRESULT uint32

// DXGI status codes the session distinguishes.
const (
	hrWaitTimeout   HRESULT = 0x887A0027
	hrAccessLost    HRESULT = 0x887A0026
	hrDeviceRemoved HRESULT = 0x887A0005
	hrDeviceReset   HRESULT = 0x887A0007
	hrDeviceHung    HRESULT = 0x887A0006
	hrInvalidCall   HRESULT = 0x887A0001
)

// Failed reports whether h is a failure code.
func (h HRESULT) Failed() bool { return int32(h) < 0 }

// HRESULTError carries a failing COM call and its status code.
type HRESULTError struct {
	Op   string
	Code HRESULT
}

func (e *HRESULTError) Error() string {
	return fmt.Sprintf("capture: %s failed hresult=0x%08X", e.Op, uint32(e.Code))
}

// Is lets errors.Is match ErrTimeout against a wait-timeout HRESULT.
func (e *HRESULTError) Is(target error) bool {
	return target == ErrTimeout && e.Code == hrWaitTimeout
}

// ErrorClass groups capture failures by the recovery they need.
type ErrorClass int

const (
	// ClassNone is a nil error.
	ClassNone ErrorClass = iota
	// ClassTransient yields no frame for the cycle; resources are kept.
	ClassTransient
	// ClassDeviceLost means the device or duplication is gone; full teardown required.
	ClassDeviceLost
	// ClassFatal is any other error; handled like ClassDeviceLost.
	ClassFatal
)

func (c ErrorClass) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassTransient:
		return "transient"
	case ClassDeviceLost:
		return "device_lost"
	default:
		return "fatal"
	}
}

// Classify maps err onto an ErrorClass.
func Classify(err error) ErrorClass {
	if err == nil {
		return ClassNone
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrEmptyRegion) {
		return ClassTransient
	}
	var hr *HRESULTError
	if errors.As(err, &hr) {
		switch hr.Code {
		case hrAccessLost, hrDeviceRemoved, hrDeviceReset, hrDeviceHung:
			return ClassDeviceLost
		}
	}
	return ClassFatal
}
