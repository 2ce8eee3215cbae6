//go:build !windows

package capture

import (
	"log/slog"
	"time"
)

// BackendDXGI names the GPU desktop duplication backend.
const BackendDXGI = "dxgi"

// NewDXGISource always fails off Windows.
func NewDXGISource(*slog.Logger, time.Duration, time.Duration) (*Session, error) {
	return nil, ErrUnsupported
}
