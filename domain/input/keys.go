// Package input reads the reference point, screen metrics and aim key state.
package input

import (
	"strings"
	"sync/atomic"
)

var namedKeys = map[string]uint16{
	"LBUTTON":  0x01,
	"RBUTTON":  0x02,
	"MBUTTON":  0x04,
	"XBUTTON1": 0x05,
	"XBUTTON2": 0x06,
	"SHIFT":    0x10,
	"CTRL":     0x11,
	"CONTROL":  0x11,
	"ALT":      0x12,
	"CAPSLOCK": 0x14,
	"SPACE":    0x20,
	"LSHIFT":   0xA0,
	"RSHIFT":   0xA1,
	"LCTRL":    0xA2,
	"RCTRL":    0xA3,
	"LALT":     0xA4,
	"RALT":     0xA5,
}

// ParseVK converts a key token ("RBUTTON", "F3", "R", "5") into a Windows virtual-key
// code. Empty or unknown tokens report false.
func ParseVK(key string) (uint16, bool) {
	k := strings.ToUpper(strings.TrimSpace(key))
	if k == "" {
		return 0, false
	}
	if vk, ok := namedKeys[k]; ok {
		return vk, true
	}
	if len(k) >= 2 && len(k) <= 3 && k[0] == 'F' {
		n := 0
		for _, c := range k[1:] {
			if c < '0' || c > '9' {
				return 0, false
			}
			n = n*10 + int(c-'0')
		}
		if n >= 1 && n <= 24 {
			return uint16(0x70 + n - 1), true // VK_F1=0x70
		}
		return 0, false
	}
	if len(k) == 1 {
		c := k[0]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			return uint16(c), true
		}
	}
	return 0, false
}

// Bindings tracks the configured aim keys and reports whether either is held.
type Bindings struct {
	primary   atomic.Uint32
	secondary atomic.Uint32
	held      func(vk uint16) bool
}

// NewBindings returns bindings polling the platform key state.
func NewBindings() *Bindings {
	return &Bindings{held: KeyHeld}
}

// Set replaces the bound keys; unknown tokens unbind that slot.
func (b *Bindings) Set(primary, secondary string) {
	p, _ := ParseVK(primary)
	s, _ := ParseVK(secondary)
	b.primary.Store(uint32(p))
	b.secondary.Store(uint32(s))
}

// AimKeyHeld reports whether either bound key is down.
func (b *Bindings) AimKeyHeld() bool {
	for _, vk := range [2]uint32{b.primary.Load(), b.secondary.Load()} {
		if vk != 0 && b.held(uint16(vk)) {
			return true
		}
	}
	return false
}
