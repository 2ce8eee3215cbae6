package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVK(t *testing.T) {
	cases := map[string]uint16{
		"RBUTTON":  0x02,
		" lbutton": 0x01,
		"F1":       0x70,
		"f3":       0x72,
		"F12":      0x7B,
		"F24":      0x87,
		"r":        'R',
		"5":        '5',
		"ctrl":     0x11,
	}
	for in, want := range cases {
		got, ok := ParseVK(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "F0", "F25", "FX", "??", "ENTERKEY"} {
		_, ok := ParseVK(bad)
		assert.False(t, ok, bad)
	}
}

func TestBindings_AimKeyHeld(t *testing.T) {
	down := map[uint16]bool{}
	b := &Bindings{held: func(vk uint16) bool { return down[vk] }}
	b.Set("RBUTTON", "")
	assert.False(t, b.AimKeyHeld())

	down[0x02] = true
	assert.True(t, b.AimKeyHeld())

	b.Set("F2", "RBUTTON")
	assert.True(t, b.AimKeyHeld(), "secondary binding counts")

	b.Set("F2", "nonsense")
	assert.False(t, b.AimKeyHeld())
}
