package loop

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/soocke/pixel-tracker-go/config"
	"github.com/soocke/pixel-tracker-go/domain/tensor"
)

func TestAimPoint(t *testing.T) {
	det := tensor.Detection{X: 100, Y: 200, W: 40, H: 80}
	region := image.Rect(1000, 500, 1640, 1140)

	cases := []struct {
		name string
		set  func(*config.Snapshot)
		want image.Point
	}{
		{"center alignment", func(s *config.Snapshot) { s.Alignment = config.AlignCenter }, image.Pt(1120, 740)},
		{"top alignment", func(s *config.Snapshot) { s.Alignment = config.AlignTop }, image.Pt(1120, 700)},
		{"bottom alignment", func(s *config.Snapshot) { s.Alignment = config.AlignBottom }, image.Pt(1120, 780)},
		{"absolute offsets", func(s *config.Snapshot) {
			s.Alignment = config.AlignTop
			s.XOffset, s.YOffset = 5, -10
		}, image.Pt(1125, 690)},
		{"x percentage ignores absolute offset", func(s *config.Snapshot) {
			s.XPercentAdjust = true
			s.XOffsetPercent = 25
			s.XOffset = 99
		}, image.Pt(1110, 740)},
		{"y percentage measured from the bottom", func(s *config.Snapshot) {
			s.YPercentAdjust = true
			s.YOffsetPercent = 75
			s.YOffset = 3
		}, image.Pt(1120, 723)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := config.DefaultSnapshot()
			tc.set(s)
			assert.Equal(t, tc.want, AimPoint(det, region, s))
		})
	}
}

func TestScreenBox(t *testing.T) {
	d := tensor.Detection{X: 1.5, Y: 2, W: 10, H: 4.2}
	assert.Equal(t, image.Rect(11, 22, 22, 27), screenBox(d, image.Rect(10, 20, 74, 84)))
}
