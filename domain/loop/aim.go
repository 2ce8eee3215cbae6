package loop

import (
	"image"
	"math"

	"github.com/soocke/pixel-tracker-go/config"
	"github.com/soocke/pixel-tracker-go/domain/tensor"
)

// AimPoint returns the screen coordinate to steer toward for d. Model pixels map 1:1
// onto region pixels because the encoder letterboxes or crops but never resamples, so
// the region origin is the only translation.
func AimPoint(d tensor.Detection, region image.Rectangle, s *config.Snapshot) image.Point {
	x, y := float64(d.X), float64(d.Y)
	w, h := float64(d.W), float64(d.H)

	var ax float64
	if s.XPercentAdjust {
		ax = x + w*s.XOffsetPercent/100
	} else {
		ax = x + w/2 + s.XOffset
	}

	var ay float64
	if s.YPercentAdjust {
		ay = y + h - h*s.YOffsetPercent/100 + s.YOffset
	} else {
		var align float64
		switch s.Alignment {
		case config.AlignCenter:
			align = h / 2
		case config.AlignBottom:
			align = h
		}
		ay = y + align + s.YOffset
	}
	return image.Pt(region.Min.X+int(math.Trunc(ax)), region.Min.Y+int(math.Trunc(ay)))
}

// screenBox translates the detection box into screen space.
func screenBox(d tensor.Detection, region image.Rectangle) image.Rectangle {
	r := image.Rect(int(d.X), int(d.Y), int(math.Ceil(float64(d.Right()))), int(math.Ceil(float64(d.Bottom()))))
	return r.Add(region.Min)
}
