package model

import "image"

// Feature names a user-toggled behavior of the detection loop.
type Feature string

const (
	FeatureAimAssist        Feature = "aim_assist"
	FeatureOverlay          Feature = "show_overlay"
	FeaturePredictions      Feature = "predictions"
	FeatureConstantTracking Feature = "constant_tracking"
	FeatureAutoTrigger      Feature = "auto_trigger"
)

// Features lists every toggle in display order.
var Features = []Feature{
	FeatureAimAssist,
	FeatureOverlay,
	FeaturePredictions,
	FeatureConstantTracking,
	FeatureAutoTrigger,
}

// Label returns the button caption for f.
func (f Feature) Label() string {
	switch f {
	case FeatureAimAssist:
		return "Aim Assist"
	case FeatureOverlay:
		return "Overlay"
	case FeaturePredictions:
		return "Predictions"
	case FeatureConstantTracking:
		return "Constant Tracking"
	case FeatureAutoTrigger:
		return "Auto Trigger"
	default:
		return string(f)
	}
}

// Status is the merged state published by the detection loop. Seq increases with
// every change.
type Status struct {
	Seq uint64

	FPS float64

	HasTarget      bool
	Box            image.Rectangle
	Confidence     float32
	ShowConfidence bool
	Tracer         bool
	Opacity        float64

	Aim     image.Point
	AimSeen bool

	FOVCenter image.Point
	FOVSize   int
}
