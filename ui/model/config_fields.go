package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/soocke/pixel-tracker-go/config"
)

// ConfigField binds one editable configuration value to its text form.
type ConfigField struct {
	ID    string
	Label string
	Get   func(*config.Snapshot) string
	// Set parses text into s; it reports false and leaves s untouched on bad input.
	Set func(s *config.Snapshot, text string) bool
}

// ConfigFields lists the values editable from the status window, in display order.
var ConfigFields = []ConfigField{
	stringField("captureBackend", "Capture Backend (dxgi/screenshot)", func(s *config.Snapshot) *string { return &s.CaptureBackend }),
	stringField("detectionArea", "Detection Area (mouse/center)", func(s *config.Snapshot) *string { return &s.DetectionArea }),
	floatField("minConfidence", "Min Confidence %", func(s *config.Snapshot) *float64 { return &s.MinConfidence }),
	boolField("fovEnabled", "FOV (true/false)", func(s *config.Snapshot) *bool { return &s.FOVEnabled }),
	floatField("fovSize", "FOV Size px", func(s *config.Snapshot) *float64 { return &s.FOVSize }),
	floatField("xOffset", "X Offset px", func(s *config.Snapshot) *float64 { return &s.XOffset }),
	floatField("yOffset", "Y Offset px", func(s *config.Snapshot) *float64 { return &s.YOffset }),
	boolField("xPercentAdjust", "X Percentage Adjust", func(s *config.Snapshot) *bool { return &s.XPercentAdjust }),
	floatField("xOffsetPercent", "X Offset %", func(s *config.Snapshot) *float64 { return &s.XOffsetPercent }),
	boolField("yPercentAdjust", "Y Percentage Adjust", func(s *config.Snapshot) *bool { return &s.YPercentAdjust }),
	floatField("yOffsetPercent", "Y Offset %", func(s *config.Snapshot) *float64 { return &s.YOffsetPercent }),
	stringField("alignment", "Alignment (top/center/bottom)", func(s *config.Snapshot) *string { return &s.Alignment }),
	stringField("predictionMethod", "Prediction (kalman/window/ema)", func(s *config.Snapshot) *string { return &s.PredictionMethod }),
	stringField("predictionAxes", "Prediction Axes (x/y/both)", func(s *config.Snapshot) *string { return &s.PredictionAxes }),
	stringField("aimKey", "Aim Key (e.g. RBUTTON or F3)", func(s *config.Snapshot) *string { return &s.AimKey }),
	stringField("secondAimKey", "Second Aim Key", func(s *config.Snapshot) *string { return &s.SecondAimKey }),
	floatField("overlayOpacity", "Overlay Opacity (0-1)", func(s *config.Snapshot) *float64 { return &s.OverlayOpacity }),
	boolField("collectData", "Collect Data", func(s *config.Snapshot) *bool { return &s.CollectData }),
	boolField("autoLabel", "Auto Label", func(s *config.Snapshot) *bool { return &s.AutoLabel }),
}

// ApplyFields parses values (keyed by field ID) into a copy of base. Unparseable
// entries keep their previous value and are returned as invalid IDs.
func ApplyFields(base *config.Snapshot, values map[string]string) (*config.Snapshot, []string) {
	next := base.Clone()
	var invalid []string
	for _, f := range ConfigFields {
		text, ok := values[f.ID]
		if !ok {
			continue
		}
		if !f.Set(next, strings.TrimSpace(text)) {
			invalid = append(invalid, f.ID)
		}
	}
	return next, invalid
}

func stringField(id, label string, ptr func(*config.Snapshot) *string) ConfigField {
	return ConfigField{
		ID: id, Label: label,
		Get: func(s *config.Snapshot) string { return *ptr(s) },
		Set: func(s *config.Snapshot, text string) bool {
			*ptr(s) = text
			return true
		},
	}
}

func floatField(id, label string, ptr func(*config.Snapshot) *float64) ConfigField {
	return ConfigField{
		ID: id, Label: label,
		Get: func(s *config.Snapshot) string { return strconv.FormatFloat(*ptr(s), 'f', -1, 64) },
		Set: func(s *config.Snapshot, text string) bool {
			f, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return false
			}
			*ptr(s) = f
			return true
		},
	}
}

func boolField(id, label string, ptr func(*config.Snapshot) *bool) ConfigField {
	return ConfigField{
		ID: id, Label: label,
		Get: func(s *config.Snapshot) string { return fmt.Sprintf("%t", *ptr(s)) },
		Set: func(s *config.Snapshot, text string) bool {
			b, ok := parseBoolLoose(text)
			if ok {
				*ptr(s) = b
			}
			return ok
		},
	}
}

func parseBoolLoose(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "on", "t":
		return true, true
	case "false", "0", "no", "n", "off", "f":
		return false, true
	default:
		return false, false
	}
}
