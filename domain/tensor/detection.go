// Package tensor converts captured pixels into model input and raw model output into
// detections.
package tensor

// Detection is one candidate box in model pixel space.
type Detection struct {
	// Box origin and extent.
	X, Y, W, H float32
	// Raw model-space center as emitted by the model.
	CenterX, CenterY float32
	Confidence       float32
	// Center normalized to the captured region size.
	NormX, NormY float32
}

// Right returns the box's max x.
func (d Detection) Right() float32 { return d.X + d.W }

// Bottom returns the box's max y.
func (d Detection) Bottom() float32 { return d.Y + d.H }
