package tensor

// Rows in the (1, 5, N) output: center x, center y, width, height, objectness.
const (
	rowCX = iota
	rowCY
	rowW
	rowH
	rowObj
	OutputRows
)

// DecodeParams are the per-cycle filter settings.
type DecodeParams struct {
	MinConfidence float32
	// Side of the square field of view; <= 0 or >= Size means the whole input.
	FOV float32
	// Capture region size; detections are normalized against it.
	RegionW, RegionH int
}

// Decoder turns a row-major (1, 5, Slots) output into detections for a Size x Size input.
type Decoder struct {
	Size  int
	Slots int
}

// Decode appends to dst every slot whose objectness reaches p.MinConfidence and whose
// box lies fully inside the square field of view centered on the model input. out
// shorter than 5*Slots yields no detections.
func (d Decoder) Decode(dst []Detection, out []float32, p DecodeParams) []Detection {
	n := d.Slots
	if n <= 0 || len(out) < OutputRows*n {
		return dst
	}
	size := float32(d.Size)
	fov := size
	if p.FOV > 0 && p.FOV < size {
		fov = p.FOV
	}
	fovMin := (size - fov) / 2
	fovMax := (size + fov) / 2

	rw, rh := float32(p.RegionW), float32(p.RegionH)
	if rw <= 0 {
		rw = size
	}
	if rh <= 0 {
		rh = size
	}

	cxs := out[rowCX*n : rowCX*n+n]
	cys := out[rowCY*n : rowCY*n+n]
	ws := out[rowW*n : rowW*n+n]
	hs := out[rowH*n : rowH*n+n]
	objs := out[rowObj*n : rowObj*n+n]
	for i, obj := range objs {
		if obj < p.MinConfidence {
			continue
		}
		cx, cy, w, h := cxs[i], cys[i], ws[i], hs[i]
		xmin, ymin := cx-w/2, cy-h/2
		xmax, ymax := cx+w/2, cy+h/2
		if xmin < fovMin || xmax > fovMax || ymin < fovMin || ymax > fovMax {
			continue
		}
		dst = append(dst, Detection{
			X: xmin, Y: ymin, W: w, H: h,
			CenterX: cx, CenterY: cy,
			Confidence: obj,
			NormX:      cx / rw,
			NormY:      cy / rh,
		})
	}
	return dst
}
