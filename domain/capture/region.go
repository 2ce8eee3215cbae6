package capture

import "image"

// RegionAround returns the size x size square centered on center, shifted and clipped so
// that it lies inside screen. The result never exceeds the requested size and is empty
// only when screen is empty or size < 1.
func RegionAround(center image.Point, size int, screen image.Rectangle) image.Rectangle {
	if size < 1 || screen.Empty() {
		return image.Rectangle{}
	}
	half := size / 2
	r := image.Rect(center.X-half, center.Y-half, center.X-half+size, center.Y-half+size)

	// Shift back inside before clipping so edge regions keep as much of the
	// requested extent as the screen allows.
	if r.Min.X < screen.Min.X {
		r = r.Add(image.Pt(screen.Min.X-r.Min.X, 0))
	}
	if r.Min.Y < screen.Min.Y {
		r = r.Add(image.Pt(0, screen.Min.Y-r.Min.Y))
	}
	if r.Max.X > screen.Max.X {
		r = r.Sub(image.Pt(r.Max.X-screen.Max.X, 0))
	}
	if r.Max.Y > screen.Max.Y {
		r = r.Sub(image.Pt(0, r.Max.Y-screen.Max.Y))
	}
	return r.Intersect(screen)
}
