package capture

// copyRows copies rows lines of rowBytes each from src (rows srcPitch apart) into dst
// (rows dstStride apart). Mapped GPU surfaces usually pad rows to an alignment, so the
// source pitch can exceed the destination stride and a single flat copy would shear the
// image. It returns the number of rows copied, which is smaller than rows when either
// slice is too short.
func copyRows(dst []byte, dstStride int, src []byte, srcPitch, rowBytes, rows int) int {
	if rowBytes <= 0 || rows <= 0 || dstStride < rowBytes || srcPitch < rowBytes {
		return 0
	}
	for y := 0; y < rows; y++ {
		so := y * srcPitch
		do := y * dstStride
		if so+rowBytes > len(src) || do+rowBytes > len(dst) {
			return y
		}
		copy(dst[do:do+rowBytes], src[so:so+rowBytes])
	}
	return rows
}
