package tensor

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch reports a model output that does not match (1, 5, N).
var ErrShapeMismatch = errors.New("tensor: output shape mismatch")

// ValidateShape checks a declared output shape against (1, 5, slots). Dynamic
// dimensions (<= 0) are accepted. slots <= 0 accepts any N.
func ValidateShape(shape []int64, slots int) error {
	if len(shape) != 3 {
		return fmt.Errorf("%w: got %v, want [1 5 N]", ErrShapeMismatch, shape)
	}
	want := []int64{1, OutputRows, int64(slots)}
	for i, d := range shape {
		if d <= 0 || want[i] <= 0 {
			continue
		}
		if d != want[i] {
			return fmt.Errorf("%w: got %v, want [1 5 %d]", ErrShapeMismatch, shape, slots)
		}
	}
	return nil
}

// ValidateInputShape checks a declared input shape against the layout's expected
// (1, 3, S, S) or (1, S, S, 3).
func ValidateInputShape(shape []int64, size int, layout Layout) error {
	want := []int64{1, 3, int64(size), int64(size)}
	if layout == NHWC {
		want = []int64{1, int64(size), int64(size), 3}
	}
	if len(shape) != len(want) {
		return fmt.Errorf("%w: input %v, want %v", ErrShapeMismatch, shape, want)
	}
	for i, d := range shape {
		if d > 0 && d != want[i] {
			return fmt.Errorf("%w: input %v, want %v", ErrShapeMismatch, shape, want)
		}
	}
	return nil
}
