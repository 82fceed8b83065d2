package mandelbrot

import (
	"errors"
	"fmt"
)

var ErrInvalidBounds = errors.New("bounds must be at least 1x1 pixels")

// Bounds is the width and height of a pixel buffer.
type Bounds struct {
	Width  int
	Height int
}

func (b Bounds) String() string {
	return fmt.Sprintf("%dx%d", b.Width, b.Height)
}

// Len is the number of pixels a buffer with these bounds holds.
func (b Bounds) Len() int {
	return b.Width * b.Height
}

func (b Bounds) Verify() error {
	if b.Width < 1 || b.Height < 1 {
		return fmt.Errorf("%w: got %s", ErrInvalidBounds, b)
	}
	return nil
}

// PixelToPoint converts the (column, row) pixel of an image with the given bounds to its point on the complex plane.
//
//   - upperLeft and lowerRight are the corners of the region of the plane the image covers
//   - Rows grow downwards while the imaginary axis grows upwards, so row 0 is upperLeft's imaginary part
//   - Column == bounds.Width and row == bounds.Height land exactly on lowerRight, which is how band corners are found
func PixelToPoint(bounds Bounds, column int, row int, upperLeft complex128, lowerRight complex128) complex128 {
	width := real(lowerRight) - real(upperLeft)
	height := imag(upperLeft) - imag(lowerRight)
	return complex(
		real(upperLeft)+float64(column)*width/float64(bounds.Width),
		imag(upperLeft)-float64(row)*height/float64(bounds.Height),
	)
}
