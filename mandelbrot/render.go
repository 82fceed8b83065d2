package mandelbrot

import "fmt"

// Intensity maps an escape result to a grayscale value. Bounded points are black and
// the faster a point escapes the brighter it is.
func Intensity(e Escape) uint8 {
	count, ok := e.Count()
	if !ok {
		return 0
	}
	return uint8(Limit - count)
}

// Render fills pixels, a row major buffer with the given bounds, one pixel at a time.
// A buffer whose length does not match the bounds is a programming error and panics.
func Render(pixels []byte, bounds Bounds, upperLeft complex128, lowerRight complex128) {
	if len(pixels) != bounds.Len() {
		panic(fmt.Sprintf("mandelbrot: buffer holds %d pixels but bounds %s need %d", len(pixels), bounds, bounds.Len()))
	}

	for row := 0; row < bounds.Height; row++ {
		for column := 0; column < bounds.Width; column++ {
			point := PixelToPoint(bounds, column, row, upperLeft, lowerRight)
			pixels[row*bounds.Width+column] = Intensity(EscapeTime(point, Limit))
		}
	}
}
