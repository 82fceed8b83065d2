package mandelbrot

import "fmt"

// Band is a run of whole rows of an image along with the corners of the plane it covers.
type Band struct {
	Top        int
	Height     int
	UpperLeft  complex128
	LowerRight complex128
}

func (b *Band) String() string {
	output := "{Band "
	output += fmt.Sprintf("Top: %d ", b.Top)
	output += fmt.Sprintf("Height: %d ", b.Height)
	output += fmt.Sprintf("UpperLeft: %v ", b.UpperLeft)
	output += fmt.Sprintf("LowerRight: %v}", b.LowerRight)
	return output
}

// Bounds of the band when it is rendered on its own.
func (b *Band) Bounds(width int) Bounds {
	return Bounds{Width: width, Height: b.Height}
}

// Pixels returns the part of the image buffer owned by this band. The capacity is clipped so an
// append can never spill into the next band.
func (b *Band) Pixels(buffer []byte, width int) []byte {
	start := b.Top * width
	end := (b.Top + b.Height) * width
	return buffer[start:end:end]
}

// SplitBands partitions the rows of an image into at most count bands of equal height. When the
// height does not divide evenly the last band is shorter.
func SplitBands(bounds Bounds, count int, upperLeft complex128, lowerRight complex128) []Band {
	if count < 1 {
		count = 1
	}
	rowsPerBand := (bounds.Height + count - 1) / count

	bands := make([]Band, 0, count)
	for top := 0; top < bounds.Height; top += rowsPerBand {
		height := rowsPerBand
		if top+height > bounds.Height {
			height = bounds.Height - top
		}
		bands = append(bands, Band{
			Top:        top,
			Height:     height,
			UpperLeft:  PixelToPoint(bounds, 0, top, upperLeft, lowerRight),
			LowerRight: PixelToPoint(bounds, bounds.Width, top+height, upperLeft, lowerRight),
		})
	}
	return bands
}
