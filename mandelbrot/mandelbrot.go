package mandelbrot

import (
	"fmt"
	"time"

	"github.com/BrugadaSyndrome/bslogger"
	"golang.org/x/sync/errgroup"

	"mandelbrot/misc"
)

// renderBand renders a single band. Tests swap it to make a band fail.
var renderBand = Render

// Mandelbrot renders images by splitting them into horizontal bands and rendering every band concurrently.
type Mandelbrot struct {
	logger   bslogger.Logger
	settings Settings
}

func NewMandelbrot(settings Settings) Mandelbrot {
	mandelbrot := Mandelbrot{
		logger: settings.logger("Mandelbrot"),
	}
	misc.CheckError(settings.Verify(), mandelbrot.logger, misc.Fatal)
	mandelbrot.settings = settings
	return mandelbrot
}

func (m *Mandelbrot) Workers() int {
	return m.settings.Workers
}

// Render fills pixels with the region of the plane between upperLeft and lowerRight.
//
// Each band gets its own disjoint slice of pixels so the workers never share memory. Bands are handed
// out once up front with no rebalancing, so bands crossing the boundary of the set take longer than the rest.
// The contents of pixels must not be used when an error is returned.
func (m *Mandelbrot) Render(pixels []byte, bounds Bounds, upperLeft complex128, lowerRight complex128) error {
	if err := bounds.Verify(); err != nil {
		return err
	}
	if len(pixels) != bounds.Len() {
		panic(fmt.Sprintf("mandelbrot: buffer holds %d pixels but bounds %s need %d", len(pixels), bounds, bounds.Len()))
	}

	startTime := time.Now()
	bands := SplitBands(bounds, m.settings.Workers, upperLeft, lowerRight)

	var group errgroup.Group
	for _, band := range bands {
		band := band
		view := band.Pixels(pixels, bounds.Width)
		group.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("rendering band at row %d: %v", band.Top, r)
				}
			}()
			renderBand(view, band.Bounds(bounds.Width), band.UpperLeft, band.LowerRight)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		m.logger.Error(err.Error())
		return err
	}

	m.logger.Debug(fmt.Sprintf("Rendered %s in %d bands in %s", bounds, len(bands), time.Since(startTime)))
	return nil
}
