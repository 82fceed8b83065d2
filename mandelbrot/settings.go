package mandelbrot

import (
	"fmt"
	"os"

	"github.com/BrugadaSyndrome/bslogger"
)

const DefaultWorkers = 8

type Settings struct {
	LogFile *os.File

	// Workers is the number of bands the image is split into, each rendered by its own goroutine
	Workers int
}

func (s *Settings) String() string {
	output := "{Settings "
	output += fmt.Sprintf("Workers: %d}", s.Workers)
	return output
}

func (s *Settings) Verify() error {
	if s.Workers < 1 {
		s.Workers = DefaultWorkers
	}
	return nil
}

func (s *Settings) logger(name string) bslogger.Logger {
	return bslogger.NewLogger(name, bslogger.Normal, s.LogFile)
}
