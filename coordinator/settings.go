package coordinator

import (
	"errors"
	"fmt"
	"time"

	"github.com/BrugadaSyndrome/bslogger"

	"mandelbrot/mandelbrot"
	"mandelbrot/misc"
)

const (
	DefaultPort          = "51000"
	DefaultWorkerTimeout = 90 * time.Second
)

type Settings struct {
	bounds        mandelbrot.Bounds
	logger        bslogger.Logger
	lowerRight    complex128
	upperLeft     complex128
	workerTimeout time.Duration

	Bands         int    `yaml:"bands"`
	File          string `yaml:"file"`
	LowerRight    string `yaml:"lower_right"`
	Pixels        string `yaml:"pixels"`
	ServerAddress string `yaml:"server_address"`
	UpperLeft     string `yaml:"upper_left"`
	// WorkerTimeout is how long a worker may stay silent before its bands are handed to someone else
	WorkerTimeout string `yaml:"worker_timeout"`
}

func NewSettings(settingsFile string) (Settings, error) {
	s := Settings{
		logger: bslogger.NewLogger("CoordinatorSettings", bslogger.Normal, nil),
	}
	if err := misc.LoadSettingsFile(settingsFile, &s); err != nil {
		return s, err
	}
	if err := s.Verify(); err != nil {
		return s, err
	}
	s.logger.Debug(s.String())
	return s, nil
}

func (s *Settings) String() string {
	output := "\nCoordinator settings\n"
	output += fmt.Sprintf("Bands: %d\n", s.Bands)
	output += fmt.Sprintf("File: %s\n", s.File)
	output += fmt.Sprintf("Pixels: %s\n", s.Pixels)
	output += fmt.Sprintf("Upper Left: %s\n", s.UpperLeft)
	output += fmt.Sprintf("Lower Right: %s\n", s.LowerRight)
	output += fmt.Sprintf("Server Address: %s\n", s.ServerAddress)
	output += fmt.Sprintf("Worker Timeout: %s", s.WorkerTimeout)
	return output
}

// Verify fills in defaults and parses the image size and plane corners.
func (s *Settings) Verify() error {
	if s.Bands < 1 {
		s.Bands = mandelbrot.DefaultWorkers
	}
	if s.File == "" {
		s.File = "mandel.png"
	}
	if s.ServerAddress == "" {
		s.ServerAddress = misc.DefaultAddress(DefaultPort)
	}
	if s.WorkerTimeout == "" {
		s.WorkerTimeout = DefaultWorkerTimeout.String()
	}

	width, height, err := misc.ParseBounds(s.Pixels)
	if err != nil {
		return fmt.Errorf("error parsing Pixels: %w", err)
	}
	s.bounds = mandelbrot.Bounds{Width: width, Height: height}
	if err = s.bounds.Verify(); err != nil {
		return err
	}
	if s.upperLeft, err = misc.ParseComplex(s.UpperLeft); err != nil {
		return fmt.Errorf("error parsing UpperLeft: %w", err)
	}
	if s.lowerRight, err = misc.ParseComplex(s.LowerRight); err != nil {
		return fmt.Errorf("error parsing LowerRight: %w", err)
	}
	if s.workerTimeout, err = time.ParseDuration(s.WorkerTimeout); err != nil {
		return fmt.Errorf("error parsing WorkerTimeout: %w", err)
	}
	if s.workerTimeout <= 0 {
		return errors.New("WorkerTimeout must be positive")
	}
	return nil
}

func (s *Settings) Bounds() mandelbrot.Bounds {
	return s.bounds
}
