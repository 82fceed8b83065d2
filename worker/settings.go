package worker

import (
	"errors"
	"fmt"
	"time"

	"github.com/BrugadaSyndrome/bslogger"

	"mandelbrot/misc"
)

const (
	DefaultCoordinatorPort  = "51000"
	DefaultRollCallInterval = 30 * time.Second
)

type Settings struct {
	logger           bslogger.Logger
	rollCallInterval time.Duration

	CoordinatorAddress string `yaml:"coordinator_address"`
	// Count is how many workers this process runs
	Count int `yaml:"count"`
	// RollCallInterval is how often a worker tells the coordinator it is still alive
	RollCallInterval string `yaml:"roll_call_interval"`
}

func NewSettings(settingsFile string) (Settings, error) {
	s := Settings{
		logger: bslogger.NewLogger("WorkerSettings", bslogger.Normal, nil),
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
	output := "\nWorker settings\n"
	output += fmt.Sprintf("Coordinator Address: %s\n", s.CoordinatorAddress)
	output += fmt.Sprintf("Count: %d\n", s.Count)
	output += fmt.Sprintf("Roll Call Interval: %s", s.RollCallInterval)
	return output
}

func (s *Settings) Verify() error {
	if s.CoordinatorAddress == "" {
		s.CoordinatorAddress = misc.DefaultAddress(DefaultCoordinatorPort)
	}
	if s.Count < 1 {
		s.Count = 1
	}
	if s.RollCallInterval == "" {
		s.RollCallInterval = DefaultRollCallInterval.String()
	}

	var err error
	if s.rollCallInterval, err = time.ParseDuration(s.RollCallInterval); err != nil {
		return fmt.Errorf("error parsing RollCallInterval: %w", err)
	}
	if s.rollCallInterval <= 0 {
		return errors.New("RollCallInterval must be positive")
	}
	return nil
}
