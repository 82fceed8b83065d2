package main

import (
	"os"

	"github.com/BrugadaSyndrome/bslogger"
	"github.com/spf13/cobra"

	"mandelbrot/coordinator"
	"mandelbrot/misc"
	"mandelbrot/worker"
)

func newCoordinatorCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "coordinator SETTINGS",
		Short: "Hand out bands of an image to workers and save the assembled image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLogger(opts, "Coordinator", func(logger bslogger.Logger, _ *os.File) error {
				settings, err := coordinator.NewSettings(args[0])
				misc.CheckError(err, logger, misc.Fatal)
				c, err := coordinator.NewCoordinator(settings)
				misc.CheckError(err, logger, misc.Fatal)
				misc.CheckError(c.Run(), logger, misc.Fatal)

				misc.CheckError(c.SaveImage(), logger, misc.Fatal)
				logger.Info("Waiting for workers to disconnect")
				misc.CheckError(c.Stop(), logger, misc.Warning)
				return nil
			})
		},
	}
}

func newWorkerCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "worker SETTINGS",
		Short: "Render bands handed out by a coordinator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLogger(opts, "Worker", func(logger bslogger.Logger, _ *os.File) error {
				settings, err := worker.NewSettings(args[0])
				misc.CheckError(err, logger, misc.Fatal)
				misc.CheckError(worker.RunWorkers(settings), logger, misc.Fatal)
				return nil
			})
		},
	}
}
