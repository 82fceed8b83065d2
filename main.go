package main

import (
	"fmt"
	"os"

	"github.com/BrugadaSyndrome/bslogger"
	"github.com/spf13/cobra"

	"mandelbrot/mandelbrot"
	"mandelbrot/misc"
)

type options struct {
	logFile string
	workers int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:     "mandelbrot FILE PIXELS UPPERLEFT LOWERRIGHT",
		Short:   "Render the Mandelbrot set to a grayscale image",
		Example: "  mandelbrot mandel.png 1000x750 -1.20,0.35 -1,0.20",
		Args:    cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args)
		},
	}
	rootCmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "also write log messages to this file")
	rootCmd.Flags().IntVarP(&opts.workers, "workers", "w", mandelbrot.DefaultWorkers, "number of bands rendered in parallel")
	// Corners such as -1.20,0.35 look like flags, so flags have to come before FILE
	rootCmd.Flags().SetInterspersed(false)

	rootCmd.AddCommand(newCoordinatorCmd(opts), newWorkerCmd(opts))
	return rootCmd
}

// openLogFile returns nil when no log file was asked for.
func openLogFile(fileName string) (*os.File, error) {
	if fileName == "" {
		return nil, nil
	}
	return os.OpenFile(fileName, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

// withLogger opens the --log-file, if any, for the duration of run and closes it afterwards.
func withLogger(opts *options, name string, run func(logger bslogger.Logger, logFile *os.File) error) error {
	logFile, err := openLogFile(opts.logFile)
	if err != nil {
		return err
	}
	if logFile != nil {
		defer logFile.Close()
	}
	return run(bslogger.NewLogger(name, bslogger.Normal, logFile), logFile)
}

func runRender(opts *options, args []string) error {
	return withLogger(opts, "Render", func(logger bslogger.Logger, logFile *os.File) error {
		return render(logger, logFile, opts.workers, args)
	})
}

func render(logger bslogger.Logger, logFile *os.File, workers int, args []string) error {
	width, height, err := misc.ParseBounds(args[1])
	misc.CheckError(wrap("PIXELS", err), logger, misc.Fatal)
	upperLeft, err := misc.ParseComplex(args[2])
	misc.CheckError(wrap("UPPERLEFT", err), logger, misc.Fatal)
	lowerRight, err := misc.ParseComplex(args[3])
	misc.CheckError(wrap("LOWERRIGHT", err), logger, misc.Fatal)

	bounds := mandelbrot.Bounds{Width: width, Height: height}
	misc.CheckError(bounds.Verify(), logger, misc.Fatal)

	m := mandelbrot.NewMandelbrot(mandelbrot.Settings{LogFile: logFile, Workers: workers})
	logger.Info(fmt.Sprintf("Rendering %s from %v to %v with %d workers", bounds, upperLeft, lowerRight, m.Workers()))

	pixels := make([]byte, bounds.Len())
	misc.CheckError(m.Render(pixels, bounds, upperLeft, lowerRight), logger, misc.Fatal)
	misc.CheckError(misc.WriteImage(args[0], pixels, width, height), logger, misc.Fatal)

	logger.Info(fmt.Sprintf("Saved image to %s", args[0]))
	return nil
}

func wrap(argument string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("error parsing %s: %w", argument, err)
}
