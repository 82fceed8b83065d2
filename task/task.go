package task

import (
	"errors"
	"fmt"

	"mandelbrot/mandelbrot"
)

// ErrNoMoreTasks tells a worker every band of the image has been rendered.
var ErrNoMoreTasks = errors.New("all tasks handed out")

// Task is one band of an image travelling between the coordinator and a worker.
type Task struct {
	Band          mandelbrot.Band
	ID            uint
	Pixels        []byte
	Width         int
	WorkerAddress string
}

func NewTask(id uint, band mandelbrot.Band, width int) Task {
	return Task{
		Band:  band,
		ID:    id,
		Width: width,
	}
}

func (t *Task) String() string {
	output := "{Task "
	output += fmt.Sprintf("ID: %d ", t.ID)
	output += fmt.Sprintf("Top: %d ", t.Band.Top)
	output += fmt.Sprintf("Rows: %d ", t.Band.Height)
	output += fmt.Sprintf("Pixels: %d}", len(t.Pixels))
	return output
}

func (t *Task) Bounds() mandelbrot.Bounds {
	return t.Band.Bounds(t.Width)
}

// Render fills the task's pixels with its band.
func (t *Task) Render() {
	t.Pixels = make([]byte, t.Bounds().Len())
	mandelbrot.Render(t.Pixels, t.Bounds(), t.Band.UpperLeft, t.Band.LowerRight)
}

// Verify checks a returned task carries exactly one band's worth of pixels.
func (t *Task) Verify() error {
	if want := t.Bounds().Len(); len(t.Pixels) != want {
		return fmt.Errorf("task %d returned %d pixels, expected %d", t.ID, len(t.Pixels), want)
	}
	return nil
}
