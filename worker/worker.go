package worker

import (
	"fmt"
	"sync"
	"time"

	"github.com/BrugadaSyndrome/bslogger"
	"github.com/BrugadaSyndrome/multirpc"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"mandelbrot/misc"
	"mandelbrot/task"
)

// Worker renders bands handed out by a coordinator until there are none left.
type Worker struct {
	id               string
	logger           bslogger.Logger
	rollCallInterval time.Duration
	tasksCompleted   int

	Client multirpc.TcpClient
	// RollCallClient has its own connection so roll calls are not queued behind a blocked GetTask
	RollCallClient multirpc.TcpClient
}

func NewWorker(settings Settings) (*Worker, error) {
	if err := settings.Verify(); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	return &Worker{
		id:               id,
		logger:           bslogger.NewLogger(fmt.Sprintf("Worker %s", id), bslogger.Normal, nil),
		rollCallInterval: settings.rollCallInterval,
		Client:           multirpc.NewTcpClient(settings.CoordinatorAddress, fmt.Sprintf("Worker %s client", id)),
		RollCallClient:   multirpc.NewTcpClient(settings.CoordinatorAddress, fmt.Sprintf("Worker %s roll call", id)),
	}, nil
}

func (w *Worker) ID() string {
	return w.id
}

func (w *Worker) TasksCompleted() int {
	return w.tasksCompleted
}

// Run registers with the coordinator, processes tasks until they run out and then leaves.
func (w *Worker) Run() error {
	if err := w.Client.Connect(); err != nil {
		return err
	}

	var nothing misc.Nothing
	if err := w.Client.Call("Coordinator.RegisterWorker", w.id, &nothing); err != nil {
		misc.CheckError(w.Client.Disconnect(), w.logger, misc.Warning)
		return err
	}

	stop := make(chan struct{})
	var tickersWait sync.WaitGroup
	if err := w.RollCallClient.Connect(); err != nil {
		w.logger.Warning(fmt.Sprintf("No roll call connection, the coordinator may drop this worker: %s", err))
	} else {
		tickersWait.Add(1)
		go func() {
			defer tickersWait.Done()
			w.tickers(stop)
		}()
	}

	processErr := w.processTasks()

	close(stop)
	tickersWait.Wait()

	w.logger.Info("Shutting down")
	misc.CheckError(w.Client.Call("Coordinator.DeRegisterWorker", w.id, &nothing), w.logger, misc.Warning)
	misc.CheckError(w.Client.Disconnect(), w.logger, misc.Warning)
	return processErr
}

// tickers answers the coordinator's roll call until stop is closed. It only uses RollCallClient and its own
// logger so it never shares state with processTasks.
func (w *Worker) tickers(stop <-chan struct{}) {
	logger := bslogger.NewLogger(fmt.Sprintf("Worker %s roll call", w.id), bslogger.Normal, nil)
	rollCall := time.NewTicker(w.rollCallInterval)
	defer rollCall.Stop()
	defer func() {
		misc.CheckError(w.RollCallClient.Disconnect(), logger, misc.Warning)
	}()

	for {
		select {
		case <-rollCall.C:
			var present bool
			err := w.RollCallClient.Call("Coordinator.RollCall", w.id, &present)
			if err != nil {
				logger.Warning(fmt.Sprintf("Coordinator missed roll call: %s", err))
				continue
			}
			if !present {
				logger.Warning("Coordinator no longer knows this worker")
			}
		case <-stop:
			return
		}
	}
}

func (w *Worker) processTasks() error {
	w.logger.Info("Processing tasks")

	var nothing misc.Nothing
	startTime := time.Now()

	for {
		var taskTodo task.Task
		err := w.Client.Call("Coordinator.GetTask", w.id, &taskTodo)
		if err != nil {
			// This is an expected error. No more work to do
			if err.Error() == task.ErrNoMoreTasks.Error() {
				break
			}
			return fmt.Errorf("unable to get a task: %w", err)
		}

		taskTodo.Render()

		err = w.Client.Call("Coordinator.ReturnTask", taskTodo, &nothing)
		if err != nil {
			return fmt.Errorf("unable to return task %d: %w", taskTodo.ID, err)
		}
		w.tasksCompleted++
	}

	w.logger.Info("Done processing tasks")
	w.logger.Debug(fmt.Sprintf("Processed %d tasks in %s", w.tasksCompleted, time.Since(startTime)))
	return nil
}

// RunWorkers runs settings.Count workers side by side and waits for all of them.
func RunWorkers(settings Settings) error {
	if err := settings.Verify(); err != nil {
		return err
	}

	var group errgroup.Group
	for i := 0; i < settings.Count; i++ {
		worker, err := NewWorker(settings)
		if err != nil {
			return err
		}
		group.Go(worker.Run)
	}
	return group.Wait()
}
