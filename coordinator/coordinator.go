package coordinator

import (
	"fmt"
	"sync"
	"time"

	"github.com/BrugadaSyndrome/bslogger"
	"github.com/BrugadaSyndrome/multirpc"

	"mandelbrot/mandelbrot"
	"mandelbrot/misc"
	"mandelbrot/task"
)

// Coordinator splits an image into bands, hands the bands out to workers over rpc and assembles
// the bands they return into one pixel buffer.
//
// The logger is only used while holding mutex since concurrent rpc handlers share it.
type Coordinator struct {
	bands             []mandelbrot.Band
	done              chan struct{}
	lastSeen          map[string]time.Time
	logger            bslogger.Logger
	mutex             sync.Mutex
	pixels            []byte
	settings          Settings
	startTime         time.Time
	stop              chan struct{}
	taskIngestedCount int
	tasksHandedOut    map[string]map[uint]task.Task // keep track of all tasks workers have
	tasksTodo         chan task.Task
	tickersWait       sync.WaitGroup

	Server multirpc.TcpServer
}

func NewCoordinator(settings Settings) (*Coordinator, error) {
	if err := settings.Verify(); err != nil {
		return nil, err
	}

	bounds := settings.Bounds()
	bands := mandelbrot.SplitBands(bounds, settings.Bands, settings.upperLeft, settings.lowerRight)
	coordinator := &Coordinator{
		bands:          bands,
		done:           make(chan struct{}),
		lastSeen:       make(map[string]time.Time),
		logger:         bslogger.NewLogger("Coordinator", bslogger.Normal, nil),
		pixels:         make([]byte, bounds.Len()),
		settings:       settings,
		stop:           make(chan struct{}),
		tasksHandedOut: make(map[string]map[uint]task.Task),
		// Every task is either queued, handed out or done so the queue never fills up
		tasksTodo: make(chan task.Task, len(bands)),
	}
	for i, band := range bands {
		coordinator.tasksTodo <- task.NewTask(uint(i), band, bounds.Width)
	}

	coordinator.Server = multirpc.NewTcpServer(coordinator, settings.ServerAddress, "CoordinatorServer")
	return coordinator, nil
}

// Run starts the rpc server workers connect to.
func (c *Coordinator) Run() error {
	c.logger.Info(fmt.Sprintf("Rendering %s in %d bands", c.settings.Bounds(), len(c.bands)))
	if err := c.Server.Run(); err != nil {
		return err
	}
	c.startTime = time.Now()

	c.tickersWait.Add(1)
	go c.tickers()
	return nil
}

func (c *Coordinator) tickers() {
	defer c.tickersWait.Done()
	interval := c.settings.workerTimeout / 2
	if interval <= 0 {
		interval = c.settings.workerTimeout
	}
	rollCall := time.NewTicker(interval)
	defer rollCall.Stop()
	heartBeat := time.NewTicker(30 * time.Second)
	defer heartBeat.Stop()

	for {
		select {
		case now := <-rollCall.C:
			c.dropSilentWorkers(now)
		case <-heartBeat.C:
			c.mutex.Lock()
			c.logger.Info(fmt.Sprintf("Bands [Ingested: %d/%d] | Workers [%d]", c.taskIngestedCount, len(c.bands), len(c.tasksHandedOut)))
			c.mutex.Unlock()
		case <-c.done:
			c.mutex.Lock()
			c.logger.Info(fmt.Sprintf("Done ingesting %d bands in %s", len(c.bands), time.Since(c.startTime)))
			c.mutex.Unlock()
			return
		case <-c.stop:
			return
		}
	}
}

// dropSilentWorkers removes every worker not heard from within the worker timeout and requeues its bands.
func (c *Coordinator) dropSilentWorkers(now time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for workerAddress, seen := range c.lastSeen {
		if now.Sub(seen) <= c.settings.workerTimeout {
			continue
		}
		c.logger.Warning(fmt.Sprintf("Worker %s missed roll call, last seen %s ago", workerAddress, now.Sub(seen)))
		c.deRegisterWorker(workerAddress)
	}
}

// Done is closed once every band has been returned.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until every band has been returned and gives back the finished pixel buffer.
func (c *Coordinator) Wait() []byte {
	<-c.done
	return c.pixels
}

// SaveImage waits for the render to finish and writes it to the configured file.
func (c *Coordinator) SaveImage() error {
	bounds := c.settings.Bounds()
	err := misc.WriteImage(c.settings.File, c.Wait(), bounds.Width, bounds.Height)
	if err != nil {
		return err
	}
	c.mutex.Lock()
	c.logger.Info(fmt.Sprintf("Saved image to %s", c.settings.File))
	c.mutex.Unlock()
	return nil
}

// Stop shuts the rpc server down and waits for it to finish.
func (c *Coordinator) Stop() error {
	close(c.stop)
	c.tickersWait.Wait()
	err := c.Server.Stop()
	c.Server.Wait()
	return err
}

func (c *Coordinator) RegisterWorker(workerAddress string, reply *misc.Nothing) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, ok := c.tasksHandedOut[workerAddress]; ok {
		return fmt.Errorf("worker %s is already registered", workerAddress)
	}
	// Track all tasks this worker checks out
	c.tasksHandedOut[workerAddress] = make(map[uint]task.Task)
	c.lastSeen[workerAddress] = time.Now()

	c.logger.Info(fmt.Sprintf("Worker joined: %s", workerAddress))
	return nil
}

func (c *Coordinator) DeRegisterWorker(workerAddress string, reply *misc.Nothing) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, ok := c.tasksHandedOut[workerAddress]; !ok {
		return fmt.Errorf("worker %s is not registered", workerAddress)
	}
	c.deRegisterWorker(workerAddress)
	return nil
}

// deRegisterWorker must be called with mutex held.
func (c *Coordinator) deRegisterWorker(workerAddress string) {
	tasks := c.tasksHandedOut[workerAddress]

	// Put tasks this worker has not returned yet back into the tasksTodo pool
	for _, v := range tasks {
		v.WorkerAddress = ""
		c.tasksTodo <- v
	}
	if len(tasks) > 0 {
		c.logger.Warning(fmt.Sprintf("Worker %s left with %d bands outstanding, requeued them", workerAddress, len(tasks)))
	}
	delete(c.tasksHandedOut, workerAddress)
	delete(c.lastSeen, workerAddress)

	c.logger.Info(fmt.Sprintf("Worker left: %s", workerAddress))
}

// RollCall keeps a worker registered. present is false when the worker has already been dropped.
func (c *Coordinator) RollCall(workerAddress string, present *bool) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	_, *present = c.tasksHandedOut[workerAddress]
	if *present {
		c.lastSeen[workerAddress] = time.Now()
	}
	return nil
}

// GetTask hands the next band to a worker. It blocks while every remaining band is out with
// other workers and answers task.ErrNoMoreTasks once the whole image is in.
func (c *Coordinator) GetTask(workerAddress string, reply *task.Task) error {
	c.mutex.Lock()
	_, ok := c.tasksHandedOut[workerAddress]
	if ok {
		c.lastSeen[workerAddress] = time.Now()
	}
	c.mutex.Unlock()
	if !ok {
		return fmt.Errorf("worker %s is not registered", workerAddress)
	}

	select {
	case todo := <-c.tasksTodo:
		c.mutex.Lock()
		defer c.mutex.Unlock()
		handedOut, ok := c.tasksHandedOut[workerAddress]
		if !ok {
			// Worker left while waiting
			c.tasksTodo <- todo
			return fmt.Errorf("worker %s is not registered", workerAddress)
		}
		todo.WorkerAddress = workerAddress
		handedOut[todo.ID] = todo
		*reply = todo
		return nil
	case <-c.done:
		c.mutex.Lock()
		c.logger.Debug(fmt.Sprintf("Telling worker %s that all tasks are handed out", workerAddress))
		c.mutex.Unlock()
		return task.ErrNoMoreTasks
	}
}

// ReturnTask copies a rendered band into its rows of the image.
func (c *Coordinator) ReturnTask(done task.Task, reply *misc.Nothing) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	handedOut, ok := c.tasksHandedOut[done.WorkerAddress]
	if !ok {
		return fmt.Errorf("worker %s is not registered", done.WorkerAddress)
	}
	expected, ok := handedOut[done.ID]
	if !ok {
		return fmt.Errorf("task %d was not handed out to worker %s", done.ID, done.WorkerAddress)
	}
	c.lastSeen[done.WorkerAddress] = time.Now()

	// Trust the band that was handed out, not the one that came back
	expected.Pixels = done.Pixels
	if err := expected.Verify(); err != nil {
		return err
	}

	copy(expected.Band.Pixels(c.pixels, expected.Width), expected.Pixels)
	delete(handedOut, done.ID)
	c.taskIngestedCount++
	c.logger.Debug(fmt.Sprintf("Ingested %s from %s [%d/%d]", expected.String(), done.WorkerAddress, c.taskIngestedCount, len(c.bands)))

	if c.taskIngestedCount == len(c.bands) {
		close(c.done)
	}
	return nil
}
