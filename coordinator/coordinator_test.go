package coordinator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BrugadaSyndrome/bslogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mandelbrot/mandelbrot"
	"mandelbrot/misc"
	"mandelbrot/task"
	"mandelbrot/worker"
)

func testSettings(t *testing.T) Settings {
	port, err := misc.GetFreePort()
	require.NoError(t, err)
	return Settings{
		Bands:         5,
		File:          filepath.Join(t.TempDir(), "mandel.png"),
		LowerRight:    "-1,0.20",
		Pixels:        "60x43",
		ServerAddress: fmt.Sprintf("127.0.0.1:%d", port),
		UpperLeft:     "-1.20,0.35",
	}
}

func localRender(t *testing.T, bands int) []byte {
	bounds := mandelbrot.Bounds{Width: 60, Height: 43}
	local := mandelbrot.NewMandelbrot(mandelbrot.Settings{Workers: bands})
	want := make([]byte, bounds.Len())
	require.NoError(t, local.Render(want, bounds, complex(-1.20, 0.35), complex(-1, 0.20)))
	return want
}

func waitDone(t *testing.T, coordinator *Coordinator) {
	t.Helper()
	select {
	case <-coordinator.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("render did not finish")
	}
}

func TestDistributedRenderMatchesLocalRender(t *testing.T) {
	settings := testSettings(t)
	coordinator, err := NewCoordinator(settings)
	require.NoError(t, err)
	require.NoError(t, coordinator.Run())

	require.NoError(t, worker.RunWorkers(worker.Settings{
		CoordinatorAddress: settings.ServerAddress,
		Count:              3,
	}))

	pixels := coordinator.Wait()
	require.NoError(t, coordinator.SaveImage())
	require.NoError(t, coordinator.Stop())

	assert.Equal(t, localRender(t, 5), pixels)
	_, err = os.Stat(settings.File)
	assert.NoError(t, err)
}

func TestConcurrentHandlersKeepLogLevels(t *testing.T) {
	settings := testSettings(t)
	settings.Bands = 12
	coordinator, err := NewCoordinator(settings)
	require.NoError(t, err)
	logName := filepath.Join(t.TempDir(), "coordinator.log")
	logFile, err := os.Create(logName)
	require.NoError(t, err)
	defer logFile.Close()
	coordinator.logger = bslogger.NewLogger("Coordinator", bslogger.All, logFile)
	require.NoError(t, coordinator.Run())

	require.NoError(t, worker.RunWorkers(worker.Settings{
		CoordinatorAddress: settings.ServerAddress,
		Count:              6,
	}))
	coordinator.Wait()
	require.NoError(t, coordinator.Stop())

	contents, err := os.ReadFile(logName)
	require.NoError(t, err)
	levels := map[string]string{
		"Ingested ":       "DEBUG: ",
		"Telling worker ": "DEBUG: ",
		"Worker joined: ": "INFO: ",
		"Worker left: ":   "INFO: ",
	}
	ingested := 0
	for _, line := range strings.Split(strings.TrimSpace(string(contents)), "\n") {
		for message, level := range levels {
			if strings.Contains(line, message) {
				assert.Contains(t, line, "[Coordinator] "+level+message)
			}
		}
		if strings.Contains(line, "Ingested ") {
			ingested++
		}
	}
	assert.Equal(t, 12, ingested)
}

func TestSilentWorkerBandsGoToLiveWorker(t *testing.T) {
	settings := testSettings(t)
	settings.Bands = 1
	settings.WorkerTimeout = "200ms"
	coordinator, err := NewCoordinator(settings)
	require.NoError(t, err)
	require.NoError(t, coordinator.Run())

	// ghost takes the only band and is never heard from again
	var nothing misc.Nothing
	var stolen task.Task
	require.NoError(t, coordinator.RegisterWorker("ghost", &nothing))
	require.NoError(t, coordinator.GetTask("ghost", &stolen))

	require.NoError(t, worker.RunWorkers(worker.Settings{
		CoordinatorAddress: settings.ServerAddress,
		RollCallInterval:   "20ms",
	}))
	waitDone(t, coordinator)
	require.NoError(t, coordinator.Stop())

	assert.Equal(t, localRender(t, 1), coordinator.Wait())
	stolen.Render()
	assert.Error(t, coordinator.ReturnTask(stolen, &nothing))
}

func TestDropSilentWorkers(t *testing.T) {
	settings := testSettings(t)
	settings.Bands = 2
	settings.Pixels = "4x4"
	settings.WorkerTimeout = "1m"
	coordinator, err := NewCoordinator(settings)
	require.NoError(t, err)

	var nothing misc.Nothing
	var todo task.Task
	require.NoError(t, coordinator.RegisterWorker("quiet", &nothing))
	require.NoError(t, coordinator.RegisterWorker("chatty", &nothing))
	require.NoError(t, coordinator.GetTask("quiet", &todo))

	later := time.Now().Add(2 * time.Minute)
	coordinator.mutex.Lock()
	coordinator.lastSeen["chatty"] = later
	coordinator.mutex.Unlock()

	coordinator.dropSilentWorkers(later)

	var present bool
	require.NoError(t, coordinator.RollCall("quiet", &present))
	assert.False(t, present)
	require.NoError(t, coordinator.RollCall("chatty", &present))
	assert.True(t, present)
	assert.Len(t, coordinator.tasksTodo, 2)
}

func TestRequeueWakesBlockedGetTask(t *testing.T) {
	settings := testSettings(t)
	settings.Bands = 1
	settings.Pixels = "4x4"
	coordinator, err := NewCoordinator(settings)
	require.NoError(t, err)

	var nothing misc.Nothing
	var first task.Task
	require.NoError(t, coordinator.RegisterWorker("a", &nothing))
	require.NoError(t, coordinator.RegisterWorker("b", &nothing))
	require.NoError(t, coordinator.GetTask("a", &first))

	got := make(chan task.Task)
	go func() {
		var waiting task.Task
		if err := coordinator.GetTask("b", &waiting); err == nil {
			got <- waiting
		}
		close(got)
	}()

	select {
	case <-got:
		t.Fatal("GetTask should block while the only band is out")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, coordinator.DeRegisterWorker("a", &nothing))

	select {
	case requeued, ok := <-got:
		require.True(t, ok, "GetTask failed")
		assert.Equal(t, first.ID, requeued.ID)
		assert.Equal(t, "b", requeued.WorkerAddress)
	case <-time.After(5 * time.Second):
		t.Fatal("GetTask was not woken by the requeued band")
	}
}

func TestTaskBookkeeping(t *testing.T) {
	settings := testSettings(t)
	settings.Bands = 2
	settings.Pixels = "4x4"
	coordinator, err := NewCoordinator(settings)
	require.NoError(t, err)

	var nothing misc.Nothing
	var todo task.Task
	assert.Error(t, coordinator.GetTask("stranger", &todo))

	require.NoError(t, coordinator.RegisterWorker("a", &nothing))
	assert.Error(t, coordinator.RegisterWorker("a", &nothing))
	require.NoError(t, coordinator.RegisterWorker("b", &nothing))

	// a leaves without returning its band, which goes back in the queue
	require.NoError(t, coordinator.GetTask("a", &todo))
	assert.Equal(t, "a", todo.WorkerAddress)
	require.NoError(t, coordinator.DeRegisterWorker("a", &nothing))
	assert.Error(t, coordinator.DeRegisterWorker("a", &nothing))
	todo.Render()
	assert.Error(t, coordinator.ReturnTask(todo, &nothing))

	for i := 0; i < 2; i++ {
		var next task.Task
		require.NoError(t, coordinator.GetTask("b", &next))

		short := next
		short.Pixels = make([]byte, 3)
		assert.Error(t, coordinator.ReturnTask(short, &nothing))

		next.Render()
		require.NoError(t, coordinator.ReturnTask(next, &nothing))
		assert.Error(t, coordinator.ReturnTask(next, &nothing), "band %d returned twice", next.ID)
	}

	select {
	case <-coordinator.Done():
	default:
		t.Fatal("render should be done once every band is returned")
	}
	var late task.Task
	assert.ErrorIs(t, coordinator.GetTask("b", &late), task.ErrNoMoreTasks)
}

func TestNewCoordinatorRejectsBadSettings(t *testing.T) {
	for name, change := range map[string]func(*Settings){
		"pixels":         func(s *Settings) { s.Pixels = "60-43" },
		"zero width":     func(s *Settings) { s.Pixels = "0x43" },
		"upper left":     func(s *Settings) { s.UpperLeft = "-1.20" },
		"lower right":    func(s *Settings) { s.LowerRight = "a,b" },
		"worker timeout": func(s *Settings) { s.WorkerTimeout = "-5s" },
	} {
		t.Run(name, func(t *testing.T) {
			settings := testSettings(t)
			change(&settings)
			_, err := NewCoordinator(settings)
			assert.Error(t, err)
		})
	}
}

func TestNewSettings(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "coordinator.yaml")
	contents := "pixels: 100x50\nupper_left: -2,1\nlower_right: 1,-1\nserver_address: 127.0.0.1:0\nworker_timeout: 45s\n"
	require.NoError(t, os.WriteFile(fileName, []byte(contents), 0o644))

	settings, err := NewSettings(fileName)
	require.NoError(t, err)
	assert.Equal(t, mandelbrot.Bounds{Width: 100, Height: 50}, settings.Bounds())
	assert.Equal(t, mandelbrot.DefaultWorkers, settings.Bands)
	assert.Equal(t, "mandel.png", settings.File)
	assert.Equal(t, complex(-2, 1), settings.upperLeft)
	assert.Equal(t, complex(1, -1), settings.lowerRight)
	assert.Equal(t, 45*time.Second, settings.workerTimeout)
}
