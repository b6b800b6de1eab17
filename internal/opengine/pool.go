package opengine

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Worker pool tuning.
const (
	MinWorkers = 4
	MaxWorkers = 16
	// ThrottledWorkers is how many workers keep claiming work while turbo is off.
	ThrottledWorkers  = 2
	GatePollInterval  = 200 * time.Millisecond
	PausePollInterval = 100 * time.Millisecond
)

// DefaultWorkers returns clamp(2 x NumCPU, MinWorkers, MaxWorkers).
func DefaultWorkers() int {
	return min(max(2*runtime.NumCPU(), MinWorkers), MaxWorkers)
}

// progress holds the counters shared by the workers of one run.
type progress struct {
	processedBytes atomic.Int64
	processedFiles atomic.Int64
	current        atomic.Pointer[string]
}

func (p *progress) setCurrent(path string) {
	p.current.Store(&path)
}

func (p *progress) currentFile() string {
	if cur := p.current.Load(); cur != nil {
		return *cur
	}

	return ""
}

type pool struct {
	workers  int
	total    int
	controls *Controls
	clock    TimeProvider
	priority PriorityFactory
	log      zerolog.Logger
}

// run starts the workers and blocks until all of them have exited. Each
// worker claims indexes from a shared cursor and hands them to unit.
func (p pool) run(unit func(i int)) {
	var (
		cursor atomic.Int64
		wg     sync.WaitGroup
	)

	for rank := range p.workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			p.work(rank, &cursor, unit)
		}()
	}

	wg.Wait()
}

func (p pool) work(rank int, cursor *atomic.Int64, unit func(i int)) {
	runtime.LockOSThread()

	th := newThrottle(p.priority(), p.log.With().Int("worker", rank).Logger())

	defer func() {
		// A thread whose priority could not be restored stays locked and
		// is destroyed when the goroutine exits.
		if th.Release() {
			runtime.UnlockOSThread()
		}
	}()

	total := int64(p.total)

	for {
		if p.controls.Cancelled() {
			return
		}

		turbo := p.controls.Turbo()
		th.Observe(turbo)

		if !turbo && rank >= ThrottledWorkers {
			if cursor.Load() >= total {
				return
			}

			p.clock.Sleep(GatePollInterval)

			continue
		}

		index := cursor.Add(1) - 1
		if index >= total {
			return
		}

		if !waitWhilePaused(p.controls, p.clock) {
			return
		}

		unit(int(index))
	}
}

// waitWhilePaused blocks while paused. It returns false if cancel was raised.
func waitWhilePaused(controls *Controls, clock TimeProvider) bool {
	for controls.Paused() {
		if controls.Cancelled() {
			return false
		}

		clock.Sleep(PausePollInterval)
	}

	return !controls.Cancelled()
}
