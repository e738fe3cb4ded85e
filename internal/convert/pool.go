package convert

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Tally counts terminal outcomes.
type Tally struct {
	Saved      int `json:"saved"`
	LoadFailed int `json:"load_failed"`
	SaveFailed int `json:"save_failed"`
	Canceled   int `json:"canceled"`
}

func (t *Tally) add(o Outcome, n int) {
	switch o {
	case Saved:
		t.Saved += n
	case LoadFailed:
		t.LoadFailed += n
	case SaveFailed:
		t.SaveFailed += n
	case Canceled:
		t.Canceled += n
	}
}

// Total returns the number of files accounted for.
func (t Tally) Total() int {
	return t.Saved + t.LoadFailed + t.SaveFailed + t.Canceled
}

// Pool admits tasks through a counting semaphore so at most Workers tasks
// are outstanding at any time.
type Pool struct {
	workers int
	sem     *semaphore.Weighted
}

// NewPool returns a pool with the given capacity; values below one are
// treated as one.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers, sem: semaphore.NewWeighted(int64(workers))}
}

// Workers returns the pool capacity.
func (p *Pool) Workers() int { return p.workers }

// Run dispatches work for every file and waits for all admitted tasks.
// Admission blocks while the pool is full. Once ctx is done no further files
// are admitted and the rest are counted as Canceled; admitted tasks still run
// to completion.
func (p *Pool) Run(ctx context.Context, files []InputFile, work func(InputFile) Outcome, observer Observer) Tally {
	if observer == nil {
		observer = NopObserver{}
	}
	var (
		mu    sync.Mutex
		tally Tally
		wg    sync.WaitGroup
	)
	for i, file := range files {
		if ctx.Err() != nil || p.sem.Acquire(ctx, 1) != nil {
			mu.Lock()
			tally.add(Canceled, len(files)-i)
			mu.Unlock()
			break
		}
		observer.OnAdmit(file)
		wg.Go(func() {
			defer p.sem.Release(1)
			outcome := work(file)
			mu.Lock()
			tally.add(outcome, 1)
			mu.Unlock()
			observer.OnFinish(file, outcome)
		})
	}
	wg.Wait()
	return tally
}
