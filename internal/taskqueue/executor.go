package taskqueue

import (
	"math/rand"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultStealAttempts = 8

	// backoffFloor/backoffCeil bound the exponential backoff a worker
	// sleeps between failed steal rounds while other workers still hold
	// outstanding tasks.
	backoffFloor = 10 * time.Microsecond
	backoffCeil  = time.Millisecond
)

// Executor runs W worker goroutines, each owning a Deque, over a
// statically partitioned task set. Workers pop their own local half
// first, then their own shared half, then attempt to steal from the
// shared half of a uniformly random victim, retrying up to
// StealAttempts times before yielding.
type Executor struct {
	workers []*Deque
	handle  func(worker int, t Task)

	// StealAttempts bounds how many random victims a worker tries
	// before conceding defeat for one round. Defaults to 8 if left
	// zero.
	StealAttempts int

	outstanding int64
	cancelled   int32
}

// NewExecutor creates an Executor with w workers and the given task
// handler, invoked once per claimed Task with the index of the
// worker that claimed it (for per-worker stats/scratch lookup).
func NewExecutor(w int, handle func(worker int, t Task)) *Executor {
	ws := make([]*Deque, w)
	for i := range ws {
		ws[i] = &Deque{}
	}
	return &Executor{workers: ws, handle: handle, StealAttempts: defaultStealAttempts}
}

// NumWorkers returns the worker count this Executor was built with.
func (e *Executor) NumWorkers() int { return len(e.workers) }

// SetSpillThreshold equips every worker's deque with a Spiller at the
// given resident-task threshold: backpressure on the shared halves,
// bounding resident memory when the candidate pair set far exceeds
// what the workers can drain promptly. n <= 0 leaves spilling off.
func (e *Executor) SetSpillThreshold(n int) {
	if n <= 0 {
		return
	}
	for _, d := range e.workers {
		d.SetSpiller(&Spiller{Threshold: n})
	}
}

// Assign hands a task to worker i's shared half -- the round-robin or
// block partition the caller computes lands here, not in local, since
// it is externally produced work rather than something the worker
// generated for its own continuation.
func (e *Executor) Assign(worker int, t Task) {
	atomic.AddInt64(&e.outstanding, 1)
	e.workers[worker].PushShared(t)
}

// Cancel cooperatively stops all workers: a global flag flipped here
// causes every worker to finish any task already claimed, drain its own
// local half, and stop stealing.
func (e *Executor) Cancel() {
	atomic.StoreInt32(&e.cancelled, 1)
}

// Run starts all workers and blocks until every assigned task has
// been claimed and completed, or Cancel is called.
//
// Termination detection is a single atomic outstanding-task counter,
// incremented on Assign and decremented after each task completes.
// Tasks are statically partitioned up front and never spawn children,
// so empty queues plus outstanding == 0 means all work is done.
func (e *Executor) Run() {
	var wg sync.WaitGroup
	for i := range e.workers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			e.runWorker(id)
		}(i)
	}
	wg.Wait()
}

func (e *Executor) runWorker(id int) {
	rng := rand.New(rand.NewSource(int64(id) + 1))
	own := e.workers[id]
	backoff := backoffFloor
	for {
		if atomic.LoadInt32(&e.cancelled) != 0 {
			return
		}
		t, ok := own.PopLocal()
		if !ok {
			t, ok = own.StealShared()
		}
		if !ok {
			t, ok = e.steal(id, rng)
		}
		if !ok {
			if atomic.LoadInt64(&e.outstanding) == 0 {
				return
			}
			// Someone still holds a claimed task that may spawn no
			// further work for us; back off briefly before the next
			// steal round rather than spinning.
			time.Sleep(backoff)
			if backoff < backoffCeil {
				backoff *= 2
			}
			continue
		}
		backoff = backoffFloor
		e.handle(id, t)
		atomic.AddInt64(&e.outstanding, -1)
	}
}

// steal attempts StealAttempts random victims' shared halves before
// giving up for this round: a victim is chosen uniformly at random
// from every other worker.
func (e *Executor) steal(self int, rng *rand.Rand) (Task, bool) {
	n := len(e.workers)
	if n < 2 {
		return Task{}, false
	}
	attempts := e.StealAttempts
	if attempts <= 0 {
		attempts = defaultStealAttempts
	}
	for attempt := 0; attempt < attempts; attempt++ {
		victim := rng.Intn(n - 1)
		if victim >= self {
			victim++
		}
		if t, ok := e.workers[victim].StealShared(); ok {
			return t, true
		}
	}
	return Task{}, false
}
