// Package taskqueue implements the distributed work-stealing task
// executor: per-worker split deques, a random-victim steal loop, a
// counter-mode fallback, a cluster-wide active-message server, and
// snappy-backed descriptor spilling.
package taskqueue

import "sync"

// Task is one unit of work handed to a worker -- a candidate sequence
// pair awaiting alignment.
type Task struct {
	I, J int32
}

// Deque is one worker's split task collection: a lock-free local half
// the owner alone pushes to and pops from, and a mutex-guarded shared
// half producers append new work to and thieves steal from. The owner
// thread pops its local side lock-free; thieves and the server
// coordinate the shared side via a single mutex per deque.
type Deque struct {
	local []Task

	mu     sync.Mutex
	shared []Task
	spill  *Spiller
}

// SetSpiller equips the shared half with a Spiller: once the resident
// shared tail grows past the spiller's threshold, the overflow is
// compressed off-heap and reloaded only when the shared half runs dry.
func (d *Deque) SetSpiller(s *Spiller) {
	d.mu.Lock()
	d.spill = s
	d.mu.Unlock()
}

// PushLocal appends to the owner's local half. Owner-only: never
// called concurrently with PopLocal by another goroutine.
func (d *Deque) PushLocal(t Task) {
	d.local = append(d.local, t)
}

// PopLocal removes and returns the oldest local task, so tasks run
// FIFO relative to local insert order. Owner-only.
func (d *Deque) PopLocal() (Task, bool) {
	if len(d.local) == 0 {
		return Task{}, false
	}
	t := d.local[0]
	d.local = d.local[1:]
	return t, true
}

// PushShared appends a new task to the shared half, where producers
// hand off work and both thieves and the owner itself can claim it.
func (d *Deque) PushShared(t Task) {
	d.mu.Lock()
	d.shared = append(d.shared, t)
	if d.spill != nil {
		// A failed spill (gob encode error) keeps the tail resident,
		// trading memory for never losing a task.
		if kept, err := d.spill.MaybeSpill(d.shared); err == nil {
			d.shared = kept
		}
	}
	d.mu.Unlock()
}

// StealShared removes and returns the oldest shared task, for a thief
// (or this deque's own owner once its local half runs dry) to claim.
func (d *Deque) StealShared() (Task, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.shared) == 0 && d.spill != nil {
		if tasks, ok, err := d.spill.Reload(); err == nil && ok {
			d.shared = tasks
		}
	}
	if len(d.shared) == 0 {
		return Task{}, false
	}
	t := d.shared[0]
	d.shared = d.shared[1:]
	return t, true
}

// Len reports the combined outstanding task count across both
// halves.
func (d *Deque) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.local) + len(d.shared)
}
