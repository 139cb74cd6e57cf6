// Package glthread runs functions on the one OS thread that owns the GL
// context and the window system connection.
package glthread

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

var ErrStopped = errors.New("gl thread queue stopped")

// DefaultPollInterval bounds how long the queue sleeps between window
// system polls when there is no work.
const DefaultPollInterval = 5 * time.Millisecond

type funcRun struct {
	f func()
	// receives true once f ran, or is closed if the queue stopped first
	done chan bool
}

type Queue struct {
	mu      sync.Mutex
	pending []funcRun
	wake    chan struct{}

	tid     atomic.Int64
	stopped atomic.Bool

	PollInterval time.Duration
}

func New() *Queue {
	q := &Queue{
		wake:         make(chan struct{}, 1),
		PollInterval: DefaultPollInterval,
	}
	q.tid.Store(-1)
	return q
}

// Post queues f and returns immediately. Tasks run in the order they were
// posted.
func (q *Queue) Post(f func()) {
	q.push(funcRun{f: f})
}

// Send runs f on the queue thread and waits for it to finish. Calling Send
// from the queue thread runs f directly.
func (q *Queue) Send(f func()) error {
	if q.OnThread() {
		f()
		return nil
	}
	if q.stopped.Load() {
		return ErrStopped
	}
	done := make(chan bool, 1)
	q.push(funcRun{f: f, done: done})
	if ran := <-done; !ran {
		return ErrStopped
	}
	return nil
}

func (q *Queue) push(r funcRun) {
	q.mu.Lock()
	if q.stopped.Load() {
		q.mu.Unlock()
		if r.done != nil {
			close(r.done)
		}
		return
	}
	q.pending = append(q.pending, r)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// OnThread reports whether the caller runs on the queue thread.
func (q *Queue) OnThread() bool {
	tid := q.tid.Load()
	return tid >= 0 && tid == currentThreadID()
}

func (q *Queue) drain() int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, r := range batch {
		r.f()
		if r.done != nil {
			r.done <- true
		}
	}
	return len(batch)
}

// Run executes queued tasks on the calling goroutine until ctx is done,
// calling poll (typically glfw.PollEvents) between batches. It must be
// called from the thread that created the window; the goroutine is locked
// to its OS thread for the duration.
func (q *Queue) Run(ctx context.Context, poll func()) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	q.tid.Store(currentThreadID())
	defer q.stop()

	interval := q.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		q.drain()
		if poll != nil {
			poll()
		}

		timer.Reset(interval)
		select {
		case <-ctx.Done():
			q.drain()
			return ctx.Err()
		case <-q.wake:
		case <-timer.C:
		}
	}
}

// stop refuses new work and unblocks Send callers whose tasks never ran.
func (q *Queue) stop() {
	q.mu.Lock()
	q.stopped.Store(true)
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()
	q.tid.Store(-1)

	for _, r := range batch {
		if r.done != nil {
			close(r.done)
		}
	}
}
