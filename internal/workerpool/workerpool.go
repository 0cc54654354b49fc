// Package workerpool is a bounded executor: a fixed set of workers
// draining a job queue. The server can dispatch per-connection loops
// through it instead of spawning a goroutine per accept.
package workerpool

import (
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

var ErrClosed = errors.New("workerpool: closed")

type Pool struct {
	mu     sync.RWMutex
	closed bool
	jobs   chan func()
	group  *errgroup.Group
}

// New starts workers goroutines over a queue of queueSize pending
// jobs.
func New(workers, queueSize int) *Pool {
	p := &Pool{
		jobs:  make(chan func(), queueSize),
		group: &errgroup.Group{},
	}
	for range workers {
		p.group.Go(func() error {
			for job := range p.jobs {
				job()
			}
			return nil
		})
	}
	return p
}

// Submit blocks while the queue is full. After Shutdown it returns
// ErrClosed instead of enqueueing.
func (p *Pool) Submit(job func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	p.jobs <- job
	return nil
}

// Shutdown closes the submission side, drains in-flight jobs and joins
// the workers.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	_ = p.group.Wait()
}
