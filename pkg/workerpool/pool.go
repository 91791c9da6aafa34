// Package workerpool runs fan-out work, such as parsing a template corpus, on
// a fixed set of goroutines.
package workerpool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a fixed set of workers fed from a bounded queue.
type Pool struct {
	size  int
	tasks chan func()
	wg    sync.WaitGroup

	mu     sync.RWMutex // guards send vs close on tasks
	closed bool

	panics atomic.Int64
}

// New starts a pool of size workers. size <= 0 uses GOMAXPROCS.
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0)
	}
	p := &Pool{size: size, tasks: make(chan func(), size*4)}
	p.wg.Add(size)
	for range size {
		go p.work()
	}
	return p
}

func (p *Pool) work() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.run(task)
	}
}

func (p *Pool) run(task func()) {
	defer func() {
		if recover() != nil {
			p.panics.Add(1)
		}
	}()
	task()
}

// Submit queues task, blocking while the queue is full. It reports false
// once the pool is closed.
func (p *Pool) Submit(task func()) bool {
	if task == nil {
		return true
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	p.tasks <- task
	return true
}

// Cap returns the number of workers.
func (p *Pool) Cap() int {
	return p.size
}

// Panics returns how many tasks panicked. A panicking task does not stop
// its worker.
func (p *Pool) Panics() int64 {
	return p.panics.Load()
}

// Close drains queued tasks and stops the workers. It is idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()
	p.wg.Wait()
}

// Map runs fn over items on p and returns the results in input order.
// Items whose task panicked, or that could not be queued, keep the zero value.
func Map[T, R any](p *Pool, items []T, fn func(T) R) []R {
	results := make([]R, len(items))
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		ok := p.Submit(func() {
			defer wg.Done()
			results[i] = fn(item)
		})
		if !ok {
			wg.Done()
		}
	}
	wg.Wait()
	return results
}
