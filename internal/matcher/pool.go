// internal/matcher/pool.go
package matcher

import (
	"runtime"
	"sync"
)

// Pool is a fixed set of worker goroutines shared by every file a process
// handles.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup
	once  sync.Once
	size  int
}

// NewPool starts n workers (n <= 0 uses runtime.NumCPU()).
func NewPool(n int) *Pool {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	p := &Pool{tasks: make(chan func(), n*2), size: n}
	p.wg.Add(n)
	for w := 0; w < n; w++ {
		go func() {
			defer p.wg.Done()
			for task := range p.tasks {
				task()
			}
		}()
	}
	return p
}

// Size is the number of workers.
func (p *Pool) Size() int { return p.size }

// Submit queues task, blocking while all workers are busy and the queue is full.
func (p *Pool) Submit(task func()) { p.tasks <- task }

// Close stops accepting tasks and waits for running ones.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.tasks)
		p.wg.Wait()
	})
}
