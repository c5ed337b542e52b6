// internal/miner/pool.go
package miner

import "runtime"

// workerPool runs CPU hashing tasks on a fixed set of goroutines. Tasks run
// to completion. Within a round the request-for-work protocol keeps one task
// per worker in flight; requests for work from a preempted round still
// schedule tasks, so after a preemption more tasks than workers can be
// queued and Spawn blocks while the buffer is full.
type workerPool struct {
	tasks   chan func()
	threads int
}

func newWorkerPool(threads int, pinning bool) *workerPool {
	p := &workerPool{
		tasks:   make(chan func(), threads),
		threads: threads,
	}
	for i := 0; i < threads; i++ {
		go p.worker(i, pinning)
	}
	return p
}

func (p *workerPool) worker(id int, pinning bool) {
	if pinning {
		runtime.LockOSThread()
		if err := pinThread(id); err != nil {
			log.Warnf("cpu %d: thread pinning failed: %v", id, err)
		}
	}
	for task := range p.tasks {
		task()
	}
}

// Spawn hands a task to the pool.
func (p *workerPool) Spawn(task func()) {
	p.tasks <- task
}

// Close stops the workers once queued tasks drain.
func (p *workerPool) Close() {
	close(p.tasks)
}
