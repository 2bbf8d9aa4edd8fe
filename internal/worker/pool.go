package worker

import (
	"context"
	"sync"
)

// Job is a unit of work queued on a Pool.
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is what a Job reports back.
type Result interface {
	GetError() error
}

// Pool runs queued jobs on a fixed set of goroutines. Jobs see the pool's
// context, which is derived from the one passed to NewPool; cancelling it
// makes every worker return after the job it is running.
type Pool struct {
	size  int
	queue chan Job
	out   chan Result

	ctx  context.Context
	stop context.CancelFunc

	running    sync.WaitGroup
	sealQueue  sync.Once
	sealOutput sync.Once
}

// NewPool returns a pool of size workers. Sizes below one are raised to one.
func NewPool(ctx context.Context, size int) *Pool {
	if ctx == nil {
		ctx = context.Background()
	}
	size = max(size, 1)
	poolCtx, stop := context.WithCancel(ctx)
	return &Pool{
		size:  size,
		queue: make(chan Job, 2*size),
		out:   make(chan Result, 2*size),
		ctx:   poolCtx,
		stop:  stop,
	}
}

// Start launches the workers. Results is closed once all of them exit.
func (p *Pool) Start() {
	p.running.Add(p.size)
	for range p.size {
		go p.loop()
	}
	go func() {
		p.running.Wait()
		p.sealResults()
	}()
}

func (p *Pool) loop() {
	defer p.running.Done()
	for {
		var job Job
		select {
		case <-p.ctx.Done():
			return
		case next, open := <-p.queue:
			if !open {
				return
			}
			job = next
		}
		if !p.emit(job.Execute(p.ctx)) {
			return
		}
	}
}

func (p *Pool) emit(r Result) bool {
	select {
	case p.out <- r:
		return true
	case <-p.ctx.Done():
		return false
	}
}

// Submit queues job and reports whether it was accepted. It returns false
// once the pool's context is done.
func (p *Pool) Submit(job Job) bool {
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case p.queue <- job:
		return true
	case <-p.ctx.Done():
		return false
	}
}

// Close marks the queue complete. Workers drain what is queued and exit.
// Calling it more than once is safe.
func (p *Pool) Close() {
	p.sealQueue.Do(func() { close(p.queue) })
}

// Results streams job results in completion order.
func (p *Pool) Results() <-chan Result {
	return p.out
}

// Wait closes the queue and collects every remaining result.
func (p *Pool) Wait() []Result {
	p.Close()
	var collected []Result
	for r := range p.out {
		collected = append(collected, r)
	}
	p.stop()
	return collected
}

// Shutdown cancels the pool and blocks until every worker has returned.
func (p *Pool) Shutdown() {
	p.stop()
	p.running.Wait()
	p.sealResults()
}

func (p *Pool) sealResults() {
	p.sealOutput.Do(func() { close(p.out) })
}
