// Package worker runs a function over many inputs with a fixed number of
// goroutines.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"tweetcloud/pkg/logger"
)

// ErrPoolStopped is returned by Submit after the pool shut down
var ErrPoolStopped = errors.New("worker pool is shutting down")

// Job is a single input. Index identifies it in the results.
type Job[T any] struct {
	Index int
	Input T
}

// Result is the output of one job
type Result[R any] struct {
	Index    int
	Output   R
	Duration time.Duration
}

// Pool manages concurrent workers applying one function to every job
type Pool[T, R any] struct {
	numWorkers  int
	jobQueue    chan Job[T]
	resultQueue chan Result[R]
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	process     func(T) R
	logger      logger.Logger
}

// NewPool creates a pool of numWorkers workers. The pool stops taking and
// delivering work once ctx is cancelled.
func NewPool[T, R any](ctx context.Context, numWorkers int, process func(T) R, log logger.Logger) *Pool[T, R] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	ctx, cancel := context.WithCancel(ctx)

	return &Pool[T, R]{
		numWorkers:  numWorkers,
		jobQueue:    make(chan Job[T], numWorkers*2),
		resultQueue: make(chan Result[R], numWorkers),
		ctx:         ctx,
		cancel:      cancel,
		process:     process,
		logger:      log,
	}
}

// Start starts all workers
func (p *Pool[T, R]) Start() {
	p.logger.DebugWithFields("Starting worker pool", map[string]interface{}{
		"num_workers": p.numWorkers,
	})

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop closes the job queue, waits for the workers to drain it and closes
// the result channel. Results must be consumed concurrently.
func (p *Pool[T, R]) Stop() {
	close(p.jobQueue)
	p.wg.Wait()
	p.cancel()
	close(p.resultQueue)

	p.logger.Debug("Worker pool stopped")
}

// Submit queues a job, blocking while the queue is full. It must not be
// called concurrently with Stop.
func (p *Pool[T, R]) Submit(job Job[T]) error {
	if p.ctx.Err() != nil {
		return ErrPoolStopped
	}
	select {
	case p.jobQueue <- job:
		return nil
	case <-p.ctx.Done():
		return ErrPoolStopped
	}
}

// Results returns the result channel
func (p *Pool[T, R]) Results() <-chan Result[R] {
	return p.resultQueue
}

// GetQueueSize returns the current number of jobs in the queue
func (p *Pool[T, R]) GetQueueSize() int {
	return len(p.jobQueue)
}

// GetActiveWorkers returns the number of workers
func (p *Pool[T, R]) GetActiveWorkers() int {
	return p.numWorkers
}

func (p *Pool[T, R]) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobQueue {
		select {
		case <-p.ctx.Done():
			p.logger.DebugWithFields("Worker stopping - context cancelled", map[string]interface{}{
				"worker_id": id,
			})
			return
		default:
		}

		start := time.Now()
		result := Result[R]{
			Index:  job.Index,
			Output: p.process(job.Input),
		}
		result.Duration = time.Since(start)

		select {
		case p.resultQueue <- result:
		case <-p.ctx.Done():
			return
		}
	}
}

// Map applies process to every input with numWorkers workers and returns
// the outputs in input order. It fails only when ctx is cancelled.
func Map[T, R any](ctx context.Context, numWorkers int, inputs []T, process func(T) R, log logger.Logger) ([]R, error) {
	pool := NewPool(ctx, numWorkers, process, log)
	pool.Start()

	go func() {
		defer pool.Stop()
		for i, in := range inputs {
			if err := pool.Submit(Job[T]{Index: i, Input: in}); err != nil {
				return
			}
		}
	}()

	outputs := make([]R, len(inputs))
	done := 0
	for r := range pool.Results() {
		outputs[r.Index] = r.Output
		done++
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if done != len(inputs) {
		return nil, ErrPoolStopped
	}
	return outputs, nil
}
