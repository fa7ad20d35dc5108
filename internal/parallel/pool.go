// Package parallel provides concurrent execution of puzzle-generation
// attempts. Generation is a rejection-sampling loop (seed, solve,
// strip, verify), so independent attempts can race on separate
// goroutines; the first attempt to produce a valid instance wins and
// the rest are cancelled.
package parallel

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// WorkerPool manages a pool of goroutines for running generation
// attempts. It provides controlled concurrency with backpressure:
// Submit blocks when every worker is busy and the queue is full.
type WorkerPool struct {
	maxWorkers   int
	taskChan     chan func()
	workerWg     sync.WaitGroup
	shutdownChan chan struct{}
	once         sync.Once
}

// NewWorkerPool creates a new worker pool with the specified number of
// workers. If maxWorkers is 0 or negative, it defaults to the number
// of CPU cores.
func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}

	pool := &WorkerPool{
		maxWorkers:   maxWorkers,
		taskChan:     make(chan func(), maxWorkers*2),
		shutdownChan: make(chan struct{}),
	}

	for i := 0; i < maxWorkers; i++ {
		pool.workerWg.Add(1)
		go pool.worker()
	}

	return pool
}

func (wp *WorkerPool) worker() {
	defer wp.workerWg.Done()

	for {
		select {
		case task := <-wp.taskChan:
			if task != nil {
				task()
			}
		case <-wp.shutdownChan:
			return
		}
	}
}

// Submit submits a task to the worker pool for execution. If the pool
// is full, this call blocks until a worker becomes available, the
// context is cancelled, or the pool shuts down.
func (wp *WorkerPool) Submit(ctx context.Context, task func()) error {
	// Checked up front so a Submit after Shutdown errs even when the
	// task buffer still has room.
	select {
	case <-wp.shutdownChan:
		return ErrPoolShutdown
	default:
	}
	select {
	case wp.taskChan <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-wp.shutdownChan:
		return ErrPoolShutdown
	}
}

// Shutdown gracefully shuts down the worker pool, waiting for all
// currently executing tasks to complete.
func (wp *WorkerPool) Shutdown() {
	// taskChan is deliberately left open: a Submit racing with
	// Shutdown must take the shutdownChan case, never panic sending
	// on a closed channel. Workers exit via shutdownChan.
	wp.once.Do(func() {
		close(wp.shutdownChan)
		wp.workerWg.Wait()
	})
}

// ErrPoolShutdown is returned when trying to submit tasks to a
// shutdown pool.
var ErrPoolShutdown = fmt.Errorf("worker pool has been shutdown")

// FirstResult races numAttempts invocations of attempt across the pool
// and returns the first successful result. Each invocation receives a
// distinct attempt number (useful for deriving per-attempt random
// seeds) and a context that is cancelled as soon as any attempt
// succeeds. If every attempt fails, ok is false.
func FirstResult[T any](ctx context.Context, wp *WorkerPool, numAttempts int, attempt func(ctx context.Context, n int) (T, bool)) (result T, ok bool) {
	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		value T
		ok    bool
	}
	results := make(chan outcome, numAttempts)

	submitted := 0
	for n := 0; n < numAttempts; n++ {
		n := n
		err := wp.Submit(raceCtx, func() {
			v, ok := attempt(raceCtx, n)
			results <- outcome{v, ok}
		})
		if err != nil {
			break
		}
		submitted++
	}

	for i := 0; i < submitted; i++ {
		r := <-results
		if r.ok {
			cancel()
			// Stragglers finish into the buffer, which holds room
			// for every attempt, so their sends never block.
			return r.value, true
		}
	}
	var zero T
	return zero, false
}
