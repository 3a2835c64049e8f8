package distance

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// workerPool manages a fixed pool of goroutines for signature batches.
// All-pairs and row computations fan out over it; workers receive
// independent slices of the output and never share mutable state.
type workerPool struct {
	numWorkers int
	workCh     chan func()
	stopCh     chan struct{}
	wg         sync.WaitGroup
	closed     atomic.Bool
	submitMu   sync.RWMutex
}

// newWorkerPool creates a worker pool with numWorkers goroutines.
// numWorkers <= 0 defaults to GOMAXPROCS; 1 is semantically identical
// to sequential evaluation.
func newWorkerPool(numWorkers int) *workerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	wp := &workerPool{
		numWorkers: numWorkers,
		workCh:     make(chan func(), numWorkers*2),
		stopCh:     make(chan struct{}),
	}

	wp.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go wp.worker()
	}

	return wp
}

func (wp *workerPool) worker() {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.stopCh:
			// Drain remaining work before exiting
			for {
				select {
				case workFunc, ok := <-wp.workCh:
					if !ok {
						return
					}
					workFunc()
				default:
					return
				}
			}
		case workFunc, ok := <-wp.workCh:
			if !ok {
				return
			}
			workFunc()
		}
	}
}

// submit enqueues a task, honoring context cancellation while blocked
// on backpressure.
func (wp *workerPool) submit(ctx context.Context, task func()) error {
	wp.submitMu.RLock()
	defer wp.submitMu.RUnlock()

	if wp.closed.Load() {
		return context.Canceled
	}

	select {
	case wp.workCh <- task:
		return nil
	case <-wp.stopCh:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close shuts down the worker pool gracefully.
func (wp *workerPool) close() {
	if !wp.closed.CompareAndSwap(false, true) {
		return
	}

	wp.submitMu.Lock()
	close(wp.stopCh)
	close(wp.workCh)
	wp.submitMu.Unlock()

	wp.wg.Wait()
}
