package workers

import (
	"sync"
	"sync/atomic"

	"github.com/BookHive-Network/notifier/internal/logger"
	"go.uber.org/zap"
)

// WorkerPool manages a pool of workers that execute jobs concurrently.
type WorkerPool struct {
	name    string
	jobCh   chan func()
	wg      sync.WaitGroup // running workers
	mu      sync.RWMutex   // guards stopped against concurrent Submit
	stopped bool

	dropped  atomic.Int64
	executed atomic.Int64
	logger   *zap.Logger
}

// NewWorkerPool initializes a worker pool with a fixed number of workers.
func NewWorkerPool(name string, workerCount, jobBufferSize int) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	if jobBufferSize < 0 {
		jobBufferSize = 0
	}
	wp := &WorkerPool{
		name:   name,
		jobCh:  make(chan func(), jobBufferSize),
		logger: logger.New("workers").With(zap.String("pool", name)),
	}
	wp.wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go wp.worker()
	}
	return wp
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()
	for job := range wp.jobCh {
		wp.run(job)
	}
}

func (wp *WorkerPool) run(job func()) {
	defer func() {
		if r := recover(); r != nil {
			wp.logger.Error("Recovered from panic in job", zap.Any("panic", r))
		}
	}()
	job()
	wp.executed.Add(1)
}

// Submit enqueues a job without blocking. It returns false when the queue
// is full or the pool has been stopped.
func (wp *WorkerPool) Submit(job func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.stopped {
		wp.dropped.Add(1)
		return false
	}
	select {
	case wp.jobCh <- job:
		return true
	default:
		wp.dropped.Add(1)
		return false
	}
}

// Stop refuses new jobs, runs the queued ones and waits for the workers.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if wp.stopped {
		wp.mu.Unlock()
		return
	}
	wp.stopped = true
	close(wp.jobCh)
	wp.mu.Unlock()

	wp.wg.Wait()
	wp.logger.Debug("Worker pool stopped",
		zap.Int64("executed", wp.executed.Load()),
		zap.Int64("dropped", wp.dropped.Load()))
}

// Pending is the number of queued jobs.
func (wp *WorkerPool) Pending() int { return len(wp.jobCh) }

// Capacity is the queue size.
func (wp *WorkerPool) Capacity() int { return cap(wp.jobCh) }

// Dropped is the number of jobs refused since start.
func (wp *WorkerPool) Dropped() int64 { return wp.dropped.Load() }

// Executed is the number of jobs completed since start.
func (wp *WorkerPool) Executed() int64 { return wp.executed.Load() }
