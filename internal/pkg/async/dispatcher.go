package async

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Job is one fire-and-forget unit of work. The context carries the
// per-job deadline; work that cannot finish in time must return the
// context's error.
type Job struct {
	Name    string
	Execute func(ctx context.Context) error
}

// Dispatcher runs fire-and-forget jobs on a fixed worker pool with a
// bounded queue and a per-job timeout. Callers never wait on a job's
// outcome: failures and timeouts are logged and the job is dropped, not
// retried. A full queue also drops the job, so a slow downstream cannot
// grow memory without bound.
type Dispatcher struct {
	logger  *slog.Logger
	timeout time.Duration
	jobs    chan Job

	wg      sync.WaitGroup
	pending sync.WaitGroup
	cancel  context.CancelFunc

	mu      sync.Mutex
	started bool
}

func NewDispatcher(logger *slog.Logger, workers, queueSize int, timeout time.Duration) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		logger:  logger,
		timeout: timeout,
		jobs:    make(chan Job, queueSize),
		cancel:  cancel,
	}

	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
	d.started = true

	return d
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case job, ok := <-d.jobs:
			if !ok {
				return
			}
			d.run(job)
		case <-ctx.Done():
			// Drain what is already queued before exiting so accepted
			// jobs are not silently lost on shutdown.
			for {
				select {
				case job, ok := <-d.jobs:
					if !ok {
						return
					}
					d.run(job)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) run(job Job) {
	defer d.pending.Done()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Panic recovered in dispatched job",
				slog.String("job", job.Name),
				slog.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := job.Execute(ctx); err != nil {
		d.logger.Error("Dispatched job failed",
			slog.String("job", job.Name),
			slog.Any("error", err))
	}
}

// Dispatch enqueues a job without blocking. Returns false when the
// queue is full or the dispatcher is stopped; the job is dropped and
// the caller is expected to treat that as acceptable loss. The send
// happens under the mutex so Stop cannot close the queue mid-send.
func (d *Dispatcher) Dispatch(job Job) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return false
	}

	d.pending.Add(1)
	select {
	case d.jobs <- job:
		return true
	default:
		d.pending.Done()
		d.logger.Warn("Dispatcher queue full, dropping job", slog.String("job", job.Name))
		return false
	}
}

// Stop closes the queue and waits for in-flight and queued jobs to
// finish. Implements the cartridge.BackgroundWorker stop contract.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.started = false
	close(d.jobs)
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
}

// Start is a no-op: workers spin up in NewDispatcher. Present so a
// Dispatcher satisfies cartridge.BackgroundWorker.
func (d *Dispatcher) Start() error {
	return nil
}

// Flush blocks until every accepted job has finished. Intended for tests.
func (d *Dispatcher) Flush() {
	d.pending.Wait()
}
