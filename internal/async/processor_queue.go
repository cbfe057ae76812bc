package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/supplier-invoices/internal/common"
	"github.com/joseph-ayodele/supplier-invoices/internal/entity"
	"github.com/joseph-ayodele/supplier-invoices/internal/pipeline"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

// Processor is implemented by pipeline.Processor.
type Processor interface {
	Process(ctx context.Context, raw []byte, opts pipeline.Options) (*entity.ProcessResult, error)
}

type ProcessorQueue struct {
	proc     Processor
	logger   *slog.Logger
	workers  int
	timeout  time.Duration
	limiter  *rate.Limiter
	onResult func(Result)

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	// senders hold mu for reading; Shutdown takes it for writing before
	// closing ch, after closing done to release senders blocked on a full ch.
	mu       sync.RWMutex
	closed   bool
	done     chan struct{}
	doneOnce sync.Once
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithRateLimit caps how many jobs per second reach the database.
func WithRateLimit(perSecond float64) Option {
	return func(q *ProcessorQueue) {
		if perSecond > 0 {
			q.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithResultHandler registers fn to receive every job outcome. fn is called
// from worker goroutines and must be safe for concurrent use.
func WithResultHandler(fn func(Result)) Option {
	return func(q *ProcessorQueue) {
		q.onResult = fn
	}
}

func NewProcessorQueue(proc Processor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 30 * time.Second,
		ch:      make(chan Job, 64),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)

				for job := range q.ch {
					q.run(workerID, job)
				}

				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	if job.TraceID != "" {
		ctx = common.WithRequestID(ctx, job.TraceID)
	}

	var (
		res *entity.ProcessResult
		err error
	)
	if q.limiter != nil {
		err = q.limiter.Wait(ctx)
	}
	if err == nil {
		res, err = q.proc.Process(ctx, job.Payload, job.Options)
	}

	if err != nil {
		q.logger.Error("processing failed", "worker_id", workerID, "source", job.Source, "error", err)
	} else {
		q.logger.Info("processed invoice", "worker_id", workerID, "source", job.Source,
			"invoice_id", res.InvoiceID, "waited", time.Since(job.SubmittedAt).Round(time.Millisecond))
	}
	if q.onResult != nil {
		q.onResult(Result{Job: job, Result: res, Err: err})
	}
}

func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "source", job.Source)
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		q.logger.Debug("queued invoice for processing", "source", job.Source)
		return nil
	default:
	}

	q.logger.Warn("queue full, applying backpressure", "source", job.Source)
	select {
	case q.ch <- job:
		return nil
	case <-q.done:
		q.logger.Warn("cannot enqueue: queue is shutting down", "source", job.Source)
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.doneOnce.Do(func() { close(q.done) })

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
