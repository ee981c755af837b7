package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("dispatch queue closed")

var queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "despawner_dispatch_queue_depth",
	Help: "Number of moderation jobs waiting for the worker",
})

var jobCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "despawner_dispatch_jobs_total",
	Help: "Number of moderation jobs run by kind",
}, []string{"kind"})

type Job struct {
	Kind    string
	GuildID string
	Run     func(ctx context.Context)
}

// Queue runs jobs one at a time in submission order on a single worker, so
// moderation work never runs in parallel.
type Queue struct {
	mu      sync.RWMutex
	closed  bool
	senders sync.WaitGroup
	jobs    chan Job
	quit    chan struct{}
	done    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *zap.Logger
}

func NewQueue(size int, logger *zap.Logger) *Queue {
	if size <= 0 {
		size = 256
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		jobs:   make(chan Job, size),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
	go q.run()
	return q
}

// Submit enqueues a job, blocking while the queue is full. A blocked Submit
// returns ErrClosed once Close is called.
func (q *Queue) Submit(ctx context.Context, job Job) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return ErrClosed
	}
	q.senders.Add(1)
	q.mu.RUnlock()
	defer q.senders.Done()

	select {
	case q.jobs <- job:
		queueDepth.Inc()
		return nil
	case <-q.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting jobs and waits for the queued ones to finish. When
// ctx ends first the running job's context is cancelled and the remaining
// jobs are dropped.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	first := !q.closed
	q.closed = true
	q.mu.Unlock()

	if first {
		close(q.quit)
		// pending senders leave promptly once quit is closed
		q.senders.Wait()
		close(q.jobs)
	}

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		q.cancel()
		<-q.done
		return ctx.Err()
	}
}

func (q *Queue) run() {
	defer close(q.done)
	for job := range q.jobs {
		queueDepth.Dec()
		if q.ctx.Err() != nil {
			continue
		}
		q.execute(job)
	}
}

func (q *Queue) execute(job Job) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("job panicked",
				zap.String("kind", job.Kind),
				zap.String("guild_id", job.GuildID),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	jobCount.WithLabelValues(job.Kind).Inc()
	job.Run(q.ctx)
}
