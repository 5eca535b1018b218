package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type EmailJob struct {
	GmailID string
}

// Executor processes one mailbox message.
type Executor interface {
	Execute(ctx context.Context, gmailID string) error
}

type Pool struct {
	workers  int
	jobs     chan EmailJob
	executor Executor
	logger   *zap.Logger
	pause    time.Duration
	wg       sync.WaitGroup
}

// NewPool creates a pool. pause is the delay each worker takes between jobs to stay
// under the remote service's rate limits.
func NewPool(workers int, executor Executor, pause time.Duration, logger *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		workers:  workers,
		jobs:     make(chan EmailJob, 100),
		executor: executor,
		logger:   logger,
		pause:    pause,
	}
}

func (p *Pool) Start(ctx context.Context) {
	p.logger.Info("worker pool started", zap.Int("workers", p.workers))

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Submit queues a job, blocking while the queue is full. It gives up when ctx is done.
func (p *Pool) Submit(ctx context.Context, job EmailJob) error {
	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for in-flight ones. Submit must not be called
// afterwards.
func (p *Pool) Shutdown() {
	close(p.jobs)
	p.wg.Wait()
	p.logger.Info("worker pool shut down")
}

func (p *Pool) worker(ctx context.Context, workerID int) {
	defer p.wg.Done()
	log := p.logger.With(zap.Int("worker", workerID))

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}

			if err := p.executor.Execute(ctx, job.GmailID); err != nil {
				log.Error("process message", zap.String("gmail_id", job.GmailID), zap.Error(err))
			}

			if p.pause > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(p.pause):
				}
			}
		}
	}
}
